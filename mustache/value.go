package mustache

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// ValueKind identifies the variant held by a [Value].
type ValueKind uint8

const (
	KindAbsent ValueKind = iota // name did not resolve
	KindNull
	KindBool
	KindNumber
	KindString
	KindList
	KindMap
	KindLambda
)

var valueKindNames = [...]string{
	KindAbsent: "absent",
	KindNull:   "null",
	KindBool:   "bool",
	KindNumber: "number",
	KindString: "string",
	KindList:   "list",
	KindMap:    "map",
	KindLambda: "lambda",
}

func (k ValueKind) String() string {
	if int(k) < len(valueKindNames) {
		return valueKindNames[k]
	}

	return fmt.Sprintf("ValueKind(%d)", uint8(k))
}

// RenderFunc renders text as a template against the context of the section
// that received it.
type RenderFunc func(text string) (string, error)

// Value is a node of the data graph a template is rendered against.
// The zero Value is absent.
type Value struct {
	kind ValueKind
	b    bool
	num  float64
	str  string // string contents, or the decimal form of a number
	list []Value
	m    map[string]Value
	fn   func() (any, error)
	sec  func(string, RenderFunc) (string, error)
}

// Null returns the null value.
func Null() Value { return Value{kind: KindNull} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number returns a numeric value.
func Number(f float64) Value {
	return Value{kind: KindNumber, num: f, str: formatNumber(f)}
}

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// List returns a list value holding elems.
func List(elems ...Value) Value {
	if elems == nil {
		elems = []Value{}
	}

	return Value{kind: KindList, list: elems}
}

// Map returns a map value. A nil m is an empty map.
func Map(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}

	return Value{kind: KindMap, m: m}
}

// Func returns a lambda invoked without arguments.
//
// As a variable, a string result is rendered as a template against the
// current context; any other result is converted with [ValueOf] and
// rendered. As a section, the result (converted with ValueOf) becomes the
// section's value.
func Func(fn func() (any, error)) Value {
	return Value{kind: KindLambda, fn: fn}
}

// SectionFunc returns a lambda that, used as a section, receives the
// section's unrendered inner text and a callback rendering text against the
// current context. Its result is written verbatim.
func SectionFunc(fn func(text string, render RenderFunc) (string, error)) Value {
	return Value{kind: KindLambda, sec: fn}
}

func numberInt(i int64) Value {
	return Value{kind: KindNumber, num: float64(i), str: strconv.FormatInt(i, 10)}
}

func numberUint(u uint64) Value {
	return Value{kind: KindNumber, num: float64(u), str: strconv.FormatUint(u, 10)}
}

// numberText keeps an integer literal's digits exactly and normalizes any
// other numeric literal.
func numberText(s string) (Value, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Value{}, false
	}

	if strings.ContainsAny(s, ".eE") {
		return Number(f), true
	}

	return Value{kind: KindNumber, num: f, str: strings.TrimPrefix(s, "+")}, true
}

// Kind returns the variant held by v.
func (v Value) Kind() ValueKind { return v.kind }

// Truthy reports whether a section over v renders. Absent, null, false, the
// empty string and the empty list are falsy; everything else, including
// zero and lambdas, is truthy.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindAbsent, KindNull:
		return false
	case KindBool:
		return v.b
	case KindString:
		return v.str != ""
	case KindList:
		return len(v.list) > 0
	default:
		return true
	}
}

// Float returns the numeric value of v, or 0 if v is not a number.
func (v Value) Float() float64 { return v.num }

// Elems returns the elements of a list value.
func (v Value) Elems() []Value { return v.list }

// Lookup returns the member key of a map value.
func (v Value) Lookup(key string) (Value, bool) {
	if v.kind != KindMap {
		return Value{}, false
	}

	m, ok := v.m[key]

	return m, ok
}

// Len returns the number of elements in a list or members in a map.
func (v Value) Len() int {
	switch v.kind {
	case KindList:
		return len(v.list)
	case KindMap:
		return len(v.m)
	default:
		return 0
	}
}

// String returns the text a variable tag renders for v: empty for absent,
// null, maps and lambdas; "true" or "false"; the shortest decimal form of a
// number; a string's contents; and a list's elements joined with ",".
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)

	case KindNumber, KindString:
		return v.str

	case KindList:
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = e.String()
		}

		return strings.Join(parts, ",")

	default:
		return ""
	}
}

// Interface converts v back to plain Go data: nil, bool, float64, string,
// []any and map[string]any. Lambdas convert to nil.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b

	case KindNumber:
		return v.num

	case KindString:
		return v.str

	case KindList:
		out := make([]any, len(v.list))
		for i, e := range v.list {
			out[i] = e.Interface()
		}

		return out

	case KindMap:
		out := make(map[string]any, len(v.m))
		for k, e := range v.m {
			out[k] = e.Interface()
		}

		return out

	default:
		return nil
	}
}

// formatNumber renders f in its shortest round-tripping decimal form,
// switching to exponent notation only for very large or very small
// magnitudes ("100", "1.5", "1e+21", "1e-7").
func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}

	if a := math.Abs(f); a != 0 && (a >= 1e21 || a < 1e-6) {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		mant, exp, _ := strings.Cut(s, "e")
		sign, digits := exp[:1], strings.TrimLeft(exp[1:], "0")

		return mant + "e" + sign + digits
	}

	return strconv.FormatFloat(f, 'f', -1, 64)
}

var (
	stringerType = reflect.TypeFor[fmt.Stringer]()
	byteType     = reflect.TypeFor[byte]()
)

// ValueOf converts Go data to a Value.
//
// Supported inputs are nil, booleans, every integer and floating-point type,
// strings, []byte (as a string), [json.Number], slices and arrays, maps
// (keys formatted with fmt), structs, pointers and interfaces, [fmt.Stringer]
// implementations, and Value itself. Struct fields are exported fields named
// by a `mustache:"name"` tag, else a `json:"name"` tag, else the field name;
// a tag of "-" skips the field. Embedded structs contribute their fields.
// A pointer cycle converts to null at the point it closes.
//
// Functions with the following signatures convert to lambdas:
//
//	func() string
//	func() (string, error)
//	func() any
//	func() (any, error)
//	func(string, RenderFunc) string
//	func(string, RenderFunc) (string, error)
//
// Any other function, channel or complex number converts to null.
func ValueOf(data any) Value {
	c := converter{seen: make(map[visit]struct{})}

	return c.convert(reflect.ValueOf(data))
}

type visit struct {
	ptr uintptr
	typ reflect.Type
	n   int
}

type converter struct {
	seen map[visit]struct{}
}

func (c *converter) convert(rv reflect.Value) Value {
	if !rv.IsValid() {
		return Null()
	}

	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func:
		if rv.IsNil() {
			if rv.Kind() == reflect.Slice {
				return List()
			}

			return Null()
		}
	}

	if rv.CanInterface() {
		if v, ok := special(rv.Interface()); ok {
			return v
		}
	}

	switch rv.Kind() {
	case reflect.Bool:
		return Bool(rv.Bool())

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return numberInt(rv.Int())

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64, reflect.Uintptr:
		return numberUint(rv.Uint())

	case reflect.Float32:
		// Shortest float32 digits, so float32(0.1) renders as "0.1".
		f, _ := strconv.ParseFloat(strconv.FormatFloat(rv.Float(), 'g', -1, 32), 64)

		return Number(f)

	case reflect.Float64:
		return Number(rv.Float())

	case reflect.String:
		return String(rv.String())

	case reflect.Interface:
		return c.convert(rv.Elem())

	case reflect.Pointer:
		return c.enter(rv, 0, func() Value { return c.convert(rv.Elem()) })

	case reflect.Slice:
		if rv.Type().Elem() == byteType {
			return String(string(rv.Bytes()))
		}

		return c.enter(rv, rv.Len(), func() Value { return c.elems(rv) })

	case reflect.Array:
		return c.elems(rv)

	case reflect.Map:
		return c.enter(rv, 0, func() Value { return c.mapping(rv) })

	case reflect.Struct:
		m := make(map[string]Value)
		c.fields(rv, m)

		return Map(m)

	default:
		return Null()
	}
}

// enter converts a reference value unless it is already being converted
// further up the current path.
func (c *converter) enter(rv reflect.Value, n int, fn func() Value) Value {
	key := visit{ptr: rv.Pointer(), typ: rv.Type(), n: n}
	if _, ok := c.seen[key]; ok {
		return Null()
	}

	c.seen[key] = struct{}{}
	defer delete(c.seen, key)

	return fn()
}

func (c *converter) elems(rv reflect.Value) Value {
	out := make([]Value, rv.Len())
	for i := range out {
		out[i] = c.convert(rv.Index(i))
	}

	return List(out...)
}

func (c *converter) mapping(rv reflect.Value) Value {
	out := make(map[string]Value, rv.Len())

	iter := rv.MapRange()
	for iter.Next() {
		k := iter.Key()

		var key string
		if k.Kind() == reflect.String {
			key = k.String()
		} else {
			key = fmt.Sprint(k.Interface())
		}

		out[key] = c.convert(iter.Value())
	}

	return Map(out)
}

// fields adds the exported fields of struct rv to m. Fields declared
// directly on rv win over those promoted from embedded structs.
func (c *converter) fields(rv reflect.Value, m map[string]Value) {
	rt := rv.Type()

	var embedded []reflect.Value

	for i := range rt.NumField() {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}

		name, tagged := fieldName(f)
		if name == "-" {
			continue
		}

		fv := rv.Field(i)

		if f.Anonymous && !tagged {
			ev := fv
			if ev.Kind() == reflect.Pointer {
				if ev.IsNil() {
					continue
				}

				ev = ev.Elem()
			}

			if ev.Kind() == reflect.Struct && !ev.Type().Implements(stringerType) {
				embedded = append(embedded, ev)

				continue
			}
		}

		m[name] = c.convert(fv)
	}

	for _, ev := range embedded {
		promoted := make(map[string]Value)
		c.fields(ev, promoted)

		for k, v := range promoted {
			if _, ok := m[k]; !ok {
				m[k] = v
			}
		}
	}
}

// fieldName returns the data name of f and whether a tag supplied it.
func fieldName(f reflect.StructField) (string, bool) {
	for _, key := range [...]string{"mustache", "json"} {
		tag, ok := f.Tag.Lookup(key)
		if !ok {
			continue
		}

		name, _, _ := strings.Cut(tag, ",")
		if name != "" {
			return name, true
		}
	}

	return f.Name, false
}

// special converts the types ValueOf recognizes by identity rather than by
// reflection kind.
func special(data any) (Value, bool) {
	switch d := data.(type) {
	case Value:
		return d, true

	case *Value:
		return *d, true

	case json.Number:
		if v, ok := numberText(string(d)); ok {
			return v, true
		}

		return String(string(d)), true

	case []byte:
		return String(string(d)), true

	case func() string:
		return Func(func() (any, error) { return d(), nil }), true

	case func() (string, error):
		return Func(func() (any, error) { return d() }), true

	case func() any:
		return Func(func() (any, error) { return d(), nil }), true

	case func() (any, error):
		return Func(d), true

	case func(string, RenderFunc) string:
		return SectionFunc(func(text string, render RenderFunc) (string, error) {
			return d(text, render), nil
		}), true

	case func(string, RenderFunc) (string, error):
		return SectionFunc(d), true

	case fmt.Stringer:
		return String(d.String()), true
	}

	return Value{}, false
}
