package mustache

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/valyala/bytebufferpool"
)

type M = map[string]any

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		tmpl     string
		data     any
		partials Partials
		want     string
	}{
		{"text only", "plain text\n", nil, nil, "plain text\n"},
		{"variable", "Hello {{name}}", M{"name": "Fauzan"}, nil, "Hello Fauzan"},
		{"escaped", "{{x}}", M{"x": "<b>"}, nil, "&lt;b&gt;"},
		{"escaped quotes", "{{x}}", M{"x": `& " '`}, nil, "&amp; &quot; &#39;"},
		{"triple", "{{{x}}}", M{"x": "<b>"}, nil, "<b>"},
		{"ampersand", "{{& x}}", M{"x": "<b>"}, nil, "<b>"},
		{"missing", "[{{missing}}]", M{}, nil, "[]"},
		{"null", "[{{n}}]", M{"n": nil}, nil, "[]"},
		{"bool", "{{b}}", M{"b": true}, nil, "true"},
		{"integer", "{{n}}", M{"n": 100}, nil, "100"},
		{"float", "{{n}}", M{"n": 1.5}, nil, "1.5"},
		{"list variable", "{{l}}", M{"l": []int{1, 2, 3}}, nil, "1,2,3"},
		{"map variable", "[{{m}}]", M{"m": M{"a": 1}}, nil, "[]"},
		{"dotted", "{{a.b}}", M{"a": M{"b": "v"}}, nil, "v"},
		{"dotted missing", "[{{a.b}}]", M{"a": M{}}, nil, "[]"},
		{"dotted through string", "[{{a.b.c}}]", M{"a": M{"b": "s"}}, nil, "[]"},
		{"nested object", "Hello {{person.name}}", M{"person": M{"name": "Fauzan"}}, nil, "Hello Fauzan"},

		{"section false", "{{#a}}Y{{/a}}", M{"a": false}, nil, ""},
		{"section true", "{{#a}}Y{{/a}}", M{"a": true}, nil, "Y"},
		{"section list", "{{#items}}{{.}}{{/items}}", M{"items": []string{"a", "b"}}, nil, "ab"},
		{"section empty list", "{{#items}}x{{/items}}", M{"items": []string{}}, nil, ""},
		{"section zero", "{{#n}}yes{{/n}}", M{"n": 0}, nil, "yes"},
		{"section empty string", "{{#s}}yes{{/s}}", M{"s": ""}, nil, ""},
		{"section string", "{{#s}}{{.}}{{/s}}", M{"s": "abc"}, nil, "abc"},
		{"section number", "{{#n}}{{.}}{{/n}}", M{"n": 5}, nil, "5"},
		{"section map", "{{#person}}Hi {{name}}{{/person}}", M{"person": M{"name": "Ana"}}, nil, "Hi Ana"},
		{"section missing", "{{#nope}}x{{/nope}}", M{}, nil, ""},
		{
			"list of maps",
			"{{#students}}{{name}}:{{value}};{{/students}}",
			M{"students": []M{{"name": "A", "value": 100}, {"name": "B", "value": 90}}},
			nil,
			"A:100;B:90;",
		},
		{
			"nested lists",
			"{{#l}}[{{#.}}{{.}}{{/.}}]{{/l}}",
			M{"l": [][]int{{1, 2}, {3}}},
			nil,
			"[12][3]",
		},
		{"true pushes no frame", "{{#a}}{{x}}{{/a}}", M{"a": true, "x": "1"}, nil, "1"},

		{"inverted empty map", "{{^a}}N{{/a}}", M{}, nil, "N"},
		{"inverted true", "{{^a}}N{{/a}}", M{"a": true}, nil, ""},
		{"inverted empty list", "{{^l}}none{{/l}}", M{"l": []int{}}, nil, "none"},
		{"inverted keeps context", "{{^a}}{{x}}{{/a}}", M{"a": false, "x": "1"}, nil, "1"},

		{"shadowing", "{{#a}}{{x}}{{/a}}", M{"x": "outer", "a": M{"x": "inner"}}, nil, "inner"},
		{"fallback", "{{#a}}{{x}}{{/a}}", M{"x": "outer", "a": M{"y": 1}}, nil, "outer"},
		{"null shadows", "[{{#a}}{{x}}{{/a}}]", M{"x": "outer", "a": M{"x": nil}}, nil, "[]"},
		{"dotted head searches stack", "{{#a}}{{b.c}}{{/a}}", M{"b": M{"c": "deep"}, "a": M{"z": 1}}, nil, "deep"},
		{"dotted tail does not", "[{{#a}}{{b.c}}{{/a}}]", M{"b": M{"c": "outer"}, "a": M{"b": M{}}}, nil, "[]"},

		{"comment", "a{{! x }}b", nil, nil, "ab"},
		{"delimiter change", "{{=<% %>=}}<% x %> {{x}}", M{"x": "1"}, nil, "1 {{x}}"},
		{"delimiter round trip", "{{=| |=}}|#a||x||/a||={{ }}=|{{x}}", M{"a": true, "x": "y"}, nil, "yy"},

		{"standalone lines", "a\n{{#s}}\nb\n{{/s}}\nc", M{"s": true}, nil, "a\nb\nc"},
		{"standalone last line", "a\n{{! c }}  ", nil, nil, "a\n"},
		{"standalone crlf", "a\r\n{{#s}}\r\nb\r\n{{/s}}\r\n", M{"s": true}, nil, "a\r\nb\r\n"},
		{"standalone inverted", "|\n  {{^x}}\n  no\n  {{/x}}\n|", nil, nil, "|\n  no\n|"},

		{"partial", "{{>p}}", M{"x": "Z"}, Partials{"p": "{{x}}"}, "Z"},
		{"missing partial", "[{{>p}}]", nil, nil, "[]"},
		{"partial context", "{{#a}}{{>p}}{{/a}}", M{"a": M{"x": "in"}}, Partials{"p": "{{x}}"}, "in"},
		{"indented partial", "  {{>p}}\nend", nil, Partials{"p": "x\ny\n"}, "  x\n  y\nend"},
		{"indented partial no newline", "\t{{>p}}\n", nil, Partials{"p": "a\nb"}, "\ta\n\tb"},
		{"inline partial", "> {{>p}}", nil, Partials{"p": "a\nb"}, "> a\nb"},
		{"partial delimiters", "{{=<% %>=}}<%>p%>", M{"x": "1"}, Partials{"p": "<%x%>{{x}}"}, "1{{x}}"},
		{
			"recursive partial",
			"{{>node}}",
			M{"name": "root", "kids": []M{{"name": "a", "kids": []M{}}, {"name": "b", "kids": nil}}},
			Partials{"node": "{{name}}{{#kids}}({{>node}}){{/kids}}"},
			"root(a)(b)",
		},
	}

	e := New()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Render(context.Background(), tt.tmpl, tt.data, tt.partials)
			if err != nil {
				t.Fatalf("Render(%q): %v", tt.tmpl, err)
			}

			if got != tt.want {
				t.Errorf("Render(%q) = %q, want %q", tt.tmpl, got, tt.want)
			}
		})
	}
}

func TestRender_Idempotent(t *testing.T) {
	e := New()
	data := M{"items": []string{"x", "y"}}

	first, err := e.Render(context.Background(), "{{#items}}<{{.}}>{{/items}}", data, nil)
	if err != nil {
		t.Fatal(err)
	}

	second, err := e.Render(context.Background(), "{{#items}}<{{.}}>{{/items}}", data, nil)
	if err != nil {
		t.Fatal(err)
	}

	if first != second {
		t.Errorf("renders differ: %q vs %q", first, second)
	}

	if s := e.Cache().Stats(); s.Hits != 1 || s.Misses != 1 {
		t.Errorf("cache stats = %+v, want 1 hit and 1 miss", s)
	}
}

func TestRender_SyntaxError(t *testing.T) {
	got, err := New().Render(context.Background(), "{{#a}}no close", M{"a": true}, nil)
	if !errors.Is(err, ErrSyntax) {
		t.Fatalf("expected ErrSyntax, got %v", err)
	}

	if got != "" {
		t.Errorf("expected no output, got %q", got)
	}
}

func TestRender_PartialSyntaxError(t *testing.T) {
	_, err := New().Render(context.Background(), "{{>p}}", nil, Partials{"p": "{{/x}}"})
	if !errors.Is(err, ErrSyntax) {
		t.Fatalf("expected ErrSyntax, got %v", err)
	}
}

func TestRender_Recursion(t *testing.T) {
	_, err := New().Render(context.Background(), "{{>self}}", nil, Partials{"self": "x{{>self}}"})
	if !errors.Is(err, ErrRecursion) {
		t.Fatalf("expected ErrRecursion, got %v", err)
	}
}

func TestRender_MaxDepth(t *testing.T) {
	partials := Partials{"a": "{{>b}}", "b": "{{>c}}", "c": "end"}

	_, err := New(WithMaxDepth(2)).Render(context.Background(), "{{>a}}", nil, partials)
	if !errors.Is(err, ErrRecursion) {
		t.Fatalf("depth 2: expected ErrRecursion, got %v", err)
	}

	got, err := New(WithMaxDepth(3)).Render(context.Background(), "{{>a}}", nil, partials)
	if err != nil {
		t.Fatalf("depth 3: %v", err)
	}

	if got != "end" {
		t.Errorf("got %q, want %q", got, "end")
	}
}

func TestRender_Lambdas(t *testing.T) {
	upper := func() any {
		return func(text string, render RenderFunc) (string, error) {
			s, err := render(text)

			return strings.ToUpper(s), err
		}
	}

	tests := []struct {
		name string
		tmpl string
		data any
		want string
	}{
		{
			"section lambda from zero-arg lambda",
			"Hello {{#upper}}{{name}}{{/upper}}",
			M{"name": "Ahmad Fauzan", "upper": upper},
			"Hello AHMAD FAUZAN",
		},
		{
			"section lambda receives raw text",
			"{{#wrap}}{{x}}{{/wrap}}",
			M{"x": "1", "wrap": SectionFunc(func(text string, _ RenderFunc) (string, error) {
				return "<" + text + ">", nil
			})},
			"<{{x}}>",
		},
		{
			"section lambda render uses section delimiters",
			"{{=<% %>=}}<%#f%><%x%><%/f%>",
			M{"x": "v", "f": func(text string, render RenderFunc) string {
				s, _ := render(text)

				return s + s
			}},
			"vv",
		},
		{
			"section lambda sees section context",
			"{{#a}}{{#f}}{{x}}{{/f}}{{/a}}",
			M{"a": M{"x": "inner"}, "f": func(text string, render RenderFunc) (string, error) {
				return render(text)
			}},
			"inner",
		},
		{
			"variable lambda rendered as template",
			"{{f}}",
			M{"x": "world", "f": func() string { return "hello {{x}}" }},
			"hello world",
		},
		{
			"variable lambda escaped",
			"{{f}}|{{{f}}}",
			M{"f": func() (string, error) { return "<>", nil }},
			"&lt;&gt;|<>",
		},
		{
			"variable lambda number",
			"{{f}}",
			M{"f": func() any { return 42 }},
			"42",
		},
		{
			"section over lambda list",
			"{{#l}}{{.}}{{/l}}",
			M{"l": func() any { return []string{"a", "b"} }},
			"ab",
		},
		{
			"inverted over falsy lambda",
			"{{^f}}none{{/f}}",
			M{"f": func() any { return false }},
			"none",
		},
		{
			"section lambda as variable",
			"[{{f}}]",
			M{"f": func(string, RenderFunc) string { return "x" }},
			"[]",
		},
	}

	e := New()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Render(context.Background(), tt.tmpl, tt.data, nil)
			if err != nil {
				t.Fatalf("Render(%q): %v", tt.tmpl, err)
			}

			if got != tt.want {
				t.Errorf("Render(%q) = %q, want %q", tt.tmpl, got, tt.want)
			}
		})
	}
}

func TestRender_LambdaErrors(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name string
		tmpl string
		data any
	}{
		{"variable", "{{f}}", M{"f": func() (string, error) { return "", boom }}},
		{"zero-arg section", "{{#f}}x{{/f}}", M{"f": Func(func() (any, error) { return nil, boom })}},
		{"section", "{{#f}}x{{/f}}", M{"f": func(string, RenderFunc) (string, error) { return "", boom }}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().Render(context.Background(), tt.tmpl, tt.data, nil)
			if err != boom {
				t.Errorf("error = %v, want the lambda's error value", err)
			}
		})
	}
}

func TestRender_LambdaRecursion(t *testing.T) {
	var loop Value
	loop = Func(func() (any, error) { return loop, nil })

	_, err := New().Render(context.Background(), "{{#f}}x{{/f}}", M{"f": loop}, nil)
	if !errors.Is(err, ErrRecursion) {
		t.Fatalf("section: expected ErrRecursion, got %v", err)
	}

	self := M{"f": func() string { return "{{f}}" }}

	_, err = New().Render(context.Background(), "{{f}}", self, nil)
	if !errors.Is(err, ErrRecursion) {
		t.Fatalf("variable: expected ErrRecursion, got %v", err)
	}
}

func TestRender_Options(t *testing.T) {
	ctx := context.Background()

	got, err := New(WithEscape(strings.ToUpper)).Render(ctx, "{{x}}{{{x}}}", M{"x": "a"}, nil)
	if err != nil || got != "Aa" {
		t.Errorf("WithEscape: got %q, %v", got, err)
	}

	got, err = New(WithEscape(nil)).Render(ctx, "{{x}}", M{"x": "<"}, nil)
	if err != nil || got != "<" {
		t.Errorf("WithEscape(nil): got %q, %v", got, err)
	}

	got, err = New(WithDelimiters("<%", "%>")).Render(ctx, "<%x%> {{x}}", M{"x": "1"}, nil)
	if err != nil || got != "1 {{x}}" {
		t.Errorf("WithDelimiters: got %q, %v", got, err)
	}

	_, err = New(WithDelimiters("", "}}")).Render(ctx, "x", nil, nil)
	if !errors.Is(err, ErrSyntax) {
		t.Errorf("invalid delimiters: expected ErrSyntax, got %v", err)
	}
}

func TestIndentLines(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{"a", ">a"},
		{"a\n", ">a\n"},
		{"a\nb", ">a\n>b"},
		{"\n\n", ">\n>\n"},
	}

	for _, tt := range tests {
		buf := new(bytebufferpool.ByteBuffer)
		indentLines(buf, []byte(tt.in), ">")

		if got := buf.String(); got != tt.want {
			t.Errorf("indentLines(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
