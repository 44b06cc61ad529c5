package mustache

import (
	"fmt"
	"strings"
)

// Delimiters is the pair of strings enclosing a tag.
type Delimiters struct {
	Open  string `json:"open"  yaml:"open"`
	Close string `json:"close" yaml:"close"`
}

// DefaultDelimiters are the standard mustache delimiters.
var DefaultDelimiters = Delimiters{Open: "{{", Close: "}}"}

// String formats d as it would appear in a delimiter-change tag body.
func (d Delimiters) String() string { return d.Open + " " + d.Close }

// valid reports whether d can be used to scan a template.
func (d Delimiters) valid() bool {
	ok := func(s string) bool {
		return s != "" && !strings.ContainsAny(s, "= \t\r\n")
	}

	return ok(d.Open) && ok(d.Close)
}

// Kind identifies the type of a [Node].
type Kind uint8

const (
	KindText      Kind = iota // literal text
	KindVariable              // {{name}}, {{{name}}}, {{&name}}
	KindSection               // {{#name}}
	KindInverted              // {{^name}}
	KindClose                 // {{/name}}
	KindPartial               // {{>name}}
	KindComment               // {{!text}}
	KindDelimiter             // {{=open close=}}
)

var kindNames = [...]string{
	KindText:      "text",
	KindVariable:  "variable",
	KindSection:   "section",
	KindInverted:  "inverted",
	KindClose:     "close",
	KindPartial:   "partial",
	KindComment:   "comment",
	KindDelimiter: "delimiter",
}

// String returns the lowercase name of k.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}

	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// MarshalText implements [encoding.TextMarshaler].
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Node is one element of a parsed template. Which fields are meaningful
// depends on Kind:
//
//	KindText       Text
//	KindVariable   Name, Escaped
//	KindSection    Name, End, Inner, Delims
//	KindInverted   Name, End
//	KindClose      Name
//	KindPartial    Name, Indent, Delims
//	KindComment    Text
//	KindDelimiter  Delims (the new pair)
type Node struct {
	Kind Kind     `json:"kind"`
	Pos  Position `json:"pos"`

	// Text is the literal text of a text node or the body of a comment.
	Text string `json:"text,omitempty"`

	// Name is the (trimmed) tag name.
	Name string `json:"name,omitempty"`

	// Escaped reports whether a variable is HTML-escaped.
	Escaped bool `json:"escaped,omitempty"`

	// Indent is the whitespace preceding a standalone partial tag.
	Indent string `json:"indent,omitempty"`

	// End is the index of the KindClose node matching a section.
	End int `json:"end,omitempty"`

	// Inner is the unrendered source between a section's open and close tags.
	Inner string `json:"inner,omitempty"`

	// Delims is the delimiter pair in effect at a section or partial tag, or
	// the newly selected pair of a delimiter change.
	Delims Delimiters `json:"delims,omitzero"`
}

// String returns a compact description of n for diagnostics.
func (n Node) String() string {
	switch n.Kind {
	case KindText, KindComment:
		return fmt.Sprintf("%s(%q)", n.Kind, n.Text)
	case KindVariable:
		return fmt.Sprintf("%s(%s, escaped=%t)", n.Kind, n.Name, n.Escaped)
	case KindPartial:
		return fmt.Sprintf("%s(%s, indent=%q)", n.Kind, n.Name, n.Indent)
	case KindDelimiter:
		return fmt.Sprintf("%s(%s)", n.Kind, n.Delims)
	default:
		return fmt.Sprintf("%s(%s)", n.Kind, n.Name)
	}
}

// standalone reports whether a tag of kind k may occupy a standalone line.
func (k Kind) standalone() bool {
	switch k {
	case KindSection, KindInverted, KindClose, KindPartial, KindComment, KindDelimiter:
		return true
	default:
		return false
	}
}
