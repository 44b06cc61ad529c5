package mustache

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
)

// FormatJSON writes the template's delimiters and nodes as JSON to w.
func (t *Template) FormatJSON(ctx context.Context, w io.Writer, indent int) error {
	var (
		data []byte
		err  error
	)

	doc := t.ToMap()

	if indent > 0 {
		data, err = json.MarshalIndentWithOption(doc, "", strings.Repeat(" ", indent),
			json.DisableHTMLEscape())
	} else {
		data, err = json.MarshalContext(ctx, doc, json.DisableHTMLEscape())
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(data))

	return err
}

// FormatYAML writes the template's delimiters and nodes as YAML to w. An
// indent of 0 selects flow style.
func (t *Template) FormatYAML(ctx context.Context, w io.Writer, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	data, err := yaml.MarshalContext(ctx, t.ToMap(), opts...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(w, string(data))

	return err
}

// ToMap returns the template as plain maps and slices, keeping only the
// fields meaningful for each node kind.
func (t *Template) ToMap() map[string]any {
	nodes := make([]any, len(t.nodes))
	for i, n := range t.nodes {
		nodes[i] = n.ToMap()
	}

	return map[string]any{
		"delimiters": t.delims.toMap(),
		"nodes":      nodes,
	}
}

// ToMap returns n as a plain map.
func (n Node) ToMap() map[string]any {
	m := map[string]any{
		"kind": n.Kind.String(),
		"pos": map[string]any{
			"offset": n.Pos.Offset,
			"line":   n.Pos.Line,
			"column": n.Pos.Column,
		},
	}

	switch n.Kind {
	case KindText, KindComment:
		m["text"] = n.Text

	case KindVariable:
		m["name"] = n.Name
		m["escaped"] = n.Escaped

	case KindSection, KindInverted:
		m["name"] = n.Name
		m["end"] = n.End
		m["delimiters"] = n.Delims.toMap()

		if n.Kind == KindSection {
			m["inner"] = n.Inner
		}

	case KindClose:
		m["name"] = n.Name

	case KindPartial:
		m["name"] = n.Name
		m["delimiters"] = n.Delims.toMap()

		if n.Indent != "" {
			m["indent"] = n.Indent
		}

	case KindDelimiter:
		m["delimiters"] = n.Delims.toMap()
	}

	return m
}

func (d Delimiters) toMap() map[string]any {
	return map[string]any{"open": d.Open, "close": d.Close}
}
