package mustache

import (
	"context"
	"iter"
)

// Template is a parsed template. It is immutable and safe to render
// concurrently; Templates obtained through an [Engine] are shared through its
// [Cache].
type Template struct {
	source string
	delims Delimiters
	nodes  []Node
}

// Source returns the text the template was parsed from.
func (t *Template) Source() string { return t.source }

// Delimiters returns the delimiter pair parsing started with.
func (t *Template) Delimiters() Delimiters { return t.delims }

// Len returns the number of nodes.
func (t *Template) Len() int { return len(t.nodes) }

// Node returns the node at index i.
func (t *Template) Node(i int) Node { return t.nodes[i] }

// All iterates over the nodes in document order.
func (t *Template) All() iter.Seq2[int, Node] {
	return func(yield func(int, Node) bool) {
		for i, n := range t.nodes {
			if !yield(i, n) {
				return
			}
		}
	}
}

// Render renders t against data using the package default engine. See
// [Engine.RenderTemplate].
func (t *Template) Render(
	ctx context.Context,
	data any,
	partials Partials,
) (string, error) {
	return Default().RenderTemplate(ctx, t, data, partials)
}
