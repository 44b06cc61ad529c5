package mustache

import (
	"bytes"
	"context"
	"log/slog"
	"maps"
	"slices"

	"github.com/valyala/bytebufferpool"
)

// Partials maps partial names to template source. A nil Partials has no
// entries.
type Partials map[string]string

// renderer holds the state of one top-level render call. Nested renders
// (partials and lambda output) share it so that they share a depth budget.
type renderer struct {
	e        *Engine
	ctx      context.Context
	partials Partials
	depth    int
}

// render writes t.nodes[lo:hi] to buf.
func (r *renderer) render(
	buf *bytebufferpool.ByteBuffer,
	t *Template,
	lo, hi int,
	s *stack,
) error {
	for i := lo; i < hi; i++ {
		n := &t.nodes[i]

		var err error

		switch n.Kind {
		case KindText:
			_, _ = buf.WriteString(n.Text)

		case KindVariable:
			err = r.variable(buf, n, s)

		case KindSection:
			err = r.section(buf, t, i, s)
			i = n.End

		case KindInverted:
			err = r.inverted(buf, t, i, s)
			i = n.End

		case KindPartial:
			err = r.partial(buf, n, s)
		}

		if err != nil {
			return err
		}
	}

	return nil
}

func (r *renderer) variable(buf *bytebufferpool.ByteBuffer, n *Node, s *stack) error {
	v := s.resolve(n.Name)

	for hops := 0; v.kind == KindLambda; hops++ {
		if v.fn == nil {
			// Section lambdas have no text to act on here.
			v = Value{}

			break
		}

		if hops >= r.e.maxDepth {
			return r.tooDeep(slog.String("lambda", n.Name))
		}

		res, err := v.fn()
		if err != nil {
			return err
		}

		if src, ok := res.(string); ok {
			out, err := r.template(src, r.e.delims, s)
			if err != nil {
				return err
			}

			v = String(out)

			break
		}

		v = ValueOf(res)
	}

	text := v.String()
	if n.Escaped {
		text = r.e.escape(text)
	}

	_, _ = buf.WriteString(text)

	return nil
}

func (r *renderer) section(
	buf *bytebufferpool.ByteBuffer,
	t *Template,
	i int,
	s *stack,
) error {
	n := &t.nodes[i]

	v, err := r.settle(s.resolve(n.Name), n.Name)
	if err != nil {
		return err
	}

	switch v.kind {
	case KindLambda:
		frames := s.snapshot()

		out, err := v.sec(n.Inner, func(text string) (string, error) {
			return r.template(text, n.Delims, frames)
		})
		if err != nil {
			return err
		}

		_, _ = buf.WriteString(out)

	case KindList:
		for _, elem := range v.list {
			s.push(elem)
			err := r.render(buf, t, i+1, n.End, s)
			s.pop()

			if err != nil {
				return err
			}
		}

	case KindBool:
		if v.b {
			return r.render(buf, t, i+1, n.End, s)
		}

	case KindString, KindNumber, KindMap:
		if !v.Truthy() {
			return nil
		}

		s.push(v)
		defer s.pop()

		return r.render(buf, t, i+1, n.End, s)
	}

	return nil
}

func (r *renderer) inverted(
	buf *bytebufferpool.ByteBuffer,
	t *Template,
	i int,
	s *stack,
) error {
	n := &t.nodes[i]

	v, err := r.settle(s.resolve(n.Name), n.Name)
	if err != nil {
		return err
	}

	if v.Truthy() {
		return nil
	}

	return r.render(buf, t, i+1, n.End, s)
}

func (r *renderer) partial(buf *bytebufferpool.ByteBuffer, n *Node, s *stack) error {
	src, ok := r.partials[n.Name]
	if !ok {
		attrs := []slog.Attr{slog.String("partial", n.Name)}

		if alt, ok := suggest(n.Name, slices.Collect(maps.Keys(r.partials))); ok {
			attrs = append(attrs, slog.String("suggest", alt))
		}

		r.e.logger.DebugContext(r.ctx, "partial not found", attrs...)

		return nil
	}

	if n.Indent == "" {
		return r.nested(buf, src, n.Delims, s)
	}

	tmp := bytebufferpool.Get()
	defer bytebufferpool.Put(tmp)

	if err := r.nested(tmp, src, n.Delims, s); err != nil {
		return err
	}

	indentLines(buf, tmp.B, n.Indent)

	return nil
}

// settle invokes zero-argument lambdas until v is not one, so that their
// results act as section values.
func (r *renderer) settle(v Value, name string) (Value, error) {
	for hops := 0; v.kind == KindLambda && v.fn != nil; hops++ {
		if hops >= r.e.maxDepth {
			return Value{}, r.tooDeep(slog.String("lambda", name))
		}

		res, err := v.fn()
		if err != nil {
			return Value{}, err
		}

		v = ValueOf(res)
	}

	return v, nil
}

// template renders src as a template against s and returns the output.
func (r *renderer) template(src string, delims Delimiters, s *stack) (string, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := r.nested(buf, src, delims, s); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// nested renders src one level deeper than the current template.
func (r *renderer) nested(
	buf *bytebufferpool.ByteBuffer,
	src string,
	delims Delimiters,
	s *stack,
) error {
	if r.depth >= r.e.maxDepth {
		return r.tooDeep()
	}

	t, err := r.e.load(r.ctx, src, delims)
	if err != nil {
		return err
	}

	r.depth++
	defer func() { r.depth-- }()

	return r.render(buf, t, 0, len(t.nodes), s)
}

func (r *renderer) tooDeep(attrs ...slog.Attr) error {
	return ErrRecursion.With(
		append([]slog.Attr{slog.Int("max_depth", r.e.maxDepth)}, attrs...)...)
}

// indentLines writes text to buf with prefix before every line. An empty
// remainder after the final newline is not a line.
func indentLines(buf *bytebufferpool.ByteBuffer, text []byte, prefix string) {
	for len(text) > 0 {
		_, _ = buf.WriteString(prefix)

		i := bytes.IndexByte(text, '\n')
		if i < 0 {
			_, _ = buf.Write(text)

			return
		}

		_, _ = buf.Write(text[:i+1])
		text = text[i+1:]
	}
}
