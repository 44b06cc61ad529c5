package mustache

import (
	"log/slog"
	"strconv"
	"strings"
)

// parse scans source into a flat node sequence beginning with delimiters
// delims. It never consults a cache; see [Cache.GetOrParse].
func parse(source string, delims Delimiters) (*Template, error) {
	if !delims.valid() {
		return nil, ErrSyntax.
			With(slog.String("issue", "invalid delimiters"),
				slog.String("delimiters", delims.String()))
	}

	p := &parser{
		src:    source,
		delims: delims,
		line:   1,
	}

	if err := p.run(); err != nil {
		return nil, err
	}

	return &Template{
		source: source,
		delims: delims,
		nodes:  p.finish(),
	}, nil
}

// item is a node under construction. Standalone-line handling deletes
// whitespace items after the fact, so indices are not final until finish.
type item struct {
	Node

	dead   bool
	tagEnd int // offset just past the tag
}

type parser struct {
	src    string
	pos    int
	delims Delimiters
	items  []item
	open   []int // indices of unclosed section items

	// Position bookkeeping. Offsets are only ever queried in increasing
	// order, so newlines are counted once.
	line      int
	lineOff   int // offset of the first byte of line
	scanned   int // offset up to which newlines were counted
	lineStart int // index of the first item on the current line
	lineTags  int // standalone-capable tags on the current line
	lineOther bool
}

func (p *parser) position(off int) Position {
	for ; p.scanned < off; p.scanned++ {
		if p.src[p.scanned] == '\n' {
			p.line++
			p.lineOff = p.scanned + 1
		}
	}

	return Position{Offset: off, Line: p.line, Column: off - p.lineOff + 1}
}

func (p *parser) errorAt(off int, issue string, attrs ...slog.Attr) *Error {
	return ErrSyntax.
		WithPosition(p.position(off), p.src).
		With(append([]slog.Attr{slog.String("issue", issue)}, attrs...)...)
}

func (p *parser) run() error {
	for p.pos < len(p.src) {
		i := strings.Index(p.src[p.pos:], p.delims.Open)
		if i < 0 {
			p.text(len(p.src))

			break
		}

		p.text(p.pos + i)

		if err := p.tag(); err != nil {
			return err
		}
	}

	p.endLine()

	if n := len(p.open); n > 0 {
		it := p.items[p.open[n-1]]

		return ErrSyntax.
			WithPosition(it.Pos, p.src).
			With(slog.String("issue", "unclosed section"),
				slog.String("section", it.Name))
	}

	return nil
}

// text emits src[p.pos:end] as text items, one per line.
func (p *parser) text(end int) {
	for p.pos < end {
		stop := end
		if nl := strings.IndexByte(p.src[p.pos:end], '\n'); nl >= 0 {
			stop = p.pos + nl + 1
		}

		seg := p.src[p.pos:stop]
		if !isBlank(seg) {
			p.lineOther = true
		}

		p.items = append(p.items, item{
			Node: Node{Kind: KindText, Pos: p.position(p.pos), Text: seg},
		})
		p.pos = stop

		if seg[len(seg)-1] == '\n' {
			p.endLine()
		}
	}
}

// endLine applies the standalone rule to the line that just ended: when it
// holds only whitespace and structural tags, its whitespace (including the
// line terminator) is dropped, and a partial on it inherits the leading
// whitespace as its indentation.
func (p *parser) endLine() {
	if p.lineTags > 0 && !p.lineOther {
		var indent strings.Builder

		leading := true

		for i := p.lineStart; i < len(p.items); i++ {
			it := &p.items[i]

			switch it.Kind {
			case KindText:
				if leading {
					indent.WriteString(strings.TrimRight(it.Text, "\r\n"))
				}

				it.dead = true

			case KindPartial:
				if leading {
					it.Indent = indent.String()
				}

				leading = false

			default:
				leading = false
			}
		}
	}

	p.lineStart = len(p.items)
	p.lineTags = 0
	p.lineOther = false
}

// tag parses the tag starting at p.pos.
func (p *parser) tag() error {
	start := p.pos
	p.pos += len(p.delims.Open)

	var (
		kind    = KindVariable
		escaped = true
		closer  = p.delims.Close
	)

	if p.pos < len(p.src) {
		switch p.src[p.pos] {
		case '#':
			kind = KindSection
		case '^':
			kind = KindInverted
		case '/':
			kind = KindClose
		case '>':
			kind = KindPartial
		case '!':
			kind = KindComment
		case '=':
			kind = KindDelimiter
			closer = "=" + p.delims.Close
		case '&':
			escaped = false
		case '{':
			escaped = false
			closer = "}" + p.delims.Close
		}

		if kind != KindVariable || !escaped {
			p.pos++
		}
	}

	n := strings.Index(p.src[p.pos:], closer)
	if n < 0 {
		return p.errorAt(start, "unclosed tag",
			slog.String("expected", closer))
	}

	body := p.src[p.pos : p.pos+n]
	p.pos += n + len(closer)

	node := Node{
		Kind:    kind,
		Pos:     p.position(start),
		Name:    strings.TrimSpace(body),
		Escaped: kind == KindVariable && escaped,
	}

	switch kind {
	case KindComment:
		node.Name = ""
		node.Text = body

	case KindDelimiter:
		d, ok := parseDelimiters(body)
		if !ok {
			return p.errorAt(start, "invalid delimiter change",
				slog.String("tag", strconv.Quote(body)))
		}

		node.Name = ""
		node.Delims = d

	default:
		if node.Name == "" {
			return p.errorAt(start, "empty tag name")
		}
	}

	if kind.standalone() {
		p.lineTags++
	} else {
		p.lineOther = true
	}

	switch kind {
	case KindSection, KindInverted, KindPartial:
		node.Delims = p.delims
	}

	if kind == KindClose {
		if err := p.closeSection(node); err != nil {
			return err
		}
	}

	p.items = append(p.items, item{Node: node, tagEnd: p.pos})

	switch kind {
	case KindSection, KindInverted:
		p.open = append(p.open, len(p.items)-1)

	case KindDelimiter:
		p.delims = node.Delims
	}

	return nil
}

// closeSection matches a close tag against the innermost open section and
// records the section's inner source.
func (p *parser) closeSection(node Node) error {
	n := len(p.open)
	if n == 0 {
		return ErrSyntax.
			WithPosition(node.Pos, p.src).
			With(slog.String("issue", "unopened section"),
				slog.String("section", node.Name))
	}

	open := &p.items[p.open[n-1]]
	if open.Name != node.Name {
		names := make([]string, n)
		for i, idx := range p.open {
			names[i] = p.items[idx].Name
		}

		attrs := []slog.Attr{
			slog.String("issue", "mismatched section close"),
			slog.String("section", open.Name),
			slog.String("close", node.Name),
		}

		if s, ok := suggest(node.Name, names); ok && s != open.Name {
			attrs = append(attrs, slog.String("suggest", s))
		}

		return ErrSyntax.WithPosition(node.Pos, p.src).With(attrs...)
	}

	open.Inner = p.src[open.tagEnd:node.Pos.Offset]
	p.open = p.open[:n-1]

	return nil
}

// finish drops deleted items, joins adjacent text and links sections to
// their close nodes.
func (p *parser) finish() []Node {
	nodes := make([]Node, 0, len(p.items))
	stack := make([]int, 0, 8)

	for _, it := range p.items {
		if it.dead || (it.Kind == KindText && it.Text == "") {
			continue
		}

		if it.Kind == KindText && len(nodes) > 0 && nodes[len(nodes)-1].Kind == KindText {
			nodes[len(nodes)-1].Text += it.Text

			continue
		}

		switch it.Kind {
		case KindSection, KindInverted:
			stack = append(stack, len(nodes))

		case KindClose:
			open := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			nodes[open].End = len(nodes)
		}

		nodes = append(nodes, it.Node)
	}

	return nodes
}

// parseDelimiters parses the body of a delimiter-change tag ("<% %>").
func parseDelimiters(body string) (Delimiters, bool) {
	f := strings.Fields(body)
	if len(f) != 2 {
		return Delimiters{}, false
	}

	d := Delimiters{Open: f[0], Close: f[1]}

	return d, d.valid()
}

func isBlank(s string) bool {
	for i := range len(s) {
		switch s[i] {
		case ' ', '\t', '\r', '\n':
		default:
			return false
		}
	}

	return true
}
