package mustache

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
)

// Sentinel errors. Errors returned by this package match one of these with
// [errors.Is] no matter how many attributes or causes were attached.
var (
	// ErrSyntax reports a malformed template: unbalanced or mismatched
	// sections, an unterminated tag, an empty tag name, or an invalid
	// delimiter change.
	ErrSyntax = NewError("syntax error")

	// ErrRecursion reports that nested partials (or lambda output rendered as
	// a template) exceeded the configured maximum depth.
	ErrRecursion = NewError("maximum render depth exceeded")

	// ErrReadInput reports a failure reading template source.
	ErrReadInput = NewError("failed to read input")
)

// Position identifies a location in template source.
// Line and Column are 1-based; Column counts bytes.
type Position struct {
	Offset int `json:"offset" yaml:"offset"`
	Line   int `json:"line"   yaml:"line"`
	Column int `json:"column" yaml:"column"`
}

// String formats p as "line:column".
func (p Position) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

// Error is an error with structured logging attributes and an optional
// source position. It implements [slog.LogValuer].
type Error struct {
	msg    string
	err    error
	pos    *Position
	source string // template source, for diagnostics
	attrs  []slog.Attr
	kind   *Error // sentinel this error derives from
}

// NewError returns a new sentinel error.
func NewError(msg string) *Error {
	e := &Error{msg: msg}
	e.kind = e

	return e
}

// WrapError converts err to an *Error. An *Error anywhere in err's chain is
// returned as is.
func WrapError(err error) *Error {
	var ee *Error
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface.
//
// The message has the form "<msg> at <line>:<col>: <cause>", omitting any
// part that is not set.
func (e *Error) Error() string {
	var sb strings.Builder

	sb.WriteString(e.msg)

	if e.pos != nil {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}

		sb.WriteString("at ")
		sb.WriteString(e.pos.String())
	}

	if e.err != nil {
		if sb.Len() > 0 {
			sb.WriteString(": ")
		}

		sb.WriteString(e.err.Error())
	}

	return sb.String()
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the sentinel e was derived from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	return ok && e.kind != nil && t == e.kind
}

// Position returns the source position attached to e, if any.
func (e *Error) Position() (Position, bool) {
	if e.pos == nil {
		return Position{}, false
	}

	return *e.pos, true
}

// LogValue implements [slog.LogValuer].
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+3)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	if e.pos != nil {
		attrs = append(attrs,
			slog.Int("line", e.pos.Line),
			slog.Int("column", e.pos.Column),
		)
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Snippet returns the offending source line followed by a caret marking the
// error column, formatted like a compiler diagnostic:
//
//	  3 | {{#items}}{{/item}}
//	    |           ^
//
// It returns the empty string when e has no position or source.
func (e *Error) Snippet() string {
	if e.pos == nil || e.source == "" {
		return ""
	}

	lines := strings.Split(e.source, "\n")
	if e.pos.Line < 1 || e.pos.Line > len(lines) {
		return ""
	}

	num := strconv.Itoa(e.pos.Line)
	line := strings.TrimSuffix(lines[e.pos.Line-1], "\r")

	var sb strings.Builder

	sb.WriteString("  ")
	sb.WriteString(num)
	sb.WriteString(" | ")
	sb.WriteString(line)
	sb.WriteByte('\n')
	sb.WriteString(strings.Repeat(" ", len(num)+2))
	sb.WriteString(" | ")

	if e.pos.Column > 1 {
		sb.WriteString(strings.Repeat(" ", e.pos.Column-1))
	}

	sb.WriteString("^\n")

	return sb.String()
}

func (e *Error) clone() *Error {
	c := *e
	c.attrs = append([]slog.Attr(nil), e.attrs...)

	return &c
}

// Wrap returns a copy of e with err as its cause.
func (e *Error) Wrap(err error) *Error {
	c := e.clone()
	c.err = err

	return c
}

// With returns a copy of e with attrs appended.
func (e *Error) With(attrs ...slog.Attr) *Error {
	c := e.clone()
	c.attrs = append(c.attrs, attrs...)

	return c
}

// WithPosition returns a copy of e located at pos within source.
func (e *Error) WithPosition(pos Position, source string) *Error {
	c := e.clone()
	c.pos = &pos
	c.source = source

	return c
}
