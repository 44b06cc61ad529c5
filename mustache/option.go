package mustache

import "github.com/ardnew/stache/log"

// DefaultMaxDepth is the default limit on nested partials and templates
// rendered from lambda output.
var DefaultMaxDepth = 100

// Option configures an [Engine].
type Option func(*Engine)

// WithMaxDepth sets the maximum nesting depth of partials and
// lambda-rendered templates. Values below 1 are ignored.
func WithMaxDepth(depth int) Option {
	return func(e *Engine) {
		if depth > 0 {
			e.maxDepth = depth
		}
	}
}

// WithDelimiters sets the delimiter pair templates start with. Invalid pairs
// are reported by the first parse.
func WithDelimiters(left, right string) Option {
	return func(e *Engine) {
		e.delims = Delimiters{Open: left, Close: right}
	}
}

// WithCache shares c with the engine instead of giving it a private cache.
func WithCache(c *Cache) Option {
	return func(e *Engine) {
		if c != nil {
			e.cache = c
		}
	}
}

// WithLogger sets the structured logger for trace-level debugging.
// If not provided, the logger is zero-valued and all logging is a no-op.
func WithLogger(logger log.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithEscape replaces the function applied to the output of escaped
// variable tags. A nil fn disables escaping.
func WithEscape(fn func(string) string) Option {
	return func(e *Engine) {
		if fn == nil {
			fn = func(s string) string { return s }
		}

		e.escape = fn
	}
}

func applyDefaults(e *Engine) {
	e.maxDepth = DefaultMaxDepth
	e.delims = DefaultDelimiters
	e.escape = EscapeHTML
}

func applyOptions(e *Engine, opts ...Option) {
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}

	if e.cache == nil {
		e.cache = NewCache()
	}
}
