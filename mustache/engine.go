package mustache

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/klauspost/readahead"
	"github.com/valyala/bytebufferpool"

	"github.com/ardnew/stache/log"
)

// Engine parses and renders templates. Parsed templates are memoized in the
// engine's [Cache]. An Engine is safe for concurrent use.
type Engine struct {
	cache    *Cache
	delims   Delimiters
	maxDepth int
	escape   func(string) string
	logger   log.Logger
}

// New returns an engine configured by opts.
func New(opts ...Option) *Engine {
	e := new(Engine)

	applyDefaults(e)
	applyOptions(e, opts...)

	return e
}

// Cache returns the engine's template cache.
func (e *Engine) Cache() *Cache { return e.cache }

// ClearCache empties the engine's template cache.
func (e *Engine) ClearCache() {
	e.cache.Clear()
	e.logger.Trace("cache cleared")
}

// Parse parses source with the engine's delimiters, or returns the cached
// template if source was parsed before.
func (e *Engine) Parse(ctx context.Context, source string) (*Template, error) {
	return e.load(ctx, source, e.delims)
}

// ParseReader reads all of r and parses it like [Engine.Parse].
func (e *Engine) ParseReader(ctx context.Context, r io.Reader) (*Template, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrReadInput.Wrap(err).
			With(slog.String("source", "reader"))
	}

	e.logger.TraceContext(ctx, "read input",
		slog.Int("source_bytes", len(data)),
		slog.Bool("read_ahead", true),
	)

	return e.Parse(ctx, string(data))
}

// Render parses source (through the cache) and renders it against data.
// Partials are looked up by name in partials; a missing partial renders
// nothing.
//
// data may be a [Value] or any Go data accepted by [ValueOf].
func (e *Engine) Render(
	ctx context.Context,
	source string,
	data any,
	partials Partials,
) (string, error) {
	t, err := e.Parse(ctx, source)
	if err != nil {
		return "", err
	}

	return e.RenderTemplate(ctx, t, data, partials)
}

// RenderTemplate renders a parsed template against data.
func (e *Engine) RenderTemplate(
	ctx context.Context,
	t *Template,
	data any,
	partials Partials,
) (string, error) {
	r := &renderer{e: e, ctx: ctx, partials: partials}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := r.render(buf, t, 0, len(t.nodes), newStack(ValueOf(data))); err != nil {
		return "", err
	}

	e.logger.TraceContext(ctx, "render complete",
		slog.Int("nodes", len(t.nodes)),
		slog.Int("partials", len(partials)),
		slog.Int("output_bytes", buf.Len()),
	)

	return buf.String(), nil
}

// load fetches or parses source with delims through the cache.
func (e *Engine) load(
	ctx context.Context,
	source string,
	delims Delimiters,
) (*Template, error) {
	t, hit, err := e.cache.load(source, delims)

	e.logger.TraceContext(ctx, "cache lookup",
		slog.Int("source_bytes", len(source)),
		slog.String("delimiters", delims.String()),
		slog.Bool("cache_hit", hit),
	)

	if err != nil {
		return nil, err
	}

	if !hit {
		e.logger.TraceContext(ctx, "parse complete",
			slog.Int("nodes", len(t.nodes)),
		)
	}

	return t, nil
}

var defaultEngine atomic.Pointer[Engine]

func init() { defaultEngine.Store(New()) }

// Default returns the engine used by the package-level functions.
func Default() *Engine { return defaultEngine.Load() }

// SetDefault replaces the engine used by the package-level functions.
func SetDefault(e *Engine) {
	if e != nil {
		defaultEngine.Store(e)
	}
}

// Render renders source against data with the default engine.
func Render(
	ctx context.Context,
	source string,
	data any,
	partials Partials,
) (string, error) {
	return Default().Render(ctx, source, data, partials)
}

// Parse parses source with the default engine, caching the result.
func Parse(ctx context.Context, source string) (*Template, error) {
	return Default().Parse(ctx, source)
}

// ClearCache empties the default engine's cache.
func ClearCache() { Default().ClearCache() }
