// Package data decodes JSON and YAML documents into [mustache.Value] data
// graphs.
//
// JSON numbers keep their literal digits, so large integers render exactly.
// YAML documents may use any YAML 1.2 feature the decoder supports,
// including anchors and aliases; a document whose root is not a mapping is
// still accepted and becomes the root context value as is.
package data

import (
	"bytes"
	"context"
	"io"
	"log/slog"

	"github.com/goccy/go-json"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/stache/mustache"
)

// ErrDecode reports a malformed data document.
var ErrDecode = mustache.NewError("failed to decode data")

// FromJSON decodes a single JSON document.
func FromJSON(b []byte) (mustache.Value, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return mustache.Value{}, ErrDecode.Wrap(err).
			With(slog.String("format", "json"), slog.Int("bytes", len(b)))
	}

	return mustache.ValueOf(v), nil
}

// FromYAML decodes a single YAML document.
func FromYAML(ctx context.Context, b []byte) (mustache.Value, error) {
	var v any
	if err := yaml.UnmarshalContext(ctx, b, &v); err != nil {
		return mustache.Value{}, ErrDecode.Wrap(err).
			With(slog.String("format", "yaml"), slog.Int("bytes", len(b)))
	}

	return mustache.ValueOf(v), nil
}

// ReadJSON reads all of r and decodes it with [FromJSON].
func ReadJSON(r io.Reader) (mustache.Value, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return mustache.Value{}, mustache.ErrReadInput.Wrap(err).
			With(slog.String("format", "json"))
	}

	return FromJSON(b)
}

// ReadYAML reads all of r and decodes it with [FromYAML].
func ReadYAML(ctx context.Context, r io.Reader) (mustache.Value, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return mustache.Value{}, mustache.ErrReadInput.Wrap(err).
			With(slog.String("format", "yaml"))
	}

	return FromYAML(ctx, b)
}
