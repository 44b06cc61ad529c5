// Package log provides a small leveled logging interface on top of
// [log/slog].
//
// A [Logger] is an immutable value. Configuration is applied with functional
// options when the logger is made, and [Logger.Wrap] derives a new logger with
// some options overridden:
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithFormat(log.FormatText))
//
//	logger.Debug("cache lookup", slog.Bool("hit", true))
//
// The zero Logger discards every message, so libraries can hold one in a
// struct field without a nil check and let callers opt in to output.
//
// # Levels
//
// In addition to the four slog levels, [LevelTrace] sits below
// [LevelDebug] for high-volume diagnostics such as per-template cache
// lookups.
//
// # Formats
//
// [FormatJSON] and [FormatText] select the slog JSON and text handlers.
// With [WithPretty] enabled, text output uses a colorized handler that drops
// quoting around values.
//
// # Default logger
//
// The package-level functions ([Info], [DebugContext], ...) write through a
// process-wide default logger that [Config] reconfigures.
package log
