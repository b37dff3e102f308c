package dispatch

import (
	"context"

	"goa.design/clue/log"
)

// Logger receives diagnostics about recovered degradations.
type Logger interface {
	Debug(ctx context.Context, msg string, keyvals ...any)
	Warn(ctx context.Context, msg string, keyvals ...any)
}

type (
	// ClueLogger delegates to goa.design/clue/log. Format and debug level are
	// read from the context (see log.Context, log.WithFormat, log.WithDebug).
	ClueLogger struct{}

	// NopLogger discards everything.
	NopLogger struct{}
)

// NewClueLogger returns the default Logger.
func NewClueLogger() Logger { return ClueLogger{} }

func (ClueLogger) Debug(ctx context.Context, msg string, keyvals ...any) {
	fielders := append([]log.Fielder{log.KV{K: "msg", V: msg}}, kvSliceToClue(keyvals)...)
	log.Debug(ctx, fielders...)
}

func (ClueLogger) Warn(ctx context.Context, msg string, keyvals ...any) {
	fielders := []log.Fielder{log.KV{K: "msg", V: msg}, log.KV{K: "severity", V: "warning"}}
	fielders = append(fielders, kvSliceToClue(keyvals)...)
	log.Warn(ctx, fielders...)
}

func (NopLogger) Debug(context.Context, string, ...any) {}
func (NopLogger) Warn(context.Context, string, ...any)  {}

// kvSliceToClue pairs up k1, v1, k2, v2... An odd trailing key gets a nil
// value and non-string keys are skipped.
func kvSliceToClue(keyvals []any) []log.Fielder {
	var fielders []log.Fielder
	for i := 0; i < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			continue
		}
		var v any
		if i+1 < len(keyvals) {
			v = keyvals[i+1]
		}
		fielders = append(fielders, log.KV{K: key, V: v})
	}
	return fielders
}
