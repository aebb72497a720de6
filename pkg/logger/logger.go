// Package logger provides the structured, levelled logger built on log/slog.
//
// New picks the handler from the environment: human-readable text in dev,
// JSON in production. The Logger middleware injects a per-request logger
// pre-tagged with the request_id, retrieved downstream via WithCtx:
//
//	log := logger.WithCtx(r.Context())
//	log.Info("payment recorded", "amount", 12.99)
//	// → time=... level=INFO msg="payment recorded" request_id=a1b2c3d4 amount=12.99
package logger

import (
	"context"
	"log/slog"
	"os"
)

// New builds the base logger. Production gets JSON at INFO for log
// aggregators, everything else gets text at DEBUG.
func New(production bool) *slog.Logger {
	var handler slog.Handler
	if production {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return slog.New(handler)
}

// ctxKey is the unexported key used to store a per-request *slog.Logger.
type ctxKey struct{}

// WithCtx returns the request-scoped logger stored in ctx, or slog.Default()
// when none was injected.
func WithCtx(ctx context.Context) *slog.Logger {
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return slog.Default()
}

// Inject stores a *slog.Logger (pre-tagged with request_id) into ctx.
// Called by the Logger middleware; not usually needed in application code.
func Inject(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}
