package internal

import (
	"context"
	"log/slog"

	"github.com/jlrickert/cli-toolkit/mylog"
)

type loggerKey struct{}

// WithLogger returns ctx carrying lg. The CLI installs the runtime logger
// here so packages that only see a context can log.
func WithLogger(ctx context.Context, lg *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, lg)
}

// LoggerFromContext returns the logger stored by WithLogger, or the mylog
// default (which discards) when there is none.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return mylog.Default()
	}
	lg, _ := ctx.Value(loggerKey{}).(*slog.Logger)
	return mylog.OrDefault(lg)
}
