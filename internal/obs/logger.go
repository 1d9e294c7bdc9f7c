// Package obs provides the ambient observability stack: a zap-backed
// structured logger and a Prometheus metrics registry, constructed once at
// process startup and passed down to every subsystem.
package obs

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps *zap.Logger with a per-component naming convention
// (log.Named("sharer"), log.Named("working"), ...) so every subsystem's log
// lines are attributable without re-deriving a logger per call site.
type Logger struct {
	*zap.Logger
}

// NewLogger builds a Logger at the given verbosity. verbosity follows
// spec.md §6's CLI surface: 0 = warn and above, 1 = info, 2 = debug,
// 3 = debug with stacktrace annotations. Caller annotations are on at
// every verbosity.
func NewLogger(verbosity int) (*Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	switch {
	case verbosity <= 0:
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case verbosity == 1:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	if verbosity >= 3 {
		cfg.DisableStacktrace = false
	} else {
		cfg.DisableStacktrace = true
	}

	z, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{Logger: z}, nil
}

// Named returns a child logger scoped to a subsystem name, e.g.
// log.Named("sharer").
func (l *Logger) Named(component string) *Logger {
	return &Logger{Logger: l.Logger.Named(component)}
}

// Sugar returns the SugaredLogger view used for printf-style / keyed
// logging at call sites that don't need zap.Field allocation discipline.
func (l *Logger) Sugar() *zap.SugaredLogger {
	return l.Logger.Sugar()
}

// Sync flushes any buffered log entries. Call once at process shutdown.
func (l *Logger) Sync() error {
	return l.Logger.Sync()
}
