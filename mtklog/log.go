// Package mtklog is a thin structured-logging facade over
// go.uber.org/zap, mirroring the shape of the teacher's logging.Logger
// (go.viam.com/rdk/logging): Debugw/Infow/Warnw/Errorw plus Named for
// sub-loggers.
package mtklog

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// Logger is the logging surface pmtk and cmd/mtkgpsctl depend on. Callers pass structured key-value pairs the way
// app/test_script/recent.go does: logger.Errorw("failed to fetch data",
// "error", err, "query", query).
type Logger interface {
	Debugw(msg string, kv ...interface{})
	Infow(msg string, kv ...interface{})
	Warnw(msg string, kv ...interface{})
	Errorw(msg string, kv ...interface{})
	Named(name string) Logger
}

type sugarLogger struct {
	*zap.SugaredLogger
}

func (s *sugarLogger) Debugw(msg string, kv ...interface{}) { s.SugaredLogger.Debugw(msg, kv...) }
func (s *sugarLogger) Infow(msg string, kv ...interface{})  { s.SugaredLogger.Infow(msg, kv...) }
func (s *sugarLogger) Warnw(msg string, kv ...interface{})  { s.SugaredLogger.Warnw(msg, kv...) }
func (s *sugarLogger) Errorw(msg string, kv ...interface{}) { s.SugaredLogger.Errorw(msg, kv...) }

func (s *sugarLogger) Named(name string) Logger {
	return &sugarLogger{SugaredLogger: s.SugaredLogger.Named(name)}
}

// New builds a production Logger backed by a zap production config.
func New(name string) (Logger, error) {
	z, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return &sugarLogger{SugaredLogger: z.Sugar().Named(name)}, nil
}

// NewTestLogger wraps zaptest.NewLogger(t), standing in for the teacher's
// logging.NewTestLogger(t) / golog.NewTestLogger(t) in every package's
// tests.
func NewTestLogger(t testing.TB) Logger {
	return &sugarLogger{SugaredLogger: zaptest.NewLogger(t).Sugar()}
}

// NewNop returns a Logger that discards everything, for callers that
// don't want log output.
func NewNop() Logger {
	return &sugarLogger{SugaredLogger: zap.NewNop().Sugar()}
}
