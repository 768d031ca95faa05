package logger

import (
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// FlushMode controls when log writes reach the sink. Immediate writes through
// on every entry; Batched buffers and relies on Sync (called at shutdown).
type FlushMode string

const (
	FlushImmediate FlushMode = "immediate"
	FlushBatched   FlushMode = "batched"
)

type Logger struct {
	sugar *zap.SugaredLogger
	sync  func() error
}

// New builds a logger for the given environment ("production" gets JSON
// output, anything else gets the development console encoder). The sink is
// always stdout; callers needing a different sink use NewWithCore.
func New(environment string, mode FlushMode) (*Logger, error) {
	var encoder zapcore.Encoder
	var level zapcore.Level
	if strings.ToLower(environment) == "production" {
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(cfg)
		level = zapcore.InfoLevel
	} else {
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		level = zapcore.DebugLevel
	}

	var ws zapcore.WriteSyncer = zapcore.Lock(os.Stdout)
	if mode == FlushBatched {
		ws = &zapcore.BufferedWriteSyncer{
			WS:            ws,
			FlushInterval: 5 * time.Second,
		}
	}

	return NewWithCore(zapcore.NewCore(encoder, ws, level)), nil
}

// NewWithCore wraps an arbitrary zap core. Tests use this with an observer
// core; production code uses New.
func NewWithCore(core zapcore.Core) *Logger {
	z := zap.New(core)
	return &Logger{sugar: z.Sugar(), sync: z.Sync}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return NewWithCore(zapcore.NewNopCore())
}

func (l *Logger) Sync() {
	_ = l.sync()
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.sugar.Warnw(msg, keysAndValues...)
}

func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}

func (l *Logger) Fatal(msg string, keysAndValues ...interface{}) {
	l.sugar.Fatalw(msg, keysAndValues...)
}

func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{sugar: l.sugar.With(keysAndValues...), sync: l.sync}
}
