package log

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level names a log threshold. Matching is case-insensitive and unknown
// names mean info.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelError Level = "ERROR"
)

// Options controls how the global logger is built.
type Options struct {
	// Level is one of debug, info, error. Default info.
	Level Level
	// Format is "json" or "console". Default console.
	Format string
}

var (
	mu     sync.RWMutex
	level  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	logger *zap.SugaredLogger
)

// Init builds the global logger. It is safe to call more than once; the
// last call wins.
func Init(opts Options) error {
	SetLevel(opts.Level)

	cfg := zap.NewProductionConfig()
	cfg.Level = level
	cfg.Sampling = nil
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	if !strings.EqualFold(opts.Format, "json") {
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return err
	}
	Replace(l)
	return nil
}

// Replace swaps the global logger, e.g. for an observer in tests.
func Replace(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	logger = l.Sugar()
}

// Sync flushes buffered entries.
func Sync() {
	_ = current().Sync()
}

// SetLevel changes the threshold of the global logger in place.
func SetLevel(l Level) {
	level.SetLevel(parseLevel(string(l)))
}

func Debug(msg string, kv ...any) {
	current().Debugw(msg, kv...)
}

func Info(msg string, kv ...any) {
	current().Infow(msg, kv...)
}

func Error(msg string, err error, kv ...any) {
	// Prepend error into key-value list.
	extended := append([]any{"err", err}, kv...)
	current().Errorw(msg, extended...)
}

func current() *zap.SugaredLogger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if logger == nil {
		core := zapcore.NewCore(
			zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
			zapcore.Lock(zapcore.AddSync(os.Stderr)),
			level,
		)
		logger = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()
	}
	return logger
}

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
