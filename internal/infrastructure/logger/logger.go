package logger

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopline/backend/internal/infrastructure/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// Options controls how the root logger is built
type Options struct {
	Level  string
	Format string
	Output string
	// ExtraCores are teed next to the primary core, e.g. the OTLP log bridge.
	ExtraCores []zapcore.Core
}

// FromConfig converts the log section of the application config
func FromConfig(cfg config.LogConfig) Options {
	return Options{Level: cfg.Level, Format: cfg.Format, Output: cfg.Output}
}

// New builds the root zap logger. Unknown levels fall back to info.
func New(opts Options) (*zap.Logger, error) {
	writer, err := openWriter(opts.Output)
	if err != nil {
		return nil, err
	}

	core := zapcore.NewCore(newEncoder(opts.Format), writer, ParseLevel(opts.Level))
	if len(opts.ExtraCores) > 0 {
		core = zapcore.NewTee(append([]zapcore.Core{core}, opts.ExtraCores...)...)
	}

	return zap.New(core,
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	), nil
}

// ParseLevel converts a textual level into a zap level
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func newEncoder(format string) zapcore.Encoder {
	ec := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout(timeLayout),
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	if strings.EqualFold(format, "console") {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(ec)
	}
	return zapcore.NewJSONEncoder(ec)
}

func openWriter(output string) (zapcore.WriteSyncer, error) {
	switch strings.ToLower(output) {
	case "", "stdout":
		return zapcore.Lock(os.Stdout), nil
	case "stderr":
		return zapcore.Lock(os.Stderr), nil
	}
	f, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", output, err)
	}
	return zapcore.AddSync(f), nil
}
