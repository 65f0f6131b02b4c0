package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

var (
	// usable before Init so early failures still get logged somewhere
	globalLogger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	once         sync.Once
)

type Config struct {
	Level   string   `json:"level" yaml:"level" mapstructure:"level"`     // debug/info/warn/error
	Outputs []string `json:"outputs" yaml:"outputs" mapstructure:"outputs"` // stdout/stderr/file path
}

func Init(cfg Config) error {
	var initErr error
	once.Do(func() {
		level := parseLevel(cfg.Level)

		writers, err := openOutputs(cfg.Outputs)
		if err != nil {
			initErr = err
			return
		}

		globalLogger = slog.New(slog.NewTextHandler(io.MultiWriter(writers...), &slog.HandlerOptions{
			Level: level,
		}))
	})
	return initErr
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func openOutputs(outputs []string) ([]io.Writer, error) {
	var writers []io.Writer
	for _, output := range outputs {
		switch output {
		case "", "stdout":
			writers = append(writers, os.Stdout)
		case "stderr":
			writers = append(writers, os.Stderr)
		default:
			if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory: %w", err)
			}
			file, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				return nil, fmt.Errorf("failed to open log file: %w", err)
			}
			writers = append(writers, file)
		}
	}

	if len(writers) == 0 {
		writers = append(writers, os.Stdout)
	}
	return writers, nil
}

func Debug(msg string, args ...interface{}) {
	globalLogger.Debug(msg, args...)
}

func Info(msg string, args ...interface{}) {
	globalLogger.Info(msg, args...)
}

func Warn(msg string, args ...interface{}) {
	globalLogger.Warn(msg, args...)
}

func Error(msg string, args ...interface{}) {
	globalLogger.Error(msg, args...)
}

func Logger() *slog.Logger {
	return globalLogger
}
