package logger

import (
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var defaultLogger atomic.Pointer[Logger]

func init() {
	l, err := New(DefaultConfig())
	if err != nil {
		l = &Logger{sugar: zap.NewNop().Sugar(), level: zap.NewAtomicLevel()}
	}
	defaultLogger.Store(l)
}

// InitFromConfig replaces the package logger and closes the previous one
func InitFromConfig(level, filePath string, maxSize, maxBackups int, console bool) error {
	lvl, err := ParseLogLevel(level)
	if err != nil {
		return err
	}

	l, err := New(LoggerConfig{
		Level:      lvl,
		FilePath:   filePath,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		Console:    console,
	})
	if err != nil {
		return err
	}

	if previous := defaultLogger.Swap(l); previous != nil {
		previous.Close()
	}
	return nil
}

// ParseLogLevel accepts debug, info, warn (or warning) and error in any case.
// Unknown names yield InfoLevel along with the error.
func ParseLogLevel(level string) (zapcore.Level, error) {
	name := strings.ToLower(strings.TrimSpace(level))
	if name == "warning" {
		name = "warn"
	}

	switch name {
	case "debug", "info", "warn", "error":
		return zapcore.ParseLevel(name)
	}
	return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", level)
}

// SetLevel changes the level of the package logger at runtime
func SetLevel(level string) error {
	lvl, err := ParseLogLevel(level)
	if err != nil {
		return err
	}
	defaultLogger.Load().SetLevel(lvl)
	return nil
}

func Debug(format string, args ...interface{}) { defaultLogger.Load().Debug(format, args...) }

func Info(format string, args ...interface{}) { defaultLogger.Load().Info(format, args...) }

func Warn(format string, args ...interface{}) { defaultLogger.Load().Warn(format, args...) }

func Error(format string, args ...interface{}) { defaultLogger.Load().Error(format, args...) }

// Close flushes and closes the package logger
func Close() error {
	return defaultLogger.Load().Close()
}
