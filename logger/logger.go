package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger represents the logger
type Logger struct {
	sugar *zap.SugaredLogger
	level zap.AtomicLevel
	file  *rotatingFile
}

// LoggerConfig represents the configuration for the logger
type LoggerConfig struct {
	// Log level
	Level zapcore.Level
	// Log file path, empty disables file output
	FilePath string
	// Maximum log file size in MB
	MaxSize int
	// Maximum number of backups
	MaxBackups int
	// Whether to log to console
	Console bool
}

// DefaultConfig returns default logger configuration
func DefaultConfig() LoggerConfig {
	return LoggerConfig{
		Level:      zapcore.InfoLevel,
		MaxSize:    10,
		MaxBackups: 5,
		Console:    true,
	}
}

// New creates a new logger
func New(config LoggerConfig) (*Logger, error) {
	encoder := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:          "time",
		MessageKey:       "message",
		LevelKey:         "level",
		CallerKey:        "caller",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeTime:       zapcore.ISO8601TimeEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		ConsoleSeparator: " ",
	})

	level := zap.NewAtomicLevelAt(config.Level)

	var (
		sinks []zapcore.WriteSyncer
		file  *rotatingFile
	)

	if config.FilePath != "" {
		var err error
		file, err = newRotatingFile(config.FilePath, int64(config.MaxSize)*1024*1024, config.MaxBackups)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, zapcore.AddSync(file))
	}

	if config.Console || len(sinks) == 0 {
		sinks = append(sinks, zapcore.Lock(os.Stdout))
	}

	core := zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(sinks...), level)

	// skip Logger method and package-level wrapper
	z := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(2))

	return &Logger{
		sugar: z.Sugar(),
		level: level,
		file:  file,
	}, nil
}

// SetLevel sets the log level
func (l *Logger) SetLevel(level zapcore.Level) {
	l.level.SetLevel(level)
}

// Level returns the current log level
func (l *Logger) Level() zapcore.Level {
	return l.level.Level()
}

// Debug logs debug level messages
func (l *Logger) Debug(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

// Info logs info level messages
func (l *Logger) Info(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

// Warn logs warning level messages
func (l *Logger) Warn(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

// Error logs error level messages
func (l *Logger) Error(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

// Close flushes buffered entries and closes the log file
func (l *Logger) Close() error {
	_ = l.sugar.Sync()

	if l.file != nil {
		if err := l.file.Close(); err != nil {
			return fmt.Errorf("failed to close log file: %w", err)
		}
	}
	return nil
}
