package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"Warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
	}
	for s, lvl := range cases {
		got, err := ParseLogLevel(s)
		require.NoError(t, err)
		require.Equal(t, lvl, got)
	}

	got, err := ParseLogLevel("verbose")
	require.Error(t, err)
	require.Equal(t, zapcore.InfoLevel, got)
}

func TestLoggerWritesFileAndFiltersLevel(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "alarm.log")
	l, err := New(LoggerConfig{Level: zapcore.WarnLevel, FilePath: path, MaxSize: 1, MaxBackups: 1})
	require.NoError(t, err)

	l.Info("hidden %d", 1)
	l.Warn("visible %s", "warning")
	l.SetLevel(zapcore.DebugLevel)
	require.Equal(t, zapcore.DebugLevel, l.Level())
	l.Debug("now visible")
	require.NoError(t, l.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(b)
	require.NotContains(t, out, "hidden 1")
	require.Contains(t, out, "visible warning")
	require.Contains(t, out, "now visible")
	require.Contains(t, out, "WARN")
}

func TestRotatingFileKeepsMaxBackups(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	r, err := newRotatingFile(path, 16, 2)
	require.NoError(t, err)

	line := []byte(strings.Repeat("x", 20) + "\n")
	for i := 0; i < 4; i++ {
		_, err := r.Write(line)
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}
	require.NoError(t, r.Close())

	require.Len(t, r.backups(), 2)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Zero(t, info.Size())
}
