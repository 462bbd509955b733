package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T, level Level) (*Logger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.log")
	l, err := New(path, level, false)
	require.NoError(t, err)
	return l, path
}

func TestLoggerWritesLevelAndMessage(t *testing.T) {
	l, path := newTestLogger(t, LevelInfo)
	l.Info("hello %s", "world")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[INFO] hello world")
}

func TestLoggerFiltersBelowConfiguredLevel(t *testing.T) {
	l, path := newTestLogger(t, LevelWarn)
	l.Debug("should not appear")
	l.Info("should not appear either")
	l.Warn("this one appears")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.NotContains(t, out, "should not appear")
	assert.Contains(t, out, "this one appears")
}

func TestLoggerWriteShimLogsAtInfo(t *testing.T) {
	l, path := newTestLogger(t, LevelInfo)
	n, err := l.Write([]byte("from another library\n"))

	require.NoError(t, err)
	assert.Equal(t, len("from another library\n"), n)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[INFO] from another library")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, LevelError, ParseLevel("Error"))
	assert.Equal(t, LevelInfo, ParseLevel("unknown"))
}

func TestLoggerWriteShimIgnoresBlankLines(t *testing.T) {
	l, path := newTestLogger(t, LevelInfo)
	_, err := l.Write([]byte("\n"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.TrimSpace(string(data)) == "")
}
