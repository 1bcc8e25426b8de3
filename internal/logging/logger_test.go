package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
	}{
		{name: "default config", config: nil},
		{name: "json format", config: &Config{Level: LevelInfo, Format: "json", Output: &bytes.Buffer{}}},
		{name: "text format", config: &Config{Level: LevelDebug, Format: "text", Output: &bytes.Buffer{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewLogger(tt.config)
			require.NotNil(t, logger)
		})
	}
}

func TestLoggerWithSession(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: LevelDebug, Format: "text", Output: &buf})

	sessLogger := logger.WithSession("10.0.0.1:1234")
	sessLogger.Info("session opened")

	assert.Contains(t, buf.String(), "session=10.0.0.1:1234")
}

func TestLoggerWithThread(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: LevelDebug, Format: "text", Output: &buf})

	threadLogger := logger.WithSession("10.0.0.1:1234").WithThread(7)
	threadLogger.Debug("stopped")

	out := buf.String()
	assert.Contains(t, out, "session=10.0.0.1:1234")
	assert.Contains(t, out, "thread=7")
}

func TestLoggerWithError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: LevelDebug, Format: "text", Output: &buf})

	testErr := errors.New("test error")
	logger.WithError(testErr).Error("operation failed")

	assert.Contains(t, buf.String(), "test error")
}

func TestLoggerDebugLogFanout(t *testing.T) {
	var primary, mirror bytes.Buffer
	logger := NewLogger(&Config{Level: LevelDebug, Format: "text", Output: &primary, DebugLogWriter: &mirror})

	logger.Info("hello")

	assert.True(t, strings.Contains(primary.String(), "hello"))
	assert.True(t, strings.Contains(mirror.String(), "hello"))
}

func TestGlobalLoggerFunctions(t *testing.T) {
	var buf bytes.Buffer
	SetDefault(NewLogger(&Config{Level: LevelDebug, Format: "text", Output: &buf}))

	Debug("debug message")
	assert.Contains(t, buf.String(), "debug message")

	buf.Reset()
	Info("info message")
	assert.Contains(t, buf.String(), "info message")

	buf.Reset()
	Warn("warning message")
	assert.Contains(t, buf.String(), "warning message")

	buf.Reset()
	Error("error message")
	assert.Contains(t, buf.String(), "error message")
}
