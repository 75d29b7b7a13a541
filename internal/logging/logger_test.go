package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLoggerDefaultConfig(t *testing.T) {
	logger := NewLogger(nil)
	assert.NotNil(t, logger)
	assert.Equal(t, LevelInfo, logger.level)
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: LevelWarn, Output: &buf})

	logger.Debug("should not appear")
	logger.Info("should not appear either")
	assert.Empty(t, buf.String())

	logger.Warn("this appears")
	assert.Contains(t, buf.String(), "[WARN] this appears")
}

func TestLoggerFormatsKeyValueArgs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: LevelDebug, Output: &buf})

	logger.Info("connecting", "device", "/dev/serial/by-id/xbee", "attempt", 1)
	assert.Contains(t, buf.String(), "device=/dev/serial/by-id/xbee")
	assert.Contains(t, buf.String(), "attempt=1")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelInfo, ParseLevel(""))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
}

func TestGlobalLoggerFunctions(t *testing.T) {
	var buf bytes.Buffer
	SetDefault(NewLogger(&Config{Level: LevelDebug, Output: &buf}))
	t.Cleanup(func() { SetDefault(NewLogger(nil)) })

	Debug("debug message", "key", "value")
	assert.Contains(t, buf.String(), "debug message")
	assert.Contains(t, buf.String(), "key=value")

	buf.Reset()
	Error("error message")
	assert.Contains(t, buf.String(), "[ERROR] error message")
}
