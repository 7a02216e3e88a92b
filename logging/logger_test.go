package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, ParseLevel("debug"))
	assert.Equal(t, LogLevelWarn, ParseLevel("warn"))
	assert.Equal(t, LogLevelWarn, ParseLevel("warning"))
	assert.Equal(t, LogLevelError, ParseLevel("error"))
	assert.Equal(t, LogLevelInfo, ParseLevel("info"))
	assert.Equal(t, LogLevelInfo, ParseLevel("garbage"))
	assert.Equal(t, LogLevelInfo, ParseLevel(""))
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	return m
}

func TestChatLoggerContextAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LogLevelDebug, Format: "json", Output: &buf})

	logger.WithComponent("engine").
		WithConversation("u1", "c1").
		Info("turn started")

	m := decodeLine(t, &buf)
	assert.Equal(t, "turn started", m["msg"])
	assert.Equal(t, "engine", m["component"])
	assert.Equal(t, "u1", m["user_id"])
	assert.Equal(t, "c1", m["conversation_id"])
}

func TestChatLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LogLevelWarn, Format: "json", Output: &buf})

	logger.Debug("hidden")
	logger.Info("hidden too")
	assert.Zero(t, buf.Len())

	logger.Warn("visible")
	assert.NotZero(t, buf.Len())
}

func TestChatLoggerFormatsArgs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LogLevelInfo, Format: "json", Output: &buf})

	logger.Info("agent %s finished in %d ms", "sage", 42)
	m := decodeLine(t, &buf)
	assert.Equal(t, "agent sage finished in 42 ms", m["msg"])
}

func TestLogAgentTurn(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LogLevelInfo, Format: "json", Output: &buf})

	logger.LogAgentTurn("sage", "m1", 120, 0.42, 250*time.Millisecond, true, nil)
	m := decodeLine(t, &buf)
	assert.Equal(t, "Agent turn completed", m["msg"])
	assert.Equal(t, "sage", m["agent_id"])
	assert.Equal(t, "m1", m["message_id"])
	assert.Equal(t, float64(120), m["token_count"])

	buf.Reset()
	logger.LogAgentTurn("sage", "m2", 0, 0, 250*time.Millisecond, false, errors.New("quota"))
	m = decodeLine(t, &buf)
	assert.Equal(t, "Agent turn failed", m["msg"])
	assert.Equal(t, "quota", m["error"])
}

func TestNoOpLogger(t *testing.T) {
	// Must not panic.
	var l Logger = NoOpLogger{}
	l.Debug("x")
	l.Info("x")
	l.Warn("x")
	l.Error("x")
}
