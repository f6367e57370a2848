package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelTrace, ParseLevel("trace"))
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, LevelFatal, ParseLevel("fatal"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

func TestSetOutputRejectsNil(t *testing.T) {
	var buf bytes.Buffer
	require.Error(t, SetOutput(nil, &buf))
	require.Error(t, SetOutput(&buf, nil))
}

func TestSetOutputWritesJSON(t *testing.T) {
	var structured, human bytes.Buffer
	require.NoError(t, SetOutput(&structured, &human))

	Structured().With("component", "engine").Info("model loaded")
	assert.Contains(t, structured.String(), `"component":"engine"`)
	assert.Contains(t, structured.String(), "model loaded")
}

func TestForComponentAddsAttribute(t *testing.T) {
	var structured, human bytes.Buffer
	require.NoError(t, SetOutput(&structured, &human))

	logger := ForComponent("segment")
	require.NotNil(t, logger)
	logger.Info("chunk planned")
	assert.Contains(t, structured.String(), `"component":"segment"`)
}
