package cliutil

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "WARN")
	require.NoError(t, err)
	assert.Equal(t, log.WarnLevel, logger.GetLevel())

	logger.Info("hidden")
	logger.Warn("shown", "role", "secondary")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "role=secondary")
}

func TestNewLoggerDefaultsToInfo(t *testing.T) {
	logger, err := NewLogger(&bytes.Buffer{}, "")
	require.NoError(t, err)
	assert.Equal(t, log.InfoLevel, logger.GetLevel())
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := NewLogger(&bytes.Buffer{}, "chatty")
	assert.ErrorContains(t, err, `invalid log level "chatty"`)
}

func TestLogLevelFromEnv(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	assert.Equal(t, DefaultLogLevel, LogLevelFromEnv())

	t.Setenv(EnvLogLevel, " debug ")
	assert.Equal(t, "debug", LogLevelFromEnv())
}

func TestStylesPlainForNonTerminal(t *testing.T) {
	s := NewStyles(&bytes.Buffer{})
	assert.True(t, s.Plain)
	assert.Equal(t, "ready", s.Success("ready"))
	assert.Equal(t, "warn", s.Warning("warn"))
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}
