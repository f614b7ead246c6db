package cliutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uncovr/unc/internal/engine"
	"github.com/uncovr/unc/internal/runtime"
)

func TestEncodeEventLevels(t *testing.T) {
	tests := []struct {
		name     string
		typ      engine.EventType
		expected string
	}{
		{name: "warning", typ: engine.EventTypeWarning, expected: "warn"},
		{name: "failed", typ: engine.EventTypeFailed, expected: "error"},
		{name: "ready", typ: engine.EventTypeReady, expected: "info"},
		{name: "stopped", typ: engine.EventTypeStopped, expected: "info"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var out, errBuf bytes.Buffer

			EncodeEvent(json.NewEncoder(&out), &errBuf, engine.Event{
				Timestamp: time.Unix(0, 0),
				Type:      tc.typ,
				Message:   "msg",
			})

			require.Zero(t, errBuf.Len(), "unexpected stderr output: %s", errBuf.String())
			var record EventRecord
			require.NoError(t, json.Unmarshal(out.Bytes(), &record))
			assert.Equal(t, tc.expected, record.Level)
			assert.Equal(t, string(tc.typ), record.Type)
		})
	}
}

func TestNewEventRecordCopiesFields(t *testing.T) {
	record := NewEventRecord(engine.Event{
		Session: "abc",
		Role:    runtime.RoleSecondary,
		Type:    engine.EventTypeWarning,
		Reason:  engine.ReasonSpawnFailure,
		Message: "secondary watcher failed to start",
		Pid:     42,
		Err:     errors.New("exec: npx: not found"),
	})

	assert.Equal(t, "abc", record.Session)
	assert.Equal(t, "secondary", record.Role)
	assert.Equal(t, engine.ReasonSpawnFailure, record.Reason)
	assert.Equal(t, 42, record.Pid)
	assert.Equal(t, "exec: npx: not found", record.Error)
}

func TestEncodeEventFillsTimestamp(t *testing.T) {
	var out bytes.Buffer
	EncodeEvent(json.NewEncoder(&out), &bytes.Buffer{}, engine.Event{Type: engine.EventTypeReady})

	var record EventRecord
	require.NoError(t, json.Unmarshal(out.Bytes(), &record))
	assert.False(t, record.Timestamp.IsZero())
}

func TestNewEventRecordRedactsSecrets(t *testing.T) {
	record := NewEventRecord(engine.Event{
		Timestamp: time.Unix(0, 0),
		Message:   `starting ${API_TOKEN} GITHUB_TOKEN="super-secret"`,
		Err:       errors.New("GH_TOKEN=abc123 rejected"),
	})

	assert.NotContains(t, record.Message, "${API_TOKEN}")
	assert.Contains(t, record.Message, "${[redacted]}")
	assert.NotContains(t, record.Message, "super-secret")
	assert.Contains(t, record.Message, `GITHUB_TOKEN="[redacted]"`)
	assert.False(t, strings.Contains(record.Error, "abc123"), "error should be redacted: %q", record.Error)
}
