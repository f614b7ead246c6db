package cliutil

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/uncovr/unc/internal/engine"
)

// EventRecord is a supervisor event ready for JSON encoding.
type EventRecord struct {
	Timestamp time.Time `json:"ts"`
	Session   string    `json:"session"`
	Role      string    `json:"role,omitempty"`
	Type      string    `json:"type"`
	Level     string    `json:"level"`
	Reason    string    `json:"reason,omitempty"`
	Message   string    `json:"msg"`
	Pid       int       `json:"pid,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// NewEventRecord converts an engine event into a structured record with
// secrets masked.
func NewEventRecord(event engine.Event) EventRecord {
	record := EventRecord{
		Timestamp: event.Timestamp,
		Session:   event.Session,
		Role:      string(event.Role),
		Type:      string(event.Type),
		Level:     EventLevel(event.Type),
		Reason:    event.Reason,
		Message:   RedactSecrets(event.Message),
		Pid:       event.Pid,
	}
	if event.Err != nil {
		record.Error = RedactSecrets(event.Err.Error())
	}
	return record
}

// EventLevel maps an event type to a log level name.
func EventLevel(t engine.EventType) string {
	switch t {
	case engine.EventTypeWarning:
		return "warn"
	case engine.EventTypeFailed:
		return "error"
	default:
		return "info"
	}
}

// EncodeEvent encodes an event as one JSON line, reporting errors to stderr.
func EncodeEvent(enc *json.Encoder, stderr io.Writer, event engine.Event) {
	if enc == nil {
		return
	}
	record := NewEventRecord(event)
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}
	if err := enc.Encode(&record); err != nil {
		fmt.Fprintf(stderr, "error: encode event: %v\n", err)
	}
}
