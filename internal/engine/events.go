package engine

import (
	"time"

	"github.com/uncovr/unc/internal/runtime"
)

// EventType captures high level lifecycle notifications emitted by the dev
// supervisor.
type EventType string

const (
	EventTypeStarting EventType = "starting"
	EventTypeRunning  EventType = "running"
	EventTypeReady    EventType = "ready"
	EventTypeWarning  EventType = "warning"
	EventTypeStopping EventType = "stopping"
	EventTypeStopped  EventType = "stopped"
	EventTypeExited   EventType = "exited"
	EventTypeFailed   EventType = "failed"
)

// Event represents a single lifecycle notification.
type Event struct {
	Timestamp time.Time
	Session   string
	Role      runtime.Role
	Type      EventType
	Message   string
	Pid       int
	Err       error
	Reason    string
}

const (
	ReasonToolMissing      = "tool_missing"
	ReasonInstalled        = "installed"
	ReasonInstallFailed    = "install_failed"
	ReasonConfigError      = "config_error"
	ReasonRunnerMissing    = "runner_missing"
	ReasonSpawnFailure     = "spawn_failure"
	ReasonSignalFailure    = "signal_install_failure"
	ReasonCancelled        = "cancelled"
	ReasonPrimaryExited    = "primary_exited"
	ReasonPrimaryLost      = "primary_lost"
	ReasonSessionReady     = "session_ready"
	ReasonSecondaryStopped = "secondary_stopped"
)

func (s *Supervisor) sendEvent(role runtime.Role, t EventType, message string, pid int, reason string, err error) {
	if s.events == nil {
		return
	}
	s.events <- Event{
		Timestamp: time.Now(),
		Session:   s.session,
		Role:      role,
		Type:      t,
		Message:   message,
		Pid:       pid,
		Err:       err,
		Reason:    reason,
	}
}
