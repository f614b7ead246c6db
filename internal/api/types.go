package api

import (
	stdcontext "context"
	"errors"
	"time"

	"github.com/uncovr/unc/internal/engine"
)

// ErrNoSession is returned before any dev session event has been observed.
var ErrNoSession = errors.New("no active dev session")

// Session states reported by the status endpoint.
const (
	StateStarting     = "starting"
	StateRunning      = "running"
	StateShuttingDown = "shutting_down"
	StateDone         = "done"
	StateFailed       = "failed"
)

// WatcherReport describes one supervised watcher process.
type WatcherReport struct {
	Role      string           `json:"role"`
	Pid       int              `json:"pid"`
	State     engine.EventType `json:"state"`
	Message   string           `json:"message"`
	StartedAt time.Time        `json:"started_at"`
	LastEvent time.Time        `json:"last_event"`
	Warnings  int              `json:"warnings"`
}

// StatusReport aggregates the state of the current dev session.
type StatusReport struct {
	Session     string                   `json:"session"`
	State       string                   `json:"state"`
	Outcome     string                   `json:"outcome,omitempty"`
	StartedAt   time.Time                `json:"started_at"`
	GeneratedAt time.Time                `json:"generated_at"`
	LastWarning string                   `json:"last_warning,omitempty"`
	Watchers    map[string]WatcherReport `json:"watchers"`
}

// StatusProvider exposes read-only session state to observers.
type StatusProvider interface {
	Status(stdcontext.Context) (*StatusReport, error)
}
