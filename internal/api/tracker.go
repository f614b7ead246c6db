package api

import (
	stdcontext "context"
	"sync"
	"time"

	"github.com/uncovr/unc/internal/engine"
)

// Tracker maintains session status from supervisor events.
type Tracker struct {
	mu          sync.RWMutex
	now         func() time.Time
	session     string
	state       string
	outcome     string
	startedAt   time.Time
	lastWarning string
	watchers    map[string]*WatcherReport
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{now: time.Now, watchers: make(map[string]*WatcherReport)}
}

// Apply folds one event into the tracked state.
func (t *Tracker) Apply(evt engine.Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = t.now()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session == "" {
		t.session = evt.Session
		t.startedAt = evt.Timestamp
		t.state = StateStarting
	}

	switch evt.Type {
	case engine.EventTypeReady:
		t.state = StateRunning
	case engine.EventTypeStopping, engine.EventTypeExited:
		if t.state != StateFailed {
			t.state = StateShuttingDown
		}
	case engine.EventTypeFailed:
		t.state = StateFailed
	case engine.EventTypeStopped:
		if evt.Role == "" && t.state != StateFailed {
			t.state = StateDone
		}
	case engine.EventTypeWarning:
		t.lastWarning = evt.Message
	}

	if evt.Role == "" {
		return
	}
	w := t.watchers[string(evt.Role)]
	if w == nil {
		w = &WatcherReport{Role: string(evt.Role)}
		t.watchers[string(evt.Role)] = w
	}
	if evt.Type == engine.EventTypeWarning {
		w.Warnings++
	} else {
		w.State = evt.Type
	}
	if evt.Type == engine.EventTypeRunning {
		w.StartedAt = evt.Timestamp
	}
	if evt.Pid > 0 {
		w.Pid = evt.Pid
	}
	w.Message = evt.Message
	if evt.Timestamp.After(w.LastEvent) {
		w.LastEvent = evt.Timestamp
	}
}

// Finish records the session outcome.
func (t *Tracker) Finish(out engine.Outcome) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.outcome = out.Kind.String()
	if out.Kind == engine.CleanShutdown {
		t.state = StateDone
	} else {
		t.state = StateFailed
	}
}

// Status implements StatusProvider.
func (t *Tracker) Status(stdcontext.Context) (*StatusReport, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.session == "" {
		return nil, ErrNoSession
	}
	report := &StatusReport{
		Session:     t.session,
		State:       t.state,
		Outcome:     t.outcome,
		StartedAt:   t.startedAt,
		GeneratedAt: t.now(),
		LastWarning: t.lastWarning,
		Watchers:    make(map[string]WatcherReport, len(t.watchers)),
	}
	for role, w := range t.watchers {
		report.Watchers[role] = *w
	}
	return report, nil
}
