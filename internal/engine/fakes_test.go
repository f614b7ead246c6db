package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/uncovr/unc/internal/config"
	"github.com/uncovr/unc/internal/runtime"
)

// callLog records terminate calls across handles in the order they happen.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) record(call string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type fakeHandle struct {
	role runtime.Role
	pid  int
	log  *callLog

	mu           sync.Mutex
	exited       bool
	status       runtime.ExitStatus
	pollErr      error
	terminations int
}

func (h *fakeHandle) Role() runtime.Role { return h.role }
func (h *fakeHandle) Pid() int           { return h.pid }

func (h *fakeHandle) TryWait() (runtime.ExitStatus, bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pollErr != nil {
		return runtime.ExitStatus{}, false, h.pollErr
	}
	return h.status, h.exited, nil
}

func (h *fakeHandle) TerminateAndWait() runtime.ExitStatus {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.terminations++
	if h.log != nil {
		h.log.record(fmt.Sprintf("terminate %s", h.role))
	}
	if !h.exited {
		h.exited = true
		h.status = runtime.ExitStatus{Code: 143, Signal: 15}
	}
	return h.status
}

func (h *fakeHandle) exit(status runtime.ExitStatus) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.exited = true
	h.status = status
}

func (h *fakeHandle) terminateCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.terminations
}

type fakeSpawner struct {
	mu      sync.Mutex
	handles map[runtime.Role]*fakeHandle
	errs    map[runtime.Role]error
	spawned []runtime.Command
}

func (f *fakeSpawner) Spawn(_ context.Context, cmd runtime.Command) (runtime.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spawned = append(f.spawned, cmd)
	if err := f.errs[cmd.Role]; err != nil {
		return nil, err
	}
	h, ok := f.handles[cmd.Role]
	if !ok {
		return nil, errors.New("no handle configured")
	}
	return h, nil
}

func (f *fakeSpawner) spawnedCommands() []runtime.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]runtime.Command(nil), f.spawned...)
}

type fakeProbe struct {
	available  map[string]bool
	installErr error
	installs   []string
}

func (p *fakeProbe) Available(_ context.Context, tool string) bool {
	return p.available[tool]
}

func (p *fakeProbe) Install(_ context.Context, tool string) error {
	p.installs = append(p.installs, tool)
	return p.installErr
}

type fakeSecondary struct {
	cfg *config.WatcherConfig
	err error
}

func (f fakeSecondary) ReadSecondary() (*config.WatcherConfig, error) {
	return f.cfg, f.err
}

// fakeSignals hands out the session's token instead of touching OS signals.
type fakeSignals struct {
	err         error
	cancelEarly bool

	mu      sync.Mutex
	token   *Cancellation
	stopped bool
	ready   chan struct{}
}

func newFakeSignals() *fakeSignals {
	return &fakeSignals{ready: make(chan struct{})}
}

func (f *fakeSignals) Install(c *Cancellation) (func(), error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	f.token = c
	f.mu.Unlock()
	if f.cancelEarly {
		c.Cancel()
	}
	close(f.ready)
	return func() {
		f.mu.Lock()
		f.stopped = true
		f.mu.Unlock()
	}, nil
}

func (f *fakeSignals) interrupt() {
	<-f.ready
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token.Cancel()
}
