package cli

import (
	stdcontext "context"
	"errors"
	"sync"

	"github.com/uncovr/unc/internal/engine"
	"github.com/uncovr/unc/internal/runtime"
)

type stubHandle struct {
	role   runtime.Role
	status runtime.ExitStatus
	exited bool

	mu         sync.Mutex
	terminated int
}

func (h *stubHandle) Role() runtime.Role { return h.role }
func (h *stubHandle) Pid() int { return 4242 }

func (h *stubHandle) TryWait() (runtime.ExitStatus, bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status, h.exited, nil
}

func (h *stubHandle) TerminateAndWait() runtime.ExitStatus {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.terminated++
	if !h.exited {
		h.exited = true
		h.status = runtime.ExitStatus{Code: 143, Signal: 15}
	}
	return h.status
}

type stubSpawner struct {
	mu       sync.Mutex
	handles  map[runtime.Role]*stubHandle
	commands []runtime.Command
}

func (s *stubSpawner) Spawn(_ stdcontext.Context, cmd runtime.Command) (runtime.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = append(s.commands, cmd)
	h, ok := s.handles[cmd.Role]
	if !ok {
		return nil, errors.New("no handle for " + string(cmd.Role))
	}
	return h, nil
}

func (s *stubSpawner) registry(opts *runtime.Options) func(runtime.Options) runtime.Registry {
	return func(o runtime.Options) runtime.Registry {
		if opts != nil {
			*opts = o
		}
		return runtime.Registry{"process": s}
	}
}

type stubProbe struct {
	available map[string]bool
}

func (p *stubProbe) Available(_ stdcontext.Context, tool string) bool { return p.available[tool] }
func (p *stubProbe) Install(stdcontext.Context, string) error { return nil }

// noSignals installs nothing; sessions end through their watchers.
type noSignals struct{}

func (noSignals) Install(*engine.Cancellation) (func(), error) { return func() {}, nil }
