package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/uncovr/unc/internal/runtime"
)

// DefaultStopTimeout bounds how long a watcher may take to exit after the
// graceful termination signal before it is killed.
const DefaultStopTimeout = 2 * time.Second

// ErrProcessLost is reported by TryWait when the child exited but its status
// could not be collected.
var ErrProcessLost = errors.New("process lost")

func init() {
	runtime.Register("process", func(o runtime.Options) runtime.Spawner {
		return New(WithStopTimeout(o.StopTimeout))
	})
}

type spawner struct {
	stopTimeout time.Duration
}

// Option customises the process spawner.
type Option func(*spawner)

// WithStopTimeout overrides the grace period between the termination signal
// and the forced kill. Non-positive values kill immediately.
func WithStopTimeout(d time.Duration) Option {
	return func(s *spawner) {
		s.stopTimeout = d
	}
}

// New constructs a spawner that executes watchers as local processes.
func New(opts ...Option) runtime.Spawner {
	s := &spawner{stopTimeout: DefaultStopTimeout}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *spawner) Spawn(ctx context.Context, c runtime.Command) (runtime.Handle, error) {
	if c.Path == "" {
		return nil, fmt.Errorf("%s watcher requires a command", c.Role)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// The handle, not the context, owns the child's lifetime; exec.CommandContext
	// would add a second kill path.
	cmd := exec.Command(c.Path, c.Args...)
	if c.Dir != "" {
		cmd.Dir = c.Dir
	}
	if len(c.Env) > 0 {
		env := os.Environ()
		for k, v := range c.Env {
			env = append(env, fmt.Sprintf("%s=%s", k, v))
		}
		cmd.Env = env
	}
	var stdin io.WriteCloser
	if c.Inherit {
		// The child runs in its own process group, so reading the terminal
		// would stop it with SIGTTIN. It gets a pipe that stays open until
		// the handle is terminated; watchers that exit on EOF keep running.
		pipe, err := cmd.StdinPipe()
		if err != nil {
			return nil, fmt.Errorf("stdin for %s watcher %s: %w", c.Role, c.Path, err)
		}
		stdin = pipe
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}

	configureCmdSysProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		if stdin != nil {
			_ = stdin.Close()
		}
		return nil, fmt.Errorf("start %s watcher %s: %w", c.Role, c.Path, err)
	}

	h := &processHandle{
		role:        c.Role,
		name:        c.Name,
		cmd:         cmd,
		stdin:       stdin,
		done:        make(chan struct{}),
		stopTimeout: s.stopTimeout,
	}
	go h.reap()
	return h, nil
}

type processHandle struct {
	role        runtime.Role
	name        string
	cmd         *exec.Cmd
	stdin       io.WriteCloser
	stopTimeout time.Duration

	// status and waitErr are written once by reap before done is closed.
	done    chan struct{}
	status  runtime.ExitStatus
	waitErr error
}

func (h *processHandle) Role() runtime.Role {
	return h.role
}

func (h *processHandle) Pid() int {
	if h.cmd.Process == nil {
		return 0
	}
	return h.cmd.Process.Pid
}

func (h *processHandle) reap() {
	defer close(h.done)
	err := h.cmd.Wait()
	if h.cmd.ProcessState == nil {
		if err == nil {
			err = ErrProcessLost
		}
		h.waitErr = fmt.Errorf("%s watcher %s: %w", h.role, h.name, err)
		h.status = runtime.ExitStatus{Code: -1}
		return
	}
	h.status = exitStatus(h.cmd.ProcessState)
}

func (h *processHandle) TryWait() (runtime.ExitStatus, bool, error) {
	select {
	case <-h.done:
		return h.status, true, h.waitErr
	default:
		return runtime.ExitStatus{}, false, nil
	}
}

func (h *processHandle) TerminateAndWait() runtime.ExitStatus {
	select {
	case <-h.done:
		return h.status
	default:
	}

	h.closeStdin()
	if h.stopTimeout > 0 {
		// Attempt a graceful shutdown first.
		_ = h.interrupt()

		timer := time.NewTimer(h.stopTimeout)
		defer timer.Stop()
		select {
		case <-h.done:
			return h.status
		case <-timer.C:
		}
	}

	_ = h.kill()
	<-h.done
	return h.status
}

func (h *processHandle) closeStdin() {
	if h.stdin != nil {
		// Wait may already have closed it.
		_ = h.stdin.Close()
	}
}
