package runtime

import (
	"context"
	"fmt"
	"strings"
)

// Role identifies which watcher a process plays in a dev session.
type Role string

const (
	RolePrimary   Role = "primary"
	RoleSecondary Role = "secondary"
)

// Command describes a watcher process to launch.
type Command struct {
	Role Role
	// Name is a human readable label used in status output, e.g. "cargo".
	Name string
	Path string
	Args []string
	Dir  string
	Env  map[string]string

	// Inherit wires the child's stdio to the parent's terminal. When false
	// the child's output is discarded.
	Inherit bool
}

// String renders the command line for diagnostics.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Path
	}
	return c.Path + " " + strings.Join(c.Args, " ")
}

// ExitStatus records how a process terminated.
type ExitStatus struct {
	// Code is the exit code. Processes terminated by a signal report
	// 128+signal, following shell conventions.
	Code int
	// Signal is the terminating signal number, zero when the process exited
	// on its own.
	Signal int
}

// Success reports whether the process exited cleanly.
func (s ExitStatus) Success() bool {
	return s.Code == 0 && s.Signal == 0
}

func (s ExitStatus) String() string {
	if s.Signal != 0 {
		return fmt.Sprintf("signal %d (code %d)", s.Signal, s.Code)
	}
	return fmt.Sprintf("code %d", s.Code)
}

// Handle represents a single spawned watcher process.
type Handle interface {
	Role() Role
	Pid() int

	// TryWait polls the process without blocking. The boolean is true once
	// the process has exited and the status is final. A non-nil error means
	// the process can no longer be observed.
	TryWait() (ExitStatus, bool, error)

	// TerminateAndWait stops the process and blocks until it has been
	// reaped. It is best effort and never fails; the returned status is the
	// last one observed.
	TerminateAndWait() ExitStatus
}

// Spawner launches watcher processes.
type Spawner interface {
	Spawn(ctx context.Context, cmd Command) (Handle, error)
}

// Registry maps spawner identifiers to their concrete implementations.
type Registry map[string]Spawner

// Clone returns a shallow copy of the registry, allowing callers to avoid
// accidental mutation of shared maps.
func (r Registry) Clone() Registry {
	dup := make(Registry, len(r))
	for k, v := range r {
		dup[k] = v
	}
	return dup
}
