package engine

import "github.com/uncovr/unc/internal/runtime"

// Guard is the exclusive owner of one watcher process. Release terminates and
// reaps the process if the guard still holds it; Take moves ownership to the
// caller and leaves the guard empty, so a process is terminated at most once
// whichever path ends the session.
//
// A Guard is not safe for concurrent use; it belongs to the supervisor's
// control goroutine.
type Guard struct {
	role   runtime.Role
	handle runtime.Handle
}

// NewGuard takes ownership of h.
func NewGuard(h runtime.Handle) *Guard {
	return &Guard{role: h.Role(), handle: h}
}

// Role returns the role of the guarded process.
func (g *Guard) Role() runtime.Role {
	return g.role
}

// Holds reports whether the guard still owns a process.
func (g *Guard) Holds() bool {
	return g != nil && g.handle != nil
}

// Handle returns the owned process without transferring ownership. It is nil
// once the guard is empty.
func (g *Guard) Handle() runtime.Handle {
	if g == nil {
		return nil
	}
	return g.handle
}

// Take yields the owned process and empties the guard. Later calls return nil.
func (g *Guard) Take() runtime.Handle {
	if g == nil {
		return nil
	}
	h := g.handle
	g.handle = nil
	return h
}

// Release terminates and reaps the process if the guard still owns it. It is
// intended to be deferred and never fails.
func (g *Guard) Release() {
	if h := g.Take(); h != nil {
		h.TerminateAndWait()
	}
}
