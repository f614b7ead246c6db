package engine

import (
	"errors"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
)

// ErrAlreadyInstalled is returned when a cancellation token is wired to OS
// signals more than once.
var ErrAlreadyInstalled = errors.New("signal handler already installed")

// Cancellation is a monotonic latch recording that the user asked the session
// to stop. Once set it stays set.
type Cancellation struct {
	cancelled atomic.Bool
	installed atomic.Bool
}

// Cancel sets the latch.
func (c *Cancellation) Cancel() {
	c.cancelled.Store(true)
}

// Cancelled reports whether Cancel has been called.
func (c *Cancellation) Cancelled() bool {
	return c.cancelled.Load()
}

// SignalInstaller connects a Cancellation to an asynchronous interrupt source.
// The returned stop function disconnects it.
type SignalInstaller interface {
	Install(c *Cancellation) (stop func(), err error)
}

// OSSignals installs handlers for SIGINT and SIGTERM.
type OSSignals struct{}

// Install registers the handler. Each delivered signal only sets the latch.
func (OSSignals) Install(c *Cancellation) (func(), error) {
	if c == nil {
		return nil, errors.New("signal handler requires a cancellation token")
	}
	if !c.installed.CompareAndSwap(false, true) {
		return nil, ErrAlreadyInstalled
	}

	sigCh := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		for {
			select {
			case <-sigCh:
				c.Cancel()
			case <-done:
				return
			}
		}
	}()

	stop := func() {
		signal.Stop(sigCh)
		close(done)
	}
	return stop, nil
}
