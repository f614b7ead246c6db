package engine

import (
	"errors"
	"fmt"
)

// OutcomeKind classifies how a dev session ended.
type OutcomeKind int

const (
	// CleanShutdown covers user cancellation and a primary watcher that
	// exited successfully.
	CleanShutdown OutcomeKind = iota
	// WatcherFailed means the primary watcher exited with a non-zero code.
	WatcherFailed
	// Fatal means the session could not be started or observed.
	Fatal
)

func (k OutcomeKind) String() string {
	switch k {
	case CleanShutdown:
		return "clean_shutdown"
	case WatcherFailed:
		return "watcher_failed"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Outcome is the final classification of a dev session.
type Outcome struct {
	Kind OutcomeKind
	// Code is the primary watcher's exit code for WatcherFailed.
	Code int
	// Err is the cause for Fatal outcomes.
	Err error
}

func cleanShutdown() Outcome {
	return Outcome{Kind: CleanShutdown}
}

func watcherFailed(code int) Outcome {
	return Outcome{Kind: WatcherFailed, Code: code}
}

func fatal(err error) Outcome {
	return Outcome{Kind: Fatal, Err: err}
}

// ExitCode maps the outcome to the process exit code.
func (o Outcome) ExitCode() int {
	if o.Kind == CleanShutdown {
		return 0
	}
	return 1
}

// AsError returns the outcome as an error, nil for CleanShutdown.
func (o Outcome) AsError() error {
	switch o.Kind {
	case CleanShutdown:
		return nil
	case WatcherFailed:
		return fmt.Errorf("primary watcher exited with code %d", o.Code)
	default:
		if o.Err == nil {
			return errors.New("dev session failed")
		}
		return o.Err
	}
}

func (o Outcome) String() string {
	switch o.Kind {
	case WatcherFailed:
		return fmt.Sprintf("%s(%d)", o.Kind, o.Code)
	case Fatal:
		return fmt.Sprintf("%s(%v)", o.Kind, o.Err)
	default:
		return o.Kind.String()
	}
}
