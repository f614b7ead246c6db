// Package gitutil initialises a git repository for a freshly scaffolded
// project.
package gitutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// InitialCommitMessage is used for the first commit of a new project.
const InitialCommitMessage = "Initial commit from unc"

// ErrGitUnavailable is returned when the git executable cannot be run.
var ErrGitUnavailable = errors.New("git not found, skipping git init")

// Runner executes git with args inside dir.
type Runner func(ctx context.Context, dir string, args ...string) error

// Availability reports whether a tool can be run.
type Availability interface {
	Available(ctx context.Context, tool string) bool
}

// Initializer creates a repository and its initial commit.
type Initializer struct {
	probe Availability
	run   Runner
}

// Option customises an Initializer.
type Option func(*Initializer)

// WithRunner replaces the git runner.
func WithRunner(r Runner) Option {
	return func(i *Initializer) {
		if r != nil {
			i.run = r
		}
	}
}

// New constructs an Initializer. probe may be nil, in which case git is
// assumed to be present.
func New(probe Availability, opts ...Option) *Initializer {
	i := &Initializer{probe: probe, run: runGit}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Init runs git init, stages every file and commits. Callers treat the
// returned error as a warning.
func (i *Initializer) Init(ctx context.Context, dir string) error {
	if i.probe != nil && !i.probe.Available(ctx, "git") {
		return ErrGitUnavailable
	}
	if err := i.run(ctx, dir, "init"); err != nil {
		return fmt.Errorf("failed to initialize git repository: %w", err)
	}
	if err := i.run(ctx, dir, "add", "."); err != nil {
		return fmt.Errorf("stage files: %w", err)
	}
	if err := i.run(ctx, dir, "commit", "-m", InitialCommitMessage); err != nil {
		return fmt.Errorf("create initial commit: %w", err)
	}
	return nil
}

func runGit(ctx context.Context, dir string, args ...string) error {
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return ErrGitUnavailable
		}
		if msg := strings.TrimSpace(out.String()); msg != "" {
			return fmt.Errorf("git %s: %w: %s", args[0], err, lastLine(msg))
		}
		return fmt.Errorf("git %s: %w", args[0], err)
	}
	return nil
}

func lastLine(s string) string {
	if idx := strings.LastIndexByte(s, '\n'); idx >= 0 {
		return s[idx+1:]
	}
	return s
}
