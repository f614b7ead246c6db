// Package probe checks whether the external tools used by unc are present and
// installs the ones that can be installed on demand.
package probe

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrUnknownTool is returned for tools that were never registered.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrNotInstallable is returned when a tool has no install command.
	ErrNotInstallable = errors.New("tool cannot be installed automatically")
	// ErrInstallFailed wraps failures of the install command.
	ErrInstallFailed = errors.New("install failed")
)

// Tool describes an external executable and how to obtain it.
type Tool struct {
	Name string
	// Check is run to determine availability; a zero exit status means the
	// tool is usable.
	Check []string
	// Install is run to install the tool. Empty when the tool must be
	// installed by the user.
	Install []string
}

// Built-in tools.
var (
	CargoWatch = Tool{
		Name:    "cargo-watch",
		Check:   []string{"cargo", "watch", "--version"},
		Install: []string{"cargo", "install", "cargo-watch"},
	}
	Npx = Tool{
		Name:  "npx",
		Check: []string{"npx", "--version"},
	}
	Git = Tool{
		Name:  "git",
		Check: []string{"git", "--version"},
	}
)

// Runner executes a command line and reports a non-nil error for any failure,
// including a non-zero exit status.
type Runner func(ctx context.Context, argv []string) error

// Prober answers availability questions for a fixed set of tools.
type Prober struct {
	mu    sync.RWMutex
	tools map[string]Tool
	run   Runner
}

// Option customises a Prober.
type Option func(*Prober)

// WithRunner replaces the command runner, primarily for tests.
func WithRunner(r Runner) Option {
	return func(p *Prober) {
		if r != nil {
			p.run = r
		}
	}
}

// WithTools registers additional tools, replacing built-ins of the same name.
func WithTools(tools ...Tool) Option {
	return func(p *Prober) {
		for _, t := range tools {
			p.tools[t.Name] = t
		}
	}
}

// New constructs a Prober that knows about the built-in tools.
func New(opts ...Option) *Prober {
	p := &Prober{
		tools: map[string]Tool{
			CargoWatch.Name: CargoWatch,
			Npx.Name:        Npx,
			Git.Name:        Git,
		},
		run: runCommand,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Tool returns the registered description for name.
func (p *Prober) Tool(name string) (Tool, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	t, ok := p.tools[name]
	return t, ok
}

// Available reports whether the named tool can be executed. Unknown tools are
// reported as unavailable.
func (p *Prober) Available(ctx context.Context, name string) bool {
	tool, ok := p.Tool(name)
	if !ok || len(tool.Check) == 0 {
		return false
	}
	return p.run(ctx, tool.Check) == nil
}

// Install runs the tool's install command once. It does not re-check
// availability afterwards.
func (p *Prober) Install(ctx context.Context, name string) error {
	tool, ok := p.Tool(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	if len(tool.Install) == 0 {
		return fmt.Errorf("%s: %w", name, ErrNotInstallable)
	}
	if err := p.run(ctx, tool.Install); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInstallFailed, name, err)
	}
	return nil
}
