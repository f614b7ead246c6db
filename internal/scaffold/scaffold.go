// Package scaffold creates a new project from a template directory stored in
// a GitHub repository.
package scaffold

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// ErrTargetExists is returned when the project directory is already present.
var ErrTargetExists = errors.New("directory already exists")

// Fetcher downloads a repository at a branch and extracts it into dest.
type Fetcher interface {
	Fetch(ctx context.Context, owner, repo, branch, dest string) error
}

// GitInitializer creates the initial commit of a new project.
type GitInitializer interface {
	Init(ctx context.Context, dir string) error
}

// ToolProbe checks for and installs the watcher tool new projects run with.
type ToolProbe interface {
	Available(ctx context.Context, tool string) bool
	Install(ctx context.Context, tool string) error
}

// Options describe one create-app invocation.
type Options struct {
	Name     string
	Template string
	Repo     string
	Branch   string
	// Dir is the parent directory of the project. Empty means the working
	// directory.
	Dir string
	// Replacements are extra {{key}} substitutions applied alongside the
	// project name.
	Replacements map[string]string
}

// Result summarises a created project.
type Result struct {
	Path       string
	RunCommand string
	Warnings   []string
}

// Creator runs the scaffold pipeline.
type Creator struct {
	fetcher Fetcher
	git     GitInitializer
	probe   ToolProbe
	logger  *log.Logger

	// WatchTool is the tool ensured after creation; RunCommand depends on it.
	WatchTool string
}

// NewCreator wires a Creator. git and probe may be nil to skip those steps.
func NewCreator(fetcher Fetcher, git GitInitializer, probe ToolProbe, logger *log.Logger) *Creator {
	if logger == nil {
		logger = log.Default()
	}
	return &Creator{
		fetcher:   fetcher,
		git:       git,
		probe:     probe,
		logger:    logger,
		WatchTool: "cargo-watch",
	}
}

// Create scaffolds a project. On a download or template error the partially
// created project directory is removed. Git and tool installation problems
// are reported as warnings in the result.
func (c *Creator) Create(ctx context.Context, opts Options) (*Result, error) {
	if err := ValidateName(opts.Name); err != nil {
		return nil, err
	}
	owner, repo, err := ParseRepo(NormalizeRepoURL(opts.Repo))
	if err != nil {
		return nil, err
	}

	project := filepath.Join(opts.Dir, opts.Name)
	if _, err := os.Lstat(project); err == nil {
		return nil, fmt.Errorf("%w: '%s'", ErrTargetExists, opts.Name)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if err := os.MkdirAll(project, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory '%s': %w", opts.Name, err)
	}

	if err := c.populate(ctx, owner, repo, project, opts); err != nil {
		c.logger.Warn("cleaning up", "path", project)
		if rmErr := os.RemoveAll(project); rmErr != nil {
			c.logger.Debug("cleanup failed", "path", project, "err", rmErr)
		}
		return nil, err
	}

	res := &Result{Path: project, RunCommand: "cargo run"}
	if c.git != nil {
		if err := c.git.Init(ctx, project); err != nil {
			res.Warnings = append(res.Warnings, err.Error())
		}
	}
	if c.probe != nil && c.WatchTool != "" {
		if !c.probe.Available(ctx, c.WatchTool) {
			c.logger.Info(c.WatchTool + " is not installed, installing...")
			if err := c.probe.Install(ctx, c.WatchTool); err != nil {
				res.Warnings = append(res.Warnings, err.Error())
			}
		}
		if c.probe.Available(ctx, c.WatchTool) {
			res.RunCommand = "cargo watch -x run"
		}
	}
	return res, nil
}

func (c *Creator) populate(ctx context.Context, owner, repo, project string, opts Options) error {
	tmp, err := os.MkdirTemp("", "unc-template-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmp)

	c.logger.Debug("downloading template", "owner", owner, "repo", repo, "branch", opts.Branch)
	if err := c.fetcher.Fetch(ctx, owner, repo, opts.Branch, tmp); err != nil {
		return err
	}
	if err := CopyTemplate(tmp, opts.Template, project); err != nil {
		return err
	}

	replacements := map[string]string{ProjectNameKey: opts.Name}
	for key, value := range opts.Replacements {
		if key == ProjectNameKey {
			continue
		}
		replacements[key] = value
	}
	if err := ReplacePlaceholders(project, replacements); err != nil {
		return fmt.Errorf("replace placeholders: %w", err)
	}
	return nil
}
