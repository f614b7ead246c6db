package scaffold

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type archiveFetcher struct {
	archive []byte
	err     error
	calls   []string
}

func (f *archiveFetcher) Fetch(_ context.Context, owner, repo, branch, dest string) error {
	f.calls = append(f.calls, owner+"/"+repo+"@"+branch)
	if f.err != nil {
		return f.err
	}
	return Extract(bytes.NewReader(f.archive), dest)
}

type fakeGit struct {
	err  error
	dirs []string
}

func (g *fakeGit) Init(_ context.Context, dir string) error {
	g.dirs = append(g.dirs, dir)
	return g.err
}

type fakeTools struct {
	available  bool
	installErr error
	installs   int
}

func (p *fakeTools) Available(context.Context, string) bool { return p.available }

func (p *fakeTools) Install(context.Context, string) error {
	p.installs++
	if p.installErr == nil {
		p.available = true
	}
	return p.installErr
}

func quietLogger() *log.Logger { return log.New(io.Discard) }

func TestCreateScaffoldsProject(t *testing.T) {
	parent := t.TempDir()
	fetcher := &archiveFetcher{archive: templateRepo(t)}
	git := &fakeGit{}
	tools := &fakeTools{available: true}
	c := NewCreator(fetcher, git, tools, quietLogger())

	res, err := c.Create(context.Background(), Options{
		Name:         "my-app",
		Template:     "default",
		Repo:         "owner/templates",
		Branch:       "main",
		Dir:          parent,
		Replacements: map[string]string{"author": "Jane", ProjectNameKey: "ignored"},
	})
	require.NoError(t, err)

	project := filepath.Join(parent, "my-app")
	assert.Equal(t, project, res.Path)
	assert.Equal(t, "cargo watch -x run", res.RunCommand)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, []string{"owner/templates@main"}, fetcher.calls)
	assert.Equal(t, []string{project}, git.dirs)
	assert.Zero(t, tools.installs)

	assert.Contains(t, readFile(t, filepath.Join(project, "Cargo.toml")), `name = "my-app"`)
	assert.Contains(t, readFile(t, filepath.Join(project, "src", "main.rs")), "my-app by Jane")
	assert.Equal(t, "{{project_name}}", readFile(t, filepath.Join(project, "target", "debug", "notes.txt")))
}

func TestCreateRejectsInvalidName(t *testing.T) {
	fetcher := &archiveFetcher{}
	_, err := NewCreator(fetcher, nil, nil, quietLogger()).Create(context.Background(), Options{Name: "1app", Repo: "o/r", Dir: t.TempDir()})

	assert.ErrorIs(t, err, ErrInvalidName)
	assert.Empty(t, fetcher.calls)
}

func TestCreateRefusesExistingDirectory(t *testing.T) {
	parent := t.TempDir()
	writeFile(t, filepath.Join(parent, "my-app", "keep.txt"), "mine")
	fetcher := &archiveFetcher{}

	_, err := NewCreator(fetcher, nil, nil, quietLogger()).Create(context.Background(), Options{Name: "my-app", Repo: "o/r", Dir: parent})

	assert.ErrorIs(t, err, ErrTargetExists)
	assert.Equal(t, "mine", readFile(t, filepath.Join(parent, "my-app", "keep.txt")))
	assert.Empty(t, fetcher.calls)
}

func TestCreateCleansUpOnDownloadFailure(t *testing.T) {
	parent := t.TempDir()
	fetcher := &archiveFetcher{err: errors.New("failed to download template: HTTP 404 Not Found")}
	git := &fakeGit{}

	_, err := NewCreator(fetcher, git, nil, quietLogger()).Create(context.Background(), Options{Name: "my-app", Template: "default", Repo: "o/r", Branch: "main", Dir: parent})

	assert.ErrorContains(t, err, "HTTP 404")
	_, statErr := os.Stat(filepath.Join(parent, "my-app"))
	assert.True(t, os.IsNotExist(statErr), "project directory should be removed")
	assert.Empty(t, git.dirs)
}

func TestCreateCleansUpOnMissingTemplate(t *testing.T) {
	parent := t.TempDir()
	fetcher := &archiveFetcher{archive: templateRepo(t)}

	_, err := NewCreator(fetcher, nil, nil, quietLogger()).Create(context.Background(), Options{Name: "my-app", Template: "nope", Repo: "o/r", Branch: "main", Dir: parent})

	assert.ErrorContains(t, err, "template 'nope' not found")
	assert.NoDirExists(t, filepath.Join(parent, "my-app"))
}

func TestCreateReportsWarnings(t *testing.T) {
	parent := t.TempDir()
	fetcher := &archiveFetcher{archive: templateRepo(t)}
	git := &fakeGit{err: errors.New("git not found, skipping git init")}
	tools := &fakeTools{installErr: errors.New("install failed: cargo-watch: exit 101")}

	res, err := NewCreator(fetcher, git, tools, quietLogger()).Create(context.Background(), Options{Name: "app", Template: "default", Repo: "o/r", Branch: "main", Dir: parent})
	require.NoError(t, err)

	assert.Equal(t, "cargo run", res.RunCommand)
	assert.Equal(t, 1, tools.installs)
	assert.Equal(t, []string{"git not found, skipping git init", "install failed: cargo-watch: exit 101"}, res.Warnings)
	assert.DirExists(t, filepath.Join(parent, "app"))
}

func TestCreateInstallsWatchTool(t *testing.T) {
	fetcher := &archiveFetcher{archive: templateRepo(t)}
	tools := &fakeTools{}

	res, err := NewCreator(fetcher, nil, tools, quietLogger()).Create(context.Background(), Options{Name: "app", Template: "default", Repo: "o/r", Branch: "main", Dir: t.TempDir()})
	require.NoError(t, err)

	assert.Equal(t, 1, tools.installs)
	assert.Equal(t, "cargo watch -x run", res.RunCommand)
}
