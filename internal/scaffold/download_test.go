package scaffold

import (
	"archive/tar"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchDownloadsAndExtracts(t *testing.T) {
	archive := templateRepo(t)
	var gotPath, gotAgent, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAgent = r.Header.Get("User-Agent")
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write(archive)
	}))
	defer srv.Close()

	dest := t.TempDir()
	d := NewDownloader(WithBaseURL(srv.URL+"/"), WithToken("secret"))
	require.NoError(t, d.Fetch(context.Background(), "owner", "templates", "main", dest))

	assert.Equal(t, "/repos/owner/templates/tarball/main", gotPath)
	assert.Equal(t, UserAgent, gotAgent)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.FileExists(t, filepath.Join(dest, "owner-templates-abc123", "default", "Cargo.toml"))
	assert.NoFileExists(t, filepath.Join(dest, "pax_global_header"))
}

func TestFetchWithoutTokenSendsNoAuthorization(t *testing.T) {
	archive := templateRepo(t)
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write(archive)
	}))
	defer srv.Close()

	d := NewDownloader(WithBaseURL(srv.URL), WithToken(""))
	require.NoError(t, d.Fetch(context.Background(), "owner", "templates", "main", t.TempDir()))
	assert.Empty(t, gotAuth)
}

func TestFetchReportsHTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	err := NewDownloader(WithBaseURL(srv.URL)).Fetch(context.Background(), "owner", "missing", "dev", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")
	assert.Contains(t, err.Error(), "owner/missing")
	assert.Contains(t, err.Error(), "branch dev")
}

func TestFetchRejectsCorruptArchive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not a tarball"))
	}))
	defer srv.Close()

	err := NewDownloader(WithBaseURL(srv.URL)).Fetch(context.Background(), "o", "r", "main", t.TempDir())
	assert.ErrorContains(t, err, "failed to extract tarball")
}

func TestTarballURLEscapesBranch(t *testing.T) {
	d := NewDownloader(WithBaseURL("https://example.test"))
	assert.Equal(t, "https://example.test/repos/o/r/tarball/feature%2Fx", d.TarballURL("o", "r", "feature/x"))
}

func TestExtractRejectsEscapingEntries(t *testing.T) {
	tests := map[string]tarEntry{
		"parent traversal": {name: "../evil.txt", typeflag: tar.TypeReg, body: "x"},
		"nested traversal": {name: "root/../../evil.txt", typeflag: tar.TypeReg, body: "x"},
		"absolute path":    {name: "/etc/evil.txt", typeflag: tar.TypeReg, body: "x"},
		"escaping link":    {name: "root/link", typeflag: tar.TypeSymlink, linkname: "../../outside"},
		"absolute link":    {name: "root/link", typeflag: tar.TypeSymlink, linkname: "/etc/passwd"},
	}

	for name, entry := range tests {
		t.Run(name, func(t *testing.T) {
			parent := t.TempDir()
			dest := filepath.Join(parent, "dest")
			require.NoError(t, os.Mkdir(dest, 0o755))

			err := Extract(bytes.NewReader(buildTarball(t, entry)), dest)

			assert.ErrorIs(t, err, ErrUnsafeArchive)
			assert.NoFileExists(t, filepath.Join(parent, "evil.txt"))
		})
	}
}

func TestExtractKeepsInternalSymlinks(t *testing.T) {
	dest := t.TempDir()
	archive := buildTarball(t,
		tarEntry{name: "root/", typeflag: tar.TypeDir},
		tarEntry{name: "root/a.txt", typeflag: tar.TypeReg, body: "hello"},
		tarEntry{name: "root/b.txt", typeflag: tar.TypeSymlink, linkname: "a.txt"},
	)

	require.NoError(t, Extract(bytes.NewReader(archive), dest))

	link, err := os.Readlink(filepath.Join(dest, "root", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "a.txt", link)
	assert.Equal(t, "hello", readFile(t, filepath.Join(dest, "root", "b.txt")))
}

func TestExtractRejectsWritesThroughExtractedLinks(t *testing.T) {
	tests := map[string][]tarEntry{
		"link under a link": {
			{name: "a", typeflag: tar.TypeSymlink, linkname: "."},
			{name: "a/b", typeflag: tar.TypeSymlink, linkname: ".."},
			{name: "b/evil.txt", typeflag: tar.TypeReg, body: "x"},
		},
		"link target through a link": {
			{name: "d", typeflag: tar.TypeSymlink, linkname: "."},
			{name: "e", typeflag: tar.TypeSymlink, linkname: "d/.."},
			{name: "e/evil.txt", typeflag: tar.TypeReg, body: "x"},
		},
		"file onto a link": {
			{name: "root/", typeflag: tar.TypeDir},
			{name: "root/evil.txt", typeflag: tar.TypeSymlink, linkname: "../x"},
			{name: "root/evil.txt", typeflag: tar.TypeReg, body: "x"},
		},
		"directory through a link": {
			{name: "a", typeflag: tar.TypeSymlink, linkname: "."},
			{name: "a/sub/", typeflag: tar.TypeDir},
		},
	}

	for name, entries := range tests {
		t.Run(name, func(t *testing.T) {
			parent := t.TempDir()
			dest := filepath.Join(parent, "extract")
			require.NoError(t, os.Mkdir(dest, 0o755))

			err := Extract(bytes.NewReader(buildTarball(t, entries...)), dest)

			assert.ErrorIs(t, err, ErrUnsafeArchive)
			assert.NoFileExists(t, filepath.Join(parent, "evil.txt"))
			assert.NoFileExists(t, filepath.Join(parent, "x"))
		})
	}
}
