package scaffold

import (
	"archive/tar"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
)

type tarEntry struct {
	name     string
	body     string
	typeflag byte
	linkname string
}

func buildTarball(t *testing.T, entries ...tarEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(zw)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Mode: 0o644, Typeflag: e.typeflag, Linkname: e.linkname}
		switch e.typeflag {
		case tar.TypeDir:
			hdr.Mode = 0o755
		case tar.TypeReg:
			hdr.Size = int64(len(e.body))
		case tar.TypeXGlobalHeader:
			hdr.PAXRecords = map[string]string{"comment": "abc123"}
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if e.typeflag == tar.TypeReg {
			_, err := tw.Write([]byte(e.body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// templateRepo mirrors the layout GitHub produces for a repository tarball.
func templateRepo(t *testing.T) []byte {
	t.Helper()
	return buildTarball(t,
		tarEntry{name: "pax_global_header", typeflag: tar.TypeXGlobalHeader},
		tarEntry{name: "owner-templates-abc123/", typeflag: tar.TypeDir},
		tarEntry{name: "owner-templates-abc123/default/", typeflag: tar.TypeDir},
		tarEntry{name: "owner-templates-abc123/default/Cargo.toml", typeflag: tar.TypeReg, body: "[package]\nname = \"{{project_name}}\"\n"},
		tarEntry{name: "owner-templates-abc123/default/src/main.rs", typeflag: tar.TypeReg, body: "fn main() { println!(\"{{project_name}} by {{author}}\"); }\n"},
		tarEntry{name: "owner-templates-abc123/default/target/debug/notes.txt", typeflag: tar.TypeReg, body: "{{project_name}}"},
		tarEntry{name: "owner-templates-abc123/api/README.md", typeflag: tar.TypeReg, body: "api"},
	)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}
