package scaffold

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsBinary(t *testing.T) {
	for _, p := range []string{"file.exe", "lib.dll", "lib.so", "lib.dylib", "x.bin", "x.o", "libx.a"} {
		assert.True(t, IsBinary(p), p)
	}
	for _, p := range []string{"file.txt", "file.rs", "Cargo.toml", "Makefile"} {
		assert.False(t, IsBinary(p), p)
	}
}

func TestShouldSkip(t *testing.T) {
	assert.True(t, ShouldSkip("src/target/debug/app"))
	assert.True(t, ShouldSkip(filepath.Join("target", "release", "notes.txt")))
	assert.True(t, ShouldSkip("file.exe"))
	assert.False(t, ShouldSkip("src/main.rs"))
	assert.False(t, ShouldSkip("Cargo.toml"))
	assert.False(t, ShouldSkip("target"), "a file named target is not the build directory")
}

func TestReplacePlaceholders(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "test.txt"), "Project: {{project_name}}\nAuthor: {{author}}")
	writeFile(t, filepath.Join(root, "plain.txt"), "No placeholders here")
	writeFile(t, filepath.Join(root, "target", "out.txt"), "{{project_name}}")
	writeFile(t, filepath.Join(root, "lib.so"), "{{project_name}}")
	require.NoError(t, os.WriteFile(filepath.Join(root, "blob.dat"), []byte{0xff, 0xfe, '{', '{'}, 0o644))

	err := ReplacePlaceholders(root, map[string]string{"project_name": "my-app", "author": "Jane Doe"})
	require.NoError(t, err)

	assert.Equal(t, "Project: my-app\nAuthor: Jane Doe", readFile(t, filepath.Join(root, "test.txt")))
	assert.Equal(t, "No placeholders here", readFile(t, filepath.Join(root, "plain.txt")))
	assert.Equal(t, "{{project_name}}", readFile(t, filepath.Join(root, "target", "out.txt")))
	assert.Equal(t, "{{project_name}}", readFile(t, filepath.Join(root, "lib.so")))
	assert.Equal(t, string([]byte{0xff, 0xfe, '{', '{'}), readFile(t, filepath.Join(root, "blob.dat")))
}

func TestReplacePlaceholdersKeepsMode(t *testing.T) {
	root := t.TempDir()
	script := filepath.Join(root, "run.sh")
	require.NoError(t, os.WriteFile(script, []byte("echo {{project_name}}"), 0o755))

	require.NoError(t, ReplacePlaceholders(root, map[string]string{"project_name": "demo"}))

	info, err := os.Stat(script)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
	assert.Equal(t, "echo demo", readFile(t, script))
}
