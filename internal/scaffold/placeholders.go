package scaffold

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// ProjectNameKey is the placeholder replaced with the project name.
const ProjectNameKey = "project_name"

var binaryExtensions = map[string]struct{}{
	"exe": {}, "dll": {}, "so": {}, "dylib": {}, "bin": {}, "o": {}, "a": {},
}

// IsBinary reports whether path has an extension of a compiled artifact.
func IsBinary(path string) bool {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	_, ok := binaryExtensions[ext]
	return ok
}

// ShouldSkip reports whether a path relative to the project root is excluded
// from placeholder substitution: build output under target/ and binaries.
func ShouldSkip(rel string) bool {
	parts := strings.Split(filepath.ToSlash(rel), "/")
	for _, dir := range parts[:len(parts)-1] {
		if dir == "target" {
			return true
		}
	}
	return IsBinary(rel)
}

// ReplacePlaceholders rewrites every text file under root, replacing each
// {{key}} with its value. Files that are not valid UTF-8 are left alone.
func ReplacePlaceholders(root string, replacements map[string]string) error {
	if len(replacements) == 0 {
		return nil
	}
	pairs := make([]string, 0, len(replacements)*2)
	for key, value := range replacements {
		pairs = append(pairs, "{{"+key+"}}", value)
	}
	replacer := strings.NewReplacer(pairs...)

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if ShouldSkip(rel) {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if !utf8.Valid(content) || !bytes.Contains(content, []byte("{{")) {
			return nil
		}
		updated := replacer.Replace(string(content))
		if updated == string(content) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		return os.WriteFile(path, []byte(updated), info.Mode().Perm())
	})
}
