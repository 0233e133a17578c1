package util

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// NormalizePatternPath cleans a path into the slash form used for pattern
// matching and report output. The root itself normalizes to "".
func NormalizePatternPath(s string) string {
	trimmed := strings.TrimSpace(strings.ReplaceAll(s, "\\", "/"))
	clean := path.Clean(trimmed)
	if clean == "." {
		return ""
	}
	return strings.TrimPrefix(clean, "./")
}

// IsHidden reports whether a base name is a dot file or dot directory.
// "." and ".." are not hidden.
func IsHidden(name string) bool {
	return len(name) > 1 && name[0] == '.' && name != ".."
}

// AncestorDirs lists dir and each of its parents up to and including root,
// nearest first. dir outside root yields only dir.
func AncestorDirs(dir, root string) []string {
	dir = filepath.Clean(dir)
	root = filepath.Clean(root)
	out := []string{dir}
	for dir != root {
		parent := filepath.Dir(dir)
		if parent == dir {
			return out[:1]
		}
		dir = parent
		out = append(out, dir)
	}
	return out
}

// ResolveOutputPath anchors a relative artifact path at root.
func ResolveOutputPath(p, root string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}

// SortedStringKeys returns the map's keys in sorted order.
func SortedStringKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// WriteFileWithDirs creates parent directories (0755) and writes the file with perm.
func WriteFileWithDirs(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, perm)
}

func WriteStringWithDirs(path, content string, perm fs.FileMode) error {
	return WriteFileWithDirs(path, []byte(content), perm)
}
