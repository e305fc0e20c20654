package pathutil

import (
	"path/filepath"
	"strings"
)

// Normalize returns a canonical filesystem path string.
// It removes trailing slashes, collapses "." and "..", and
// preserves relative paths when provided.
func Normalize(path string) string {
	if path == "" {
		return path
	}
	return filepath.Clean(path)
}

// Canonical resolves symlinks and returns the absolute real path.
// If resolution fails (broken link, vanished entry) the cleaned
// absolute path is returned instead so callers always get a usable
// key.
func Canonical(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Normalize(path)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return Normalize(abs)
	}
	return resolved
}

// IsHidden reports whether the last path element is a dotfile.
func IsHidden(name string) bool {
	base := filepath.Base(name)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}
