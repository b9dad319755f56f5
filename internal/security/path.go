// Package security confines tool-server file access to a configured root.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrEmptyPath is returned for blank path arguments.
	ErrEmptyPath = errors.New("path cannot be empty")

	// ErrOutsideRoot is returned for paths that resolve outside the root.
	ErrOutsideRoot = errors.New("path is outside the allowed root")
)

// PathValidator resolves caller-supplied paths against a root directory.
type PathValidator struct {
	root string
}

// NewPathValidator creates a validator for root. The root does not have to
// exist yet.
func NewPathValidator(root string) (*PathValidator, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("root directory: %w", ErrEmptyPath)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root directory: %w", err)
	}
	return &PathValidator{root: filepath.Clean(abs)}, nil
}

// Root returns the absolute root directory.
func (v *PathValidator) Root() string {
	return v.root
}

// Resolve returns the absolute form of path, joining relative paths to the
// root, and rejects anything that escapes the root lexically or through a
// symbolic link.
func (v *PathValidator) Resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if strings.TrimSpace(path) == "" {
		return "", ErrEmptyPath
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(v.root, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	abs = filepath.Clean(abs)

	if !v.contains(abs) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}
	return abs, nil
}

// ResolveDirectory is Resolve plus a check that the target is a directory.
func (v *PathValidator) ResolveDirectory(path string) (string, error) {
	abs, err := v.Resolve(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", abs)
	}
	return abs, nil
}

// contains checks both the lexical path and, where it exists, its fully
// resolved target against both the lexical and resolved root.
func (v *PathValidator) contains(abs string) bool {
	roots := []string{v.root}
	if real, err := filepath.EvalSymlinks(v.root); err == nil && real != v.root {
		roots = append(roots, real)
	}

	within := func(p string) bool {
		for _, r := range roots {
			if p == r || strings.HasPrefix(p, withSeparator(r)) {
				return true
			}
		}
		return false
	}

	if !within(abs) {
		return false
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return within(real)
	}
	return true
}

func withSeparator(dir string) string {
	if strings.HasSuffix(dir, string(filepath.Separator)) {
		return dir
	}
	return dir + string(filepath.Separator)
}
