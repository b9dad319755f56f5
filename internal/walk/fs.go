// Package walk enumerates regular files below a root directory.
package walk

import (
	"context"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
)

// Entry is one regular file found by a walk.
type Entry struct {
	// Path is the file path prefixed with the root name, usually absolute.
	Path string
	Info fs.FileInfo
}

// Root is a convenience wrapper around FS for os.Root. See FS for details.
func Root(ctx context.Context, root *os.Root, recursive bool) iter.Seq2[Entry, error] {
	return FS(ctx, root.FS(), root.Name(), recursive)
}

// FS walks the filesystem rooted at root and yields every regular file, or
// an error when a directory or file cannot be inspected. Entry paths are
// prefixed with name. Symbolic links are not followed. Without recursive
// only the top level is visited.
func FS(ctx context.Context, root fs.FS, name string, recursive bool) iter.Seq2[Entry, error] {
	if root == nil {
		panic("root is nil")
	}

	return func(yield func(Entry, error) bool) {
		fn := func(path string, d fs.DirEntry, err error) error {
			if ctx.Err() != nil {
				return fs.SkipAll
			}
			entry := Entry{Path: filepath.Join(name, filepath.FromSlash(path))}

			if err != nil {
				if !yield(entry, err) {
					return fs.SkipAll
				}
				return nil
			}

			if d.IsDir() {
				if path != "." && !recursive {
					return fs.SkipDir
				}
				return nil
			}

			info, err := d.Info()
			if err != nil {
				if !yield(entry, err) {
					return fs.SkipAll
				}
				return nil
			}
			if !info.Mode().IsRegular() {
				return nil
			}
			entry.Info = info

			if !yield(entry, nil) {
				return fs.SkipAll
			}
			return nil
		}
		_ = fs.WalkDir(root, ".", fn)
	}
}
