// Package service runs batch scans over files and directories with bounded
// parallelism and per-file failure isolation.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/a3tai/mcp-injection-checker/internal/dispatch"
	"github.com/a3tai/mcp-injection-checker/internal/parallel"
	"github.com/a3tai/mcp-injection-checker/internal/security"
	"github.com/a3tai/mcp-injection-checker/internal/walk"
)

// DefaultWorkers is the number of files scanned concurrently when unset.
const DefaultWorkers = 4

// ErrFileTooLarge marks files skipped because of the size limit.
var ErrFileTooLarge = errors.New("file too large")

// Options configures a Service.
type Options struct {
	Workers     int
	MaxFileSize int64 // zero disables the limit
	// Root, when set, confines every path to this directory and resolves
	// relative paths against it.
	Root   string
	Logger *log.Logger
}

// Service orchestrates scans through a dispatcher.
type Service struct {
	dispatcher    *dispatch.Dispatcher
	workers       int
	maxFileSize   int64
	pathValidator *security.PathValidator
	logger        *log.Logger
}

// New creates a batch service.
func New(d *dispatch.Dispatcher, opts Options) (*Service, error) {
	if d == nil {
		return nil, errors.New("dispatcher cannot be nil")
	}

	s := &Service{
		dispatcher:  d,
		workers:     opts.Workers,
		maxFileSize: opts.MaxFileSize,
		logger:      opts.Logger,
	}
	if s.workers < 1 {
		s.workers = DefaultWorkers
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard, "", 0)
	}

	if opts.Root != "" {
		v, err := security.NewPathValidator(opts.Root)
		if err != nil {
			return nil, fmt.Errorf("failed to create path validator: %w", err)
		}
		s.pathValidator = v
	}
	return s, nil
}

// Dispatcher returns the dispatcher used for routing.
func (s *Service) Dispatcher() *dispatch.Dispatcher {
	return s.dispatcher
}

// Root returns the confining directory, or "" when paths are unrestricted.
func (s *Service) Root() string {
	if s.pathValidator == nil {
		return ""
	}
	return s.pathValidator.Root()
}

// Workers returns the configured parallelism.
func (s *Service) Workers() int {
	return s.workers
}

// ScanFile scans a single file. Failures are reported in the FileReport,
// never returned.
func (s *Service) ScanFile(path string) FileReport {
	report := FileReport{Path: path}

	if s.pathValidator != nil {
		resolved, err := s.pathValidator.Resolve(path)
		if err != nil {
			report.Status = StatusError
			report.Error = fmt.Sprintf("security validation failed: %v", err)
			return report
		}
		report.Path = resolved
	}

	scanner, err := s.dispatcher.Lookup(report.Path)
	if err != nil {
		report.Status = StatusUnsupported
		return report
	}
	report.Format = scanner.Format()

	info, err := os.Stat(report.Path)
	switch {
	case err != nil:
		return failed(report, err)
	case info.IsDir():
		return failed(report, fmt.Errorf("%s is a directory", report.Path))
	case s.maxFileSize > 0 && info.Size() > s.maxFileSize:
		return failed(report, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrFileTooLarge, info.Size(), s.maxFileSize))
	}

	res, err := scanner.Scan(report.Path)
	if err != nil {
		s.logger.Printf("[service] scan failed for %s: %v", report.Path, err)
		return failed(report, err)
	}

	report.Findings = res.Findings
	report.Status = StatusClean
	if res.Found {
		report.Status = StatusFound
	}
	return report
}

func failed(report FileReport, err error) FileReport {
	report.Status = StatusError
	report.Error = err.Error()
	return report
}

// ScanFiles scans paths in parallel. Unsupported and failing files become
// entries of the report; only cancellation aborts the batch.
func (s *Service) ScanFiles(ctx context.Context, paths []string) (*Report, error) {
	return s.run(ctx, "", func(yield func(string, error) bool) {
		for _, p := range paths {
			if !yield(p, nil) {
				return
			}
		}
	})
}

// ScanDirectory scans the regular files of dir, descending into
// subdirectories when recursive is set. An empty dir means the service root.
func (s *Service) ScanDirectory(ctx context.Context, dir string, recursive bool) (*Report, error) {
	if dir == "" {
		if s.pathValidator == nil {
			return nil, errors.New("directory cannot be empty")
		}
		dir = s.pathValidator.Root()
	}
	if s.pathValidator != nil {
		resolved, err := s.pathValidator.ResolveDirectory(dir)
		if err != nil {
			return nil, fmt.Errorf("security validation failed: %w", err)
		}
		dir = resolved
	}

	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open directory: %w", err)
	}
	defer root.Close()

	return s.run(ctx, dir, func(yield func(string, error) bool) {
		walkRoot(ctx, root, recursive, yield)
	})
}

// ScanPaths scans a mix of files and directories as one batch. Directories
// are expanded like ScanDirectory; anything else goes through ScanFile, so
// missing paths show up as error entries.
func (s *Service) ScanPaths(ctx context.Context, paths []string, recursive bool) (*Report, error) {
	return s.run(ctx, "", func(yield func(string, error) bool) {
		for _, p := range paths {
			target := p
			if s.pathValidator != nil {
				if resolved, err := s.pathValidator.Resolve(p); err == nil {
					target = resolved
				}
			}
			info, err := os.Stat(target)
			if err != nil || !info.IsDir() {
				if !yield(p, nil) {
					return
				}
				continue
			}
			if !s.walkDirectory(ctx, p, recursive, yield) {
				return
			}
		}
	})
}

// walkDirectory yields the files of dir and reports whether iteration
// should continue.
func (s *Service) walkDirectory(ctx context.Context, dir string, recursive bool, yield func(string, error) bool) bool {
	if s.pathValidator != nil {
		resolved, err := s.pathValidator.ResolveDirectory(dir)
		if err != nil {
			return yield(dir, &pathError{path: dir, err: fmt.Errorf("security validation failed: %w", err)})
		}
		dir = resolved
	}

	root, err := os.OpenRoot(dir)
	if err != nil {
		return yield(dir, &pathError{path: dir, err: err})
	}
	defer root.Close()

	return walkRoot(ctx, root, recursive, yield)
}

func walkRoot(ctx context.Context, root *os.Root, recursive bool, yield func(string, error) bool) bool {
	for e, err := range walk.Root(ctx, root, recursive) {
		if err != nil {
			err = &pathError{path: e.Path, err: err}
		}
		if !yield(e.Path, err) {
			return false
		}
	}
	return true
}

// pathError carries the path of a walk failure through the parallel map.
type pathError struct {
	path string
	err  error
}

func (e *pathError) Error() string { return e.err.Error() }
func (e *pathError) Unwrap() error { return e.err }

func (s *Service) run(ctx context.Context, rootDir string, paths iter.Seq2[string, error]) (*Report, error) {
	started := time.Now()

	scan := func(ctx context.Context, path string) (FileReport, error) {
		if err := ctx.Err(); err != nil {
			return FileReport{}, err
		}
		return s.ScanFile(path), nil
	}

	var files []FileReport
	for report, err := range parallel.NewMap(ctx, s.workers, scan).Iter(paths) {
		if err != nil {
			var pe *pathError
			if errors.As(err, &pe) {
				files = append(files, FileReport{Path: pe.path, Status: StatusError, Error: pe.Error()})
			}
			continue
		}
		files = append(files, report)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scan canceled: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	if files == nil {
		files = []FileReport{}
	}

	return &Report{
		ID:        uuid.NewString(),
		StartedAt: started.UTC(),
		Duration:  time.Since(started).String(),
		Root:      rootDir,
		Files:     files,
		Summary:   summarize(files),
	}, nil
}
