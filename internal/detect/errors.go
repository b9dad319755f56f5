package detect

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat is returned when no scanner is bound to a file's
	// extension. It is a routing outcome, not a scan failure.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrMalformedInput is returned when a package, XML part or byte
	// structure cannot be opened or interpreted.
	ErrMalformedInput = errors.New("malformed input")
)

// ScanError describes a failed scan of one file.
type ScanError struct {
	Path   string `json:"path"`
	Format string `json:"format"`
	Err    error  `json:"-"`
}

// Error implements the error interface
func (e *ScanError) Error() string {
	return fmt.Sprintf("scan %s (%s): %v", e.Path, e.Format, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// Malformed wraps cause as an ErrMalformedInput failure for path.
func Malformed(format, path string, cause error) error {
	return &ScanError{
		Path:   path,
		Format: format,
		Err:    fmt.Errorf("%w: %w", ErrMalformedInput, cause),
	}
}

// Failed wraps a non-structural failure, such as an I/O error, for path.
func Failed(format, path string, cause error) error {
	return &ScanError{Path: path, Format: format, Err: cause}
}
