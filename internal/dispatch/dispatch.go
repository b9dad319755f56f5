// Package dispatch routes a file to the scanner bound to its extension.
package dispatch

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/a3tai/mcp-injection-checker/internal/detect"
	"github.com/a3tai/mcp-injection-checker/internal/detect/docx"
	"github.com/a3tai/mcp-injection-checker/internal/detect/pdf"
	"github.com/a3tai/mcp-injection-checker/internal/detect/pptx"
)

// Dispatcher holds an immutable extension table. It is safe for concurrent use.
type Dispatcher struct {
	scanners map[string]detect.Scanner
}

// New builds a dispatcher from extension bindings such as ".docx". Keys are
// normalized to lower case with a leading dot.
func New(bindings map[string]detect.Scanner) *Dispatcher {
	scanners := make(map[string]detect.Scanner, len(bindings))
	for ext, s := range bindings {
		if s == nil {
			continue
		}
		scanners[normalize(ext)] = s
	}
	return &Dispatcher{scanners: scanners}
}

// Default binds .docx, .pptx and .pdf to the built-in scanners.
func Default(opts pdf.Options) *Dispatcher {
	return New(map[string]detect.Scanner{
		".docx": docx.New(),
		".pptx": pptx.New(),
		".pdf":  pdf.New(opts),
	})
}

func normalize(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// Lookup returns the scanner for path, or detect.ErrUnsupportedFormat.
func (d *Dispatcher) Lookup(path string) (detect.Scanner, error) {
	ext := strings.ToLower(filepath.Ext(path))
	s, ok := d.scanners[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", detect.ErrUnsupportedFormat, ext)
	}
	return s, nil
}

// Supports reports whether a scanner is bound to the extension of path.
func (d *Dispatcher) Supports(path string) bool {
	_, err := d.Lookup(path)
	return err == nil
}

// Scan routes path to its scanner. Unsupported files are never opened.
func (d *Dispatcher) Scan(path string) (detect.Result, error) {
	s, err := d.Lookup(path)
	if err != nil {
		return detect.Result{}, err
	}
	return s.Scan(path)
}

// Extensions lists the bound extensions in sorted order.
func (d *Dispatcher) Extensions() []string {
	exts := make([]string, 0, len(d.scanners))
	for ext := range d.scanners {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Format returns the format name for path, or "" when unsupported.
func (d *Dispatcher) Format(path string) string {
	s, err := d.Lookup(path)
	if err != nil {
		return ""
	}
	return s.Format()
}
