// Package pdf detects content a PDF viewer renders invisibly.
//
// The primary pass is structural and works on the raw file bytes: near-zero
// opacity directives, text rendering mode 3, JavaScript actions and literal
// strings carrying invisible Unicode. Two supplementary passes re-run the
// signals over decoded stream content (pdfcpu) and inspect the extracted text
// layer (ledongthuc/pdf). Supplementary failures never fail a scan.
package pdf

import (
	"io"
	"log"
	"os"

	"github.com/a3tai/mcp-injection-checker/internal/detect"
)

// FormatName identifies this scanner in reports.
const FormatName = "pdf"

// Options toggles the supplementary passes.
type Options struct {
	// DecodeStreams re-applies byte signals to decoded stream objects.
	DecodeStreams bool
	// TextLayer inspects glyph sizes and text extracted per page.
	TextLayer bool
	// Logger receives debug messages about skipped passes. Nil discards them.
	Logger *log.Logger
}

// DefaultOptions enables every pass.
func DefaultOptions() Options {
	return Options{DecodeStreams: true, TextLayer: true}
}

// Scanner implements detect.Scanner for PDF files.
type Scanner struct {
	opts   Options
	logger *log.Logger
}

// New creates a PDF scanner.
func New(opts Options) *Scanner {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Scanner{opts: opts, logger: logger}
}

// Format returns the format name reported for scanned files.
func (s *Scanner) Format() string {
	return FormatName
}

// Scan reads the whole file and applies every enabled pass. Findings are
// ordered raw signals first, then decoded streams, then the text layer.
func (s *Scanner) Scan(path string) (detect.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return detect.Result{}, detect.Failed(FormatName, path, err)
	}

	findings := rawFindings(data)

	if s.opts.DecodeStreams {
		streams, err := decodeStreams(data)
		if err != nil {
			s.logger.Printf("[pdf] decoded stream pass skipped for %s: %v", path, err)
		}
		findings = append(findings, streamFindings(streams)...)
	}

	if s.opts.TextLayer {
		layer, err := textLayer(data)
		if err != nil {
			s.logger.Printf("[pdf] text layer pass skipped for %s: %v", path, err)
		}
		findings = append(findings, layer...)
	}

	return detect.NewResult(findings), nil
}
