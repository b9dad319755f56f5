// Package report renders batch scan reports as text, JSON or YAML.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/a3tai/mcp-injection-checker/internal/service"
)

// Supported formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Formats lists the accepted format names.
func Formats() []string {
	return []string{FormatText, FormatJSON, FormatYAML}
}

// Write renders r to w in the named format.
func Write(w io.Writer, r *service.Report, format string) error {
	switch strings.ToLower(format) {
	case FormatText, "":
		return Text(w, r)
	case FormatJSON:
		return JSON(w, r)
	case FormatYAML:
		return YAML(w, r)
	default:
		return fmt.Errorf("unknown report format %q (must be one of: %s)", format, strings.Join(Formats(), ", "))
	}
}

// Text writes one block per file followed by a summary line.
func Text(w io.Writer, r *service.Report) error {
	var b strings.Builder
	for _, f := range r.Files {
		writeFile(&b, f)
	}

	s := r.Summary
	fmt.Fprintf(&b, "\n%d file(s) scanned: %d with hidden text, %d clean, %d unsupported, %d failed (%d finding(s))\n",
		s.Files, s.Found, s.Clean, s.Unsupported, s.Errors, s.Findings)

	_, err := io.WriteString(w, b.String())
	return err
}

// FileText renders a single file entry in the text layout.
func FileText(f service.FileReport) string {
	var b strings.Builder
	writeFile(&b, f)
	return b.String()
}

func writeFile(b *strings.Builder, f service.FileReport) {
	name := filepath.Base(f.Path)
	switch f.Status {
	case service.StatusFound:
		fmt.Fprintf(b, "[!] hidden text found — %s\n", name)
		for _, finding := range f.Findings {
			fmt.Fprintf(b, "  - %s: %s\n", finding.Location, finding.Snippet)
		}
	case service.StatusClean:
		fmt.Fprintf(b, "[OK] clean — %s\n", name)
	case service.StatusUnsupported:
		fmt.Fprintf(b, "[SKIP] unsupported extension — %s\n", name)
	case service.StatusError:
		fmt.Fprintf(b, "[ERR] %s: %s\n", name, f.Error)
	}
}

// JSON writes the report as indented JSON.
func JSON(w io.Writer, r *service.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// YAML writes the report as a YAML document.
func YAML(w io.Writer, r *service.Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return enc.Close()
}
