package pdf

import (
	"bytes"
	"fmt"
	"strings"

	lpdf "github.com/ledongthuc/pdf"

	"github.com/a3tai/mcp-injection-checker/internal/detect"
	"github.com/a3tai/mcp-injection-checker/internal/visibility"
)

// textLayer extracts glyphs page by page and reports tiny fonts and
// invisible code points in the text a PDF reader would extract.
func textLayer(data []byte) (findings []detect.Finding, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while extracting text layer: %v", r)
		}
	}()

	reader, err := lpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open text layer: %w", err)
	}

	for i := 1; i <= reader.NumPage(); i++ {
		findings = append(findings, pageTextLayer(reader.Page(i), i)...)
	}
	return findings, nil
}

// pageTextLayer isolates per-page failures so one bad page does not lose
// the rest of the document.
func pageTextLayer(page lpdf.Page, index int) (findings []detect.Finding) {
	defer func() {
		if r := recover(); r != nil {
			findings = nil
		}
	}()

	if page.V.IsNull() {
		return nil
	}
	plain, err := page.GetPlainText(nil)
	if err != nil {
		plain = ""
	}
	return glyphFindings(index, page.Content().Text, plain)
}

// glyphFindings evaluates one page: at most one tiny-font finding and one
// invisible-Unicode finding.
func glyphFindings(page int, glyphs []lpdf.Text, plain string) []detect.Finding {
	location := fmt.Sprintf("page %d text layer", page)
	var findings []detect.Finding

	var (
		tiny     strings.Builder
		tinySize float64
	)
	for _, g := range glyphs {
		if g.FontSize <= 0 || !visibility.Tiny(g.FontSize) {
			continue
		}
		if tiny.Len() == 0 {
			tinySize = g.FontSize
		}
		tiny.WriteString(g.S)
	}
	if text := tiny.String(); strings.TrimSpace(text) != "" {
		findings = append(findings, detect.Finding{
			Location: location,
			Snippet:  fmt.Sprintf("tiny font (%g pt): %s", tinySize, detect.Truncate(text)),
		})
	}

	if plain == "" {
		var b strings.Builder
		for _, g := range glyphs {
			b.WriteString(g.S)
		}
		plain = b.String()
	}
	if visibility.ContainsInvisible(plain) {
		findings = append(findings, detect.Finding{
			Location: location,
			Snippet:  detect.Truncate(strings.TrimSpace(plain)),
		})
	}
	return findings
}
