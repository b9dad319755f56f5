// Package docx scans Word documents for runs a reader would never see:
// vanished, microscopic, white-on-white or fully transparent text, text
// carrying invisible Unicode, and free-form customXml payloads.
package docx

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/a3tai/mcp-injection-checker/internal/detect"
	"github.com/a3tai/mcp-injection-checker/internal/visibility"
)

const (
	// FormatName identifies this scanner in reports.
	FormatName = "docx"

	documentPart = "word/document.xml"
	stylesPart   = "word/styles.xml"
	customPrefix = "customXml/"
)

const (
	nsWord       = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsWordStrict = "http://purl.oclc.org/ooxml/wordprocessingml/main"
	nsMarkup     = "http://schemas.openxmlformats.org/markup-compatibility/2006"
)

// Scanner implements detect.Scanner for .docx packages.
type Scanner struct{}

// New creates a Word scanner.
func New() *Scanner {
	return &Scanner{}
}

// Format returns the format name reported for scanned files.
func (s *Scanner) Format() string {
	return FormatName
}

// Scan inspects the document body run by run, then every customXml part.
func (s *Scanner) Scan(path string) (detect.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return detect.Result{}, detect.Failed(FormatName, path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return detect.Result{}, detect.Failed(FormatName, path, err)
	}

	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		return detect.Result{}, detect.Malformed(FormatName, path, err)
	}

	doc := findPart(zr, documentPart)
	if doc == nil {
		return detect.Result{}, detect.Malformed(FormatName, path, fmt.Errorf("missing %s", documentPart))
	}

	// styles.xml is optional and a broken one only loses inherited formatting
	sheet := emptyStyleSheet()
	if part := findPart(zr, stylesPart); part != nil {
		if data, err := readPart(part); err == nil {
			if parsed, err := parseStyles(data); err == nil {
				sheet = parsed
			}
		}
	}

	rc, err := doc.Open()
	if err != nil {
		return detect.Result{}, detect.Malformed(FormatName, path, err)
	}
	findings, err := walkDocument(rc, sheet)
	rc.Close()
	if err != nil {
		return detect.Result{}, detect.Malformed(FormatName, path, err)
	}

	findings = append(findings, scanCustomXML(zr)...)
	return detect.NewResult(findings), nil
}

func findPart(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func readPart(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// scanCustomXML reports every non-blank customXml part in archive order.
// Undecodable bytes are dropped and unreadable parts skipped.
func scanCustomXML(zr *zip.Reader) []detect.Finding {
	var findings []detect.Finding
	for _, f := range zr.File {
		if !strings.HasPrefix(f.Name, customPrefix) || !strings.HasSuffix(f.Name, ".xml") {
			continue
		}
		data, err := readPart(f)
		if err != nil {
			continue
		}
		body := strings.ToValidUTF8(string(data), "")
		if strings.TrimSpace(body) == "" {
			continue
		}
		findings = append(findings, detect.Finding{
			Location: f.Name,
			Snippet:  detect.Head(body, detect.SnippetLimit),
		})
	}
	return findings
}

type paragraph struct {
	index int
	style string
}

type run struct {
	direct    *rPrXML
	text      strings.Builder
	pageBreak bool
}

// walker tracks document position while streaming document.xml.
type walker struct {
	sheet      *styleSheet
	page       int
	paragraphs int
	paraStack  []*paragraph
	runStack   []*run
	findings   []detect.Finding
}

func isWord(name xml.Name) bool {
	return name.Space == nsWord || name.Space == nsWordStrict
}

func walkDocument(r io.Reader, sheet *styleSheet) ([]detect.Finding, error) {
	w := &walker{sheet: sheet, page: 1}
	dec := xml.NewDecoder(r)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if err := w.start(dec, t); err != nil {
				return nil, err
			}
		case xml.EndElement:
			w.end(t)
		}
	}
	return w.findings, nil
}

func (w *walker) currentRun() *run {
	if len(w.runStack) == 0 {
		return nil
	}
	return w.runStack[len(w.runStack)-1]
}

func (w *walker) currentParagraph() *paragraph {
	if len(w.paraStack) == 0 {
		return nil
	}
	return w.paraStack[len(w.paraStack)-1]
}

func (w *walker) start(dec *xml.Decoder, el xml.StartElement) error {
	// Fallback content duplicates the preferred Choice branch.
	if el.Name.Space == nsMarkup && el.Name.Local == "Fallback" {
		return dec.Skip()
	}
	if !isWord(el.Name) {
		return nil
	}

	r := w.currentRun()
	switch el.Name.Local {
	case "p":
		w.paragraphs++
		w.paraStack = append(w.paraStack, &paragraph{index: w.paragraphs})
	case "pPr":
		var ppr pPrXML
		if err := dec.DecodeElement(&ppr, &el); err != nil {
			return err
		}
		if p := w.currentParagraph(); p != nil && ppr.PStyle != nil && ppr.PStyle.Val != nil {
			p.style = *ppr.PStyle.Val
		}
	case "r":
		w.runStack = append(w.runStack, &run{})
	case "rPr":
		if r == nil {
			return dec.Skip()
		}
		var rpr rPrXML
		if err := dec.DecodeElement(&rpr, &el); err != nil {
			return err
		}
		r.direct = &rpr
	case "t":
		if r == nil {
			return dec.Skip()
		}
		var text string
		if err := dec.DecodeElement(&text, &el); err != nil {
			return err
		}
		r.text.WriteString(text)
	case "tab":
		if r != nil {
			r.text.WriteByte('\t')
		}
	case "br":
		if r == nil {
			return nil
		}
		r.text.WriteByte('\n')
		for _, a := range el.Attr {
			if a.Name.Local == "type" && a.Value == "page" {
				r.pageBreak = true
			}
		}
	case "cr":
		if r != nil {
			r.text.WriteByte('\n')
		}
	case "lastRenderedPageBreak":
		if r != nil {
			r.pageBreak = true
		}
	}
	return nil
}

func (w *walker) end(el xml.EndElement) {
	if !isWord(el.Name) {
		return
	}

	switch el.Name.Local {
	case "p":
		if n := len(w.paraStack); n > 0 {
			w.paraStack = w.paraStack[:n-1]
		}
	case "r":
		n := len(w.runStack)
		if n == 0 {
			return
		}
		r := w.runStack[n-1]
		w.runStack = w.runStack[:n-1]
		w.evaluate(r)
	}
}

// evaluate advances the page counter for r and records a finding when any
// visibility predicate holds for its text.
func (w *walker) evaluate(r *run) {
	if r.pageBreak {
		w.page++
	}

	text := r.text.String()
	if strings.TrimSpace(text) == "" {
		return
	}

	var style string
	index := 0
	if p := w.currentParagraph(); p != nil {
		style = p.style
		index = p.index
	}
	props := w.sheet.effective(style, r.direct)

	hidden := props.Hidden != nil && *props.Hidden
	tiny := visibility.Tiny(visibility.ResolveFontSize(props.SizePt, visibility.DefaultDocumentFontPt))
	lowContrast := visibility.LowContrast(visibility.ResolveColor(props.Color, visibility.Black))
	transparent := visibility.NearTransparent(visibility.ResolveAlpha(props.Alpha))
	invisible := visibility.ContainsInvisible(text)

	if hidden || tiny || lowContrast || transparent || invisible {
		w.findings = append(w.findings, detect.Finding{
			Location: fmt.Sprintf("page %d paragraph %d", w.page, index),
			Snippet:  detect.Truncate(text),
		})
	}
}
