// Package pptx scans PowerPoint presentations for slides hidden from the
// slideshow and for text runs that are too small, too faint or carry
// invisible Unicode.
package pptx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/a3tai/mcp-injection-checker/internal/detect"
	"github.com/a3tai/mcp-injection-checker/internal/visibility"
)

// FormatName identifies this scanner in reports.
const FormatName = "pptx"

const (
	nsDrawing       = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsDrawingStrict = "http://purl.oclc.org/ooxml/drawingml/main"
)

const hiddenSlideSnippet = "slide is hidden from slideshow playback"

// Scanner implements detect.Scanner for .pptx packages.
type Scanner struct{}

// New creates a presentation scanner.
func New() *Scanner {
	return &Scanner{}
}

// Format returns the format name reported for scanned files.
func (s *Scanner) Format() string {
	return FormatName
}

// Scan walks every slide in presentation order.
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

	pkg := newArchive(zr)
	slides, err := pkg.slideOrder()
	if err != nil {
		return detect.Result{}, detect.Malformed(FormatName, path, err)
	}
	scheme := pkg.loadTheme()

	var findings []detect.Finding
	for i, name := range slides {
		data, err := pkg.read(name)
		if err != nil {
			return detect.Result{}, detect.Malformed(FormatName, path, err)
		}
		found, err := scanSlide(data, i+1, scheme)
		if err != nil {
			return detect.Result{}, detect.Malformed(FormatName, path, fmt.Errorf("%s: %w", name, err))
		}
		findings = append(findings, found...)
	}
	return detect.NewResult(findings), nil
}

type colorXML struct {
	SRGB *struct {
		Val string `xml:"val,attr"`
	} `xml:"srgbClr"`
	Sys *struct {
		LastClr string `xml:"lastClr,attr"`
	} `xml:"sysClr"`
	Scheme *struct {
		Val       string `xml:"val,attr"`
		Modifiers []struct {
			XMLName xml.Name
		} `xml:",any"`
	} `xml:"schemeClr"`
}

type runXML struct {
	RPr *struct {
		Size      *string   `xml:"sz,attr"`
		SolidFill *colorXML `xml:"solidFill"`
	} `xml:"rPr"`
	Text string `xml:"t"`
}

func (r *runXML) sizePt() *float64 {
	if r.RPr == nil || r.RPr.Size == nil {
		return nil
	}
	hundredths, err := strconv.ParseFloat(strings.TrimSpace(*r.RPr.Size), 64)
	if err != nil {
		return nil
	}
	pt := hundredths / 100
	return &pt
}

func (r *runXML) color(scheme colorScheme) *visibility.RGB {
	if r.RPr == nil || r.RPr.SolidFill == nil {
		return nil
	}
	fill := r.RPr.SolidFill

	var (
		c  visibility.RGB
		ok bool
	)
	switch {
	case fill.SRGB != nil:
		c, ok = visibility.ParseHexRGB(fill.SRGB.Val)
	case fill.Sys != nil:
		c, ok = visibility.ParseHexRGB(fill.Sys.LastClr)
	case fill.Scheme != nil && len(fill.Scheme.Modifiers) == 0:
		// lumMod, shade and friends shift the theme color; leave those unresolved
		c, ok = scheme.lookup(fill.Scheme.Val)
	}
	if !ok {
		return nil
	}
	return &c
}

// scanSlide streams one slide part. Runs are DrawingML a:r elements, which
// only occur inside text bodies, so shapes, group shapes and table cells are
// all covered by the same walk.
func scanSlide(data []byte, index int, scheme colorScheme) ([]detect.Finding, error) {
	location := fmt.Sprintf("slide %d", index)
	dec := xml.NewDecoder(bytes.NewReader(data))

	var findings []detect.Finding
	root := true
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		el, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		if root {
			root = false
			if hiddenSlide(el) {
				findings = append(findings, detect.Finding{Location: location, Snippet: hiddenSlideSnippet})
			}
			continue
		}

		if !isDrawing(el.Name) || el.Name.Local != "r" {
			continue
		}
		var run runXML
		if err := dec.DecodeElement(&run, &el); err != nil {
			return nil, err
		}
		if flagged(&run, scheme) {
			findings = append(findings, detect.Finding{Location: location, Snippet: detect.Truncate(run.Text)})
		}
	}
	return findings, nil
}

func isDrawing(name xml.Name) bool {
	return name.Space == nsDrawing || name.Space == nsDrawingStrict
}

func hiddenSlide(root xml.StartElement) bool {
	for _, a := range root.Attr {
		if a.Name.Local != "show" {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(a.Value)) {
		case "0", "false":
			return true
		}
	}
	return false
}

func flagged(run *runXML, scheme colorScheme) bool {
	if strings.TrimSpace(run.Text) == "" {
		return false
	}
	tiny := visibility.Tiny(visibility.ResolveFontSize(run.sizePt(), visibility.DefaultPresentationFontPt))
	lowContrast := visibility.LowContrast(visibility.ResolveColor(run.color(scheme), visibility.Black))
	invisible := visibility.ContainsInvisible(run.Text)
	return tiny || lowContrast || invisible
}
