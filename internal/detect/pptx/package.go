package pptx

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/a3tai/mcp-injection-checker/internal/visibility"
)

const (
	presentationPart = "ppt/presentation.xml"
	presentationRels = "ppt/_rels/presentation.xml.rels"
	themePart        = "ppt/theme/theme1.xml"
)

var slidePartPattern = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

var errNoSlides = errors.New("no slides found")

type presentationXML struct {
	SlideIDs []struct {
		RelID       string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
		StrictRelID string `xml:"http://purl.oclc.org/ooxml/officeDocument/relationships id,attr"`
	} `xml:"sldIdLst>sldId"`
}

type relationshipsXML struct {
	Relationships []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

// archive indexes the parts of an open presentation package by name.
type archive struct {
	parts map[string]*zip.File
	names []string
}

func newArchive(zr *zip.Reader) *archive {
	a := &archive{parts: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		a.parts[f.Name] = f
		a.names = append(a.names, f.Name)
	}
	return a
}

func (a *archive) read(name string) ([]byte, error) {
	f, ok := a.parts[name]
	if !ok {
		return nil, fmt.Errorf("missing part %s", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// slideOrder returns slide part names in presentation order. The declared
// slide list is authoritative; slideN numbering is the fallback when it
// cannot be resolved.
func (a *archive) slideOrder() ([]string, error) {
	if ordered, err := a.declaredSlides(); err == nil && len(ordered) > 0 {
		return ordered, nil
	}

	type numbered struct {
		n    int
		name string
	}
	var found []numbered
	for _, name := range a.names {
		m := slidePartPattern.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		found = append(found, numbered{n: n, name: name})
	}
	if len(found) == 0 {
		return nil, errNoSlides
	}

	sort.Slice(found, func(i, j int) bool { return found[i].n < found[j].n })
	names := make([]string, len(found))
	for i, f := range found {
		names[i] = f.name
	}
	return names, nil
}

func (a *archive) declaredSlides() ([]string, error) {
	data, err := a.read(presentationPart)
	if err != nil {
		return nil, err
	}
	var pres presentationXML
	if err := xml.Unmarshal(data, &pres); err != nil {
		return nil, err
	}

	data, err = a.read(presentationRels)
	if err != nil {
		return nil, err
	}
	var rels relationshipsXML
	if err := xml.Unmarshal(data, &rels); err != nil {
		return nil, err
	}
	targets := make(map[string]string, len(rels.Relationships))
	for _, r := range rels.Relationships {
		targets[r.ID] = r.Target
	}

	names := make([]string, 0, len(pres.SlideIDs))
	for _, id := range pres.SlideIDs {
		relID := id.RelID
		if relID == "" {
			relID = id.StrictRelID
		}
		target, ok := targets[relID]
		if !ok {
			return nil, fmt.Errorf("unresolved slide relationship %q", relID)
		}
		name := resolveTarget(target)
		if _, ok := a.parts[name]; !ok {
			return nil, fmt.Errorf("missing slide part %s", name)
		}
		names = append(names, name)
	}
	return names, nil
}

// resolveTarget maps a relationship target of presentation.xml to a part name.
func resolveTarget(target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Join("ppt", target)
}

type schemeColorXML struct {
	XMLName xml.Name
	SRGB    *struct {
		Val string `xml:"val,attr"`
	} `xml:"srgbClr"`
	Sys *struct {
		LastClr string `xml:"lastClr,attr"`
	} `xml:"sysClr"`
}

type themeXML struct {
	Elements struct {
		Scheme struct {
			Colors []schemeColorXML `xml:",any"`
		} `xml:"clrScheme"`
	} `xml:"themeElements"`
}

// colorScheme maps theme slot names (dk1, lt1, accent1, ...) to colors.
type colorScheme map[string]visibility.RGB

var schemeAliases = map[string]string{
	"tx1": "dk1",
	"bg1": "lt1",
	"tx2": "dk2",
	"bg2": "lt2",
}

// loadTheme reads the first theme's color scheme. A missing or unreadable
// theme yields an empty scheme and scheme colors fall back to the default.
func (a *archive) loadTheme() colorScheme {
	scheme := colorScheme{}
	data, err := a.read(themePart)
	if err != nil {
		return scheme
	}
	var theme themeXML
	if err := xml.Unmarshal(data, &theme); err != nil {
		return scheme
	}
	for _, c := range theme.Elements.Scheme.Colors {
		var hex string
		switch {
		case c.SRGB != nil:
			hex = c.SRGB.Val
		case c.Sys != nil:
			hex = c.Sys.LastClr
		}
		if rgb, ok := visibility.ParseHexRGB(hex); ok {
			scheme[c.XMLName.Local] = rgb
		}
	}
	return scheme
}

func (s colorScheme) lookup(name string) (visibility.RGB, bool) {
	if alias, ok := schemeAliases[name]; ok {
		name = alias
	}
	c, ok := s[name]
	return c, ok
}
