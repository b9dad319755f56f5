package docx

import (
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/a3tai/mcp-injection-checker/internal/visibility"
)

// valAttr captures the ubiquitous w:val attribute. A nil *valAttr means the
// element was absent.
type valAttr struct {
	Val *string `xml:"val,attr"`
}

type alphaXML struct {
	Alpha *valAttr `xml:"alpha"`
}

type solidFillXML struct {
	Colors []alphaXML `xml:",any"`
}

type textFillXML struct {
	SolidFill *solidFillXML `xml:"solidFill"`
}

// rPrXML is the subset of run properties the predicates need.
type rPrXML struct {
	RStyle     *valAttr     `xml:"rStyle"`
	Vanish     *valAttr     `xml:"vanish"`
	SpecVanish *valAttr     `xml:"specVanish"`
	Size       *valAttr     `xml:"sz"`
	Color      *valAttr     `xml:"color"`
	TextFill   *textFillXML `xml:"textFill"`
}

type pPrXML struct {
	PStyle *valAttr `xml:"pStyle"`
}

type styleXML struct {
	Type    string   `xml:"type,attr"`
	ID      string   `xml:"styleId,attr"`
	Default string   `xml:"default,attr"`
	BasedOn *valAttr `xml:"basedOn"`
	RPr     *rPrXML  `xml:"rPr"`
}

type stylesXML struct {
	DocDefaults struct {
		RPrDefault struct {
			RPr *rPrXML `xml:"rPr"`
		} `xml:"rPrDefault"`
	} `xml:"docDefaults"`
	Styles []styleXML `xml:"style"`
}

// runProps holds formatting that may or may not be declared at one level of
// the style hierarchy. Nil fields inherit from the level below.
type runProps struct {
	Hidden *bool
	SizePt *float64
	Color  *visibility.RGB
	Alpha  *float64
}

// over returns p with every field declared in top replacing its counterpart.
func (p runProps) over(top runProps) runProps {
	if top.Hidden != nil {
		p.Hidden = top.Hidden
	}
	if top.SizePt != nil {
		p.SizePt = top.SizePt
	}
	if top.Color != nil {
		p.Color = top.Color
	}
	if top.Alpha != nil {
		p.Alpha = top.Alpha
	}
	return p
}

func toggle(v *valAttr) *bool {
	if v == nil {
		return nil
	}
	on := true
	if v.Val != nil {
		switch strings.ToLower(strings.TrimSpace(*v.Val)) {
		case "0", "false", "off":
			on = false
		}
	}
	return &on
}

func (x *rPrXML) props() runProps {
	var p runProps
	if x == nil {
		return p
	}

	p.Hidden = toggle(x.Vanish)
	if h := toggle(x.SpecVanish); h != nil && *h {
		p.Hidden = h
	}

	if x.Size != nil && x.Size.Val != nil {
		if half, err := strconv.ParseFloat(strings.TrimSpace(*x.Size.Val), 64); err == nil {
			pt := half / 2
			p.SizePt = &pt
		}
	}

	if x.Color != nil && x.Color.Val != nil {
		if c, ok := visibility.ParseHexRGB(*x.Color.Val); ok {
			p.Color = &c
		}
	}

	if x.TextFill != nil && x.TextFill.SolidFill != nil {
		for _, c := range x.TextFill.SolidFill.Colors {
			if c.Alpha == nil || c.Alpha.Val == nil {
				continue
			}
			transparency, err := strconv.ParseFloat(strings.TrimSpace(*c.Alpha.Val), 64)
			if err != nil {
				continue
			}
			opacity := 1 - transparency/100000
			p.Alpha = &opacity
			break
		}
	}
	return p
}

// styleSheet resolves style ids from word/styles.xml into run properties.
type styleSheet struct {
	defaults         runProps
	styles           map[string]styleXML
	defaultParagraph string
}

func emptyStyleSheet() *styleSheet {
	return &styleSheet{styles: map[string]styleXML{}}
}

func parseStyles(data []byte) (*styleSheet, error) {
	var doc stylesXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	sheet := emptyStyleSheet()
	sheet.defaults = doc.DocDefaults.RPrDefault.RPr.props()
	for _, s := range doc.Styles {
		if s.ID == "" {
			continue
		}
		sheet.styles[s.ID] = s
		if s.Type == "paragraph" && isOn(s.Default) {
			sheet.defaultParagraph = s.ID
		}
	}
	return sheet, nil
}

func isOn(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on":
		return true
	}
	return false
}

// resolve flattens the basedOn chain of style id, nearest declaration wins.
func (s *styleSheet) resolve(id string) runProps {
	var chain []styleXML
	seen := map[string]bool{}
	for id != "" && !seen[id] {
		seen[id] = true
		st, ok := s.styles[id]
		if !ok {
			break
		}
		chain = append(chain, st)
		id = ""
		if st.BasedOn != nil && st.BasedOn.Val != nil {
			id = *st.BasedOn.Val
		}
	}

	var p runProps
	for i := len(chain) - 1; i >= 0; i-- {
		p = p.over(chain[i].RPr.props())
	}
	return p
}

// effective layers direct formatting over the character style, the paragraph
// style and the document defaults.
func (s *styleSheet) effective(pStyle string, direct *rPrXML) runProps {
	if pStyle == "" {
		pStyle = s.defaultParagraph
	}

	p := s.defaults.over(s.resolve(pStyle))
	if direct != nil && direct.RStyle != nil && direct.RStyle.Val != nil {
		p = p.over(s.resolve(*direct.RStyle.Val))
	}
	return p.over(direct.props())
}
