package visibility

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RGB is an sRGB color with 0-255 channels.
type RGB struct {
	R, G, B uint8
}

var (
	// White is the assumed page/slide background when none is declared.
	White = RGB{255, 255, 255}
	// Black is the assumed text color when none is declared.
	Black = RGB{0, 0, 0}
)

// String returns the color as RRGGBB.
func (c RGB) String() string {
	return fmt.Sprintf("%02X%02X%02X", c.R, c.G, c.B)
}

// ParseHexRGB parses an OOXML "RRGGBB" color value. The special value "auto"
// and malformed values are reported as absent.
func ParseHexRGB(s string) (RGB, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return RGB{}, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return RGB{}, false
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, true
}

// RelativeLuminance computes the WCAG 2.x relative luminance of c.
func RelativeLuminance(c RGB) float64 {
	return 0.2126*linearize(c.R) + 0.7152*linearize(c.G) + 0.0722*linearize(c.B)
}

func linearize(v uint8) float64 {
	c := float64(v) / 255.0
	if c <= 0.03928 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}

// ContrastRatio returns the WCAG contrast ratio between two colors. The result
// lies in [1, 21] and does not depend on argument order.
func ContrastRatio(fg, bg RGB) float64 {
	l1 := RelativeLuminance(fg) + 0.05
	l2 := RelativeLuminance(bg) + 0.05
	return math.Max(l1, l2) / math.Min(l1, l2)
}
