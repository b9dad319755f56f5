// Package visibility holds the heuristics shared by every format scanner:
// Unicode category checks, WCAG contrast math and the fixed thresholds below
// which content is treated as invisible to a human reader.
package visibility

import "unicode"

// Thresholds used by the format scanners. They are fixed on purpose and are
// not exposed through configuration.
const (
	// ContrastThreshold is the WCAG contrast ratio below which foreground and
	// background are practically indistinguishable.
	ContrastThreshold = 1.3

	// MinFontPt is the font size in points at or below which text is treated
	// as functionally invisible (roughly 1.4 mm glyph height).
	MinFontPt = 4.0

	// AlphaThreshold is the fill opacity at or below which text is considered
	// near-transparent.
	AlphaThreshold = 0.15
)

// IsInvisible reports whether r belongs to one of the categories that render
// no visible glyph: Format (Cf), Line Separator (Zl) or Paragraph Separator (Zp).
func IsInvisible(r rune) bool {
	return unicode.In(r, unicode.Cf, unicode.Zl, unicode.Zp)
}

// ContainsInvisible reports whether text contains at least one invisible code point.
func ContainsInvisible(text string) bool {
	for _, r := range text {
		if IsInvisible(r) {
			return true
		}
	}
	return false
}

// ExtractInvisible returns every invisible code point of text in order.
func ExtractInvisible(text string) []rune {
	var out []rune
	for _, r := range text {
		if IsInvisible(r) {
			out = append(out, r)
		}
	}
	return out
}
