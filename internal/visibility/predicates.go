package visibility

// Default font sizes, in points, applied when a run declares none.
const (
	DefaultDocumentFontPt     = 11.0
	DefaultPresentationFontPt = 18.0
)

// ResolveFontSize returns the declared size or def when the run has none.
func ResolveFontSize(pt *float64, def float64) float64 {
	if pt == nil {
		return def
	}
	return *pt
}

// ResolveColor returns the declared color or def when the run has none.
func ResolveColor(c *RGB, def RGB) RGB {
	if c == nil {
		return def
	}
	return *c
}

// ResolveAlpha returns the declared opacity in [0, 1], fully opaque when absent.
func ResolveAlpha(alpha *float64) float64 {
	if alpha == nil {
		return 1.0
	}
	a := *alpha
	switch {
	case a < 0:
		return 0
	case a > 1:
		return 1
	}
	return a
}

// Tiny reports whether a font size is at or below MinFontPt.
func Tiny(pt float64) bool {
	return pt <= MinFontPt
}

// LowContrast reports whether fg is practically indistinguishable from the
// default white background.
func LowContrast(fg RGB) bool {
	return ContrastRatio(fg, White) < ContrastThreshold
}

// NearTransparent reports whether an opacity is at or below AlphaThreshold.
func NearTransparent(alpha float64) bool {
	return alpha <= AlphaThreshold
}
