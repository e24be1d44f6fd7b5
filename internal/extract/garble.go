package extract

import (
	"strings"
	"unicode/utf8"
)

const (
	DefaultMinBanglaChars = 30
	DefaultGarbleMarker   = "cid:"

	banglaFirst = 0x0980
	banglaLast  = 0x09FF
)

// GarbleDetector decides whether native text from a page is trustworthy.
// pdftotext emits "(cid:NN)" placeholders for glyphs it cannot map, and
// legacy Bangla fonts often yield Latin mojibake with very few Bangla code points.
type GarbleDetector struct {
	MinBanglaChars int
	Marker         string
}

func NewGarbleDetector(minBangla int, marker string) GarbleDetector {
	if minBangla <= 0 {
		minBangla = DefaultMinBanglaChars
	}
	if marker == "" {
		marker = DefaultGarbleMarker
	}
	return GarbleDetector{MinBanglaChars: minBangla, Marker: marker}
}

// Usable reports whether text can be used as is.
func (g GarbleDetector) Usable(text string) bool {
	if text == "" {
		return false
	}
	if g.Marker != "" && strings.Contains(strings.ToLower(text), strings.ToLower(g.Marker)) {
		return false
	}
	return CountBangla(text) >= g.MinBanglaChars
}

// CountBangla counts runes in the Bangla block (U+0980..U+09FF).
func CountBangla(text string) int {
	n := 0
	for len(text) > 0 {
		r, size := utf8.DecodeRuneInString(text)
		if r >= banglaFirst && r <= banglaLast {
			n++
		}
		text = text[size:]
	}
	return n
}
