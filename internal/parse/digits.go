// Package parse turns the raw text stream of a voter roll into records.
package parse

import (
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

const (
	banglaZero = '০' // U+09E6
	banglaNine = '৯' // U+09EF
)

var banglaDigits = runes.Map(func(r rune) rune {
	if r >= banglaZero && r <= banglaNine {
		return '0' + (r - banglaZero)
	}
	return r
})

// NormalizeDigits replaces Bangla decimal digits with their ASCII equivalents.
func NormalizeDigits(s string) string {
	out, _, err := transform.String(banglaDigits, s)
	if err != nil {
		// runes.Map cannot fail on valid or invalid UTF-8; keep the input if it ever does
		return s
	}
	return out
}
