package parse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDigits(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"০১২৩৪৫৬৭৮৯", "0123456789"},
		{"০০১২. নাম: করিম", "0012. নাম: করিম"},
		{"জন্ম তারিখ: ১৫/০৩/১৯৮০", "জন্ম তারিখ: 15/03/1980"},
		{"already 0042", "already 0042"},
		{"mixed ৪2৪", "mixed 424"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeDigits(tt.in), "input %q", tt.in)
	}
}

func TestNormalizeDigits_Properties(t *testing.T) {
	inputs := []string{
		"ভোটার নং: ৫৯১২৩৪৫৬৭৮৯০",
		"পেশা: গৃহিণী, জন্ম তারিখ: ০১/০১/১৯৯০",
		"no digits at all",
		"\xff invalid utf8 ৩",
	}
	for _, in := range inputs {
		once := NormalizeDigits(in)
		assert.Equal(t, once, NormalizeDigits(once), "idempotent for %q", in)
		assert.False(t, strings.ContainsAny(once, "০১২৩৪৫৬৭৮৯"), "native digits left in %q", once)

		// only digits change; everything else is preserved rune for rune
		a, b := []rune(in), []rune(once)
		if assert.Len(t, b, len(a)) {
			for i := range a {
				if a[i] >= '০' && a[i] <= '৯' {
					assert.Equal(t, '0'+(a[i]-'০'), b[i])
				} else {
					assert.Equal(t, a[i], b[i])
				}
			}
		}
	}
}
