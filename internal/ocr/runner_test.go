package ocr

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 8))
	assert.Equal(t, "abcd...(truncated)", truncate("abcdefgh", 4))

	// "ভোটার" is 15 bytes of 3-byte runes; 4 falls inside the second rune
	got := truncate("ভোটার", 4)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "ভ...(truncated)", got)

	long := strings.Repeat("ত্রুটি ", 2000)
	for _, max := range []int{1, 2, 1000, 8 << 10} {
		assert.True(t, utf8.ValidString(truncate(long, max)), max)
	}
}
