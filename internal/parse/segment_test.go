package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegment_NoMarkers(t *testing.T) {
	assert.Empty(t, Segment(""))
	assert.Empty(t, Segment("ভোটার তালিকা\nনাম: করিম\n12. নাম: x\n12345. নাম: y"))
}

func TestSegment_Boundaries(t *testing.T) {
	text := "header line\n" +
		"0001. নাম: করিম\nভোটার নং: 111\n" +
		"0002. নাম: রহিম\nভোটার নং: 222\n\n" +
		"  0010.  নাম:  সালমা\nপিতা: জামাল\n"

	blocks := Segment(text)
	require.Len(t, blocks, 3)

	assert.Equal(t, []int{1, 2, 10}, []int{blocks[0].Serial, blocks[1].Serial, blocks[2].Serial})
	for i := range blocks {
		if i+1 < len(blocks) {
			assert.Equal(t, blocks[i+1].Start, blocks[i].End, "block %d must end where the next starts", i)
		} else {
			assert.Equal(t, len(text), blocks[i].End)
		}
	}
	assert.Equal(t, len("header line\n"), blocks[0].Start)
	assert.Equal(t, text[blocks[1].Start:blocks[1].Start+5], "0002.")

	assert.Equal(t, "0001. নাম: করিম\nভোটার নং: 111", blocks[0].Text)
	assert.Equal(t, "0002. নাম: রহিম\nভোটার নং: 222", blocks[1].Text)
	assert.Equal(t, "0010.  নাম:  সালমা\nপিতা: জামাল", blocks[2].Text)
}

func TestSegment_MarkerMustStartLine(t *testing.T) {
	blocks := Segment("0001. নাম: করিম পিতা 0002. নাম: ভুল\n0003. নাম: রহিম")
	require.Len(t, blocks, 2)
	assert.Equal(t, 1, blocks[0].Serial)
	assert.Equal(t, 3, blocks[1].Serial)
}

func TestBlock_Migrated(t *testing.T) {
	assert.True(t, Block{Text: "0003. নাম: মাইগ্রেট"}.Migrated())
	assert.False(t, Block{Text: "0003. নাম: করিম"}.Migrated())
}
