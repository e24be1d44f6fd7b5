package parse

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/voter-roll-extractor/constants"
)

// A record starts at a line holding a four-digit serial, a period and the name label.
var startRe = regexp.MustCompile(`(?m)^\s*(\d{4})\.\s*` + constants.LabelName + `:\s*`)

// Block is the slice of the text stream that belongs to one record.
// Start and End are byte offsets into the segmented text; Text is trimmed.
type Block struct {
	Serial int
	Text   string
	Start  int
	End    int
}

// Migrated reports whether the block is a migration placeholder.
func (b Block) Migrated() bool {
	return strings.Contains(b.Text, constants.MigrationMarker)
}

// Segment splits digit-normalized text into record blocks. A block runs from
// its marker to the next marker, or to the end of text for the last one.
// Text without any marker yields nil.
func Segment(text string) []Block {
	locs := startRe.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}
	blocks := make([]Block, 0, len(locs))
	for i, loc := range locs {
		start := loc[0]
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		serial, _ := strconv.Atoi(text[loc[2]:loc[3]]) // always four ASCII digits
		blocks = append(blocks, Block{
			Serial: serial,
			Text:   strings.TrimSpace(text[start:end]),
			Start:  start,
			End:    end,
		})
	}
	return blocks
}
