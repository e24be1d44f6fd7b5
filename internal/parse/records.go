package parse

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/joseph-ayodele/voter-roll-extractor/internal/common"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/entity"
)

// ErrNoRecords is returned when the text holds no usable record.
var ErrNoRecords = common.ErrNoRecords

// FilterAndSort orders records by ascending serial. Records sharing a
// serial keep no particular order.
func FilterAndSort(records []entity.Record) []entity.Record {
	sort.Slice(records, func(i, j int) bool { return records[i].Serial < records[j].Serial })
	return records
}

type Options struct {
	// RequireVoterNumber drops records whose voter number could not be read.
	RequireVoterNumber bool
}

type ParseResult struct {
	Records  []entity.Record
	Blocks   int // record markers found
	Migrated int // blocks discarded as migration placeholders
	Dropped  int // records discarded by RequireVoterNumber
}

// Parser runs digit normalization, segmentation, field extraction and ordering.
type Parser struct {
	opts   Options
	logger *slog.Logger
}

func NewParser(opts Options, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{opts: opts, logger: logger}
}

// Parse converts a raw text stream into sorted records.
func (p *Parser) Parse(raw string) (ParseResult, error) {
	text := NormalizeDigits(raw)
	blocks := Segment(text)
	res := ParseResult{Blocks: len(blocks)}
	if len(blocks) == 0 {
		return res, fmt.Errorf("segment: %w", ErrNoRecords)
	}

	records := make([]entity.Record, 0, len(blocks))
	for _, b := range blocks {
		if b.Migrated() {
			res.Migrated++
			continue
		}
		rec := ExtractFields(b)
		if p.opts.RequireVoterNumber && rec.VoterNumber == "" {
			res.Dropped++
			p.logger.Debug("dropping record without voter number", "serial", rec.Serial)
			continue
		}
		records = append(records, rec)
	}

	res.Records = FilterAndSort(records)
	if len(res.Records) == 0 {
		return res, fmt.Errorf("all %d blocks discarded: %w", len(blocks), ErrNoRecords)
	}
	return res, nil
}
