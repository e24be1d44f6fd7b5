package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/joseph-ayodele/voter-roll-extractor/constants"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/entity"
)

// BOM lets Excel on Windows detect UTF-8 and render Bangla correctly.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV writes the BOM, the header row and one row per record.
func WriteCSV(w io.Writer, records []entity.Record) error {
	if _, err := w.Write(BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(constants.AsStringSlice()); err != nil {
		return err
	}
	columns := constants.Columns()
	row := make([]string, len(columns))
	for _, rec := range records {
		for i, c := range columns {
			row[i] = cellString(rec.Value(c))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func cellString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	default:
		return fmt.Sprint(x)
	}
}
