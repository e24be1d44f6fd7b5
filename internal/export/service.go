package export

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/voter-roll-extractor/constants"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/entity"
)

// SheetName matches the default first sheet of a new workbook.
const SheetName = "Sheet1"

// Service writes records as XLSX and CSV. Columns are fixed; no styling is applied.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// XLSX returns a workbook (as bytes) with a header row followed by one row per record.
func (s *Service) XLSX(records []entity.Record) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("failed to close workbook", "error", err)
		}
	}()
	index, err := f.GetSheetIndex(SheetName)
	if err != nil || index == -1 {
		if index, err = f.NewSheet(SheetName); err != nil {
			return nil, err
		}
	}
	f.SetActiveSheet(index)

	columns := constants.Columns()
	for i, c := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, string(c)); err != nil {
			return nil, fmt.Errorf("xlsx header: %w", err)
		}
	}
	for r, rec := range records {
		row := r + 2
		for i, c := range columns {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			if err := f.SetCellValue(SheetName, cell, rec.Value(c)); err != nil {
				return nil, fmt.Errorf("xlsx row %d: %w", row, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(records),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// CSV returns records as UTF-8 CSV with a leading BOM.
func (s *Service) CSV(records []entity.Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, records); err != nil {
		return nil, err
	}
	s.logger.Info("export.csv.ok", "rows", len(records), "bytes", buf.Len())
	return buf.Bytes(), nil
}

// WriteFiles writes the workbook to xlsxPath and, when csvPath is set, the CSV.
func (s *Service) WriteFiles(records []entity.Record, xlsxPath, csvPath string) error {
	data, err := s.XLSX(records)
	if err != nil {
		return err
	}
	if err := os.WriteFile(xlsxPath, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", xlsxPath, err)
	}
	if csvPath == "" {
		return nil
	}
	data, err = s.CSV(records)
	if err != nil {
		return err
	}
	if err := os.WriteFile(csvPath, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", csvPath, err)
	}
	return nil
}
