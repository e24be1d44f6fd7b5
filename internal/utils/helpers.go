package utils

import (
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/voter-roll-extractor/constants"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/entity"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/pipeline"
)

func strOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// stringList turns a string slice into the []any structpb accepts.
func stringList(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

func baseName(p string) string {
	if p == "" {
		return ""
	}
	return filepath.Base(p)
}

func RecordToMap(r entity.Record) map[string]any {
	return map[string]any{
		"serial":        r.Serial,
		"name":          r.Name,
		"voter_number":  r.VoterNumber,
		"father_name":   r.FatherName,
		"mother_name":   r.MotherName,
		"occupation":    r.Occupation,
		"date_of_birth": r.DateOfBirth,
		"address":       r.Address,
	}
}

func recordList(records []entity.Record) []any {
	out := make([]any, len(records))
	for i, r := range records {
		out[i] = RecordToMap(r)
	}
	return out
}

// ToPBResult renders a conversion result. Paths are reduced to file names.
func ToPBResult(res pipeline.Result) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"job_id":       res.JobID,
		"total":        len(res.Records),
		"migrated":     res.Migrated,
		"dropped":      res.Dropped,
		"pages":        res.Pages,
		"page_methods": stringList(res.PageMethods),
		"excel_file":   baseName(res.XLSXPath),
		"csv_file":     baseName(res.CSVPath),
		"records":      recordList(res.Records),
	})
}

// ToPBJob renders a job row; with records set, the stored records are decoded and included.
func ToPBJob(job *entity.ExtractJob, records bool) (*structpb.Struct, error) {
	m := map[string]any{
		"id":             job.ID,
		"source_path":    job.SourcePath,
		"content_hash":   job.ContentHash,
		"format":         job.Format,
		"force_ocr":      job.ForceOCR,
		"dpi":            job.DPI,
		"status":         job.Status,
		"done":           constants.JobStatus(job.Status).Terminal(),
		"started_at":     job.StartedAt.UTC().Format(time.RFC3339),
		"pages":          job.Pages,
		"page_methods":   stringList(job.PageMethods),
		"record_count":   job.RecordCount,
		"migrated_count": job.MigratedCount,
		"error_message":  strOrEmpty(job.ErrorMessage),
	}
	if job.FinishedAt != nil {
		m["finished_at"] = job.FinishedAt.UTC().Format(time.RFC3339)
	}
	if records && len(job.ExtractedJSON) > 0 {
		var recs []entity.Record
		if err := json.Unmarshal(job.ExtractedJSON, &recs); err != nil {
			return nil, fmt.Errorf("decode records of job %s: %w", job.ID, err)
		}
		m["records"] = recordList(recs)
	}
	return structpb.NewStruct(m)
}

func StringField(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

// BoolField returns def when the key is absent.
func BoolField(s *structpb.Struct, key string, def bool) bool {
	v, ok := s.GetFields()[key]
	if !ok {
		return def
	}
	return v.GetBoolValue()
}

// IntField reads a whole number; absent keys read as 0.
func IntField(s *structpb.Struct, key string) (int, error) {
	v, ok := s.GetFields()[key]
	if !ok {
		return 0, nil
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok || n.NumberValue != math.Trunc(n.NumberValue) {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return int(n.NumberValue), nil
}
