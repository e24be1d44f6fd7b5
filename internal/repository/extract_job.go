package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/voter-roll-extractor/constants"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/common"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/entity"
)

const (
	jobTable = "extract_job"
	// fixed width so text ordering matches time ordering
	tsLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

var jobColumns = []string{
	"id", "source_path", "content_hash", "format", "force_ocr", "dpi", "status",
	"started_at", "finished_at", "pages", "page_methods", "record_count",
	"migrated_count", "error_message", "ocr_text", "extracted_json",
}

type StartJobRequest struct {
	ID          string
	SourcePath  string
	ContentHash string
	Format      string
	ForceOCR    bool
	DPI         int
}

type ExtractJobRepository interface {
	Start(ctx context.Context, req StartJobRequest) (*entity.ExtractJob, error)
	MarkRunning(ctx context.Context, jobID string) error
	FinishText(ctx context.Context, jobID, text string, pageMethods []string) error
	FinishParse(ctx context.Context, jobID string, records []entity.Record, migrated int) error
	FinishFailure(ctx context.Context, jobID string, message string) error
	Get(ctx context.Context, jobID string) (*entity.ExtractJob, error)
	FindParsedByHash(ctx context.Context, contentHash string) (*entity.ExtractJob, error)
	ListRecent(ctx context.Context, limit int) ([]*entity.ExtractJob, error)
}

type extractJobRepo struct {
	db     *DB
	schema *RecordsSchema
	log    *slog.Logger
	now    func() time.Time
}

func NewExtractJobRepository(db *DB, log *slog.Logger) ExtractJobRepository {
	if log == nil {
		log = slog.Default()
	}
	return &extractJobRepo{db: db, schema: MustRecordsSchema(), log: log, now: time.Now}
}

func (r *extractJobRepo) builder() *entsql.DialectBuilder {
	return entsql.Dialect(r.db.Dialect)
}

func (r *extractJobRepo) exec(ctx context.Context, query string, args []any) (int64, error) {
	var res sql.Result
	if err := r.db.Driver.Exec(ctx, query, args, &res); err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *extractJobRepo) timestamp() string {
	return r.now().UTC().Format(tsLayout)
}

func (r *extractJobRepo) Start(ctx context.Context, req StartJobRequest) (*entity.ExtractJob, error) {
	if req.ID == "" || req.SourcePath == "" {
		return nil, fmt.Errorf("%w: job id and source path are required", common.ErrInvalidInput)
	}
	if req.Format == "" {
		req.Format = constants.PDF
	}
	started := r.timestamp()
	query, args := r.builder().Insert(jobTable).
		Columns("id", "source_path", "content_hash", "format", "force_ocr", "dpi", "status", "started_at").
		Values(req.ID, req.SourcePath, req.ContentHash, req.Format, boolToInt(req.ForceOCR), req.DPI,
			string(constants.JobStatusQueued), started).
		Query()
	if _, err := r.exec(ctx, query, args); err != nil {
		r.log.Error("extract_job start failed", "job_id", req.ID, "err", err)
		return nil, fmt.Errorf("%w: insert job: %v", common.ErrDatabase, err)
	}
	r.log.Info("extract_job started", "job_id", req.ID, "source_path", req.SourcePath, "force_ocr", req.ForceOCR)
	return r.Get(ctx, req.ID)
}

func (r *extractJobRepo) MarkRunning(ctx context.Context, jobID string) error {
	return r.update(ctx, jobID, map[string]any{"status": string(constants.JobStatusRunning)})
}

func (r *extractJobRepo) FinishText(ctx context.Context, jobID, text string, pageMethods []string) error {
	err := r.update(ctx, jobID, map[string]any{
		"status":       string(constants.JobStatusTextOK),
		"ocr_text":     text,
		"pages":        len(pageMethods),
		"page_methods": strings.Join(pageMethods, ","),
	})
	if err != nil {
		r.log.Error("extract_job finish(TEXT_OK) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Info("extract_job text stored (TEXT_OK)", "job_id", jobID, "pages", len(pageMethods), "text_bytes", len(text))
	return nil
}

func (r *extractJobRepo) FinishParse(ctx context.Context, jobID string, records []entity.Record, migrated int) error {
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}
	if err := r.schema.Validate(raw); err != nil {
		r.log.Error("extracted records failed schema validation", "job_id", jobID, "err", err)
		return err
	}
	err = r.update(ctx, jobID, map[string]any{
		"status":         string(constants.JobStatusParsed),
		"record_count":   len(records),
		"migrated_count": migrated,
		"extracted_json": string(raw),
		"finished_at":    r.timestamp(),
	})
	if err != nil {
		r.log.Error("extract_job finish(PARSED) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Info("extract_job finished (PARSED)", "job_id", jobID, "records", len(records), "migrated", migrated)
	return nil
}

func (r *extractJobRepo) FinishFailure(ctx context.Context, jobID string, message string) error {
	err := r.update(ctx, jobID, map[string]any{
		"status":        string(constants.JobStatusFailed),
		"error_message": message,
		"finished_at":   r.timestamp(),
	})
	if err != nil {
		r.log.Error("extract_job finish(FAILED) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Warn("extract_job finished (FAILED)", "job_id", jobID, "error", message)
	return nil
}

// update sets columns in a stable order so generated SQL is deterministic.
func (r *extractJobRepo) update(ctx context.Context, jobID string, set map[string]any) error {
	u := r.builder().Update(jobTable)
	for _, col := range jobColumns {
		if v, ok := set[col]; ok {
			u.Set(col, v)
		}
	}
	query, args := u.Where(entsql.EQ("id", jobID)).Query()
	n, err := r.exec(ctx, query, args)
	if err != nil {
		return fmt.Errorf("%w: update job %s: %v", common.ErrDatabase, jobID, err)
	}
	if n == 0 {
		return fmt.Errorf("job %s: %w", jobID, common.ErrNotFound)
	}
	return nil
}

func (r *extractJobRepo) Get(ctx context.Context, jobID string) (*entity.ExtractJob, error) {
	jobs, err := r.selectJobs(ctx, func(s *entsql.Selector) {
		s.Where(entsql.EQ("id", jobID))
	})
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("job %s: %w", jobID, common.ErrNotFound)
	}
	return jobs[0], nil
}

func (r *extractJobRepo) FindParsedByHash(ctx context.Context, contentHash string) (*entity.ExtractJob, error) {
	jobs, err := r.selectJobs(ctx, func(s *entsql.Selector) {
		s.Where(entsql.And(
			entsql.EQ("content_hash", contentHash),
			entsql.EQ("status", string(constants.JobStatusParsed)),
		)).OrderBy(entsql.Desc("started_at")).Limit(1)
	})
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("job with hash %s: %w", contentHash, common.ErrNotFound)
	}
	return jobs[0], nil
}

func (r *extractJobRepo) ListRecent(ctx context.Context, limit int) ([]*entity.ExtractJob, error) {
	if limit <= 0 {
		limit = 20
	}
	return r.selectJobs(ctx, func(s *entsql.Selector) {
		s.OrderBy(entsql.Desc("started_at")).Limit(limit)
	})
}

func (r *extractJobRepo) selectJobs(ctx context.Context, where func(*entsql.Selector)) ([]*entity.ExtractJob, error) {
	b := r.builder()
	s := b.Select(jobColumns...).From(b.Table(jobTable))
	where(s)
	query, args := s.Query()

	rows := &entsql.Rows{}
	if err := r.db.Driver.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("%w: query jobs: %v", common.ErrDatabase, err)
	}
	defer rows.Close()

	var out []*entity.ExtractJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate jobs: %v", common.ErrDatabase, err)
	}
	return out, nil
}

func scanJob(rows *entsql.Rows) (*entity.ExtractJob, error) {
	var (
		job                              entity.ExtractJob
		forceOCR                         int
		startedAt, pageMethods           string
		finishedAt, errMsg, text, parsed sql.NullString
	)
	if err := rows.Scan(
		&job.ID, &job.SourcePath, &job.ContentHash, &job.Format, &forceOCR, &job.DPI, &job.Status,
		&startedAt, &finishedAt, &job.Pages, &pageMethods, &job.RecordCount,
		&job.MigratedCount, &errMsg, &text, &parsed,
	); err != nil {
		return nil, fmt.Errorf("%w: scan job: %v", common.ErrDatabase, err)
	}
	job.ForceOCR = forceOCR != 0

	ts, err := time.Parse(tsLayout, startedAt)
	if err != nil {
		return nil, fmt.Errorf("job %s: bad started_at %q: %w", job.ID, startedAt, err)
	}
	job.StartedAt = ts
	if finishedAt.Valid {
		ts, err := time.Parse(tsLayout, finishedAt.String)
		if err != nil {
			return nil, fmt.Errorf("job %s: bad finished_at %q: %w", job.ID, finishedAt.String, err)
		}
		job.FinishedAt = &ts
	}
	if pageMethods != "" {
		job.PageMethods = strings.Split(pageMethods, ",")
	}
	if errMsg.Valid {
		job.ErrorMessage = &errMsg.String
	}
	if text.Valid {
		job.OCRText = &text.String
	}
	if parsed.Valid && parsed.String != "" {
		job.ExtractedJSON = json.RawMessage(parsed.String)
	}
	return &job, nil
}

// Records decodes the stored records of a parsed job.
func Records(job *entity.ExtractJob) ([]entity.Record, error) {
	if job == nil || len(job.ExtractedJSON) == 0 {
		return nil, errors.New("job has no extracted records")
	}
	var out []entity.Record
	if err := json.Unmarshal(job.ExtractedJSON, &out); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
