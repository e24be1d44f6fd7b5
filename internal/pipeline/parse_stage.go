package pipeline

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/voter-roll-extractor/internal/parse"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/repository"
)

type ParseStage struct {
	JobsRepo repository.ExtractJobRepository
	Parser   *parse.Parser
	Logger   *slog.Logger
}

func NewParseStage(jobs repository.ExtractJobRepository, parser *parse.Parser, logger *slog.Logger) *ParseStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &ParseStage{JobsRepo: jobs, Parser: parser, Logger: logger}
}

// Run parses the assembled text of a job and stores the records (PARSED).
func (s *ParseStage) Run(ctx context.Context, jobID, text string) (parse.ParseResult, error) {
	res, err := s.Parser.Parse(text)
	if err != nil {
		if ferr := s.JobsRepo.FinishFailure(context.WithoutCancel(ctx), jobID, err.Error()); ferr != nil {
			s.Logger.Error("failed to record job failure", "job_id", jobID, "error", ferr)
		}
		return res, err
	}
	if res.Migrated > 0 {
		s.Logger.Info("discarded migrated entries", "job_id", jobID, "count", res.Migrated)
	}
	if err := s.JobsRepo.FinishParse(ctx, jobID, res.Records, res.Migrated); err != nil {
		return res, err
	}
	return res, nil
}
