package pipeline

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/voter-roll-extractor/internal/extract"
	"github.com/joseph-ayodele/voter-roll-extractor/internal/repository"
)

type TextStage struct {
	JobsRepo      repository.ExtractJobRepository
	TextExtractor extract.TextExtractor
	Logger        *slog.Logger
}

func NewTextStage(jobs repository.ExtractJobRepository, tx extract.TextExtractor, logger *slog.Logger) *TextStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &TextStage{JobsRepo: jobs, TextExtractor: tx, Logger: logger}
}

// Run moves the job to RUNNING, assembles the document text and stores it (TEXT_OK).
// Extraction failures mark the job FAILED.
func (s *TextStage) Run(ctx context.Context, jobID, path string, opts extract.Options) (extract.TextExtractionResult, error) {
	if err := s.JobsRepo.MarkRunning(ctx, jobID); err != nil {
		return extract.TextExtractionResult{}, err
	}

	res, err := s.TextExtractor.Extract(ctx, path, opts)
	if err != nil {
		s.fail(ctx, jobID, err)
		return res, err
	}

	if err := s.JobsRepo.FinishText(ctx, jobID, res.Text, res.PageMethods); err != nil {
		return res, err
	}
	return res, nil
}

func (s *TextStage) fail(ctx context.Context, jobID string, cause error) {
	// ctx may already be cancelled; the failure still has to be recorded
	if err := s.JobsRepo.FinishFailure(context.WithoutCancel(ctx), jobID, cause.Error()); err != nil {
		s.Logger.Error("failed to record job failure", "job_id", jobID, "error", err)
	}
}
