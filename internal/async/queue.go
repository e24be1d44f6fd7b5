package async

import (
	"context"
	"errors"
	"time"
)

var ErrQueueClosed = errors.New("queue is shutting down")

// Job is one PDF waiting for conversion.
type Job struct {
	Path        string
	HashHex     string
	ForceOCR    bool
	DPI         int
	SubmittedAt time.Time
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
