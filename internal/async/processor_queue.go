package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/voter-roll-extractor/internal/pipeline"
)

// Converter is satisfied by *pipeline.Processor.
type Converter interface {
	Convert(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

// Outcome is reported once per processed job.
type Outcome struct {
	Job    Job
	Result pipeline.Result
	Err    error
}

type ProcessorQueue struct {
	conv     Converter
	logger   *slog.Logger
	workers  int
	timeout  time.Duration
	outputs  func(Job) (xlsx, csv string)
	onResult func(Outcome)

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	// done is closed by Shutdown; ch is closed only after every pending
	// sender has returned.
	done    chan struct{}
	senders sync.WaitGroup
	mu      sync.Mutex
	closed  bool
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// WithOutputs chooses the export paths for a job. Without it nothing is written to disk.
func WithOutputs(fn func(Job) (xlsx, csv string)) Option {
	return func(q *ProcessorQueue) { q.outputs = fn }
}

// WithResultHandler is called from worker goroutines after each job.
func WithResultHandler(fn func(Outcome)) Option {
	return func(q *ProcessorQueue) { q.onResult = fn }
}

func NewProcessorQueue(conv Converter, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		conv:    conv,
		logger:  logger,
		workers: 2,
		timeout: 10 * time.Minute,
		ch:      make(chan Job, 64),
		done:    make(chan struct{}),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("worker started", "worker_id", workerID)
				for job := range q.ch {
					q.process(workerID, job)
				}
				q.logger.Debug("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) process(workerID int, job Job) {
	req := pipeline.Request{
		SourcePath:  job.Path,
		ContentHash: job.HashHex,
		ForceOCR:    job.ForceOCR,
		DPI:         job.DPI,
	}
	if q.outputs != nil {
		req.XLSXPath, req.CSVPath = q.outputs(job)
	}

	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	res, err := q.conv.Convert(ctx, req)
	cancel()

	if err != nil {
		q.logger.Error("processing failed", "worker_id", workerID, "path", job.Path, "job_id", res.JobID, "error", err)
	} else {
		q.logger.Info("processed file successfully", "worker_id", workerID, "path", job.Path, "job_id", res.JobID, "records", len(res.Records))
	}
	if q.onResult != nil {
		q.onResult(Outcome{Job: job, Result: res, Err: err})
	}
}

// Enqueue blocks while the buffer is full, until ctx is done or the queue
// shuts down.
func (q *ProcessorQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.logger.Warn("cannot enqueue: queue is shutting down", "path", job.Path)
		return ErrQueueClosed
	}
	q.senders.Add(1)
	q.mu.Unlock()
	defer q.senders.Done()

	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	select {
	case q.ch <- job:
		q.logger.Debug("queued file for processing", "path", job.Path)
		return nil
	default:
	}
	q.logger.Warn("queue full, applying backpressure", "path", job.Path)
	select {
	case q.ch <- job:
		return nil
	case <-q.done:
		q.logger.Warn("cannot enqueue: queue is shutting down", "path", job.Path)
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops intake and waits for queued jobs to finish or ctx to end.
func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.done)
	q.mu.Unlock()
	q.senders.Wait()
	close(q.ch)

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
