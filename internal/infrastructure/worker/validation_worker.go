package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/garyjia/quote-validator/internal/application/port"
	"github.com/garyjia/quote-validator/internal/domain/entity"
)

// ValidationWorkerConfig holds configuration for the validation worker
type ValidationWorkerConfig struct {
	PollInterval   time.Duration
	BatchSize      int
	Concurrency    int
	ProcessTimeout time.Duration
}

// DefaultValidationWorkerConfig returns default configuration
func DefaultValidationWorkerConfig() ValidationWorkerConfig {
	return ValidationWorkerConfig{
		PollInterval:   5 * time.Second,
		BatchSize:      10,
		Concurrency:    4,
		ProcessTimeout: 2 * time.Minute,
	}
}

// SubmissionValidator runs one validation of an uploaded submission
type SubmissionValidator interface {
	Validate(ctx context.Context, submissionID string) (*entity.Report, error)
}

// WorkerStats is a snapshot of the worker's counters
type WorkerStats struct {
	Running       bool      `json:"running"`
	Processed     int       `json:"processed"`
	Failed        int       `json:"failed"`
	LastProcessed time.Time `json:"last_processed"`
	LastError     string    `json:"last_error,omitempty"`
}

// ValidationWorker polls for uploaded submissions and validates each batch
// concurrently. Runs for different submissions share no state; the status
// compare-and-set keeps two claimers off the same submission.
type ValidationWorker struct {
	config         ValidationWorkerConfig
	submissionRepo port.SubmissionRepository
	validator      SubmissionValidator
	logger         *zap.Logger

	mu             sync.RWMutex
	cancel         context.CancelFunc
	done           chan struct{}
	isRunning      bool
	lastProcessed  time.Time
	processedCount int
	failedCount    int
	lastError      error
}

// NewValidationWorker creates a new validation worker
func NewValidationWorker(
	config ValidationWorkerConfig,
	submissionRepo port.SubmissionRepository,
	validator SubmissionValidator,
	logger *zap.Logger,
) *ValidationWorker {
	def := DefaultValidationWorkerConfig()
	if config.PollInterval <= 0 {
		config.PollInterval = def.PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = def.BatchSize
	}
	if config.Concurrency <= 0 {
		config.Concurrency = def.Concurrency
	}
	if config.ProcessTimeout <= 0 {
		config.ProcessTimeout = def.ProcessTimeout
	}
	return &ValidationWorker{
		config:         config,
		submissionRepo: submissionRepo,
		validator:      validator,
		logger:         logger,
	}
}

// Start begins the polling loop
func (w *ValidationWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.isRunning {
		return fmt.Errorf("validation worker already running")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	w.isRunning = true

	w.logger.Info("ValidationWorker started",
		zap.Duration("poll_interval", w.config.PollInterval),
		zap.Int("batch_size", w.config.BatchSize),
		zap.Int("concurrency", w.config.Concurrency))

	go w.pollLoop(loopCtx, w.done)
	return nil
}

// Stop cancels the loop and waits for in-flight validations to return
func (w *ValidationWorker) Stop() error {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return nil
	}
	w.isRunning = false
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	cancel()
	<-done

	stats := w.Stats()
	w.logger.Info("ValidationWorker stopped",
		zap.Int("processed_count", stats.Processed),
		zap.Int("failed_count", stats.Failed))
	return nil
}

// Name returns the worker name for identification
func (w *ValidationWorker) Name() string {
	return "ValidationWorker"
}

// Stats returns the current counters
func (w *ValidationWorker) Stats() WorkerStats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	s := WorkerStats{
		Running:       w.isRunning,
		Processed:     w.processedCount,
		Failed:        w.failedCount,
		LastProcessed: w.lastProcessed,
	}
	if w.lastError != nil {
		s.LastError = w.lastError.Error()
	}
	return s
}

func (w *ValidationWorker) pollLoop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("Poll loop context cancelled")
			return
		case <-ticker.C:
			if err := w.ProcessBatch(ctx); err != nil {
				w.mu.Lock()
				w.lastError = err
				w.mu.Unlock()
				w.logger.Error("Failed to process uploaded submissions", zap.Error(err))
			}
		}
	}
}

// ProcessBatch validates up to BatchSize uploaded submissions, at most
// Concurrency at a time. A failed validation does not stop the others.
func (w *ValidationWorker) ProcessBatch(ctx context.Context) error {
	pending, err := w.submissionRepo.ListByStatus(ctx, entity.SubmissionStatusUploaded, w.config.BatchSize)
	if err != nil {
		return fmt.Errorf("list uploaded submissions: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	w.logger.Debug("Validating uploaded submissions", zap.Int("count", len(pending)))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.config.Concurrency)
	for _, sub := range pending {
		g.Go(func() error {
			w.process(gctx, sub)
			return nil
		})
	}
	return g.Wait()
}

func (w *ValidationWorker) process(ctx context.Context, sub *entity.Submission) {
	processCtx, cancel := context.WithTimeout(ctx, w.config.ProcessTimeout)
	defer cancel()

	report, err := w.validator.Validate(processCtx, sub.ID)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastProcessed = time.Now()

	switch {
	case errors.Is(err, port.ErrStatusConflict):
		// claimed by another run
		w.logger.Debug("Submission already claimed", zap.String("submission_id", sub.ID))
	case err != nil:
		w.failedCount++
		w.lastError = err
		w.logger.Warn("Submission validation failed",
			zap.String("submission_id", sub.ID),
			zap.Error(err))
	default:
		w.processedCount++
		w.logger.Info("Submission validated",
			zap.String("submission_id", sub.ID),
			zap.String("overall_status", string(report.OverallStatus)),
			zap.Int("findings", report.Total))
	}
}
