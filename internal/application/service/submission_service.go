package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/quote-validator/internal/application/port"
	"github.com/garyjia/quote-validator/internal/domain/entity"
	"github.com/garyjia/quote-validator/internal/domain/workflow"
)

// DefaultPersistRetries is how often the completion transaction is attempted
const DefaultPersistRetries = 3

// SubmitInput carries an uploaded quote spreadsheet
type SubmitInput struct {
	TemplateID  string
	FileName    string
	Content     []byte
	SubmittedBy string
}

// SubmissionConfig tunes submission handling
type SubmissionConfig struct {
	PersistRetries int
	RetryBackoff   time.Duration
	MaxUploadMB    int
}

// SubmissionService manages quote submissions and their validation runs
type SubmissionService interface {
	Submit(ctx context.Context, in SubmitInput) (*entity.Submission, error)
	Validate(ctx context.Context, submissionID string) (*entity.Report, error)
	Revalidate(ctx context.Context, submissionID string) (*entity.Report, error)
	GetWithFindings(ctx context.Context, submissionID string) (*entity.Submission, []entity.Finding, error)
	List(ctx context.Context, submittedBy string) ([]*entity.Submission, error)
}

type submissionServiceImpl struct {
	submissionRepo port.SubmissionRepository
	templateRepo   port.TemplateRepository
	findingRepo    port.FindingRepository
	blobs          port.BlobStore
	txManager      port.TransactionManager
	validation     ValidationService
	cfg            SubmissionConfig
	logger         Logger
}

// NewSubmissionService creates a new SubmissionService
func NewSubmissionService(
	submissionRepo port.SubmissionRepository,
	templateRepo port.TemplateRepository,
	findingRepo port.FindingRepository,
	blobs port.BlobStore,
	txManager port.TransactionManager,
	validation ValidationService,
	cfg SubmissionConfig,
	logger Logger,
) SubmissionService {
	if cfg.PersistRetries <= 0 {
		cfg.PersistRetries = DefaultPersistRetries
	}
	return &submissionServiceImpl{
		submissionRepo: submissionRepo,
		templateRepo:   templateRepo,
		findingRepo:    findingRepo,
		blobs:          blobs,
		txManager:      txManager,
		validation:     validation,
		cfg:            cfg,
		logger:         logger,
	}
}

// Submit stores a quote file against a template. Validation runs later,
// either through Validate or the background worker.
func (s *submissionServiceImpl) Submit(ctx context.Context, in SubmitInput) (*entity.Submission, error) {
	if err := validateUpload(in.FileName, in.Content, s.cfg.MaxUploadMB); err != nil {
		return nil, err
	}

	tmpl, err := s.templateRepo.GetByID(ctx, in.TemplateID)
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	if tmpl.Status == entity.TemplateStatusArchived {
		return nil, fmt.Errorf("template %s is archived: %w", tmpl.ID, port.ErrInvalidInput)
	}

	key, err := s.blobs.Put(ctx, entity.BucketQuotes, blobKey(in.FileName), in.Content)
	if err != nil {
		s.logger.Error("Failed to store quote file", "error", err, "file_name", in.FileName)
		return nil, fmt.Errorf("store quote file: %w", err)
	}

	sub := &entity.Submission{
		ID:          uuid.NewString(),
		TemplateID:  tmpl.ID,
		FileKey:     key,
		FileName:    in.FileName,
		Status:      entity.SubmissionStatusUploaded,
		SubmittedBy: in.SubmittedBy,
	}
	if err := s.submissionRepo.Create(ctx, sub); err != nil {
		s.logger.Error("Failed to create submission", "error", err, "template_id", tmpl.ID)
		if delErr := s.blobs.Delete(ctx, entity.BucketQuotes, key); delErr != nil {
			s.logger.Warn("Failed to remove orphaned quote file", "error", delErr, "key", key)
		}
		return nil, fmt.Errorf("create submission: %w", err)
	}

	s.logger.Info("Submission created", "id", sub.ID, "template_id", sub.TemplateID, "file_name", sub.FileName)
	return sub, nil
}

// Validate runs the first validation of an uploaded submission
func (s *submissionServiceImpl) Validate(ctx context.Context, submissionID string) (*entity.Report, error) {
	return s.startRun(ctx, submissionID, workflow.TriggerStartValidation)
}

// Revalidate reruns validation of a completed or failed submission. The new
// findings replace the previous batch when the run completes.
func (s *submissionServiceImpl) Revalidate(ctx context.Context, submissionID string) (*entity.Report, error) {
	return s.startRun(ctx, submissionID, workflow.TriggerRevalidate)
}

// GetWithFindings returns a submission and its findings, most severe first
func (s *submissionServiceImpl) GetWithFindings(ctx context.Context, submissionID string) (*entity.Submission, []entity.Finding, error) {
	sub, err := s.submissionRepo.GetByID(ctx, submissionID)
	if err != nil {
		return nil, nil, err
	}
	findings, err := s.findingRepo.ListBySubmission(ctx, submissionID)
	if err != nil {
		s.logger.Error("Failed to list findings", "error", err, "submission_id", submissionID)
		return nil, nil, err
	}
	return sub, findings, nil
}

// List returns submissions, all of them when submittedBy is empty
func (s *submissionServiceImpl) List(ctx context.Context, submittedBy string) ([]*entity.Submission, error) {
	subs, err := s.submissionRepo.List(ctx, submittedBy)
	if err != nil {
		s.logger.Error("Failed to list submissions", "error", err)
		return nil, err
	}
	if subs == nil {
		subs = []*entity.Submission{}
	}
	return subs, nil
}

// startRun claims the submission with a compare-and-set into validating,
// then runs the pipeline
func (s *submissionServiceImpl) startRun(ctx context.Context, submissionID string, trigger workflow.Trigger) (*entity.Report, error) {
	sub, err := s.submissionRepo.GetByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	from := workflow.State(sub.Status)
	to, err := workflow.Next(from, trigger)
	if err != nil {
		return nil, fmt.Errorf("submission %s cannot %s from %s: %v: %w",
			submissionID, trigger, from, err, port.ErrStatusConflict)
	}
	if err := s.submissionRepo.CompareAndSetStatus(ctx, submissionID, string(from), string(to)); err != nil {
		s.logger.Warn("Lost submission claim", "submission_id", submissionID, "error", err)
		return nil, err
	}
	sub.Status = string(to)
	s.logger.Info("Submission status changed", "submission_id", submissionID, "from", from, "to", to)

	report, err := s.run(ctx, sub)
	if err != nil {
		s.markFailed(ctx, sub, err)
		return nil, err
	}
	return report, nil
}

// run executes one validation of a submission already in validating
func (s *submissionServiceImpl) run(ctx context.Context, sub *entity.Submission) (*entity.Report, error) {
	tmpl, err := s.templateRepo.GetByID(ctx, sub.TemplateID)
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}

	content, err := s.blobs.Get(ctx, entity.BucketQuotes, sub.FileKey)
	if err != nil {
		return nil, fmt.Errorf("get quote file: %w", err)
	}

	q, err := s.validation.ParseQuoteFile(content)
	if err != nil {
		return nil, fmt.Errorf("parse quote: %w", err)
	}

	findings := s.validation.RunValidation(ctx, q, tmpl)

	to, err := workflow.Next(workflow.StateValidating, workflow.TriggerComplete)
	if err != nil {
		return nil, err
	}
	completion := port.SubmissionCompletion{
		OverallStatus: s.validation.OverallStatus(findings),
		Metadata:      &q.Metadata,
		ValidatedAt:   time.Now().UTC(),
	}

	if err := s.persist(ctx, sub.ID, findings, completion); err != nil {
		return nil, err
	}

	status := completion.OverallStatus
	sub.Status = string(to)
	sub.OverallStatus = &status
	sub.Metadata = completion.Metadata
	sub.ValidatedAt = &completion.ValidatedAt

	s.logger.Info("Submission validated",
		"submission_id", sub.ID,
		"overall_status", status,
		"findings", len(findings))
	return BuildReport(sub, findings), nil
}

// persist stores the findings batch and completes the submission in one
// transaction, retrying transient failures
func (s *submissionServiceImpl) persist(ctx context.Context, submissionID string, findings []entity.Finding, c port.SubmissionCompletion) error {
	var err error
	for attempt := 1; attempt <= s.cfg.PersistRetries; attempt++ {
		err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			if err := s.findingRepo.ReplaceForSubmission(txCtx, submissionID, findings); err != nil {
				return err
			}
			return s.submissionRepo.Complete(txCtx, submissionID, c)
		})
		if err == nil {
			return nil
		}
		// A status conflict will not resolve by retrying
		if errors.Is(err, port.ErrStatusConflict) || errors.Is(err, port.ErrNotFound) || ctx.Err() != nil {
			break
		}
		s.logger.Warn("Persisting findings failed, retrying",
			"submission_id", submissionID, "attempt", attempt, "error", err)
		if s.cfg.RetryBackoff > 0 && attempt < s.cfg.PersistRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.cfg.RetryBackoff * time.Duration(attempt)):
			}
		}
	}
	return fmt.Errorf("persist findings: %w", err)
}

// markFailed moves a validating submission to failed and drops its findings.
// It runs even if ctx was cancelled so a run never stays in validating.
func (s *submissionServiceImpl) markFailed(ctx context.Context, sub *entity.Submission, cause error) {
	ctx = context.WithoutCancel(ctx)

	to, err := workflow.Next(workflow.StateValidating, workflow.TriggerFail)
	if err != nil {
		s.logger.Error("Cannot derive failed state", "submission_id", sub.ID, "error", err)
		return
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.findingRepo.DeleteBySubmission(txCtx, sub.ID); err != nil {
			return err
		}
		return s.submissionRepo.CompareAndSetStatus(txCtx, sub.ID, entity.SubmissionStatusValidating, string(to))
	})
	if err != nil {
		s.logger.Error("Failed to mark submission failed",
			"submission_id", sub.ID, "cause", cause, "error", err)
		return
	}

	sub.Status = string(to)
	s.logger.Warn("Submission validation failed", "submission_id", sub.ID, "error", cause)
}
