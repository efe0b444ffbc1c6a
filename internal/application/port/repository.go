package port

import (
	"context"
	"time"

	"github.com/garyjia/quote-validator/internal/domain/entity"
)

// TemplateRepository defines persistence operations for Template
type TemplateRepository interface {
	Create(ctx context.Context, tmpl *entity.Template) error
	GetByID(ctx context.Context, id string) (*entity.Template, error)
	List(ctx context.Context, activeOnly bool) ([]*entity.Template, error)
	UpdateStatus(ctx context.Context, id, status, updatedBy string) error
	UpdateRules(ctx context.Context, id string, rules entity.ValidationRules, updatedBy string) error
}

// SubmissionCompletion is written when a validation run finishes
type SubmissionCompletion struct {
	OverallStatus entity.OverallStatus
	Metadata      *entity.QuoteMetadata
	ValidatedAt   time.Time
}

// SubmissionRepository defines persistence operations for Submission
type SubmissionRepository interface {
	Create(ctx context.Context, sub *entity.Submission) error
	GetByID(ctx context.Context, id string) (*entity.Submission, error)
	List(ctx context.Context, submittedBy string) ([]*entity.Submission, error)
	ListByStatus(ctx context.Context, status string, limit int) ([]*entity.Submission, error)

	// CompareAndSetStatus moves a submission from one status to another and
	// returns ErrStatusConflict when the current status is not from
	CompareAndSetStatus(ctx context.Context, id, from, to string) error

	// Complete records the result of a run and moves validating to completed
	Complete(ctx context.Context, id string, c SubmissionCompletion) error
}

// FindingRepository defines persistence operations for Finding
type FindingRepository interface {
	// ReplaceForSubmission discards the previous batch and stores findings
	ReplaceForSubmission(ctx context.Context, submissionID string, findings []entity.Finding) error
	ListBySubmission(ctx context.Context, submissionID string) ([]entity.Finding, error)
	DeleteBySubmission(ctx context.Context, submissionID string) error
}

// TransactionManager runs fn inside a database transaction carried by ctx
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
