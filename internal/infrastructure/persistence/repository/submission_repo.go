package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/quote-validator/internal/application/port"
	"github.com/garyjia/quote-validator/internal/domain/entity"
	"github.com/garyjia/quote-validator/internal/infrastructure/persistence/sqlite"
)

// SubmissionRepository implements port.SubmissionRepository
type SubmissionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSubmissionRepository creates a new submission repository
func NewSubmissionRepository(db *sql.DB, logger *zap.Logger) port.SubmissionRepository {
	return &SubmissionRepository{
		db:     db,
		logger: logger,
	}
}

const submissionColumns = `id, template_id, file_key, file_name, status, overall_status, metadata,
	submitted_by, validated_at, created_at, updated_at`

// Create inserts a new submission in the uploaded state unless a status is set
func (r *SubmissionRepository) Create(ctx context.Context, sub *entity.Submission) error {
	if sub.Status == "" {
		sub.Status = entity.SubmissionStatusUploaded
	}
	now := time.Now().UTC()

	query := `INSERT INTO submissions (id, template_id, file_key, file_name, status, submitted_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.getExecutor(ctx).ExecContext(ctx, query,
		sub.ID, sub.TemplateID, sub.FileKey, sub.FileName, sub.Status, sub.SubmittedBy, now, now,
	)
	if err != nil {
		r.logger.Error("Failed to create submission", zap.String("id", sub.ID), zap.Error(err))
		return fmt.Errorf("failed to create submission: %w", err)
	}

	sub.CreatedAt = now
	sub.UpdatedAt = now
	return nil
}

// GetByID retrieves a submission by ID
func (r *SubmissionRepository) GetByID(ctx context.Context, id string) (*entity.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = ?`
	sub, err := scanSubmission(r.getExecutor(ctx).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("submission %s: %w", id, port.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("Failed to get submission", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return sub, nil
}

// List returns submissions newest first, filtered by submitter when set
func (r *SubmissionRepository) List(ctx context.Context, submittedBy string) ([]*entity.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions`
	var args []interface{}
	if submittedBy != "" {
		query += ` WHERE submitted_by = ?`
		args = append(args, submittedBy)
	}
	query += ` ORDER BY created_at DESC, id`
	return r.query(ctx, query, args...)
}

// ListByStatus returns the oldest submissions in a status, up to limit
func (r *SubmissionRepository) ListByStatus(ctx context.Context, status string, limit int) ([]*entity.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE status = ? ORDER BY created_at, id`
	args := []interface{}{status}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return r.query(ctx, query, args...)
}

// CompareAndSetStatus moves a submission from one status to another
func (r *SubmissionRepository) CompareAndSetStatus(ctx context.Context, id, from, to string) error {
	query := `UPDATE submissions SET status = ?, updated_at = ? WHERE id = ? AND status = ?`
	result, err := r.getExecutor(ctx).ExecContext(ctx, query, to, time.Now().UTC(), id, from)
	if err != nil {
		r.logger.Error("Failed to update submission status",
			zap.String("id", id), zap.String("from", from), zap.String("to", to), zap.Error(err))
		return fmt.Errorf("failed to update submission status: %w", err)
	}
	return r.checkSwapped(ctx, id, from, result)
}

// Complete records the run result and moves validating to completed
func (r *SubmissionRepository) Complete(ctx context.Context, id string, c port.SubmissionCompletion) error {
	var metadata sql.NullString
	if c.Metadata != nil {
		encoded, err := marshalJSON(c.Metadata)
		if err != nil {
			return err
		}
		metadata = sql.NullString{String: encoded, Valid: true}
	}

	query := `UPDATE submissions
		SET status = ?, overall_status = ?, metadata = ?, validated_at = ?, updated_at = ?
		WHERE id = ? AND status = ?`
	result, err := r.getExecutor(ctx).ExecContext(ctx, query,
		entity.SubmissionStatusCompleted, string(c.OverallStatus), metadata,
		c.ValidatedAt.UTC(), time.Now().UTC(), id, entity.SubmissionStatusValidating,
	)
	if err != nil {
		r.logger.Error("Failed to complete submission", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to complete submission: %w", err)
	}
	return r.checkSwapped(ctx, id, entity.SubmissionStatusValidating, result)
}

func (r *SubmissionRepository) checkSwapped(ctx context.Context, id, from string, result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}

	var current string
	err = r.getExecutor(ctx).QueryRowContext(ctx, `SELECT status FROM submissions WHERE id = ?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("submission %s: %w", id, port.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to read submission status: %w", err)
	}
	return fmt.Errorf("submission %s is %s, expected %s: %w", id, current, from, port.ErrStatusConflict)
}

func (r *SubmissionRepository) query(ctx context.Context, query string, args ...interface{}) ([]*entity.Submission, error) {
	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list submissions", zap.Error(err))
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	var subs []*entity.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func scanSubmission(row rowScanner) (*entity.Submission, error) {
	var sub entity.Submission
	var overall, metadata sql.NullString
	var validatedAt sql.NullTime
	err := row.Scan(
		&sub.ID, &sub.TemplateID, &sub.FileKey, &sub.FileName, &sub.Status, &overall, &metadata,
		&sub.SubmittedBy, &validatedAt, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if overall.Valid {
		status := entity.OverallStatus(overall.String)
		sub.OverallStatus = &status
	}
	if metadata.Valid && metadata.String != "" {
		var md entity.QuoteMetadata
		if err := json.Unmarshal([]byte(metadata.String), &md); err != nil {
			return nil, fmt.Errorf("failed to decode metadata: %w", err)
		}
		sub.Metadata = &md
	}
	if validatedAt.Valid {
		t := validatedAt.Time
		sub.ValidatedAt = &t
	}
	return &sub, nil
}

func (r *SubmissionRepository) getExecutor(ctx context.Context) sqlite.Executor {
	return sqlite.ExecutorFrom(ctx, r.db)
}

var _ port.SubmissionRepository = (*SubmissionRepository)(nil)
