package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/quote-validator/internal/application/port"
	"github.com/garyjia/quote-validator/internal/domain/entity"
	"github.com/garyjia/quote-validator/internal/infrastructure/persistence/sqlite"
)

// FindingRepository implements port.FindingRepository
type FindingRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewFindingRepository creates a new finding repository
func NewFindingRepository(db *sql.DB, logger *zap.Logger) port.FindingRepository {
	return &FindingRepository{
		db:     db,
		logger: logger,
	}
}

// ReplaceForSubmission deletes the previous batch and inserts findings.
// Callers should run it inside a transaction so readers never see a mix.
func (r *FindingRepository) ReplaceForSubmission(ctx context.Context, submissionID string, findings []entity.Finding) error {
	if err := r.DeleteBySubmission(ctx, submissionID); err != nil {
		return err
	}

	query := `INSERT INTO findings (
			submission_id, run_id, severity, category, message, location,
			expected_value, actual_value, recommendation, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	now := time.Now().UTC()
	exec := r.getExecutor(ctx)
	for i := range findings {
		f := &findings[i]
		result, err := exec.ExecContext(ctx, query,
			submissionID, f.RunID, string(f.Severity), string(f.Category), f.Message, f.Location,
			f.ExpectedValue, f.ActualValue, f.Recommendation, now,
		)
		if err != nil {
			r.logger.Error("Failed to insert finding",
				zap.String("submission_id", submissionID), zap.Error(err))
			return fmt.Errorf("failed to insert finding: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		f.ID = id
		f.SubmissionID = submissionID
		f.CreatedAt = now
	}

	r.logger.Debug("Stored findings",
		zap.String("submission_id", submissionID), zap.Int("count", len(findings)))
	return nil
}

// ListBySubmission returns findings most severe first, then in insertion order
func (r *FindingRepository) ListBySubmission(ctx context.Context, submissionID string) ([]entity.Finding, error) {
	query := `SELECT id, submission_id, run_id, severity, category, message, location,
			expected_value, actual_value, recommendation, created_at
		FROM findings WHERE submission_id = ? ORDER BY id`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, submissionID)
	if err != nil {
		r.logger.Error("Failed to list findings", zap.String("submission_id", submissionID), zap.Error(err))
		return nil, fmt.Errorf("failed to list findings: %w", err)
	}
	defer rows.Close()

	findings := []entity.Finding{}
	for rows.Next() {
		var f entity.Finding
		var severity, category string
		if err := rows.Scan(
			&f.ID, &f.SubmissionID, &f.RunID, &severity, &category, &f.Message, &f.Location,
			&f.ExpectedValue, &f.ActualValue, &f.Recommendation, &f.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan finding: %w", err)
		}
		f.Severity = entity.Severity(severity)
		f.Category = entity.Category(category)
		findings = append(findings, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].Severity.Rank() > findings[j].Severity.Rank()
	})
	return findings, nil
}

// DeleteBySubmission removes every finding of a submission
func (r *FindingRepository) DeleteBySubmission(ctx context.Context, submissionID string) error {
	_, err := r.getExecutor(ctx).ExecContext(ctx, `DELETE FROM findings WHERE submission_id = ?`, submissionID)
	if err != nil {
		r.logger.Error("Failed to delete findings", zap.String("submission_id", submissionID), zap.Error(err))
		return fmt.Errorf("failed to delete findings: %w", err)
	}
	return nil
}

func (r *FindingRepository) getExecutor(ctx context.Context) sqlite.Executor {
	return sqlite.ExecutorFrom(ctx, r.db)
}

var _ port.FindingRepository = (*FindingRepository)(nil)
