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

// TemplateRepository implements port.TemplateRepository
type TemplateRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTemplateRepository creates a new template repository
func NewTemplateRepository(db *sql.DB, logger *zap.Logger) port.TemplateRepository {
	return &TemplateRepository{
		db:     db,
		logger: logger,
	}
}

const templateColumns = `id, name, description, file_key, required_fields, validation_rules,
	status, created_by, updated_by, created_at, updated_at`

// Create inserts a new template. Timestamps are set here.
func (r *TemplateRepository) Create(ctx context.Context, tmpl *entity.Template) error {
	fields, err := marshalJSON(tmpl.RequiredFields)
	if err != nil {
		return err
	}
	rules, err := marshalJSON(tmpl.ValidationRules)
	if err != nil {
		return err
	}
	if tmpl.Status == "" {
		tmpl.Status = entity.TemplateStatusDraft
	}

	now := time.Now().UTC()
	query := `INSERT INTO templates (` + templateColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.getExecutor(ctx).ExecContext(ctx, query,
		tmpl.ID, tmpl.Name, tmpl.Description, tmpl.FileKey, fields, rules,
		tmpl.Status, tmpl.CreatedBy, tmpl.UpdatedBy, now, now,
	)
	if err != nil {
		r.logger.Error("Failed to create template", zap.String("id", tmpl.ID), zap.Error(err))
		return fmt.Errorf("failed to create template: %w", err)
	}

	tmpl.CreatedAt = now
	tmpl.UpdatedAt = now
	return nil
}

// GetByID retrieves a template by ID
func (r *TemplateRepository) GetByID(ctx context.Context, id string) (*entity.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates WHERE id = ?`
	tmpl, err := scanTemplate(r.getExecutor(ctx).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("template %s: %w", id, port.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("Failed to get template", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return tmpl, nil
}

// List returns templates newest first, optionally only active ones
func (r *TemplateRepository) List(ctx context.Context, activeOnly bool) ([]*entity.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates`
	var args []interface{}
	if activeOnly {
		query += ` WHERE status = ?`
		args = append(args, entity.TemplateStatusActive)
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list templates", zap.Error(err))
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var templates []*entity.Template
	for rows.Next() {
		tmpl, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, tmpl)
	}
	return templates, rows.Err()
}

// UpdateStatus sets a template's status
func (r *TemplateRepository) UpdateStatus(ctx context.Context, id, status, updatedBy string) error {
	query := `UPDATE templates SET status = ?, updated_by = ?, updated_at = ? WHERE id = ?`
	return r.update(ctx, id, query, status, updatedBy, time.Now().UTC(), id)
}

// UpdateRules replaces a template's validation rules
func (r *TemplateRepository) UpdateRules(ctx context.Context, id string, rules entity.ValidationRules, updatedBy string) error {
	encoded, err := marshalJSON(rules)
	if err != nil {
		return err
	}
	query := `UPDATE templates SET validation_rules = ?, updated_by = ?, updated_at = ? WHERE id = ?`
	return r.update(ctx, id, query, encoded, updatedBy, time.Now().UTC(), id)
}

func (r *TemplateRepository) update(ctx context.Context, id, query string, args ...interface{}) error {
	result, err := r.getExecutor(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to update template", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to update template: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("template %s: %w", id, port.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTemplate(row rowScanner) (*entity.Template, error) {
	var tmpl entity.Template
	var fields, rules string
	err := row.Scan(
		&tmpl.ID, &tmpl.Name, &tmpl.Description, &tmpl.FileKey, &fields, &rules,
		&tmpl.Status, &tmpl.CreatedBy, &tmpl.UpdatedBy, &tmpl.CreatedAt, &tmpl.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(fields), &tmpl.RequiredFields); err != nil {
		return nil, fmt.Errorf("failed to decode required fields: %w", err)
	}
	if err := json.Unmarshal([]byte(rules), &tmpl.ValidationRules); err != nil {
		return nil, fmt.Errorf("failed to decode validation rules: %w", err)
	}
	return &tmpl, nil
}

func (r *TemplateRepository) getExecutor(ctx context.Context) sqlite.Executor {
	return sqlite.ExecutorFrom(ctx, r.db)
}

var _ port.TemplateRepository = (*TemplateRepository)(nil)
