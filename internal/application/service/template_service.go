package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/quote-validator/internal/application/port"
	"github.com/garyjia/quote-validator/internal/domain/entity"
	"github.com/garyjia/quote-validator/pkg/utils"
)

// CreateTemplateInput carries an uploaded template spreadsheet
type CreateTemplateInput struct {
	Name        string
	Description string
	FileName    string
	Content     []byte
	CreatedBy   string
}

// TemplateService manages quote templates
type TemplateService interface {
	CreateFromFile(ctx context.Context, in CreateTemplateInput) (*entity.Template, error)
	Get(ctx context.Context, id string) (*entity.Template, error)
	List(ctx context.Context, activeOnly bool) ([]*entity.Template, error)
	Activate(ctx context.Context, id, updatedBy string) error
	Archive(ctx context.Context, id, updatedBy string) error
	UpdateRules(ctx context.Context, id string, rules entity.ValidationRules, updatedBy string) error
}

type templateServiceImpl struct {
	templateRepo port.TemplateRepository
	blobs        port.BlobStore
	validation   ValidationService
	maxUploadMB  int
	logger       Logger
}

// NewTemplateService creates a new TemplateService
func NewTemplateService(
	templateRepo port.TemplateRepository,
	blobs port.BlobStore,
	validation ValidationService,
	maxUploadMB int,
	logger Logger,
) TemplateService {
	return &templateServiceImpl{
		templateRepo: templateRepo,
		blobs:        blobs,
		validation:   validation,
		maxUploadMB:  maxUploadMB,
		logger:       logger,
	}
}

// CreateFromFile analyzes a template spreadsheet, stores it and persists a
// draft template whose required fields are the analyzed fields
func (s *templateServiceImpl) CreateFromFile(ctx context.Context, in CreateTemplateInput) (*entity.Template, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("template name is required: %w", port.ErrInvalidInput)
	}
	if err := validateUpload(in.FileName, in.Content, s.maxUploadMB); err != nil {
		return nil, err
	}

	analysis, err := s.validation.AnalyzeTemplateFile(in.Content)
	if err != nil {
		return nil, fmt.Errorf("analyze template: %w", err)
	}

	key, err := s.blobs.Put(ctx, entity.BucketTemplates, blobKey(in.FileName), in.Content)
	if err != nil {
		s.logger.Error("Failed to store template file", "error", err, "file_name", in.FileName)
		return nil, fmt.Errorf("store template file: %w", err)
	}

	tmpl := &entity.Template{
		ID:             uuid.NewString(),
		Name:           in.Name,
		Description:    in.Description,
		FileKey:        key,
		RequiredFields: analysis.Fields,
		Status:         entity.TemplateStatusDraft,
		CreatedBy:      in.CreatedBy,
	}
	if tmpl.RequiredFields == nil {
		tmpl.RequiredFields = []entity.TemplateField{}
	}

	if err := s.templateRepo.Create(ctx, tmpl); err != nil {
		s.logger.Error("Failed to create template", "error", err, "name", in.Name)
		if delErr := s.blobs.Delete(ctx, entity.BucketTemplates, key); delErr != nil {
			s.logger.Warn("Failed to remove orphaned template file", "error", delErr, "key", key)
		}
		return nil, fmt.Errorf("create template: %w", err)
	}

	s.logger.Info("Template created", "id", tmpl.ID, "name", tmpl.Name, "fields", len(tmpl.RequiredFields))
	return tmpl, nil
}

// Get retrieves a template by ID
func (s *templateServiceImpl) Get(ctx context.Context, id string) (*entity.Template, error) {
	tmpl, err := s.templateRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get template", "error", err, "id", id)
		return nil, err
	}
	return tmpl, nil
}

// List returns templates, optionally only active ones
func (s *templateServiceImpl) List(ctx context.Context, activeOnly bool) ([]*entity.Template, error) {
	templates, err := s.templateRepo.List(ctx, activeOnly)
	if err != nil {
		s.logger.Error("Failed to list templates", "error", err)
		return nil, err
	}
	if templates == nil {
		templates = []*entity.Template{}
	}
	return templates, nil
}

// Activate makes a draft template available for submissions
func (s *templateServiceImpl) Activate(ctx context.Context, id, updatedBy string) error {
	tmpl, err := s.templateRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if tmpl.Status == entity.TemplateStatusArchived {
		return fmt.Errorf("template %s is archived: %w", id, port.ErrStatusConflict)
	}
	return s.setStatus(ctx, id, entity.TemplateStatusActive, updatedBy)
}

// Archive soft-deletes a template. Existing submissions keep referencing it.
func (s *templateServiceImpl) Archive(ctx context.Context, id, updatedBy string) error {
	return s.setStatus(ctx, id, entity.TemplateStatusArchived, updatedBy)
}

// UpdateRules replaces the template's validation rules. Policy rules are
// stored for later use; the engine only logs them today.
func (s *templateServiceImpl) UpdateRules(ctx context.Context, id string, rules entity.ValidationRules, updatedBy string) error {
	for _, r := range rules.Policy {
		if !r.Severity.IsValid() {
			return fmt.Errorf("policy rule %q has invalid severity %q: %w", r.ID, r.Severity, port.ErrInvalidInput)
		}
	}
	if err := s.templateRepo.UpdateRules(ctx, id, rules, updatedBy); err != nil {
		s.logger.Error("Failed to update template rules", "error", err, "id", id)
		return err
	}
	s.logger.Info("Template rules updated", "id", id, "policy_rules", len(rules.Policy))
	return nil
}

func (s *templateServiceImpl) setStatus(ctx context.Context, id, status, updatedBy string) error {
	if err := s.templateRepo.UpdateStatus(ctx, id, status, updatedBy); err != nil {
		s.logger.Error("Failed to update template status", "error", err, "id", id, "status", status)
		return err
	}
	s.logger.Info("Template status updated", "id", id, "status", status)
	return nil
}

func validateUpload(fileName string, content []byte, maxUploadMB int) error {
	if err := utils.ValidateFileExtension(fileName); err != nil {
		return fmt.Errorf("%v: %w", err, port.ErrInvalidInput)
	}
	if err := utils.ValidateFileSize(int64(len(content)), maxUploadMB); err != nil {
		return fmt.Errorf("%v: %w", err, port.ErrInvalidInput)
	}
	return nil
}

// blobKey builds <unix-ms>_<uuid8>_<filename>
func blobKey(fileName string) string {
	return fmt.Sprintf("%d_%s_%s",
		time.Now().UnixMilli(),
		uuid.NewString()[:8],
		utils.SanitizeFileName(fileName))
}
