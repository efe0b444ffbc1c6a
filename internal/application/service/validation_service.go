package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/garyjia/quote-validator/internal/analyzer"
	"github.com/garyjia/quote-validator/internal/domain/entity"
	"github.com/garyjia/quote-validator/internal/quote"
	"github.com/garyjia/quote-validator/internal/rules"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// FindingReviewer adds best-effort findings on top of the deterministic ones.
// Implementations must not fail; *review.Reviewer satisfies it.
type FindingReviewer interface {
	Review(ctx context.Context, q *entity.Quote, deterministic []entity.Finding) []entity.Finding
}

// ValidationService is the validation pipeline exposed to the outer layers
type ValidationService interface {
	AnalyzeTemplateFile(data []byte) (*entity.TemplateAnalysis, error)
	ParseQuoteFile(data []byte) (*entity.Quote, error)
	RunValidation(ctx context.Context, q *entity.Quote, tmpl *entity.Template) []entity.Finding
	OverallStatus(findings []entity.Finding) entity.OverallStatus
}

type validationServiceImpl struct {
	extractor *quote.Extractor
	engine    *rules.Engine
	reviewer  FindingReviewer
	logger    Logger
}

// NewValidationService creates a new ValidationService. reviewer may be nil,
// in which case runs contain deterministic findings only.
func NewValidationService(
	extractor *quote.Extractor,
	engine *rules.Engine,
	reviewer FindingReviewer,
	logger Logger,
) ValidationService {
	return &validationServiceImpl{
		extractor: extractor,
		engine:    engine,
		reviewer:  reviewer,
		logger:    logger,
	}
}

// AnalyzeTemplateFile extracts the field schema of a template spreadsheet
func (s *validationServiceImpl) AnalyzeTemplateFile(data []byte) (*entity.TemplateAnalysis, error) {
	analysis, err := analyzer.AnalyzeFile(data)
	if err != nil {
		s.logger.Warn("Template analysis failed", "error", err)
		return nil, err
	}
	s.logger.Info("Template analyzed",
		"fields", len(analysis.Fields),
		"line_item_columns", len(analysis.LineItemColumns))
	return analysis, nil
}

// ParseQuoteFile extracts a Quote from spreadsheet bytes
func (s *validationServiceImpl) ParseQuoteFile(data []byte) (*entity.Quote, error) {
	q, err := s.extractor.ParseFile(data)
	if err != nil {
		s.logger.Warn("Quote parse failed", "error", err)
		return nil, err
	}
	return q, nil
}

// RunValidation runs the rule engine, then the AI review with the
// deterministic findings, and stamps one run id onto every finding
func (s *validationServiceImpl) RunValidation(ctx context.Context, q *entity.Quote, tmpl *entity.Template) []entity.Finding {
	runID := uuid.NewString()

	findings := s.engine.Run(q, tmpl)
	deterministic := len(findings)

	if s.reviewer != nil {
		findings = append(findings, s.reviewer.Review(ctx, q, findings)...)
	}

	for i := range findings {
		findings[i].RunID = runID
	}

	s.logger.Info("Validation run finished",
		"run_id", runID,
		"deterministic", deterministic,
		"ai", len(findings)-deterministic,
		"overall_status", entity.ComputeOverallStatus(findings))
	return findings
}

// OverallStatus derives pass, warning or fail from findings
func (s *validationServiceImpl) OverallStatus(findings []entity.Finding) entity.OverallStatus {
	return entity.ComputeOverallStatus(findings)
}
