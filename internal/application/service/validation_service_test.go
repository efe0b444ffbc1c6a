package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/quote-validator/internal/domain/entity"
	"github.com/garyjia/quote-validator/internal/quote"
	"github.com/garyjia/quote-validator/internal/rules"
	"github.com/garyjia/quote-validator/internal/sheet"
)

func newTestValidation(reviewer FindingReviewer) ValidationService {
	return NewValidationService(
		quote.NewExtractor(quote.DefaultOptions()),
		rules.NewEngine(rules.DefaultConfig(), zap.NewNop()),
		reviewer,
		&mockLogger{},
	)
}

func countCategory(findings []entity.Finding, c entity.Category) int {
	n := 0
	for _, f := range findings {
		if f.Category == c {
			n++
		}
	}
	return n
}

func TestValidationService_ParseQuoteFile(t *testing.T) {
	svc := newTestValidation(nil)

	q, err := svc.ParseQuoteFile(quoteWorkbook(t, 200))
	require.NoError(t, err)
	assert.Equal(t, "ACME", q.Metadata.CustomerName)
	require.Len(t, q.LineItems, 1)
	assert.Equal(t, 220.0, q.Totals.Total)

	_, err = svc.ParseQuoteFile([]byte("not a spreadsheet"))
	assert.ErrorIs(t, err, sheet.ErrParse)
}

func TestValidationService_AnalyzeTemplateFile(t *testing.T) {
	svc := newTestValidation(nil)

	analysis, err := svc.AnalyzeTemplateFile(quoteWorkbook(t, 200))
	require.NoError(t, err)
	assert.NotEmpty(t, analysis.MetadataFields)
	assert.NotEmpty(t, analysis.LineItemColumns)
	assert.NotEmpty(t, analysis.TotalFields)
}

func TestValidationService_RunValidation(t *testing.T) {
	ai := &stubReviewer{findings: []entity.Finding{
		{Severity: entity.SeverityLow, Category: entity.CategoryAIWording, Message: "[AI 제안] 품목명이 모호합니다"},
	}}
	svc := newTestValidation(ai)

	q, err := svc.ParseQuoteFile(quoteWorkbook(t, 250))
	require.NoError(t, err)

	findings := svc.RunValidation(context.Background(), q, nil)
	require.NotEmpty(t, findings)

	// deterministic findings come first and are what the reviewer sees
	assert.Equal(t, len(ai.seen)+1, len(findings))
	assert.Equal(t, entity.CategoryAIWording, findings[len(findings)-1].Category)
	assert.Equal(t, 1, countCategory(findings, entity.CategoryMath))

	runID := findings[0].RunID
	assert.NotEmpty(t, runID)
	for _, f := range findings {
		assert.Equal(t, runID, f.RunID)
	}

	assert.Equal(t, entity.OverallFail, svc.OverallStatus(findings))

	// every run gets its own correlation id
	again := svc.RunValidation(context.Background(), q, nil)
	assert.NotEqual(t, runID, again[0].RunID)
}

func TestValidationService_RunValidationWithoutReviewer(t *testing.T) {
	svc := newTestValidation(nil)

	q, err := svc.ParseQuoteFile(quoteWorkbook(t, 200))
	require.NoError(t, err)

	findings := svc.RunValidation(context.Background(), q, nil)
	assert.NotNil(t, findings)
	assert.Zero(t, countCategory(findings, entity.CategoryMath))
	for _, f := range findings {
		assert.False(t, f.Category.IsAI())
		assert.NotEqual(t, entity.SeverityCritical, f.Severity)
	}
	assert.NotEqual(t, entity.OverallFail, svc.OverallStatus(findings))
}

func TestValidationService_OverallStatus(t *testing.T) {
	svc := newTestValidation(nil)

	tests := []struct {
		name     string
		findings []entity.Finding
		want     entity.OverallStatus
	}{
		{"empty", nil, entity.OverallPass},
		{"high only", []entity.Finding{{Severity: entity.SeverityHigh}}, entity.OverallWarning},
		{"low and medium", []entity.Finding{{Severity: entity.SeverityLow}, {Severity: entity.SeverityMedium}}, entity.OverallWarning},
		{"critical", []entity.Finding{{Severity: entity.SeverityLow}, {Severity: entity.SeverityCritical}}, entity.OverallFail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, svc.OverallStatus(tt.findings))
		})
	}
}

func TestBuildReport(t *testing.T) {
	sub := &entity.Submission{ID: "sub-1"}
	report := BuildReport(sub, []entity.Finding{
		{Severity: entity.SeverityCritical, Category: entity.CategoryMath},
		{Severity: entity.SeverityLow, Category: entity.CategoryCompleteness},
		{Severity: entity.SeverityLow, Category: entity.CategoryCompleteness},
	})

	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 1, report.BySeverity[entity.SeverityCritical])
	assert.Equal(t, 2, report.BySeverity[entity.SeverityLow])
	assert.Equal(t, 2, report.ByCategory[entity.CategoryCompleteness])
	assert.Equal(t, entity.OverallFail, report.OverallStatus)

	empty := BuildReport(sub, nil)
	assert.NotNil(t, empty.Findings)
	assert.Equal(t, entity.OverallPass, empty.OverallStatus)
}

func TestValidationService_DiscountColumnQuotePasses(t *testing.T) {
	svc := newTestValidation(nil)

	q, err := svc.ParseQuoteFile(buildWorkbook(t, map[string]interface{}{
		"A1": "고객명", "B1": "ACME",
		"A2": "견적번호", "B2": "Q-7",
		"A4": "품목", "B4": "수량", "C4": "단가", "D4": "금액", "E4": "할인",
		"A5": "Widget", "B5": 2, "C5": 100, "D5": 200, "E5": 50,
		"C7": "소계", "D7": 200,
		"C8": "세액", "D8": 20,
		"C9": "총액", "D9": 220,
	}))
	require.NoError(t, err)
	assert.Nil(t, q.Totals.DiscountAmount)

	findings := svc.RunValidation(context.Background(), q, nil)
	assert.Zero(t, countCategory(findings, entity.CategoryMath))
	assert.NotEqual(t, entity.OverallFail, svc.OverallStatus(findings))
}

func TestValidationService_NaNLineTotalIsNotSilentlyAccepted(t *testing.T) {
	svc := newTestValidation(nil)

	q, err := svc.ParseQuoteFile(buildWorkbook(t, map[string]interface{}{
		"A1": "품목", "B1": "수량", "C1": "단가", "D1": "금액",
		"A2": "Widget", "B2": 2, "C2": 100, "D2": "NaN",
		"C4": "소계", "D4": 300,
		"C5": "세액", "D5": 30,
		"C6": "총액", "D6": 330,
	}))
	require.NoError(t, err)
	require.Len(t, q.LineItems, 1)
	assert.Equal(t, 200.0, q.LineItems[0].LineTotal)

	findings := svc.RunValidation(context.Background(), q, nil)
	assert.Positive(t, countCategory(findings, entity.CategoryMath))
	assert.Equal(t, entity.OverallFail, svc.OverallStatus(findings))
}
