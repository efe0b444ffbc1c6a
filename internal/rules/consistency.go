package rules

import (
	"github.com/garyjia/quote-validator/internal/domain/entity"
	"github.com/garyjia/quote-validator/internal/quote"
)

// ConsistencyValidator cross-checks currency and date fields
type ConsistencyValidator struct{}

// NewConsistencyValidator creates a consistency validator
func NewConsistencyValidator() *ConsistencyValidator {
	return &ConsistencyValidator{}
}

func (v *ConsistencyValidator) Name() string { return string(entity.CategoryConsistency) }

func (v *ConsistencyValidator) Validate(q *entity.Quote, _ *entity.Template) []entity.Finding {
	var findings []entity.Finding
	md := q.Metadata

	if md.Currency != "" && q.Totals.Currency != "" && md.Currency != q.Totals.Currency {
		findings = append(findings, entity.Finding{
			Severity:       entity.SeverityMedium,
			Category:       entity.CategoryConsistency,
			Message:        "통화가 일치하지 않습니다",
			Location:       "메타데이터 및 총액",
			ExpectedValue:  md.Currency,
			ActualValue:    q.Totals.Currency,
			Recommendation: "메타데이터와 총액의 통화를 일치시키세요.",
		})
	}

	quoteDate, ok1 := quote.ParseDate(md.QuoteDate)
	validUntil, ok2 := quote.ParseDate(md.ValidUntil)
	if ok1 && ok2 && validUntil.Before(quoteDate) {
		findings = append(findings, entity.Finding{
			Severity:       entity.SeverityHigh,
			Category:       entity.CategoryConsistency,
			Message:        "유효기한이 견적일보다 이전입니다",
			Location:       locationMetadata,
			ExpectedValue:  md.QuoteDate + " 이후",
			ActualValue:    md.ValidUntil,
			Recommendation: "유효기한을 견적일 이후로 설정하세요.",
		})
	}

	return findings
}
