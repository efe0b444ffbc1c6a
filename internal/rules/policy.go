package rules

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/quote-validator/internal/domain/entity"
)

// PolicyValidator enforces the discount ceiling. Policy rules declared on a
// template are read and logged but not evaluated yet.
type PolicyValidator struct {
	maxDiscountPercent float64
	logger             *zap.Logger
}

// NewPolicyValidator creates a policy validator
func NewPolicyValidator(maxDiscountPercent float64, logger *zap.Logger) *PolicyValidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PolicyValidator{maxDiscountPercent: maxDiscountPercent, logger: logger}
}

func (v *PolicyValidator) Name() string { return string(entity.CategoryPolicy) }

func (v *PolicyValidator) Validate(q *entity.Quote, tmpl *entity.Template) []entity.Finding {
	if tmpl != nil && len(tmpl.ValidationRules.Policy) > 0 {
		// Template policy rules are stored with the template but not evaluated;
		// only the configured discount ceiling is enforced
		v.logger.Debug("Template policy rules not evaluated",
			zap.String("template_id", tmpl.ID),
			zap.Int("rules", len(tmpl.ValidationRules.Policy)))
	}

	discount := q.Totals.DiscountPercentValue()
	if discount <= v.maxDiscountPercent {
		return nil
	}

	limit := formatNumber(v.maxDiscountPercent)
	actual := formatNumber(discount)
	return []entity.Finding{{
		Severity:       entity.SeverityHigh,
		Category:       entity.CategoryPolicy,
		Message:        "할인율이 허용 범위를 초과했습니다",
		Location:       locationTotals,
		ExpectedValue:  fmt.Sprintf("최대 %s%%", limit),
		ActualValue:    actual + "%",
		Recommendation: fmt.Sprintf("할인율을 %s%% 이하로 조정하세요. 현재: %s%%", limit, actual),
	}}
}
