package rules

import (
	"fmt"
	"math"

	"github.com/garyjia/quote-validator/internal/domain/entity"
)

const locationTotals = "총액 계산"

// MathValidator checks line totals, subtotal, tax and grand total
type MathValidator struct {
	tolerance float64
}

// NewMathValidator creates a math validator with the given equality tolerance
func NewMathValidator(tolerance float64) *MathValidator {
	return &MathValidator{tolerance: tolerance}
}

func (v *MathValidator) Name() string { return string(entity.CategoryMath) }

func (v *MathValidator) Validate(q *entity.Quote, _ *entity.Template) []entity.Finding {
	var findings []entity.Finding

	var sum float64
	for i, item := range q.LineItems {
		n := i + 1
		expected := item.QuantityValue() * item.UnitPriceValue()
		sum += item.LineTotal
		if v.differs(expected, item.LineTotal) {
			findings = append(findings, mathFinding(entity.SeverityCritical,
				fmt.Sprintf("라인 항목 %d의 합계가 올바르지 않습니다", n),
				fmt.Sprintf("라인 항목 %d", n),
				expected, item.LineTotal,
				fmt.Sprintf("예상값: %.2f, 실제값: %.2f. 수량 × 단가를 확인하세요.", expected, item.LineTotal)))
		}
	}

	t := q.Totals
	if v.differs(sum, t.Subtotal) {
		findings = append(findings, mathFinding(entity.SeverityCritical,
			"소계가 라인 항목 합계와 일치하지 않습니다", locationTotals,
			sum, t.Subtotal,
			fmt.Sprintf("예상 소계: %.2f, 실제 소계: %.2f", sum, t.Subtotal)))
	}

	afterDiscount := t.Subtotal - t.DiscountAmountValue()

	expectedTax := afterDiscount * t.TaxRate
	if v.differs(expectedTax, t.TaxAmount) {
		findings = append(findings, mathFinding(entity.SeverityHigh,
			"세금 계산이 올바르지 않습니다", locationTotals,
			expectedTax, t.TaxAmount,
			fmt.Sprintf("예상 세액: %.2f, 실제 세액: %.2f. (소계 - 할인) × 세율을 확인하세요.", expectedTax, t.TaxAmount)))
	}

	expectedTotal := afterDiscount + t.TaxAmount
	if v.differs(expectedTotal, t.Total) {
		findings = append(findings, mathFinding(entity.SeverityCritical,
			"총액이 올바르지 않습니다", locationTotals,
			expectedTotal, t.Total,
			fmt.Sprintf("예상 총액: %.2f, 실제 총액: %.2f. (소계 - 할인 + 세액)을 확인하세요.", expectedTotal, t.Total)))
	}

	return findings
}

func (v *MathValidator) differs(expected, actual float64) bool {
	return math.Abs(expected-actual) > v.tolerance
}

func mathFinding(sev entity.Severity, msg, location string, expected, actual float64, rec string) entity.Finding {
	return entity.Finding{
		Severity:       sev,
		Category:       entity.CategoryMath,
		Message:        msg,
		Location:       location,
		ExpectedValue:  fmt.Sprintf("%.2f", expected),
		ActualValue:    fmt.Sprintf("%.2f", actual),
		Recommendation: rec,
	}
}
