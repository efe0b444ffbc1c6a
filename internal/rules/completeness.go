package rules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/garyjia/quote-validator/internal/domain/entity"
)

const (
	locationMetadata  = "메타데이터"
	locationTotal     = "총액"
	locationLineItems = "라인 항목"
)

// labelRule maps template labels to a quote field by substring. Korean
// fragments match the label as written, English ones its lower-cased form.
type labelRule struct {
	korean  []string
	english []string
	field   string
}

func (r labelRule) matches(label string) bool {
	lower := strings.ToLower(label)
	for _, k := range r.korean {
		if strings.Contains(label, k) {
			return true
		}
	}
	for _, e := range r.english {
		if strings.Contains(lower, e) {
			return true
		}
	}
	return false
}

var metadataFieldRules = []labelRule{
	{korean: []string{"고객"}, english: []string{"customer"}, field: "customer_name"},
	{korean: []string{"견적번호"}, english: []string{"quote number"}, field: "quote_number"},
	{korean: []string{"견적일"}, english: []string{"quote date"}, field: "quote_date"},
	{korean: []string{"유효기한"}, english: []string{"valid until"}, field: "valid_until"},
	{korean: []string{"통화"}, english: []string{"currency"}, field: "currency"},
	{korean: []string{"담당자"}, english: []string{"contact"}, field: "contact_person"},
	{korean: []string{"연락처", "전화"}, english: []string{"phone"}, field: "phone"},
	{korean: []string{"이메일"}, english: []string{"email", "e-mail"}, field: "email"},
}

// Order matters: "subtotal" contains "total" and must be tried first.
var totalFieldRules = []labelRule{
	{korean: []string{"소계"}, english: []string{"subtotal"}, field: "subtotal"},
	{korean: []string{"할인"}, english: []string{"discount"}, field: "discount_amount"},
	{korean: []string{"세액"}, english: []string{"tax"}, field: "tax_amount"},
	{korean: []string{"총액"}, english: []string{"total"}, field: "total"},
}

// CompletenessValidator checks the template's required fields and a fixed
// baseline of fields every quote needs. Both sets always run and may overlap.
type CompletenessValidator struct{}

// NewCompletenessValidator creates a completeness validator
func NewCompletenessValidator() *CompletenessValidator {
	return &CompletenessValidator{}
}

func (v *CompletenessValidator) Name() string { return string(entity.CategoryCompleteness) }

func (v *CompletenessValidator) Validate(q *entity.Quote, tmpl *entity.Template) []entity.Finding {
	var findings []entity.Finding
	if tmpl != nil {
		findings = append(findings, v.templateFields(q, tmpl.RequiredFields)...)
	}
	return append(findings, v.baseline(q)...)
}

func (v *CompletenessValidator) templateFields(q *entity.Quote, fields []entity.TemplateField) []entity.Finding {
	var findings []entity.Finding
	for _, f := range fields {
		switch f.FieldType {
		case entity.FieldTypeMetadata:
			if strings.TrimSpace(metadataValue(q.Metadata, f.Label)) == "" {
				findings = append(findings, missingTemplateField(f.Label, locationMetadata))
			}
		case entity.FieldTypeTotal:
			if !totalPresent(q.Totals, f.Label) {
				findings = append(findings, missingTemplateField(f.Label, locationTotal))
			}
		}
	}
	return findings
}

func metadataValue(md entity.QuoteMetadata, label string) string {
	for _, r := range metadataFieldRules {
		if r.matches(label) {
			return md.Lookup(r.field)
		}
	}
	return md.Lookup(strings.ToLower(label))
}

// totalPresent reports whether the quote carries the total named by label.
// Subtotal, tax and total are always present once extracted; a discount is
// present only when the quote states one. Unrecognised labels are missing.
func totalPresent(t entity.QuoteTotals, label string) bool {
	for _, r := range totalFieldRules {
		if !r.matches(label) {
			continue
		}
		if r.field == "discount_amount" {
			return t.DiscountAmount != nil
		}
		return true
	}
	return false
}

func missingTemplateField(label, location string) entity.Finding {
	return entity.Finding{
		Severity:       entity.SeverityHigh,
		Category:       entity.CategoryCompleteness,
		Message:        fmt.Sprintf("템플릿 필수 필드 \"%s\"이(가) 누락되었습니다", label),
		Location:       location,
		ExpectedValue:  "값 필요",
		ActualValue:    "누락",
		Recommendation: fmt.Sprintf("\"%s\" 필드를 입력하세요.", label),
	}
}

func (v *CompletenessValidator) baseline(q *entity.Quote) []entity.Finding {
	var findings []entity.Finding

	if strings.TrimSpace(q.Metadata.CustomerName) == "" {
		findings = append(findings, completeness(entity.SeverityHigh,
			"고객명이 누락되었습니다", locationMetadata, "고객명 필요", "누락", "고객명을 입력하세요."))
	}
	if strings.TrimSpace(q.Metadata.QuoteNumber) == "" {
		findings = append(findings, completeness(entity.SeverityMedium,
			"견적 번호가 누락되었습니다", locationMetadata, "견적 번호 필요", "누락", "견적 번호를 입력하세요."))
	}

	if len(q.LineItems) == 0 {
		return append(findings, completeness(entity.SeverityCritical,
			"라인 항목이 없습니다", locationLineItems, "최소 1개 항목", "0개", "최소 하나 이상의 라인 항목을 추가하세요."))
	}

	for i, item := range q.LineItems {
		n := i + 1
		loc := fmt.Sprintf("라인 항목 %d", n)
		if strings.TrimSpace(item.Description) == "" {
			findings = append(findings, completeness(entity.SeverityHigh,
				fmt.Sprintf("라인 항목 %d의 설명이 누락되었습니다", n), loc, "설명 필요", "누락", "각 라인 항목에 설명을 입력하세요."))
		}
		if f, ok := itemAmount(n, loc, "수량", "수량이", item.Quantity, "유효한 수량을 입력하세요."); !ok {
			findings = append(findings, f)
		}
		if f, ok := itemAmount(n, loc, "단가", "단가가", item.UnitPrice, "유효한 단가를 입력하세요."); !ok {
			findings = append(findings, f)
		}
	}
	return findings
}

// itemAmount checks a required positive line-item number. A nil value was
// absent or unreadable in the sheet and is reported as missing, not as 0.
func itemAmount(n int, loc, label, subject string, v *float64, rec string) (entity.Finding, bool) {
	switch {
	case v == nil:
		return completeness(entity.SeverityHigh,
			fmt.Sprintf("라인 항목 %d의 %s 누락되었습니다", n, subject), loc, label+" > 0", "누락", rec), false
	case *v == 0:
		return completeness(entity.SeverityHigh,
			fmt.Sprintf("라인 항목 %d의 %s 0입니다", n, subject), loc, label+" > 0", formatNumber(*v), rec), false
	}
	return entity.Finding{}, true
}

func completeness(sev entity.Severity, msg, location, expected, actual, rec string) entity.Finding {
	return entity.Finding{
		Severity:       sev,
		Category:       entity.CategoryCompleteness,
		Message:        msg,
		Location:       location,
		ExpectedValue:  expected,
		ActualValue:    actual,
		Recommendation: rec,
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
