package service

import "github.com/garyjia/quote-validator/internal/domain/entity"

// BuildReport summarises findings for one submission
func BuildReport(sub *entity.Submission, findings []entity.Finding) *entity.Report {
	if findings == nil {
		findings = []entity.Finding{}
	}

	report := &entity.Report{
		Submission:    sub,
		Findings:      findings,
		Total:         len(findings),
		BySeverity:    make(map[entity.Severity]int),
		ByCategory:    make(map[entity.Category]int),
		OverallStatus: entity.ComputeOverallStatus(findings),
	}
	for _, f := range findings {
		report.BySeverity[f.Severity]++
		report.ByCategory[f.Category]++
	}
	return report
}
