package entity

import "time"

// Severity ranks how serious a finding is
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRanks = map[Severity]int{
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// IsValid returns true if the severity is one of the known levels
func (s Severity) IsValid() bool {
	_, ok := severityRanks[s]
	return ok
}

// Rank orders severities, critical being the highest. Unknown severities rank 0.
func (s Severity) Rank() int {
	return severityRanks[s]
}

// Category groups findings by the validator layer that produced them
type Category string

const (
	CategoryMath         Category = "math"
	CategoryCompleteness Category = "completeness"
	CategoryPolicy       Category = "policy"
	CategoryConsistency  Category = "consistency"
	CategoryAIContext    Category = "ai_context"
	CategoryAIPattern    Category = "ai_pattern"
	CategoryAIWording    Category = "ai_wording"
)

// AllCategories lists every category in report order
var AllCategories = []Category{
	CategoryMath,
	CategoryCompleteness,
	CategoryPolicy,
	CategoryConsistency,
	CategoryAIContext,
	CategoryAIPattern,
	CategoryAIWording,
}

// IsAI returns true for categories produced by the AI review pass
func (c Category) IsAI() bool {
	return c == CategoryAIContext || c == CategoryAIPattern || c == CategoryAIWording
}

// Finding is one reported issue from validating a quote.
// Findings are values: validators create them, nothing mutates them afterwards.
// ID, SubmissionID and CreatedAt are only set once the finding is persisted.
type Finding struct {
	ID             int64     `json:"id,omitempty"`
	SubmissionID   string    `json:"submission_id,omitempty"`
	RunID          string    `json:"run_id,omitempty"`
	Severity       Severity  `json:"severity"`
	Category       Category  `json:"category"`
	Message        string    `json:"message"`
	Location       string    `json:"location,omitempty"`
	ExpectedValue  string    `json:"expected_value,omitempty"`
	ActualValue    string    `json:"actual_value,omitempty"`
	Recommendation string    `json:"recommendation,omitempty"`
	CreatedAt      time.Time `json:"created_at,omitempty"`
}

// OverallStatus is the single verdict derived from a set of findings
type OverallStatus string

const (
	OverallPass    OverallStatus = "pass"
	OverallWarning OverallStatus = "warning"
	OverallFail    OverallStatus = "fail"
)

// ComputeOverallStatus derives the verdict for a finding collection.
// Only critical findings fail a quote; any other non-empty set is a warning.
func ComputeOverallStatus(findings []Finding) OverallStatus {
	if len(findings) == 0 {
		return OverallPass
	}
	for _, f := range findings {
		if f.Severity == SeverityCritical {
			return OverallFail
		}
	}
	return OverallWarning
}
