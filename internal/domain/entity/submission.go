package entity

import "time"

// Submission is one uploaded quote file and the state of its validation
type Submission struct {
	ID            string         `json:"id"`
	TemplateID    string         `json:"template_id"`
	FileKey       string         `json:"file_key"`
	FileName      string         `json:"file_name"`
	Status        string         `json:"status"`
	OverallStatus *OverallStatus `json:"overall_status,omitempty"`
	Metadata      *QuoteMetadata `json:"metadata,omitempty"`
	SubmittedBy   string         `json:"submitted_by"`
	ValidatedAt   *time.Time     `json:"validated_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// Report summarises the findings of one submission
type Report struct {
	Submission    *Submission      `json:"submission,omitempty"`
	Findings      []Finding        `json:"findings"`
	Total         int              `json:"total"`
	BySeverity    map[Severity]int `json:"by_severity"`
	ByCategory    map[Category]int `json:"by_category"`
	OverallStatus OverallStatus    `json:"overall_status"`
}
