package entity

// Status constants for Submission
const (
	SubmissionStatusUploaded   = "uploaded"
	SubmissionStatusValidating = "validating"
	SubmissionStatusCompleted  = "completed"
	SubmissionStatusFailed     = "failed"
)

// Blob store buckets
const (
	BucketTemplates = "templates"
	BucketQuotes    = "quotes"
)

// DefaultCurrency is used when a quote names no currency
const DefaultCurrency = "KRW"
