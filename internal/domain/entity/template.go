package entity

import "time"

// FieldType classifies a template field
type FieldType string

const (
	FieldTypeMetadata FieldType = "metadata"
	FieldTypeLineItem FieldType = "line_item"
	FieldTypeTotal    FieldType = "total"
)

// TemplateField is one labelled field found in a template spreadsheet.
// Field identity is the label text, not the cell position.
type TemplateField struct {
	Label       string    `json:"label"`
	Location    string    `json:"location"`
	SampleValue string    `json:"sample_value"`
	FieldType   FieldType `json:"field_type"`
}

// TemplateAnalysis is the schema extracted from a template spreadsheet
type TemplateAnalysis struct {
	Fields          []TemplateField `json:"fields"`
	MetadataFields  []TemplateField `json:"metadata_fields"`
	LineItemColumns []TemplateField `json:"line_item_columns"`
	TotalFields     []TemplateField `json:"total_fields"`
}

// Template status constants
const (
	TemplateStatusDraft    = "draft"
	TemplateStatusActive   = "active"
	TemplateStatusArchived = "archived"
)

// Template is a named definition of the fields a conforming quote must contain
type Template struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	FileKey         string          `json:"file_key,omitempty"`
	RequiredFields  []TemplateField `json:"required_fields"`
	ValidationRules ValidationRules `json:"validation_rules"`
	Status          string          `json:"status"`
	CreatedBy       string          `json:"created_by"`
	UpdatedBy       string          `json:"updated_by,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ValidationRules are the rule declarations a template carries.
// Only Policy is consulted today, and its entries are read but not evaluated.
type ValidationRules struct {
	Math        []MathRule        `json:"math,omitempty"`
	Policy      []PolicyRule      `json:"policy,omitempty"`
	Consistency []ConsistencyRule `json:"consistency,omitempty"`
}

// MathRule declares a formula check, e.g. "subtotal = sum(line_items.total)"
type MathRule struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Formula   string   `json:"formula"`
	Tolerance float64  `json:"tolerance,omitempty"`
	Severity  Severity `json:"severity"`
}

// PolicyRule declares a field comparison, e.g. discount_percent gt 30
type PolicyRule struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Field    string      `json:"field"`
	Operator string      `json:"operator"` // gt, gte, lt, lte, eq, neq, between
	Value    interface{} `json:"value"`
	Severity Severity    `json:"severity"`
}

// ConsistencyRule declares a cross-field check
type ConsistencyRule struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Type      string   `json:"type"` // currency, date, reference, custom
	Fields    []string `json:"fields"`
	Condition string   `json:"condition,omitempty"`
	Severity  Severity `json:"severity"`
}
