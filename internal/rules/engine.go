// Package rules holds the deterministic quote validators.
package rules

import (
	"go.uber.org/zap"

	"github.com/garyjia/quote-validator/internal/domain/entity"
)

// Thresholds used when no configuration overrides them
const (
	DefaultMathTolerance      = 0.01
	DefaultMaxDiscountPercent = 30.0
)

// Config binds the validator thresholds
type Config struct {
	MathTolerance      float64
	MaxDiscountPercent float64
}

// DefaultConfig returns the standard thresholds
func DefaultConfig() Config {
	return Config{
		MathTolerance:      DefaultMathTolerance,
		MaxDiscountPercent: DefaultMaxDiscountPercent,
	}
}

func (c Config) withDefaults() Config {
	if c.MathTolerance <= 0 {
		c.MathTolerance = DefaultMathTolerance
	}
	if c.MaxDiscountPercent <= 0 {
		c.MaxDiscountPercent = DefaultMaxDiscountPercent
	}
	return c
}

// Validator inspects a quote and reports findings. Validators are pure and
// share no state, so they may be called in any order. tmpl may be nil.
type Validator interface {
	Name() string
	Validate(q *entity.Quote, tmpl *entity.Template) []entity.Finding
}

// Engine runs the validators in the order math, completeness, policy,
// consistency and concatenates their findings without de-duplication
type Engine struct {
	validators []Validator
}

// NewEngine creates the standard engine
func NewEngine(cfg Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()
	return &Engine{
		validators: []Validator{
			NewMathValidator(cfg.MathTolerance),
			NewCompletenessValidator(),
			NewPolicyValidator(cfg.MaxDiscountPercent, logger),
			NewConsistencyValidator(),
		},
	}
}

// Validators returns the engine's validators in run order
func (e *Engine) Validators() []Validator {
	return append([]Validator(nil), e.validators...)
}

// Run applies every validator to q
func (e *Engine) Run(q *entity.Quote, tmpl *entity.Template) []entity.Finding {
	findings := []entity.Finding{}
	for _, v := range e.validators {
		findings = append(findings, v.Validate(q, tmpl)...)
	}
	return findings
}
