package review

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/garyjia/quote-validator/internal/domain/entity"
)

const (
	// MessagePrefix marks findings produced by the AI review pass
	MessagePrefix = "[AI 제안] "

	defaultLocation = "AI 분석"
)

var errNoArray = errors.New("no JSON array in response")

type rawFinding struct {
	Severity       string `json:"severity"`
	Category       string `json:"category"`
	Message        string `json:"message"`
	Location       string `json:"location"`
	Recommendation string `json:"recommendation"`
}

// ParseResponse decodes the first top-level JSON array in text. Any
// malformed element rejects the whole response.
func ParseResponse(text string) ([]entity.Finding, error) {
	span := extractArray(text)
	if span == "" {
		return nil, errNoArray
	}

	var raw []rawFinding
	if err := json.Unmarshal([]byte(span), &raw); err != nil {
		return nil, fmt.Errorf("decode findings: %w", err)
	}

	findings := make([]entity.Finding, 0, len(raw))
	for i, r := range raw {
		sev := entity.Severity(strings.ToLower(strings.TrimSpace(r.Severity)))
		if !sev.IsValid() {
			return nil, fmt.Errorf("finding %d: invalid severity %q", i, r.Severity)
		}
		msg := strings.TrimSpace(r.Message)
		if msg == "" {
			return nil, fmt.Errorf("finding %d: empty message", i)
		}

		cat := entity.Category(strings.TrimSpace(r.Category))
		if !cat.IsAI() {
			cat = entity.CategoryAIContext
		}
		loc := strings.TrimSpace(r.Location)
		if loc == "" {
			loc = defaultLocation
		}

		findings = append(findings, entity.Finding{
			Severity:       sev,
			Category:       cat,
			Message:        MessagePrefix + msg,
			Location:       loc,
			Recommendation: strings.TrimSpace(r.Recommendation),
		})
	}
	return findings, nil
}

// extractArray returns the first balanced [...] span, ignoring brackets
// inside JSON strings. Markdown fences around the array are skipped over.
func extractArray(content string) string {
	start := strings.IndexByte(content, '[')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(content); i++ {
		c := content[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return content[start : i+1]
			}
		}
	}
	return ""
}
