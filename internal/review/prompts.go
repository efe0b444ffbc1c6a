package review

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"
)

// PromptConfig holds the review prompt and its model parameters
type PromptConfig struct {
	Review struct {
		Temperature  float32 `yaml:"temperature"`
		MaxTokens    int     `yaml:"max_tokens"`
		System       string  `yaml:"system"`
		UserTemplate string  `yaml:"user_template"`
	} `yaml:"review"`
}

// promptData is what the user template is rendered with
type promptData struct {
	QuoteJSON string
	Findings  []findingSummary
}

type findingSummary struct {
	Severity string
	Message  string
}

const defaultSystemPrompt = "당신은 견적서 검수 전문가입니다. 항상 JSON 배열만으로 응답하세요."

const defaultUserTemplate = `당신은 견적서 검수 전문가입니다. 다음 견적서를 분석하고 추가 문제점이나 개선 사항을 찾아주세요.

## 견적서 정보
{{.QuoteJSON}}

## 이미 발견된 문제 (결정론적 검증)
{{if .Findings}}{{range .Findings}}- [{{.Severity}}] {{.Message}}
{{end}}{{else}}없음
{{end}}
## 분석 요청
다음 항목을 중점적으로 분석해주세요:

1. **맥락 분석 (ai_context)**:
   - 라인 항목의 설명이 구체적이고 명확한가요?
   - 항목 간 연관성이나 일관성 문제가 있나요?
   - 비즈니스 관점에서 이상한 점은 없나요?

2. **패턴 이상 (ai_pattern)**:
   - 항목의 수량이나 가격에 비정상적인 패턴이 있나요?
   - 할인율이나 세율이 적절한가요?
   - 중복되거나 불필요한 항목이 있나요?

3. **문구 검토 (ai_wording)**:
   - 전문적이지 않거나 모호한 표현이 있나요?
   - 오타나 문법 오류가 있나요?
   - 개선이 필요한 설명이 있나요?

## 응답 형식
다음 JSON 배열 형식으로만 응답해주세요. 문제가 없으면 빈 배열 []을 반환하세요.

[
  {
    "severity": "low" | "medium" | "high" | "critical",
    "category": "ai_context" | "ai_pattern" | "ai_wording",
    "message": "문제 설명",
    "location": "문제 위치",
    "recommendation": "개선 방안"
  }
]

중요: JSON 배열만 반환하고, 다른 텍스트는 포함하지 마세요.`

// DefaultPrompts returns the built-in review prompt
func DefaultPrompts() *PromptConfig {
	p := &PromptConfig{}
	p.Review.Temperature = 0.2
	p.Review.MaxTokens = 2048
	p.Review.System = defaultSystemPrompt
	p.Review.UserTemplate = defaultUserTemplate
	return p
}

// LoadPrompts reads a YAML prompt file. Keys it leaves empty keep their
// built-in values.
func LoadPrompts(promptsPath string) (*PromptConfig, error) {
	data, err := os.ReadFile(promptsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}

	prompts := DefaultPrompts()
	if err := yaml.Unmarshal(data, prompts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prompts: %w", err)
	}

	if _, err := template.New("review").Parse(prompts.Review.UserTemplate); err != nil {
		return nil, fmt.Errorf("invalid review user_template: %w", err)
	}
	return prompts, nil
}

// renderTemplate renders a template with provided data
func renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("prompt").Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}
