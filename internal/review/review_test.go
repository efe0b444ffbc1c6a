package review

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/quote-validator/internal/application/port"
	"github.com/garyjia/quote-validator/internal/domain/entity"
)

type MockAIReviewer struct {
	mock.Mock
}

func (m *MockAIReviewer) Name() string { return "mock" }

func (m *MockAIReviewer) Available() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockAIReviewer) Generate(ctx context.Context, req port.GenerateRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func sampleQuote() *entity.Quote {
	return &entity.Quote{
		Metadata: entity.QuoteMetadata{
			CustomerName: "ACME Korea",
			Phone:        "010-1234-5678",
			Email:        "buyer@acme.co.kr",
			Currency:     "KRW",
		},
		LineItems: []entity.LineItem{
			{ItemNumber: 1, Description: "노트북", Quantity: entity.Float(2), UnitPrice: entity.Float(1500000), LineTotal: 3000000},
			{ItemNumber: 2, Description: "케이블", Quantity: entity.Float(10), UnitPrice: entity.Float(5000), LineTotal: 50000},
		},
		Totals: entity.QuoteTotals{Subtotal: 3050000, DiscountAmount: entity.Float(50000), TaxRate: 0.1, TaxAmount: 300000, Total: 3300000},
	}
}

func TestMask(t *testing.T) {
	q := sampleQuote()
	m := Mask(q)

	assert.Equal(t, "A********a", m.Metadata.CustomerName)
	assert.Equal(t, "010-1234-****", m.Metadata.Phone)
	assert.Equal(t, "bu***@acme.co.kr", m.Metadata.Email)

	require.Len(t, m.LineItems, 2)
	assert.Equal(t, 0.0, *m.LineItems[0].UnitPrice)
	assert.Zero(t, m.LineItems[0].LineTotal)
	assert.Equal(t, "> 1M", m.LineItems[0].PriceRange)
	assert.Equal(t, "1K-10K", m.LineItems[1].PriceRange)
	assert.Equal(t, 2.0, *m.LineItems[0].Quantity)

	assert.Zero(t, m.Totals.Subtotal)
	assert.Zero(t, m.Totals.Total)
	assert.Zero(t, m.Totals.TaxAmount)
	assert.Equal(t, 0.0, *m.Totals.DiscountAmount)
	assert.Equal(t, 0.1, m.Totals.TaxRate)
	assert.Equal(t, "> 1M", m.Totals.TotalRange)

	// the source quote is untouched
	assert.Equal(t, "ACME Korea", q.Metadata.CustomerName)
	assert.Equal(t, 1500000.0, *q.LineItems[0].UnitPrice)
	assert.Equal(t, 50000.0, *q.Totals.DiscountAmount)
}

func TestMaskName(t *testing.T) {
	assert.Equal(t, "홍*동", MaskName("홍길동"))
	assert.Equal(t, "***", MaskName("홍길"))
	assert.Equal(t, "***", MaskName("A"))
	assert.Equal(t, "A**E", MaskName("ACME"))
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "a***@x.com", MaskEmail("a@x.com"))
	assert.Equal(t, "no***", MaskEmail("noatsign"))
}

func TestAmountRange(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{0, "< 1K"},
		{999.99, "< 1K"},
		{1000, "1K-10K"},
		{9999, "1K-10K"},
		{10000, "10K-100K"},
		{100000, "100K-1M"},
		{999999, "100K-1M"},
		{1000000, "> 1M"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AmountRange(tt.amount), "%v", tt.amount)
	}
}

func TestParseResponse(t *testing.T) {
	text := "분석 결과입니다.\n```json\n[\n" +
		`{"severity":"medium","category":"ai_wording","message":"설명이 모호합니다 [1]","location":"라인 항목 2","recommendation":"구체적으로"},` +
		`{"severity":"LOW","category":"something","message":"확인 필요"}` +
		"\n]\n```\n끝 [참고]"

	findings, err := ParseResponse(text)
	require.NoError(t, err)
	require.Len(t, findings, 2)

	assert.Equal(t, entity.SeverityMedium, findings[0].Severity)
	assert.Equal(t, entity.CategoryAIWording, findings[0].Category)
	assert.Equal(t, "[AI 제안] 설명이 모호합니다 [1]", findings[0].Message)
	assert.Equal(t, "라인 항목 2", findings[0].Location)
	assert.Equal(t, "구체적으로", findings[0].Recommendation)

	assert.Equal(t, entity.SeverityLow, findings[1].Severity)
	assert.Equal(t, entity.CategoryAIContext, findings[1].Category)
	assert.Equal(t, "AI 분석", findings[1].Location)
}

func TestParseResponse_Malformed(t *testing.T) {
	for _, text := range []string{
		"no array here",
		"[ {\"severity\": ",
		`[{"severity":"urgent","message":"x"}]`,
		`[{"severity":"low","message":"  "}]`,
		`[1, 2]`,
	} {
		findings, err := ParseResponse(text)
		assert.Error(t, err, text)
		assert.Nil(t, findings, text)
	}

	findings, err := ParseResponse("[]")
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestReviewer_Unavailable(t *testing.T) {
	ai := new(MockAIReviewer)
	ai.On("Available").Return(false)

	r := NewReviewer(ai, nil, time.Second, zap.NewNop())
	findings := r.Review(context.Background(), sampleQuote(), nil)

	assert.NotNil(t, findings)
	assert.Empty(t, findings)
	ai.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestReviewer_NilBackend(t *testing.T) {
	r := NewReviewer(nil, nil, 0, nil)
	assert.False(t, r.Available())
	assert.Empty(t, r.Review(context.Background(), sampleQuote(), nil))
}

func TestReviewer_ReturnsParsedFindings(t *testing.T) {
	ai := new(MockAIReviewer)
	ai.On("Available").Return(true)
	ai.On("Generate", mock.Anything, mock.MatchedBy(func(req port.GenerateRequest) bool {
		return req.System != "" && req.MaxTokens > 0
	})).Return(`[{"severity":"high","category":"ai_pattern","message":"수량이 비정상적입니다"}]`, nil)

	r := NewReviewer(ai, nil, time.Second, zap.NewNop())
	findings := r.Review(context.Background(), sampleQuote(), nil)

	require.Len(t, findings, 1)
	assert.Equal(t, entity.CategoryAIPattern, findings[0].Category)
	assert.Equal(t, "[AI 제안] 수량이 비정상적입니다", findings[0].Message)
	ai.AssertExpectations(t)
}

func TestReviewer_DegradesOnErrorAndGarbage(t *testing.T) {
	failing := new(MockAIReviewer)
	failing.On("Available").Return(true)
	failing.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("quota exceeded"))

	garbage := new(MockAIReviewer)
	garbage.On("Available").Return(true)
	garbage.On("Generate", mock.Anything, mock.Anything).Return("I cannot help with that.", nil)

	for _, ai := range []*MockAIReviewer{failing, garbage} {
		r := NewReviewer(ai, nil, time.Second, zap.NewNop())
		findings := r.Review(context.Background(), sampleQuote(), nil)
		assert.NotNil(t, findings)
		assert.Empty(t, findings)
	}
}

func TestReviewer_AppliesTimeout(t *testing.T) {
	ai := new(MockAIReviewer)
	ai.On("Available").Return(true)
	ai.On("Generate", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)
		}).
		Return("[]", nil)

	r := NewReviewer(ai, nil, 50*time.Millisecond, zap.NewNop())
	assert.Empty(t, r.Review(context.Background(), sampleQuote(), nil))
	ai.AssertExpectations(t)
}

func TestBuildPrompt_MasksAndSummarisesFindings(t *testing.T) {
	r := NewReviewer(nil, nil, 0, nil)
	prompt, err := r.BuildPrompt(sampleQuote(), []entity.Finding{
		{Severity: entity.SeverityCritical, Message: "총액이 올바르지 않습니다"},
	})
	require.NoError(t, err)

	assert.Contains(t, prompt, "- [critical] 총액이 올바르지 않습니다")
	assert.Contains(t, prompt, "_priceRange")
	assert.Contains(t, prompt, "ai_context")
	assert.NotContains(t, prompt, "ACME Korea")
	assert.NotContains(t, prompt, "buyer@acme.co.kr")
	assert.NotContains(t, prompt, "1500000")

	prompt, err = r.BuildPrompt(sampleQuote(), nil)
	require.NoError(t, err)
	assert.Contains(t, prompt, "없음")
}

func TestLoadPrompts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("review:\n  temperature: 0.5\n  user_template: \"quote={{.QuoteJSON}}\"\n"), 0644))

	p, err := LoadPrompts(path)
	require.NoError(t, err)
	assert.Equal(t, float32(0.5), p.Review.Temperature)
	assert.Equal(t, 2048, p.Review.MaxTokens)
	assert.Equal(t, defaultSystemPrompt, p.Review.System)

	r := NewReviewer(nil, p, 0, nil)
	prompt, err := r.BuildPrompt(sampleQuote(), nil)
	require.NoError(t, err)
	assert.Contains(t, prompt, "quote={")

	require.NoError(t, os.WriteFile(path, []byte("review:\n  user_template: \"{{.Broken\"\n"), 0644))
	_, err = LoadPrompts(path)
	assert.Error(t, err)

	_, err = LoadPrompts(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
