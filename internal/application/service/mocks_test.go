package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/garyjia/quote-validator/internal/application/port"
	"github.com/garyjia/quote-validator/internal/domain/entity"
)

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Warn(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}

type mockTemplateRepo struct {
	mu        sync.Mutex
	templates map[string]*entity.Template
	createErr error
}

func newMockTemplateRepo(templates ...*entity.Template) *mockTemplateRepo {
	m := &mockTemplateRepo{templates: map[string]*entity.Template{}}
	for _, t := range templates {
		m.templates[t.ID] = t
	}
	return m
}

func (m *mockTemplateRepo) Create(ctx context.Context, tmpl *entity.Template) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	cp := *tmpl
	m.templates[tmpl.ID] = &cp
	return nil
}

func (m *mockTemplateRepo) GetByID(ctx context.Context, id string) (*entity.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.templates[id]
	if !ok {
		return nil, fmt.Errorf("template %s: %w", id, port.ErrNotFound)
	}
	cp := *t
	return &cp, nil
}

func (m *mockTemplateRepo) List(ctx context.Context, activeOnly bool) ([]*entity.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Template
	for _, t := range m.templates {
		if activeOnly && t.Status != entity.TemplateStatusActive {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockTemplateRepo) UpdateStatus(ctx context.Context, id, status, updatedBy string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.templates[id]
	if !ok {
		return port.ErrNotFound
	}
	t.Status = status
	t.UpdatedBy = updatedBy
	return nil
}

func (m *mockTemplateRepo) UpdateRules(ctx context.Context, id string, rules entity.ValidationRules, updatedBy string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.templates[id]
	if !ok {
		return port.ErrNotFound
	}
	t.ValidationRules = rules
	t.UpdatedBy = updatedBy
	return nil
}

// mockSubmissionRepo keeps compare-and-set semantics so lifecycle tests
// exercise real status conflicts
type mockSubmissionRepo struct {
	mu          sync.Mutex
	subs        map[string]*entity.Submission
	completeErr []error
}

func newMockSubmissionRepo() *mockSubmissionRepo {
	return &mockSubmissionRepo{subs: map[string]*entity.Submission{}}
}

func (m *mockSubmissionRepo) Create(ctx context.Context, sub *entity.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub.CreatedAt = time.Now()
	cp := *sub
	m.subs[sub.ID] = &cp
	return nil
}

func (m *mockSubmissionRepo) GetByID(ctx context.Context, id string) (*entity.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[id]
	if !ok {
		return nil, fmt.Errorf("submission %s: %w", id, port.ErrNotFound)
	}
	cp := *s
	return &cp, nil
}

func (m *mockSubmissionRepo) List(ctx context.Context, submittedBy string) ([]*entity.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Submission
	for _, s := range m.subs {
		if submittedBy == "" || s.SubmittedBy == submittedBy {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockSubmissionRepo) ListByStatus(ctx context.Context, status string, limit int) ([]*entity.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Submission
	for _, s := range m.subs {
		if s.Status == status && (limit <= 0 || len(out) < limit) {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockSubmissionRepo) CompareAndSetStatus(ctx context.Context, id, from, to string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[id]
	if !ok {
		return port.ErrNotFound
	}
	if s.Status != from {
		return port.ErrStatusConflict
	}
	s.Status = to
	return nil
}

func (m *mockSubmissionRepo) Complete(ctx context.Context, id string, c port.SubmissionCompletion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.completeErr) > 0 {
		err := m.completeErr[0]
		m.completeErr = m.completeErr[1:]
		return err
	}
	s, ok := m.subs[id]
	if !ok {
		return port.ErrNotFound
	}
	if s.Status != entity.SubmissionStatusValidating {
		return port.ErrStatusConflict
	}
	status := c.OverallStatus
	s.Status = entity.SubmissionStatusCompleted
	s.OverallStatus = &status
	s.Metadata = c.Metadata
	validatedAt := c.ValidatedAt
	s.ValidatedAt = &validatedAt
	return nil
}

func (m *mockSubmissionRepo) status(id string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subs[id].Status
}

type mockFindingRepo struct {
	mu       sync.Mutex
	findings map[string][]entity.Finding
}

func newMockFindingRepo() *mockFindingRepo {
	return &mockFindingRepo{findings: map[string][]entity.Finding{}}
}

func (m *mockFindingRepo) ReplaceForSubmission(ctx context.Context, submissionID string, findings []entity.Finding) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findings[submissionID] = append([]entity.Finding(nil), findings...)
	return nil
}

func (m *mockFindingRepo) ListBySubmission(ctx context.Context, submissionID string) ([]entity.Finding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]entity.Finding{}, m.findings[submissionID]...), nil
}

func (m *mockFindingRepo) DeleteBySubmission(ctx context.Context, submissionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.findings, submissionID)
	return nil
}

type mockBlobStore struct {
	mu     sync.Mutex
	blobs  map[string][]byte
	putErr error
}

func newMockBlobStore() *mockBlobStore {
	return &mockBlobStore{blobs: map[string][]byte{}}
}

func (m *mockBlobStore) Put(ctx context.Context, bucket, key string, content []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return "", m.putErr
	}
	m.blobs[bucket+"/"+key] = content
	return key, nil
}

func (m *mockBlobStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blobs[bucket+"/"+key]
	if !ok {
		return nil, fmt.Errorf("blob %s/%s: %w", bucket, key, port.ErrStorage)
	}
	return b, nil
}

func (m *mockBlobStore) Exists(ctx context.Context, bucket, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.blobs[bucket+"/"+key]
	return ok
}

func (m *mockBlobStore) Delete(ctx context.Context, bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, bucket+"/"+key)
	return nil
}

type mockTxManager struct {
	withTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.withTransactionFunc != nil {
		return m.withTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

type stubReviewer struct {
	findings []entity.Finding
	seen     []entity.Finding
}

func (s *stubReviewer) Review(ctx context.Context, q *entity.Quote, deterministic []entity.Finding) []entity.Finding {
	s.seen = append([]entity.Finding(nil), deterministic...)
	return s.findings
}

func buildWorkbook(t *testing.T, cells map[string]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for cell, v := range cells {
		require.NoError(t, f.SetCellValue("Sheet1", cell, v))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

// quoteWorkbook builds a one-item quote whose line total is lineTotal
func quoteWorkbook(t *testing.T, lineTotal float64) []byte {
	return buildWorkbook(t, map[string]interface{}{
		"A1": "고객명", "B1": "ACME",
		"A2": "견적번호", "B2": "Q-1",
		"A3": "견적일자", "B3": "2024-01-15",
		"A4": "유효기한", "B4": "2024-02-15",
		"A6": "품목", "B6": "수량", "C6": "단가", "D6": "금액",
		"A7": "노트북", "B7": 2, "C7": 100, "D7": lineTotal,
		"C9": "소계", "D9": 200,
		"C10": "세율", "D10": 0.1,
		"C11": "세액", "D11": 20,
		"C12": "총액", "D12": 220,
	})
}
