package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/quote-validator/internal/application/port"
	"github.com/garyjia/quote-validator/internal/application/service"
	"github.com/garyjia/quote-validator/internal/domain/entity"
	"github.com/garyjia/quote-validator/internal/sheet"
)

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Warn(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

type MockValidationService struct{ mock.Mock }

func (m *MockValidationService) AnalyzeTemplateFile(data []byte) (*entity.TemplateAnalysis, error) {
	args := m.Called(data)
	if a := args.Get(0); a != nil {
		return a.(*entity.TemplateAnalysis), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockValidationService) ParseQuoteFile(data []byte) (*entity.Quote, error) {
	args := m.Called(data)
	if q := args.Get(0); q != nil {
		return q.(*entity.Quote), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockValidationService) RunValidation(ctx context.Context, q *entity.Quote, tmpl *entity.Template) []entity.Finding {
	return m.Called(q, tmpl).Get(0).([]entity.Finding)
}

func (m *MockValidationService) OverallStatus(findings []entity.Finding) entity.OverallStatus {
	return entity.ComputeOverallStatus(findings)
}

type MockTemplateService struct{ mock.Mock }

func (m *MockTemplateService) CreateFromFile(ctx context.Context, in service.CreateTemplateInput) (*entity.Template, error) {
	args := m.Called(in)
	if t := args.Get(0); t != nil {
		return t.(*entity.Template), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTemplateService) Get(ctx context.Context, id string) (*entity.Template, error) {
	args := m.Called(id)
	if t := args.Get(0); t != nil {
		return t.(*entity.Template), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTemplateService) List(ctx context.Context, activeOnly bool) ([]*entity.Template, error) {
	args := m.Called(activeOnly)
	return args.Get(0).([]*entity.Template), args.Error(1)
}

func (m *MockTemplateService) Activate(ctx context.Context, id, updatedBy string) error {
	return m.Called(id, updatedBy).Error(0)
}

func (m *MockTemplateService) Archive(ctx context.Context, id, updatedBy string) error {
	return m.Called(id, updatedBy).Error(0)
}

func (m *MockTemplateService) UpdateRules(ctx context.Context, id string, rules entity.ValidationRules, updatedBy string) error {
	return m.Called(id, rules, updatedBy).Error(0)
}

type MockSubmissionService struct{ mock.Mock }

func (m *MockSubmissionService) Submit(ctx context.Context, in service.SubmitInput) (*entity.Submission, error) {
	args := m.Called(in)
	if s := args.Get(0); s != nil {
		return s.(*entity.Submission), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSubmissionService) Validate(ctx context.Context, id string) (*entity.Report, error) {
	args := m.Called(id)
	if r := args.Get(0); r != nil {
		return r.(*entity.Report), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSubmissionService) Revalidate(ctx context.Context, id string) (*entity.Report, error) {
	args := m.Called(id)
	if r := args.Get(0); r != nil {
		return r.(*entity.Report), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSubmissionService) GetWithFindings(ctx context.Context, id string) (*entity.Submission, []entity.Finding, error) {
	args := m.Called(id)
	sub, _ := args.Get(0).(*entity.Submission)
	findings, _ := args.Get(1).([]entity.Finding)
	return sub, findings, args.Error(2)
}

func (m *MockSubmissionService) List(ctx context.Context, submittedBy string) ([]*entity.Submission, error) {
	args := m.Called(submittedBy)
	return args.Get(0).([]*entity.Submission), args.Error(1)
}

type testServer struct {
	router      *gin.Engine
	validation  *MockValidationService
	templates   *MockTemplateService
	submissions *MockSubmissionService
}

func newTestServer(health HealthFunc) *testServer {
	ts := &testServer{
		validation:  &MockValidationService{},
		templates:   &MockTemplateService{},
		submissions: &MockSubmissionService{},
	}
	cfg := DefaultServerConfig()
	cfg.Mode = gin.TestMode
	cfg.MaxUploadMB = 1
	srv := NewServer(cfg, Services{
		Validation: ts.validation,
		Templates:  ts.templates,
		Submission: ts.submissions,
	}, health, nopLogger{})
	ts.router = srv.Router()
	return ts
}

func (ts *testServer) do(req *http.Request) (*httptest.ResponseRecorder, Response) {
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	var resp Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func uploadRequest(t *testing.T, url, fileName string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, url, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(func(ctx context.Context) (bool, map[string]interface{}) {
		return false, map[string]interface{}{"database": "down"}
	})
	w, resp := ts.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.False(t, resp.Success)

	ts = newTestServer(nil)
	w, resp = ts.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
}

func TestParseQuote(t *testing.T) {
	ts := newTestServer(nil)
	content := []byte("xlsx-bytes")
	ts.validation.On("ParseQuoteFile", content).Return(&entity.Quote{
		Metadata: entity.QuoteMetadata{CustomerName: "ACME"},
	}, nil)

	w, resp := ts.do(uploadRequest(t, "/api/quotes/parse", "quote.xlsx", content, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.Contains(t, w.Body.String(), `"customer_name":"ACME"`)
	ts.validation.AssertExpectations(t)
}

func TestUploadRejections(t *testing.T) {
	ts := newTestServer(nil)

	w, _ := ts.do(uploadRequest(t, "/api/quotes/parse", "", nil, nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = ts.do(uploadRequest(t, "/api/quotes/parse", "quote.pdf", []byte("x"), nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = ts.do(uploadRequest(t, "/api/quotes/parse", "quote.xlsx", make([]byte, 1024*1024+1), nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	ts.validation.On("ParseQuoteFile", []byte("garbage")).
		Return(nil, &sheet.ParseError{Reason: "not a workbook"})
	w, resp := ts.do(uploadRequest(t, "/api/quotes/parse", "quote.xlsx", []byte("garbage"), nil))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, resp.Error, "not a workbook")
}

func TestCreateTemplate(t *testing.T) {
	ts := newTestServer(nil)
	content := []byte("template-bytes")
	ts.templates.On("CreateFromFile", service.CreateTemplateInput{
		Name: "Standard", Description: "desc", FileName: "template.xlsx", Content: content, CreatedBy: "alice",
	}).Return(&entity.Template{ID: "tpl-1", Name: "Standard", Status: entity.TemplateStatusDraft}, nil)

	w, resp := ts.do(uploadRequest(t, "/api/templates", "template.xlsx", content, map[string]string{
		"name": "Standard", "description": "desc", "created_by": "alice",
	}))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, resp.Success)
	ts.templates.AssertExpectations(t)
}

func TestTemplateStatusErrors(t *testing.T) {
	ts := newTestServer(nil)
	ts.templates.On("Get", "missing").Return(nil, fmt.Errorf("template missing: %w", port.ErrNotFound))
	ts.templates.On("Activate", "tpl-old", "").Return(fmt.Errorf("archived: %w", port.ErrStatusConflict))
	ts.templates.On("Archive", "tpl-1", "bob").Return(nil)

	w, _ := ts.do(httptest.NewRequest(http.MethodGet, "/api/templates/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = ts.do(httptest.NewRequest(http.MethodPost, "/api/templates/tpl-old/activate", nil))
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = ts.do(httptest.NewRequest(http.MethodDelete, "/api/templates/tpl-1?updated_by=bob", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateSubmission(t *testing.T) {
	ts := newTestServer(nil)
	content := []byte("quote-bytes")
	in := service.SubmitInput{TemplateID: "tpl-1", FileName: "quote.xlsx", Content: content, SubmittedBy: "alice"}
	ts.submissions.On("Submit", in).Return(&entity.Submission{ID: "sub-1", Status: entity.SubmissionStatusUploaded}, nil)

	fields := map[string]string{"template_id": "tpl-1", "submitted_by": "alice"}
	w, resp := ts.do(uploadRequest(t, "/api/submissions", "quote.xlsx", content, fields))
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.True(t, resp.Success)

	ts.submissions.On("Validate", "sub-1").Return(&entity.Report{OverallStatus: entity.OverallPass}, nil)
	w, _ = ts.do(uploadRequest(t, "/api/submissions?sync=true", "quote.xlsx", content, fields))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"overall_status":"pass"`)
	ts.submissions.AssertExpectations(t)
}

func TestGetSubmissionReport(t *testing.T) {
	ts := newTestServer(nil)
	ts.submissions.On("GetWithFindings", "sub-1").Return(
		&entity.Submission{ID: "sub-1", Status: entity.SubmissionStatusCompleted},
		[]entity.Finding{
			{Severity: entity.SeverityCritical, Category: entity.CategoryMath, Message: "총액 불일치"},
			{Severity: entity.SeverityLow, Category: entity.CategoryCompleteness, Message: "이메일 누락"},
		}, nil)

	w, _ := ts.do(httptest.NewRequest(http.MethodGet, "/api/submissions/sub-1", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data entity.Report `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Data.Total)
	assert.Equal(t, entity.OverallFail, body.Data.OverallStatus)
	assert.Equal(t, 1, body.Data.ByCategory[entity.CategoryMath])
}

func TestRevalidateConflict(t *testing.T) {
	ts := newTestServer(nil)
	ts.submissions.On("Revalidate", "sub-1").Return(nil, fmt.Errorf("uploaded: %w", port.ErrStatusConflict))

	w, resp := ts.do(httptest.NewRequest(http.MethodPost, "/api/submissions/sub-1/revalidate", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.False(t, resp.Success)
}

func TestListSubmissions(t *testing.T) {
	ts := newTestServer(nil)
	ts.submissions.On("List", "alice").Return([]*entity.Submission{{ID: "sub-1"}}, nil)

	w, _ := ts.do(httptest.NewRequest(http.MethodGet, "/api/submissions?submitted_by=alice", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"sub-1"`)
}
