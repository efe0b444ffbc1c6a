package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/quote-validator/internal/application/port"
	"github.com/garyjia/quote-validator/internal/application/service"
	"github.com/garyjia/quote-validator/internal/domain/entity"
	"github.com/garyjia/quote-validator/internal/sheet"
	"github.com/garyjia/quote-validator/pkg/utils"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	validation  service.ValidationService
	templates   service.TemplateService
	submissions service.SubmissionService
	health      HealthFunc
	maxUploadMB int
	logger      Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, health HealthFunc, maxUploadMB int, logger Logger) *Handlers {
	return &Handlers{
		validation:  services.Validation,
		templates:   services.Templates,
		submissions: services.Submission,
		health:      health,
		maxUploadMB: maxUploadMB,
		logger:      logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string                 `json:"status"`
	Timestamp  string                 `json:"timestamp"`
	Components map[string]interface{} `json:"components,omitempty"`
}

// StatusRequest carries the acting user for status changes
type StatusRequest struct {
	UpdatedBy string `json:"updated_by" form:"updated_by"`
}

// RulesRequest replaces a template's validation rules
type RulesRequest struct {
	Rules     entity.ValidationRules `json:"validation_rules"`
	UpdatedBy string                 `json:"updated_by"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	code := http.StatusOK
	if h.health != nil {
		healthy, components := h.health(c.Request.Context())
		resp.Components = components
		if !healthy {
			resp.Status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
	}
	c.JSON(code, Response{Success: code == http.StatusOK, Data: resp})
}

// AnalyzeTemplate handles POST /api/templates/analyze
func (h *Handlers) AnalyzeTemplate(c *gin.Context) {
	_, content, ok := h.readUpload(c)
	if !ok {
		return
	}
	analysis, err := h.validation.AnalyzeTemplateFile(content)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: analysis})
}

// CreateTemplate handles POST /api/templates
func (h *Handlers) CreateTemplate(c *gin.Context) {
	name, content, ok := h.readUpload(c)
	if !ok {
		return
	}
	tmpl, err := h.templates.CreateFromFile(c.Request.Context(), service.CreateTemplateInput{
		Name:        c.PostForm("name"),
		Description: c.PostForm("description"),
		FileName:    name,
		Content:     content,
		CreatedBy:   c.PostForm("created_by"),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: tmpl})
}

// ListTemplates handles GET /api/templates
func (h *Handlers) ListTemplates(c *gin.Context) {
	activeOnly, _ := strconv.ParseBool(c.DefaultQuery("active", "false"))
	templates, err := h.templates.List(c.Request.Context(), activeOnly)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: templates})
}

// GetTemplate handles GET /api/templates/:id
func (h *Handlers) GetTemplate(c *gin.Context) {
	tmpl, err := h.templates.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: tmpl})
}

// ActivateTemplate handles POST /api/templates/:id/activate
func (h *Handlers) ActivateTemplate(c *gin.Context) {
	var req StatusRequest
	_ = c.ShouldBind(&req)
	if err := h.templates.Activate(c.Request.Context(), c.Param("id"), req.UpdatedBy); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// ArchiveTemplate handles DELETE /api/templates/:id
func (h *Handlers) ArchiveTemplate(c *gin.Context) {
	if err := h.templates.Archive(c.Request.Context(), c.Param("id"), c.Query("updated_by")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// UpdateTemplateRules handles PUT /api/templates/:id/rules
func (h *Handlers) UpdateTemplateRules(c *gin.Context) {
	var req RulesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}
	if err := h.templates.UpdateRules(c.Request.Context(), c.Param("id"), req.Rules, req.UpdatedBy); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// ParseQuote handles POST /api/quotes/parse
func (h *Handlers) ParseQuote(c *gin.Context) {
	_, content, ok := h.readUpload(c)
	if !ok {
		return
	}
	q, err := h.validation.ParseQuoteFile(content)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: q})
}

// CreateSubmission handles POST /api/submissions. Validation runs in the
// background unless sync=true is given.
func (h *Handlers) CreateSubmission(c *gin.Context) {
	name, content, ok := h.readUpload(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	sub, err := h.submissions.Submit(ctx, service.SubmitInput{
		TemplateID:  c.PostForm("template_id"),
		FileName:    name,
		Content:     content,
		SubmittedBy: c.PostForm("submitted_by"),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	if sync, _ := strconv.ParseBool(c.Query("sync")); sync {
		report, err := h.submissions.Validate(ctx, sub.ID)
		if err != nil {
			h.writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, Response{Success: true, Data: report})
		return
	}
	c.JSON(http.StatusAccepted, Response{Success: true, Data: sub})
}

// ListSubmissions handles GET /api/submissions
func (h *Handlers) ListSubmissions(c *gin.Context) {
	subs, err := h.submissions.List(c.Request.Context(), c.Query("submitted_by"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: subs})
}

// GetSubmission handles GET /api/submissions/:id
func (h *Handlers) GetSubmission(c *gin.Context) {
	sub, findings, err := h.submissions.GetWithFindings(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: service.BuildReport(sub, findings)})
}

// ValidateSubmission handles POST /api/submissions/:id/validate
func (h *Handlers) ValidateSubmission(c *gin.Context) {
	report, err := h.submissions.Validate(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: report})
}

// RevalidateSubmission handles POST /api/submissions/:id/revalidate
func (h *Handlers) RevalidateSubmission(c *gin.Context) {
	report, err := h.submissions.Revalidate(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: report})
}

// readUpload reads the multipart "file" field, writing a 400 on failure
func (h *Handlers) readUpload(c *gin.Context) (string, []byte, bool) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "multipart field \"file\" is required"})
		return "", nil, false
	}
	if err := utils.ValidateFileExtension(fh.Filename); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return "", nil, false
	}
	if err := utils.ValidateFileSize(fh.Size, h.maxUploadMB); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return "", nil, false
	}

	f, err := fh.Open()
	if err != nil {
		h.logger.Error("Failed to open upload", "error", err)
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "failed to read upload"})
		return "", nil, false
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		h.logger.Error("Failed to read upload", "error", err)
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "failed to read upload"})
		return "", nil, false
	}
	return fh.Filename, content, true
}

// writeError maps service errors onto HTTP status codes
func (h *Handlers) writeError(c *gin.Context, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, port.ErrInvalidInput):
		code = http.StatusBadRequest
	case errors.Is(err, sheet.ErrParse):
		code = http.StatusUnprocessableEntity
	case errors.Is(err, port.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, port.ErrStatusConflict):
		code = http.StatusConflict
	}

	msg := err.Error()
	if code == http.StatusInternalServerError {
		h.logger.Error("Request failed", "path", c.Request.URL.Path, "error", err)
		msg = fmt.Sprintf("internal error: %s", http.StatusText(code))
	} else {
		h.logger.Warn("Request rejected", "path", c.Request.URL.Path, "status", code, "error", err)
	}
	c.JSON(code, Response{Success: false, Error: msg})
}
