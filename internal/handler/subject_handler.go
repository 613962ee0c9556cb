package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-center-api/internal/models"
	"github.com/noah-isme/edu-center-api/internal/service"
	"github.com/noah-isme/edu-center-api/pkg/response"
)

type subjectService interface {
	List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, error)
	Get(ctx context.Context, rootCode, code int64) (*models.Subject, error)
	Create(ctx context.Context, rootCode int64, req service.SubjectRequest) (*models.Subject, error)
	Update(ctx context.Context, rootCode, code int64, req service.SubjectRequest) (*models.Subject, error)
	Delete(ctx context.Context, rootCode, code int64) error
}

// SubjectHandler handles subject endpoints.
type SubjectHandler struct {
	service subjectService
}

// NewSubjectHandler constructs handler.
func NewSubjectHandler(svc subjectService) *SubjectHandler {
	return &SubjectHandler{service: svc}
}

// List godoc
// @Summary List subjects
// @Tags Subjects
// @Produce json
// @Param year_code query int false "Year filter"
// @Param search query string false "Search by name"
// @Success 200 {object} response.Envelope
// @Router /subjects [get]
func (h *SubjectHandler) List(c *gin.Context) {
	_, root, err := rootScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	year, err := queryCode(c, "year_code")
	if err != nil {
		response.Error(c, err)
		return
	}
	subjects, err := h.service.List(c.Request.Context(), models.SubjectFilter{
		RootCode: root,
		YearCode: year,
		Search:   strings.TrimSpace(c.Query("search")),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, subjects, nil)
}

// Get godoc
// @Summary Get subject
// @Tags Subjects
// @Produce json
// @Param code path int true "Subject code"
// @Success 200 {object} response.Envelope
// @Router /subjects/{code} [get]
func (h *SubjectHandler) Get(c *gin.Context) {
	_, root, err := rootScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	code, err := pathCode(c, "code")
	if err != nil {
		response.Error(c, err)
		return
	}
	subject, err := h.service.Get(c.Request.Context(), root, code)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subject, nil)
}

// Create godoc
// @Summary Create subject
// @Tags Subjects
// @Accept json
// @Produce json
// @Param payload body service.SubjectRequest true "Subject payload"
// @Success 201 {object} response.Envelope
// @Router /subjects [post]
func (h *SubjectHandler) Create(c *gin.Context) {
	_, root, err := rootScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.SubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid subject payload"))
		return
	}
	subject, err := h.service.Create(c.Request.Context(), root, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, subject)
}

// Update godoc
// @Summary Update subject
// @Tags Subjects
// @Accept json
// @Produce json
// @Param code path int true "Subject code"
// @Param payload body service.SubjectRequest true "Subject payload"
// @Success 200 {object} response.Envelope
// @Router /subjects/{code} [put]
func (h *SubjectHandler) Update(c *gin.Context) {
	_, root, err := rootScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	code, err := pathCode(c, "code")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.SubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid subject payload"))
		return
	}
	subject, err := h.service.Update(c.Request.Context(), root, code, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subject, nil)
}

// Delete godoc
// @Summary Delete subject
// @Description Rejected while subscription plans still reference the subject.
// @Tags Subjects
// @Param code path int true "Subject code"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /subjects/{code} [delete]
func (h *SubjectHandler) Delete(c *gin.Context) {
	_, root, err := rootScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	code, err := pathCode(c, "code")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), root, code); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
