package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-center-api/internal/models"
	"github.com/noah-isme/edu-center-api/internal/service"
	appErrors "github.com/noah-isme/edu-center-api/pkg/errors"
	"github.com/noah-isme/edu-center-api/pkg/response"
)

type rootService interface {
	List(ctx context.Context, kind models.RootKind) ([]models.Root, error)
	Get(ctx context.Context, code int64) (*models.Root, error)
	Create(ctx context.Context, req service.RootRequest) (*models.Root, error)
	Update(ctx context.Context, code int64, req service.RootRequest) (*models.Root, error)
	Delete(ctx context.Context, code int64) error
}

// RootHandler manages tenants (centers and independent teachers).
type RootHandler struct {
	service rootService
}

// NewRootHandler constructs a RootHandler.
func NewRootHandler(svc rootService) *RootHandler {
	return &RootHandler{service: svc}
}

// List godoc
// @Summary List roots
// @Tags Roots
// @Produce json
// @Param kind query string false "CENTER or TEACHER"
// @Success 200 {object} response.Envelope
// @Router /roots [get]
func (h *RootHandler) List(c *gin.Context) {
	kind := models.RootKind(strings.ToUpper(strings.TrimSpace(c.Query("kind"))))
	switch kind {
	case "", models.RootKindCenter, models.RootKindTeacher:
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "kind must be CENTER or TEACHER"))
		return
	}
	roots, err := h.service.List(c.Request.Context(), kind)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, roots, nil)
}

// Get godoc
// @Summary Get root
// @Tags Roots
// @Produce json
// @Param code path int true "Root code"
// @Success 200 {object} response.Envelope
// @Router /roots/{code} [get]
func (h *RootHandler) Get(c *gin.Context) {
	code, err := pathCode(c, "code")
	if err != nil {
		response.Error(c, err)
		return
	}
	root, err := h.service.Get(c.Request.Context(), code)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, root, nil)
}

// Create godoc
// @Summary Create root
// @Tags Roots
// @Accept json
// @Produce json
// @Param payload body service.RootRequest true "Root payload"
// @Success 201 {object} response.Envelope
// @Router /roots [post]
func (h *RootHandler) Create(c *gin.Context) {
	var req service.RootRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid root payload"))
		return
	}
	root, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, root)
}

// Update godoc
// @Summary Update root
// @Tags Roots
// @Accept json
// @Produce json
// @Param code path int true "Root code"
// @Param payload body service.RootRequest true "Root payload"
// @Success 200 {object} response.Envelope
// @Router /roots/{code} [put]
func (h *RootHandler) Update(c *gin.Context) {
	code, err := pathCode(c, "code")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.RootRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid root payload"))
		return
	}
	root, err := h.service.Update(c.Request.Context(), code, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, root, nil)
}

// Delete godoc
// @Summary Delete root
// @Tags Roots
// @Param code path int true "Root code"
// @Success 204
// @Router /roots/{code} [delete]
func (h *RootHandler) Delete(c *gin.Context) {
	code, err := pathCode(c, "code")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), code); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListKind lists roots of one kind; it backs the centers and teachers screens.
func (h *RootHandler) ListKind(kind models.RootKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		roots, err := h.service.List(c.Request.Context(), kind)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.List(c, roots, nil)
	}
}
