package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-center-api/internal/models"
	"github.com/noah-isme/edu-center-api/internal/service"
	"github.com/noah-isme/edu-center-api/pkg/response"
)

type branchService interface {
	List(ctx context.Context, rootCode int64) ([]models.Branch, error)
	Get(ctx context.Context, rootCode, code int64) (*models.Branch, error)
	Create(ctx context.Context, rootCode int64, req service.BranchRequest) (*models.Branch, error)
	Update(ctx context.Context, rootCode, code int64, req service.BranchRequest) (*models.Branch, *models.Branch, error)
	Delete(ctx context.Context, rootCode, code int64) error
}

// BranchHandler exposes branch rows with inline editing.
type BranchHandler struct {
	service branchService
}

// NewBranchHandler constructs a BranchHandler.
func NewBranchHandler(svc branchService) *BranchHandler {
	return &BranchHandler{service: svc}
}

// List godoc
// @Summary List branches
// @Tags Branches
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /branches [get]
func (h *BranchHandler) List(c *gin.Context) {
	_, root, err := rootScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	branches, err := h.service.List(c.Request.Context(), root)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, branches, nil)
}

// Get godoc
// @Summary Get branch
// @Tags Branches
// @Produce json
// @Param code path int true "Branch code"
// @Success 200 {object} response.Envelope
// @Router /branches/{code} [get]
func (h *BranchHandler) Get(c *gin.Context) {
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
	branch, err := h.service.Get(c.Request.Context(), root, code)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, branch, nil)
}

// Create godoc
// @Summary Create branch
// @Tags Branches
// @Accept json
// @Produce json
// @Param payload body service.BranchRequest true "Branch payload"
// @Success 201 {object} response.Envelope
// @Router /branches [post]
func (h *BranchHandler) Create(c *gin.Context) {
	_, root, err := rootScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.BranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid branch payload"))
		return
	}
	branch, err := h.service.Create(c.Request.Context(), root, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, branch)
}

// Update godoc
// @Summary Save an edited branch row
// @Description On failure the unedited row is returned under meta.original.
// @Tags Branches
// @Accept json
// @Produce json
// @Param code path int true "Branch code"
// @Param payload body service.BranchRequest true "Branch payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /branches/{code} [put]
func (h *BranchHandler) Update(c *gin.Context) {
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
	var req service.BranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid branch payload"))
		return
	}
	saved, original, err := h.service.Update(c.Request.Context(), root, code, req)
	if err != nil {
		if original != nil {
			response.Error(c, err, originalMeta(original))
			return
		}
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, saved, nil)
}

// Delete godoc
// @Summary Delete branch
// @Tags Branches
// @Param code path int true "Branch code"
// @Success 204
// @Router /branches/{code} [delete]
func (h *BranchHandler) Delete(c *gin.Context) {
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
