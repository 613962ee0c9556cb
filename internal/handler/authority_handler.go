package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-center-api/internal/models"
	"github.com/noah-isme/edu-center-api/internal/service"
	"github.com/noah-isme/edu-center-api/pkg/response"
)

type authorityService interface {
	Cascade(ctx context.Context, rootCode int64) (*models.AuthorityCascade, error)
	AvailablePages(ctx context.Context, rootCode, groupCode int64) ([]models.Page, error)
	Grant(ctx context.Context, actor models.Session, req service.GrantRequest) (*models.AuthorityCascade, error)
	Revoke(ctx context.Context, actor models.Session, groupCode, pageCode int64) (*models.AuthorityCascade, error)
}

// AuthorityHandler serves the page permission screen.
type AuthorityHandler struct {
	service authorityService
}

// NewAuthorityHandler constructs an AuthorityHandler.
func NewAuthorityHandler(svc authorityService) *AuthorityHandler {
	return &AuthorityHandler{service: svc}
}

// Cascade godoc
// @Summary Groups, pages and mappings of a root
// @Tags View Authority
// @Produce json
// @Param rootCode path int true "Root code"
// @Success 200 {object} response.Envelope
// @Router /view-authority/roots/{rootCode} [get]
func (h *AuthorityHandler) Cascade(c *gin.Context) {
	root, ok := h.scopedRoot(c)
	if !ok {
		return
	}
	cascade, err := h.service.Cascade(c.Request.Context(), root)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cascade, nil)
}

// AvailablePages godoc
// @Summary Pages not yet mapped to a group
// @Tags View Authority
// @Produce json
// @Param rootCode path int true "Root code"
// @Param groupCode path int true "Group code"
// @Success 200 {object} response.Envelope
// @Router /view-authority/roots/{rootCode}/groups/{groupCode}/available-pages [get]
func (h *AuthorityHandler) AvailablePages(c *gin.Context) {
	root, ok := h.scopedRoot(c)
	if !ok {
		return
	}
	group, err := pathCode(c, "groupCode")
	if err != nil {
		response.Error(c, err)
		return
	}
	pages, err := h.service.AvailablePages(c.Request.Context(), root, group)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, pages, nil)
}

// Grant godoc
// @Summary Map pages to a group
// @Description Creates one mapping per page in a single transaction and returns the refreshed cascade.
// @Tags View Authority
// @Accept json
// @Produce json
// @Param payload body service.GrantRequest true "Grant payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /view-authority/permissions [post]
func (h *AuthorityHandler) Grant(c *gin.Context) {
	session, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.GrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid permission payload"))
		return
	}
	if req.RootCode, err = service.ScopeRoot(session, req.RootCode); err != nil {
		response.Error(c, err)
		return
	}
	cascade, err := h.service.Grant(c.Request.Context(), session, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, cascade)
}

// Revoke godoc
// @Summary Remove a page mapping
// @Tags View Authority
// @Produce json
// @Param groupCode path int true "Group code"
// @Param pageCode path int true "Page code"
// @Success 200 {object} response.Envelope
// @Router /view-authority/permissions/{groupCode}/{pageCode} [delete]
func (h *AuthorityHandler) Revoke(c *gin.Context) {
	session, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	group, err := pathCode(c, "groupCode")
	if err != nil {
		response.Error(c, err)
		return
	}
	page, err := pathCode(c, "pageCode")
	if err != nil {
		response.Error(c, err)
		return
	}
	cascade, err := h.service.Revoke(c.Request.Context(), session, group, page)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cascade, nil)
}

func (h *AuthorityHandler) scopedRoot(c *gin.Context) (int64, bool) {
	session, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return 0, false
	}
	requested, err := pathCode(c, "rootCode")
	if err != nil {
		response.Error(c, err)
		return 0, false
	}
	root, err := service.ScopeRoot(session, requested)
	if err != nil {
		response.Error(c, err)
		return 0, false
	}
	return root, true
}
