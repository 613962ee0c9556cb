package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-center-api/internal/models"
	"github.com/noah-isme/edu-center-api/internal/service"
	"github.com/noah-isme/edu-center-api/pkg/response"
)

type contentService interface {
	Colors(ctx context.Context, rootCode int64) ([]models.ColorSetting, error)
	SaveColors(ctx context.Context, rootCode int64, req service.SaveColorsRequest) ([]models.ColorSetting, error)
}

// ContentHandler serves theme colors of the content page.
type ContentHandler struct {
	service contentService
}

// NewContentHandler constructs a ContentHandler.
func NewContentHandler(svc contentService) *ContentHandler {
	return &ContentHandler{service: svc}
}

// Colors godoc
// @Summary List theme colors
// @Tags Content
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /content/colors [get]
func (h *ContentHandler) Colors(c *gin.Context) {
	_, root, err := rootScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	colors, err := h.service.Colors(c.Request.Context(), root)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, colors, nil)
}

// SaveColors godoc
// @Summary Save theme colors
// @Description Values are normalized to #RRGGBB; any failed item fails the batch with one generic message.
// @Tags Content
// @Accept json
// @Produce json
// @Param payload body service.SaveColorsRequest true "Colors"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /content/colors [put]
func (h *ContentHandler) SaveColors(c *gin.Context) {
	_, root, err := rootScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.SaveColorsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid colors payload"))
		return
	}
	colors, err := h.service.SaveColors(c.Request.Context(), root, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, colors, nil)
}
