package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-center-api/internal/models"
	"github.com/noah-isme/edu-center-api/internal/service"
	"github.com/noah-isme/edu-center-api/pkg/response"
)

type subscriptionService interface {
	Years(ctx context.Context, rootCode int64) ([]models.Year, error)
	SubjectsForYear(ctx context.Context, rootCode, yearCode int64) ([]models.Subject, bool, error)
	List(ctx context.Context, rootCode int64) ([]models.SubscriptionPlan, error)
	Get(ctx context.Context, rootCode, code int64) (*models.SubscriptionPlan, error)
	Create(ctx context.Context, rootCode int64, req service.SubscriptionRequest) (*models.SubscriptionPlan, error)
	Update(ctx context.Context, rootCode, code int64, req service.SubscriptionRequest) (*models.SubscriptionPlan, error)
	Delete(ctx context.Context, rootCode, code int64) error
}

// SubscriptionHandler serves the subscription plan builder.
type SubscriptionHandler struct {
	service subscriptionService
}

// NewSubscriptionHandler constructs a SubscriptionHandler.
func NewSubscriptionHandler(svc subscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{service: svc}
}

// Years godoc
// @Summary List years for the plan builder
// @Tags Subscriptions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /subscriptions/years [get]
func (h *SubscriptionHandler) Years(c *gin.Context) {
	_, root, err := rootScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	years, err := h.service.Years(c.Request.Context(), root)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, years, nil)
}

// Subjects godoc
// @Summary List subjects offered for a year
// @Tags Subscriptions
// @Produce json
// @Param yearCode path int true "Year code"
// @Success 200 {object} response.Envelope
// @Router /subscriptions/years/{yearCode}/subjects [get]
func (h *SubscriptionHandler) Subjects(c *gin.Context) {
	_, root, err := rootScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	year, err := pathCode(c, "yearCode")
	if err != nil {
		response.Error(c, err)
		return
	}
	subjects, hit, err := h.service.SubjectsForYear(c.Request.Context(), root, year)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SetMeta(c, "cache_hit", hit)
	response.List(c, subjects, nil)
}

// List godoc
// @Summary List subscription plans
// @Tags Subscriptions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /subscriptions [get]
func (h *SubscriptionHandler) List(c *gin.Context) {
	_, root, err := rootScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	plans, err := h.service.List(c.Request.Context(), root)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, plans, nil)
}

// Get godoc
// @Summary Get subscription plan
// @Tags Subscriptions
// @Produce json
// @Param code path int true "Plan code"
// @Success 200 {object} response.Envelope
// @Router /subscriptions/{code} [get]
func (h *SubscriptionHandler) Get(c *gin.Context) {
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
	plan, err := h.service.Get(c.Request.Context(), root, code)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan, nil)
}

// Create godoc
// @Summary Create subscription plan
// @Description All problems of the form are reported together in error.details.
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Param payload body service.SubscriptionRequest true "Plan payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /subscriptions [post]
func (h *SubscriptionHandler) Create(c *gin.Context) {
	_, root, err := rootScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.SubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid subscription payload"))
		return
	}
	plan, err := h.service.Create(c.Request.Context(), root, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, plan)
}

// Update godoc
// @Summary Update subscription plan
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Param code path int true "Plan code"
// @Param payload body service.SubscriptionRequest true "Plan payload"
// @Success 200 {object} response.Envelope
// @Router /subscriptions/{code} [put]
func (h *SubscriptionHandler) Update(c *gin.Context) {
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
	var req service.SubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid subscription payload"))
		return
	}
	plan, err := h.service.Update(c.Request.Context(), root, code, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan, nil)
}

// Delete godoc
// @Summary Delete subscription plan
// @Tags Subscriptions
// @Param code path int true "Plan code"
// @Success 204
// @Router /subscriptions/{code} [delete]
func (h *SubscriptionHandler) Delete(c *gin.Context) {
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
