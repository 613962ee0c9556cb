package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-center-api/internal/middleware"
	"github.com/noah-isme/edu-center-api/internal/models"
	"github.com/noah-isme/edu-center-api/internal/service"
	appErrors "github.com/noah-isme/edu-center-api/pkg/errors"
	"github.com/noah-isme/edu-center-api/pkg/i18n"
	"github.com/noah-isme/edu-center-api/pkg/response"
)

type financeService interface {
	ListExpenses(ctx context.Context, filter models.LedgerFilter, f *i18n.Formatter) ([]service.ExpenseView, error)
	GetExpense(ctx context.Context, rootCode, code int64) (*models.Expense, error)
	CreateExpense(ctx context.Context, rootCode int64, req service.ExpenseRequest) (*models.Expense, error)
	UpdateExpense(ctx context.Context, rootCode, code int64, req service.ExpenseRequest) (*models.Expense, error)
	DeleteExpense(ctx context.Context, rootCode, code int64) error
	ListIncome(ctx context.Context, filter models.LedgerFilter, f *i18n.Formatter) ([]service.IncomeView, error)
	GetIncome(ctx context.Context, rootCode, id int64) (*models.Income, error)
	CreateIncome(ctx context.Context, session models.Session, rootCode int64, req service.IncomeRequest) (*models.Income, error)
	UpdateIncome(ctx context.Context, rootCode, id int64, req service.IncomeRequest) (*models.Income, error)
	DeleteIncome(ctx context.Context, rootCode, id int64) error
}

// FinanceHandler exposes the expense and income ledgers.
type FinanceHandler struct {
	service financeService
}

// NewFinanceHandler constructs a FinanceHandler.
func NewFinanceHandler(svc financeService) *FinanceHandler {
	return &FinanceHandler{service: svc}
}

func ledgerFilter(c *gin.Context) (models.LedgerFilter, error) {
	_, root, err := rootScope(c)
	if err != nil {
		return models.LedgerFilter{}, err
	}
	filter := models.LedgerFilter{RootCode: root}
	for _, bound := range []struct {
		key  string
		dest **time.Time
	}{{"from", &filter.From}, {"to", &filter.To}} {
		raw := strings.TrimSpace(c.Query(bound.key))
		if raw == "" {
			continue
		}
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return filter, appErrors.Clone(appErrors.ErrValidation, bound.key+" must be a date (YYYY-MM-DD)")
		}
		*bound.dest = &parsed
	}
	return filter, nil
}

// ListExpenses godoc
// @Summary List expenses
// @Tags Finance
// @Produce json
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /expenses [get]
func (h *FinanceHandler) ListExpenses(c *gin.Context) {
	filter, err := ledgerFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	items, err := h.service.ListExpenses(c.Request.Context(), filter, middleware.Formatter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, items, nil)
}

// GetExpense godoc
// @Summary Get expense
// @Tags Finance
// @Produce json
// @Param code path int true "Expense code"
// @Success 200 {object} response.Envelope
// @Router /expenses/{code} [get]
func (h *FinanceHandler) GetExpense(c *gin.Context) {
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
	expense, err := h.service.GetExpense(c.Request.Context(), root, code)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, expense, nil)
}

// CreateExpense godoc
// @Summary Create expense
// @Tags Finance
// @Accept json
// @Produce json
// @Param payload body service.ExpenseRequest true "Expense payload"
// @Success 201 {object} response.Envelope
// @Router /expenses [post]
func (h *FinanceHandler) CreateExpense(c *gin.Context) {
	_, root, err := rootScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid expense payload"))
		return
	}
	expense, err := h.service.CreateExpense(c.Request.Context(), root, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, expense)
}

// UpdateExpense godoc
// @Summary Update expense
// @Tags Finance
// @Accept json
// @Produce json
// @Param code path int true "Expense code"
// @Param payload body service.ExpenseRequest true "Expense payload"
// @Success 200 {object} response.Envelope
// @Router /expenses/{code} [put]
func (h *FinanceHandler) UpdateExpense(c *gin.Context) {
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
	var req service.ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid expense payload"))
		return
	}
	expense, err := h.service.UpdateExpense(c.Request.Context(), root, code, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, expense, nil)
}

// DeleteExpense godoc
// @Summary Delete expense
// @Tags Finance
// @Param code path int true "Expense code"
// @Success 204
// @Router /expenses/{code} [delete]
func (h *FinanceHandler) DeleteExpense(c *gin.Context) {
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
	if err := h.service.DeleteExpense(c.Request.Context(), root, code); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListIncome godoc
// @Summary List income
// @Tags Finance
// @Produce json
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /income [get]
func (h *FinanceHandler) ListIncome(c *gin.Context) {
	filter, err := ledgerFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	items, err := h.service.ListIncome(c.Request.Context(), filter, middleware.Formatter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, items, nil)
}

// GetIncome godoc
// @Summary Get income
// @Tags Finance
// @Produce json
// @Param code path int true "Income id"
// @Success 200 {object} response.Envelope
// @Router /income/{code} [get]
func (h *FinanceHandler) GetIncome(c *gin.Context) {
	_, root, err := rootScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, err := pathCode(c, "code")
	if err != nil {
		response.Error(c, err)
		return
	}
	income, err := h.service.GetIncome(c.Request.Context(), root, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, income, nil)
}

// CreateIncome godoc
// @Summary Record income
// @Tags Finance
// @Accept json
// @Produce json
// @Param payload body service.IncomeRequest true "Income payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /income [post]
func (h *FinanceHandler) CreateIncome(c *gin.Context) {
	session, root, err := rootScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.IncomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid income payload"))
		return
	}
	income, err := h.service.CreateIncome(c.Request.Context(), session, root, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, income)
}

// UpdateIncome godoc
// @Summary Update income
// @Tags Finance
// @Accept json
// @Produce json
// @Param code path int true "Income id"
// @Param payload body service.IncomeRequest true "Income payload"
// @Success 200 {object} response.Envelope
// @Router /income/{code} [put]
func (h *FinanceHandler) UpdateIncome(c *gin.Context) {
	_, root, err := rootScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, err := pathCode(c, "code")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.IncomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid income payload"))
		return
	}
	income, err := h.service.UpdateIncome(c.Request.Context(), root, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, income, nil)
}

// DeleteIncome godoc
// @Summary Delete income
// @Tags Finance
// @Param code path int true "Income id"
// @Success 204
// @Router /income/{code} [delete]
func (h *FinanceHandler) DeleteIncome(c *gin.Context) {
	_, root, err := rootScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, err := pathCode(c, "code")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.DeleteIncome(c.Request.Context(), root, id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
