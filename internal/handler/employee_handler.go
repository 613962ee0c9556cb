package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-center-api/internal/models"
	"github.com/noah-isme/edu-center-api/internal/service"
	appErrors "github.com/noah-isme/edu-center-api/pkg/errors"
	"github.com/noah-isme/edu-center-api/pkg/response"
)

type employeeService interface {
	List(ctx context.Context, rootCode int64) ([]models.Employee, error)
	Get(ctx context.Context, rootCode, code int64) (*models.Employee, error)
	Create(ctx context.Context, rootCode int64, req service.EmployeeRequest) (*models.Employee, error)
	Update(ctx context.Context, rootCode, code int64, req service.EmployeeRequest) (*models.Employee, error)
	Delete(ctx context.Context, rootCode, code int64) error
}

type employeeRenderer interface {
	EmployeeRows(rows []models.Employee) ([]byte, error)
}

// EmployeeHandler exposes staff management routes.
type EmployeeHandler struct {
	service employeeService
	views   employeeRenderer
}

// NewEmployeeHandler constructs an EmployeeHandler.
func NewEmployeeHandler(svc employeeService, views employeeRenderer) *EmployeeHandler {
	return &EmployeeHandler{service: svc, views: views}
}

// List godoc
// @Summary List employees
// @Tags Employees
// @Produce json,html
// @Param format query string false "html for a table fragment"
// @Success 200 {object} response.Envelope
// @Router /employees [get]
func (h *EmployeeHandler) List(c *gin.Context) {
	_, root, err := rootScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	employees, err := h.service.List(c.Request.Context(), root)
	if err != nil {
		response.Error(c, err)
		return
	}
	if wantsHTML(c) && h.views != nil {
		fragment, err := h.views.EmployeeRows(employees)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render employees"))
			return
		}
		response.HTML(c, http.StatusOK, fragment)
		return
	}
	response.List(c, employees, nil)
}

// Get godoc
// @Summary Get employee
// @Tags Employees
// @Produce json
// @Param code path int true "Employee code"
// @Success 200 {object} response.Envelope
// @Router /employees/{code} [get]
func (h *EmployeeHandler) Get(c *gin.Context) {
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
	employee, err := h.service.Get(c.Request.Context(), root, code)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, employee, nil)
}

// Create godoc
// @Summary Create employee
// @Tags Employees
// @Accept json
// @Produce json
// @Param payload body service.EmployeeRequest true "Employee payload"
// @Success 201 {object} response.Envelope
// @Router /employees [post]
func (h *EmployeeHandler) Create(c *gin.Context) {
	_, root, err := rootScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.EmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid employee payload"))
		return
	}
	employee, err := h.service.Create(c.Request.Context(), root, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, employee)
}

// Update godoc
// @Summary Update employee
// @Tags Employees
// @Accept json
// @Produce json
// @Param code path int true "Employee code"
// @Param payload body service.EmployeeRequest true "Employee payload"
// @Success 200 {object} response.Envelope
// @Router /employees/{code} [put]
func (h *EmployeeHandler) Update(c *gin.Context) {
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
	var req service.EmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid employee payload"))
		return
	}
	employee, err := h.service.Update(c.Request.Context(), root, code, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, employee, nil)
}

// Delete godoc
// @Summary Deactivate employee
// @Tags Employees
// @Param code path int true "Employee code"
// @Success 204
// @Router /employees/{code} [delete]
func (h *EmployeeHandler) Delete(c *gin.Context) {
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
