package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-center-api/internal/models"
	appErrors "github.com/noah-isme/edu-center-api/pkg/errors"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

type employeeRepository interface {
	List(ctx context.Context, rootCode int64) ([]models.Employee, error)
	FindByCode(ctx context.Context, rootCode, code int64) (*models.Employee, error)
	Create(ctx context.Context, e *models.Employee) error
	Update(ctx context.Context, e *models.Employee) error
	Deactivate(ctx context.Context, rootCode, code int64) error
}

type branchLookup interface {
	FindBranch(ctx context.Context, rootCode, branchCode int64) (*models.Branch, error)
}

// EmployeeRequest is the full payload for creating or editing an employee.
type EmployeeRequest struct {
	Name       string           `json:"name" validate:"required"`
	Phone      string           `json:"phone" validate:"omitempty,max=32"`
	Email      string           `json:"email" validate:"omitempty,email"`
	Salary     *decimal.Decimal `json:"salary" validate:"required"`
	StartDate  string           `json:"start_date" validate:"required,datetime=2006-01-02"`
	UserCode   *string          `json:"user_code"`
	BranchCode *int64           `json:"branch_code"`
	IsActive   *bool            `json:"is_active"`
}

// EmployeeService handles staff workflows.
type EmployeeService struct {
	repo      employeeRepository
	branches  branchLookup
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEmployeeService creates an employee service.
func NewEmployeeService(repo employeeRepository, branches branchLookup, validate *validator.Validate, logger *zap.Logger) *EmployeeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmployeeService{repo: repo, branches: branches, validator: validate, logger: logger}
}

// List returns the employees of a root.
func (s *EmployeeService) List(ctx context.Context, rootCode int64) ([]models.Employee, error) {
	employees, err := s.repo.List(ctx, rootCode)
	if err != nil {
		return nil, internalError(err, "failed to list employees")
	}
	return employees, nil
}

// Get returns one employee.
func (s *EmployeeService) Get(ctx context.Context, rootCode, code int64) (*models.Employee, error) {
	employee, err := s.repo.FindByCode(ctx, rootCode, code)
	if err != nil {
		return nil, notFoundOr(err, "employee", "load")
	}
	return employee, nil
}

// Create adds an employee.
func (s *EmployeeService) Create(ctx context.Context, rootCode int64, req EmployeeRequest) (*models.Employee, error) {
	employee := &models.Employee{RootCode: rootCode, IsActive: true}
	if err := s.apply(ctx, rootCode, employee, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, employee); err != nil {
		return nil, internalError(err, "failed to create employee")
	}
	return employee, nil
}

// Update replaces an employee's editable fields.
func (s *EmployeeService) Update(ctx context.Context, rootCode, code int64, req EmployeeRequest) (*models.Employee, error) {
	employee, err := s.repo.FindByCode(ctx, rootCode, code)
	if err != nil {
		return nil, notFoundOr(err, "employee", "load")
	}
	if err := s.apply(ctx, rootCode, employee, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, employee); err != nil {
		return nil, notFoundOr(err, "employee", "update")
	}
	return employee, nil
}

// Delete deactivates an employee; history keeps referencing the row.
func (s *EmployeeService) Delete(ctx context.Context, rootCode, code int64) error {
	if err := s.repo.Deactivate(ctx, rootCode, code); err != nil {
		return notFoundOr(err, "employee", "delete")
	}
	return nil
}

func (s *EmployeeService) apply(ctx context.Context, rootCode int64, e *models.Employee, req EmployeeRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "invalid employee payload")
	}
	if req.Salary.IsNegative() {
		return appErrors.Clone(appErrors.ErrValidation, "salary must not be negative")
	}
	start, err := time.Parse(DateLayout, req.StartDate)
	if err != nil {
		return validationError(err, "invalid start date")
	}
	if req.BranchCode != nil && s.branches != nil {
		if _, err := s.branches.FindBranch(ctx, rootCode, *req.BranchCode); err != nil {
			return notFoundOr(err, "branch", "load")
		}
	}

	e.Name = strings.TrimSpace(req.Name)
	e.Phone = strings.TrimSpace(req.Phone)
	e.Email = strings.TrimSpace(req.Email)
	e.Salary = *req.Salary
	e.StartDate = start
	e.UserCode = req.UserCode
	e.BranchCode = req.BranchCode
	if req.IsActive != nil {
		e.IsActive = *req.IsActive
	}
	return nil
}
