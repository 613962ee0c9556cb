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
	"github.com/noah-isme/edu-center-api/pkg/i18n"
)

type financeRepository interface {
	ListExpenses(ctx context.Context, filter models.LedgerFilter) ([]models.Expense, error)
	FindExpense(ctx context.Context, rootCode, code int64) (*models.Expense, error)
	CreateExpense(ctx context.Context, x *models.Expense) error
	UpdateExpense(ctx context.Context, x *models.Expense) error
	DeleteExpense(ctx context.Context, rootCode, code int64) error
	ListIncome(ctx context.Context, filter models.LedgerFilter) ([]models.Income, error)
	FindIncome(ctx context.Context, rootCode, id int64) (*models.Income, error)
	CreateIncome(ctx context.Context, in *models.Income) error
	UpdateIncome(ctx context.Context, in *models.Income) error
	DeleteIncome(ctx context.Context, rootCode, id int64) error
}

type employeeLookup interface {
	FindByCode(ctx context.Context, rootCode, code int64) (*models.Employee, error)
}

// ExpenseRequest is the full expense payload.
type ExpenseRequest struct {
	Reason       string           `json:"reason" validate:"required"`
	Amount       *decimal.Decimal `json:"amount" validate:"required"`
	EmployeeCode int64            `json:"employee_code" validate:"required,gt=0"`
	ExpenseTime  *time.Time       `json:"expense_time"`
}

// IncomeRequest is the full income payload.
type IncomeRequest struct {
	Amount      *decimal.Decimal `json:"amount" validate:"required"`
	PaymentDate string           `json:"payment_date" validate:"required,datetime=2006-01-02"`
	Description string           `json:"description" validate:"max=500"`
}

// ExpenseView is an expense with culture formatted display strings.
type ExpenseView struct {
	models.Expense
	AmountDisplay string `json:"amount_display"`
	TimeDisplay   string `json:"expense_time_display"`
}

// IncomeView is an income row with culture formatted display strings.
type IncomeView struct {
	models.Income
	AmountDisplay string `json:"amount_display"`
	DateDisplay   string `json:"payment_date_display"`
}

// FinanceService handles expense and income workflows.
type FinanceService struct {
	repo      financeRepository
	employees employeeLookup
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewFinanceService creates a finance service.
func NewFinanceService(repo financeRepository, employees employeeLookup, validate *validator.Validate, logger *zap.Logger) *FinanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FinanceService{repo: repo, employees: employees, validator: validate, logger: logger, now: time.Now}
}

// ListExpenses returns expenses with display strings for the formatter's culture.
func (s *FinanceService) ListExpenses(ctx context.Context, filter models.LedgerFilter, f *i18n.Formatter) ([]ExpenseView, error) {
	expenses, err := s.repo.ListExpenses(ctx, filter)
	if err != nil {
		return nil, internalError(err, "failed to list expenses")
	}
	f = formatterOrDefault(f)
	views := make([]ExpenseView, 0, len(expenses))
	for _, x := range expenses {
		views = append(views, ExpenseView{Expense: x, AmountDisplay: f.FormatMoney(x.Amount), TimeDisplay: f.FormatDate(x.ExpenseTime)})
	}
	return views, nil
}

// GetExpense returns one expense.
func (s *FinanceService) GetExpense(ctx context.Context, rootCode, code int64) (*models.Expense, error) {
	expense, err := s.repo.FindExpense(ctx, rootCode, code)
	if err != nil {
		return nil, notFoundOr(err, "expense", "load")
	}
	return expense, nil
}

// CreateExpense records an expense against an employee of the root.
func (s *FinanceService) CreateExpense(ctx context.Context, rootCode int64, req ExpenseRequest) (*models.Expense, error) {
	expense := &models.Expense{RootCode: rootCode}
	if err := s.applyExpense(ctx, rootCode, expense, req); err != nil {
		return nil, err
	}
	if err := s.repo.CreateExpense(ctx, expense); err != nil {
		return nil, internalError(err, "failed to create expense")
	}
	return expense, nil
}

// UpdateExpense replaces an expense's editable fields.
func (s *FinanceService) UpdateExpense(ctx context.Context, rootCode, code int64, req ExpenseRequest) (*models.Expense, error) {
	expense, err := s.repo.FindExpense(ctx, rootCode, code)
	if err != nil {
		return nil, notFoundOr(err, "expense", "load")
	}
	if err := s.applyExpense(ctx, rootCode, expense, req); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateExpense(ctx, expense); err != nil {
		return nil, notFoundOr(err, "expense", "update")
	}
	return expense, nil
}

// DeleteExpense removes an expense.
func (s *FinanceService) DeleteExpense(ctx context.Context, rootCode, code int64) error {
	if err := s.repo.DeleteExpense(ctx, rootCode, code); err != nil {
		return notFoundOr(err, "expense", "delete")
	}
	return nil
}

// ListIncome returns income rows with display strings for the formatter's culture.
func (s *FinanceService) ListIncome(ctx context.Context, filter models.LedgerFilter, f *i18n.Formatter) ([]IncomeView, error) {
	income, err := s.repo.ListIncome(ctx, filter)
	if err != nil {
		return nil, internalError(err, "failed to list income")
	}
	f = formatterOrDefault(f)
	views := make([]IncomeView, 0, len(income))
	for _, in := range income {
		views = append(views, IncomeView{Income: in, AmountDisplay: f.FormatMoney(in.Amount), DateDisplay: f.FormatDate(in.PaymentDate)})
	}
	return views, nil
}

// GetIncome returns one income row.
func (s *FinanceService) GetIncome(ctx context.Context, rootCode, id int64) (*models.Income, error) {
	income, err := s.repo.FindIncome(ctx, rootCode, id)
	if err != nil {
		return nil, notFoundOr(err, "income", "load")
	}
	return income, nil
}

// CreateIncome appends an income row attributed to the session user.
func (s *FinanceService) CreateIncome(ctx context.Context, session models.Session, rootCode int64, req IncomeRequest) (*models.Income, error) {
	income := &models.Income{RootCode: rootCode, InsertUserCode: session.UserID}
	if err := s.applyIncome(income, req); err != nil {
		return nil, err
	}
	if err := s.repo.CreateIncome(ctx, income); err != nil {
		return nil, internalError(err, "failed to create income")
	}
	s.logger.Info("income recorded", zap.Int64("root_code", rootCode), zap.Int64("id", income.ID), zap.String("amount", income.Amount.String()))
	return income, nil
}

// UpdateIncome replaces an income row's editable fields.
func (s *FinanceService) UpdateIncome(ctx context.Context, rootCode, id int64, req IncomeRequest) (*models.Income, error) {
	income, err := s.repo.FindIncome(ctx, rootCode, id)
	if err != nil {
		return nil, notFoundOr(err, "income", "load")
	}
	if err := s.applyIncome(income, req); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateIncome(ctx, income); err != nil {
		return nil, notFoundOr(err, "income", "update")
	}
	return income, nil
}

// DeleteIncome removes an income row.
func (s *FinanceService) DeleteIncome(ctx context.Context, rootCode, id int64) error {
	if err := s.repo.DeleteIncome(ctx, rootCode, id); err != nil {
		return notFoundOr(err, "income", "delete")
	}
	return nil
}

func (s *FinanceService) applyExpense(ctx context.Context, rootCode int64, x *models.Expense, req ExpenseRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "invalid expense payload")
	}
	if !req.Amount.IsPositive() {
		return appErrors.Clone(appErrors.ErrValidation, "amount must be positive")
	}
	employee, err := s.employees.FindByCode(ctx, rootCode, req.EmployeeCode)
	if err != nil {
		return notFoundOr(err, "employee", "load")
	}
	x.Reason = strings.TrimSpace(req.Reason)
	x.Amount = *req.Amount
	x.EmployeeCode = employee.EmployeeCode
	x.EmployeeName = employee.Name
	if req.ExpenseTime != nil {
		x.ExpenseTime = req.ExpenseTime.UTC()
	} else if x.ExpenseTime.IsZero() {
		x.ExpenseTime = s.now().UTC()
	}
	return nil
}

func (s *FinanceService) applyIncome(in *models.Income, req IncomeRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "invalid income payload")
	}
	if !req.Amount.IsPositive() {
		return appErrors.Clone(appErrors.ErrValidation, "amount must be positive")
	}
	paid, err := time.Parse(DateLayout, req.PaymentDate)
	if err != nil {
		return validationError(err, "invalid payment date")
	}
	in.Amount = *req.Amount
	in.PaymentDate = paid
	in.Description = strings.TrimSpace(req.Description)
	return nil
}

func formatterOrDefault(f *i18n.Formatter) *i18n.Formatter {
	if f == nil {
		return i18n.NewFormatter("en-US", "EGP")
	}
	return f
}
