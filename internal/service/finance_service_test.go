package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-center-api/internal/models"
	appErrors "github.com/noah-isme/edu-center-api/pkg/errors"
	"github.com/noah-isme/edu-center-api/pkg/i18n"
)

type fakeFinanceRepo struct {
	expenses map[int64]models.Expense
	income   map[int64]models.Income
	nextID   int64
}

func newFakeFinanceRepo() *fakeFinanceRepo {
	return &fakeFinanceRepo{expenses: make(map[int64]models.Expense), income: make(map[int64]models.Income)}
}

func (f *fakeFinanceRepo) ListExpenses(ctx context.Context, filter models.LedgerFilter) ([]models.Expense, error) {
	var out []models.Expense
	for code := int64(1); code <= f.nextID; code++ {
		if x, ok := f.expenses[code]; ok && x.RootCode == filter.RootCode {
			out = append(out, x)
		}
	}
	return out, nil
}

func (f *fakeFinanceRepo) FindExpense(ctx context.Context, rootCode, code int64) (*models.Expense, error) {
	if x, ok := f.expenses[code]; ok && x.RootCode == rootCode {
		return &x, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeFinanceRepo) CreateExpense(ctx context.Context, x *models.Expense) error {
	f.nextID++
	x.ExpensesCode = f.nextID
	f.expenses[x.ExpensesCode] = *x
	return nil
}

func (f *fakeFinanceRepo) UpdateExpense(ctx context.Context, x *models.Expense) error {
	f.expenses[x.ExpensesCode] = *x
	return nil
}

func (f *fakeFinanceRepo) DeleteExpense(ctx context.Context, rootCode, code int64) error {
	if _, ok := f.expenses[code]; !ok {
		return sql.ErrNoRows
	}
	delete(f.expenses, code)
	return nil
}

func (f *fakeFinanceRepo) ListIncome(ctx context.Context, filter models.LedgerFilter) ([]models.Income, error) {
	var out []models.Income
	for id := int64(1); id <= f.nextID; id++ {
		if in, ok := f.income[id]; ok && in.RootCode == filter.RootCode {
			out = append(out, in)
		}
	}
	return out, nil
}

func (f *fakeFinanceRepo) FindIncome(ctx context.Context, rootCode, id int64) (*models.Income, error) {
	if in, ok := f.income[id]; ok && in.RootCode == rootCode {
		return &in, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeFinanceRepo) CreateIncome(ctx context.Context, in *models.Income) error {
	f.nextID++
	in.ID = f.nextID
	in.InsertTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	f.income[in.ID] = *in
	return nil
}

func (f *fakeFinanceRepo) UpdateIncome(ctx context.Context, in *models.Income) error {
	f.income[in.ID] = *in
	return nil
}

func (f *fakeFinanceRepo) DeleteIncome(ctx context.Context, rootCode, id int64) error {
	if _, ok := f.income[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.income, id)
	return nil
}

type stubEmployees map[int64]models.Employee

func (s stubEmployees) FindByCode(ctx context.Context, rootCode, code int64) (*models.Employee, error) {
	if e, ok := s[code]; ok && e.RootCode == rootCode {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func amount(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func newFinanceService(repo *fakeFinanceRepo) *FinanceService {
	employees := stubEmployees{3: {EmployeeCode: 3, RootCode: 1, Name: "Mona"}}
	service := NewFinanceService(repo, employees, nil, zap.NewNop())
	service.now = func() time.Time { return time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC) }
	return service
}

func TestFinanceServiceCreateExpense(t *testing.T) {
	repo := newFakeFinanceRepo()
	service := newFinanceService(repo)

	expense, err := service.CreateExpense(context.Background(), 1, ExpenseRequest{Reason: " Rent ", Amount: amount("1500.00"), EmployeeCode: 3})
	require.NoError(t, err)
	assert.Equal(t, "Rent", expense.Reason)
	assert.Equal(t, "Mona", expense.EmployeeName)
	assert.Equal(t, 2024, expense.ExpenseTime.Year())

	_, err = service.CreateExpense(context.Background(), 1, ExpenseRequest{Reason: "Rent", Amount: amount("-1"), EmployeeCode: 3})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = service.CreateExpense(context.Background(), 1, ExpenseRequest{Reason: "Rent", Amount: amount("1"), EmployeeCode: 99})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestFinanceServiceListExpensesFormatsForCulture(t *testing.T) {
	repo := newFakeFinanceRepo()
	service := newFinanceService(repo)
	_, err := service.CreateExpense(context.Background(), 1, ExpenseRequest{Reason: "Rent", Amount: amount("1500"), EmployeeCode: 3})
	require.NoError(t, err)

	views, err := service.ListExpenses(context.Background(), models.LedgerFilter{RootCode: 1}, i18n.NewFormatter("en-US", "USD"))
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Contains(t, views[0].AmountDisplay, "1,500.00")
	assert.NotEmpty(t, views[0].TimeDisplay)
}

func TestFinanceServiceIncomeLifecycle(t *testing.T) {
	repo := newFakeFinanceRepo()
	service := newFinanceService(repo)
	session := models.Session{UserID: "user-9", Role: models.RoleEmployee, RootCode: 1}

	income, err := service.CreateIncome(context.Background(), session, 1, IncomeRequest{Amount: amount("300"), PaymentDate: "2024-03-02", Description: "fees"})
	require.NoError(t, err)
	assert.Equal(t, "user-9", income.InsertUserCode)
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), income.PaymentDate)

	_, err = service.CreateIncome(context.Background(), session, 1, IncomeRequest{Amount: amount("300"), PaymentDate: "02/03/2024"})
	require.Error(t, err)

	updated, err := service.UpdateIncome(context.Background(), 1, income.ID, IncomeRequest{Amount: amount("350"), PaymentDate: "2024-03-03"})
	require.NoError(t, err)
	assert.Equal(t, "350", updated.Amount.String())
	assert.Equal(t, "user-9", updated.InsertUserCode)

	require.NoError(t, service.DeleteIncome(context.Background(), 1, income.ID))
	_, err = service.GetIncome(context.Background(), 1, income.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
