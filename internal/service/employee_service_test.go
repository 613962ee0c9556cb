package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-center-api/internal/models"
	appErrors "github.com/noah-isme/edu-center-api/pkg/errors"
)

type fakeEmployeeRepo struct {
	items  map[int64]models.Employee
	nextID int64
}

func (f *fakeEmployeeRepo) List(ctx context.Context, rootCode int64) ([]models.Employee, error) {
	var out []models.Employee
	for _, e := range f.items {
		if e.RootCode == rootCode {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEmployeeRepo) FindByCode(ctx context.Context, rootCode, code int64) (*models.Employee, error) {
	if e, ok := f.items[code]; ok && e.RootCode == rootCode {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeEmployeeRepo) Create(ctx context.Context, e *models.Employee) error {
	f.nextID++
	e.EmployeeCode = f.nextID
	f.items[e.EmployeeCode] = *e
	return nil
}

func (f *fakeEmployeeRepo) Update(ctx context.Context, e *models.Employee) error {
	f.items[e.EmployeeCode] = *e
	return nil
}

func (f *fakeEmployeeRepo) Deactivate(ctx context.Context, rootCode, code int64) error {
	e, ok := f.items[code]
	if !ok || e.RootCode != rootCode {
		return sql.ErrNoRows
	}
	e.IsActive = false
	f.items[code] = e
	return nil
}

func TestEmployeeServiceCreate(t *testing.T) {
	repo := &fakeEmployeeRepo{items: map[int64]models.Employee{}}
	service := NewEmployeeService(repo, newFakeBranchRepo(), nil, zap.NewNop())
	branch := int64(1)

	employee, err := service.Create(context.Background(), 1, EmployeeRequest{
		Name: "Mona", Salary: amount("4000"), StartDate: "2023-09-01", BranchCode: &branch,
	})
	require.NoError(t, err)
	assert.True(t, employee.IsActive)
	assert.Equal(t, 2023, employee.StartDate.Year())
	assert.Equal(t, &branch, employee.BranchCode)
}

func TestEmployeeServiceCreateValidation(t *testing.T) {
	repo := &fakeEmployeeRepo{items: map[int64]models.Employee{}}
	service := NewEmployeeService(repo, newFakeBranchRepo(), nil, zap.NewNop())
	missing := int64(9)

	cases := []EmployeeRequest{
		{Salary: amount("1"), StartDate: "2023-09-01"},
		{Name: "Mona", StartDate: "2023-09-01"},
		{Name: "Mona", Salary: amount("-5"), StartDate: "2023-09-01"},
		{Name: "Mona", Salary: amount("5"), StartDate: "yesterday"},
		{Name: "Mona", Salary: amount("5"), StartDate: "2023-09-01", Email: "not-an-email"},
	}
	for _, req := range cases {
		_, err := service.Create(context.Background(), 1, req)
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}

	_, err := service.Create(context.Background(), 1, EmployeeRequest{Name: "Mona", Salary: amount("5"), StartDate: "2023-09-01", BranchCode: &missing})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.items)
}

func TestEmployeeServiceDeleteDeactivates(t *testing.T) {
	repo := &fakeEmployeeRepo{items: map[int64]models.Employee{4: {EmployeeCode: 4, RootCode: 1, Name: "Omar", IsActive: true}}}
	service := NewEmployeeService(repo, nil, nil, zap.NewNop())

	require.NoError(t, service.Delete(context.Background(), 1, 4))
	assert.False(t, repo.items[4].IsActive)

	err := service.Delete(context.Background(), 2, 4)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
