package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-center-api/internal/models"
)

func TestEmployeeRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEmployeeRepository(db)

	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO employees").
		WithArgs(int64(1), "Mona", "0100", "mona@example.com", sqlmock.AnyArg(), start, nil, nil, true).
		WillReturnRows(sqlmock.NewRows([]string{"employee_code"}).AddRow(int64(3)))

	employee := &models.Employee{RootCode: 1, Name: "Mona", Phone: "0100", Email: "mona@example.com", Salary: decimal.NewFromInt(4000), StartDate: start, IsActive: true}
	require.NoError(t, repo.Create(context.Background(), employee))
	assert.Equal(t, int64(3), employee.EmployeeCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeRepositoryDeactivate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEmployeeRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE employees SET is_active = FALSE WHERE root_code = $1 AND employee_code = $2")).
		WithArgs(int64(1), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Deactivate(context.Background(), 1, 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}
