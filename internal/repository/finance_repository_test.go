package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-center-api/internal/models"
)

func TestFinanceRepositoryListExpensesWithRange(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFinanceRepository(db)

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"expenses_code", "root_code", "reason", "amount", "employee_code", "employee_name", "expense_time"}).
		AddRow(int64(1), int64(7), "Markers", "35.50", int64(2), "Mona", from)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE x.root_code = $1 AND x.expense_time >= $2 ORDER BY x.expenses_code ASC")).
		WithArgs(int64(7), from).
		WillReturnRows(rows)

	list, err := repo.ListExpenses(context.Background(), models.LedgerFilter{RootCode: 7, From: &from})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Mona", list[0].EmployeeName)
	assert.True(t, list[0].Amount.Equal(decimal.RequireFromString("35.5")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFinanceRepositoryCreateIncomeReturnsKeys(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFinanceRepository(db)

	inserted := time.Now()
	mock.ExpectQuery("INSERT INTO incomes").
		WithArgs(int64(7), sqlmock.AnyArg(), sqlmock.AnyArg(), "June fees", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "insert_time"}).AddRow(int64(41), inserted))

	income := &models.Income{RootCode: 7, Amount: decimal.NewFromInt(500), PaymentDate: inserted, Description: "June fees", InsertUserCode: "user-1"}
	require.NoError(t, repo.CreateIncome(context.Background(), income))
	assert.Equal(t, int64(41), income.ID)
	assert.Equal(t, inserted, income.InsertTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFinanceRepositoryDeleteMissingExpense(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFinanceRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM expenses WHERE root_code = $1 AND expenses_code = $2")).
		WithArgs(int64(7), int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteExpense(context.Background(), 7, 99)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
