package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-center-api/internal/models"
)

// FinanceRepository handles persistence for expenses and income.
type FinanceRepository struct {
	db *sqlx.DB
}

// NewFinanceRepository creates a new repository instance.
func NewFinanceRepository(db *sqlx.DB) *FinanceRepository {
	return &FinanceRepository{db: db}
}

func ledgerConditions(column string, filter models.LedgerFilter, conditions []string, args []interface{}) ([]string, []interface{}) {
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("%s >= $%d", column, len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("%s < $%d", column, len(args)+1))
		args = append(args, *filter.To)
	}
	return conditions, args
}

// ListExpenses returns expenses joined with the spending employee's name.
func (r *FinanceRepository) ListExpenses(ctx context.Context, filter models.LedgerFilter) ([]models.Expense, error) {
	conditions := []string{"x.root_code = $1"}
	args := []interface{}{filter.RootCode}
	conditions, args = ledgerConditions("x.expense_time", filter, conditions, args)

	query := `SELECT x.expenses_code, x.root_code, x.reason, x.amount, x.employee_code, COALESCE(e.name, '') AS employee_name, x.expense_time
FROM expenses x LEFT JOIN employees e ON e.employee_code = x.employee_code
WHERE ` + strings.Join(conditions, " AND ") + ` ORDER BY x.expenses_code ASC`
	var expenses []models.Expense
	if err := r.db.SelectContext(ctx, &expenses, query, args...); err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

// FindExpense returns one expense scoped to its root.
func (r *FinanceRepository) FindExpense(ctx context.Context, rootCode, code int64) (*models.Expense, error) {
	const query = `SELECT x.expenses_code, x.root_code, x.reason, x.amount, x.employee_code, COALESCE(e.name, '') AS employee_name, x.expense_time
FROM expenses x LEFT JOIN employees e ON e.employee_code = x.employee_code
WHERE x.root_code = $1 AND x.expenses_code = $2`
	var expense models.Expense
	if err := r.db.GetContext(ctx, &expense, query, rootCode, code); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find expense: %w", err)
	}
	return &expense, nil
}

// CreateExpense inserts an expense and assigns its code.
func (r *FinanceRepository) CreateExpense(ctx context.Context, x *models.Expense) error {
	const query = `INSERT INTO expenses (root_code, reason, amount, employee_code, expense_time) VALUES ($1, $2, $3, $4, $5) RETURNING expenses_code`
	if err := r.db.GetContext(ctx, &x.ExpensesCode, query, x.RootCode, x.Reason, x.Amount, x.EmployeeCode, x.ExpenseTime); err != nil {
		return fmt.Errorf("create expense: %w", err)
	}
	return nil
}

// UpdateExpense modifies an expense.
func (r *FinanceRepository) UpdateExpense(ctx context.Context, x *models.Expense) error {
	const query = `UPDATE expenses SET reason = :reason, amount = :amount, employee_code = :employee_code, expense_time = :expense_time WHERE expenses_code = :expenses_code AND root_code = :root_code`
	res, err := r.db.NamedExecContext(ctx, query, x)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return requireAffected(res)
}

// DeleteExpense removes an expense.
func (r *FinanceRepository) DeleteExpense(ctx context.Context, rootCode, code int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE root_code = $1 AND expenses_code = $2`, rootCode, code)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return requireAffected(res)
}

// ListIncome returns income rows of a root ordered by id.
func (r *FinanceRepository) ListIncome(ctx context.Context, filter models.LedgerFilter) ([]models.Income, error) {
	conditions := []string{"root_code = $1"}
	args := []interface{}{filter.RootCode}
	conditions, args = ledgerConditions("payment_date", filter, conditions, args)

	query := "SELECT id, root_code, amount, payment_date, description, insert_time, insert_user_code FROM incomes WHERE " +
		strings.Join(conditions, " AND ") + " ORDER BY id ASC"
	var income []models.Income
	if err := r.db.SelectContext(ctx, &income, query, args...); err != nil {
		return nil, fmt.Errorf("list income: %w", err)
	}
	return income, nil
}

// FindIncome returns one income row scoped to its root.
func (r *FinanceRepository) FindIncome(ctx context.Context, rootCode, id int64) (*models.Income, error) {
	const query = `SELECT id, root_code, amount, payment_date, description, insert_time, insert_user_code FROM incomes WHERE root_code = $1 AND id = $2`
	var income models.Income
	if err := r.db.GetContext(ctx, &income, query, rootCode, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find income: %w", err)
	}
	return &income, nil
}

// CreateIncome appends an income row; insert_time is assigned by the database.
func (r *FinanceRepository) CreateIncome(ctx context.Context, in *models.Income) error {
	const query = `INSERT INTO incomes (root_code, amount, payment_date, description, insert_user_code) VALUES ($1, $2, $3, $4, $5) RETURNING id, insert_time`
	row := r.db.QueryRowxContext(ctx, query, in.RootCode, in.Amount, in.PaymentDate, in.Description, in.InsertUserCode)
	if err := row.Scan(&in.ID, &in.InsertTime); err != nil {
		return fmt.Errorf("create income: %w", err)
	}
	return nil
}

// UpdateIncome modifies an income row.
func (r *FinanceRepository) UpdateIncome(ctx context.Context, in *models.Income) error {
	const query = `UPDATE incomes SET amount = :amount, payment_date = :payment_date, description = :description WHERE id = :id AND root_code = :root_code`
	res, err := r.db.NamedExecContext(ctx, query, in)
	if err != nil {
		return fmt.Errorf("update income: %w", err)
	}
	return requireAffected(res)
}

// DeleteIncome removes an income row.
func (r *FinanceRepository) DeleteIncome(ctx context.Context, rootCode, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM incomes WHERE root_code = $1 AND id = $2`, rootCode, id)
	if err != nil {
		return fmt.Errorf("delete income: %w", err)
	}
	return requireAffected(res)
}
