package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-center-api/internal/models"
)

const employeeColumns = "employee_code, root_code, name, phone, email, salary, start_date, user_code, branch_code, is_active"

// EmployeeRepository handles persistence for staff records.
type EmployeeRepository struct {
	db *sqlx.DB
}

// NewEmployeeRepository creates a new repository instance.
func NewEmployeeRepository(db *sqlx.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// List returns the employees of a root ordered by code.
func (r *EmployeeRepository) List(ctx context.Context, rootCode int64) ([]models.Employee, error) {
	query := "SELECT " + employeeColumns + " FROM employees WHERE root_code = $1 ORDER BY employee_code ASC"
	var employees []models.Employee
	if err := r.db.SelectContext(ctx, &employees, query, rootCode); err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	return employees, nil
}

// FindByCode returns an employee scoped to its root.
func (r *EmployeeRepository) FindByCode(ctx context.Context, rootCode, code int64) (*models.Employee, error) {
	query := "SELECT " + employeeColumns + " FROM employees WHERE root_code = $1 AND employee_code = $2"
	var employee models.Employee
	if err := r.db.GetContext(ctx, &employee, query, rootCode, code); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find employee: %w", err)
	}
	return &employee, nil
}

// Create inserts an employee and assigns its code.
func (r *EmployeeRepository) Create(ctx context.Context, e *models.Employee) error {
	const query = `INSERT INTO employees (root_code, name, phone, email, salary, start_date, user_code, branch_code, is_active) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING employee_code`
	if err := r.db.GetContext(ctx, &e.EmployeeCode, query, e.RootCode, e.Name, e.Phone, e.Email, e.Salary, e.StartDate, e.UserCode, e.BranchCode, e.IsActive); err != nil {
		return fmt.Errorf("create employee: %w", err)
	}
	return nil
}

// Update modifies an employee.
func (r *EmployeeRepository) Update(ctx context.Context, e *models.Employee) error {
	const query = `UPDATE employees SET name = :name, phone = :phone, email = :email, salary = :salary, start_date = :start_date, user_code = :user_code, branch_code = :branch_code, is_active = :is_active WHERE employee_code = :employee_code AND root_code = :root_code`
	res, err := r.db.NamedExecContext(ctx, query, e)
	if err != nil {
		return fmt.Errorf("update employee: %w", err)
	}
	return requireAffected(res)
}

// Deactivate soft deletes an employee.
func (r *EmployeeRepository) Deactivate(ctx context.Context, rootCode, code int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE employees SET is_active = FALSE WHERE root_code = $1 AND employee_code = $2`, rootCode, code)
	if err != nil {
		return fmt.Errorf("deactivate employee: %w", err)
	}
	return requireAffected(res)
}
