package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Employee is a staff member of a root. UserCode and BranchCode are optional.
type Employee struct {
	EmployeeCode int64           `db:"employee_code" json:"employee_code"`
	RootCode     int64           `db:"root_code" json:"root_code"`
	Name         string          `db:"name" json:"name"`
	Phone        string          `db:"phone" json:"phone"`
	Email        string          `db:"email" json:"email"`
	Salary       decimal.Decimal `db:"salary" json:"salary"`
	StartDate    time.Time       `db:"start_date" json:"start_date"`
	UserCode     *string         `db:"user_code" json:"user_code,omitempty"`
	BranchCode   *int64          `db:"branch_code" json:"branch_code,omitempty"`
	IsActive     bool            `db:"is_active" json:"is_active"`
}
