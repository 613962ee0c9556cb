package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is a spending record. EmployeeName is filled on reads only.
type Expense struct {
	ExpensesCode int64           `db:"expenses_code" json:"expenses_code"`
	RootCode     int64           `db:"root_code" json:"root_code"`
	Reason       string          `db:"reason" json:"reason"`
	Amount       decimal.Decimal `db:"amount" json:"amount"`
	EmployeeCode int64           `db:"employee_code" json:"employee_code"`
	EmployeeName string          `db:"employee_name" json:"employee_name"`
	ExpenseTime  time.Time       `db:"expense_time" json:"expense_time"`
}

// Income is an append-style ledger row.
type Income struct {
	ID             int64           `db:"id" json:"id"`
	RootCode       int64           `db:"root_code" json:"root_code"`
	Amount         decimal.Decimal `db:"amount" json:"amount"`
	PaymentDate    time.Time       `db:"payment_date" json:"payment_date"`
	Description    string          `db:"description" json:"description"`
	InsertTime     time.Time       `db:"insert_time" json:"insert_time"`
	InsertUserCode string          `db:"insert_user_code" json:"insert_user_code"`
}

// LedgerFilter narrows expense and income listings.
type LedgerFilter struct {
	RootCode int64
	From     *time.Time
	To       *time.Time
}
