package models

import "github.com/shopspring/decimal"

// PlanSubject is one builder row: a subject and its session count.
type PlanSubject struct {
	SubjectCode int64  `db:"subject_code" json:"subject_code"`
	SubjectName string `db:"subject_name" json:"subject_name,omitempty"`
	Count       int    `db:"count" json:"count"`
}

// SubscriptionPlan bundles subject sessions for a year. TotalCount always
// equals the sum of Subjects[].Count.
type SubscriptionPlan struct {
	SubPlanCode  int64           `db:"sub_plan_code" json:"sub_plan_code"`
	RootCode     int64           `db:"root_code" json:"root_code"`
	YearCode     int64           `db:"year_code" json:"year_code"`
	Name         string          `db:"name" json:"name"`
	Price        decimal.Decimal `db:"price" json:"price"`
	Description  string          `db:"description" json:"description"`
	ExpiryMonths int             `db:"expiry_months" json:"expiry_months"`
	TotalCount   int             `db:"total_count" json:"total_count"`
	Subjects     []PlanSubject   `db:"-" json:"subjects"`
}

// SumCounts returns the derived total session count.
func SumCounts(rows []PlanSubject) int {
	total := 0
	for _, r := range rows {
		total += r.Count
	}
	return total
}
