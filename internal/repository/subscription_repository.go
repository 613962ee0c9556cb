package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-center-api/internal/models"
)

const planColumns = "sub_plan_code, root_code, year_code, name, price, description, expiry_months, total_count"

// SubscriptionRepository handles persistence for subscription plans and their subject rows.
type SubscriptionRepository struct {
	db *sqlx.DB
}

// NewSubscriptionRepository creates a new repository instance.
func NewSubscriptionRepository(db *sqlx.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

type planSubjectRow struct {
	SubPlanCode int64 `db:"sub_plan_code"`
	models.PlanSubject
}

// List returns the plans of a root with their subject rows.
func (r *SubscriptionRepository) List(ctx context.Context, rootCode int64) ([]models.SubscriptionPlan, error) {
	query := "SELECT " + planColumns + " FROM subscription_plans WHERE root_code = $1 ORDER BY sub_plan_code ASC"
	var plans []models.SubscriptionPlan
	if err := r.db.SelectContext(ctx, &plans, query, rootCode); err != nil {
		return nil, fmt.Errorf("list subscription plans: %w", err)
	}
	if len(plans) == 0 {
		return plans, nil
	}

	const rowsQuery = `SELECT ps.sub_plan_code, ps.subject_code, s.subject_name, ps.count
FROM subscription_plan_subjects ps
JOIN subscription_plans p ON p.sub_plan_code = ps.sub_plan_code
JOIN subjects s ON s.subject_code = ps.subject_code
WHERE p.root_code = $1 ORDER BY ps.sub_plan_code ASC, ps.subject_code ASC`
	var rows []planSubjectRow
	if err := r.db.SelectContext(ctx, &rows, rowsQuery, rootCode); err != nil {
		return nil, fmt.Errorf("list subscription plan subjects: %w", err)
	}

	index := make(map[int64]int, len(plans))
	for i := range plans {
		plans[i].Subjects = []models.PlanSubject{}
		index[plans[i].SubPlanCode] = i
	}
	for _, row := range rows {
		if i, ok := index[row.SubPlanCode]; ok {
			plans[i].Subjects = append(plans[i].Subjects, row.PlanSubject)
		}
	}
	return plans, nil
}

// FindByCode returns a plan with its subject rows.
func (r *SubscriptionRepository) FindByCode(ctx context.Context, rootCode, code int64) (*models.SubscriptionPlan, error) {
	query := "SELECT " + planColumns + " FROM subscription_plans WHERE root_code = $1 AND sub_plan_code = $2"
	var plan models.SubscriptionPlan
	if err := r.db.GetContext(ctx, &plan, query, rootCode, code); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find subscription plan: %w", err)
	}

	const rowsQuery = `SELECT ps.subject_code, s.subject_name, ps.count
FROM subscription_plan_subjects ps JOIN subjects s ON s.subject_code = ps.subject_code
WHERE ps.sub_plan_code = $1 ORDER BY ps.subject_code ASC`
	plan.Subjects = []models.PlanSubject{}
	if err := r.db.SelectContext(ctx, &plan.Subjects, rowsQuery, code); err != nil {
		return nil, fmt.Errorf("find subscription plan subjects: %w", err)
	}
	return &plan, nil
}

// Create inserts a plan and its subject rows in one transaction.
func (r *SubscriptionRepository) Create(ctx context.Context, plan *models.SubscriptionPlan) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create plan: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO subscription_plans (root_code, year_code, name, price, description, expiry_months, total_count) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING sub_plan_code`
	if err = tx.GetContext(ctx, &plan.SubPlanCode, query, plan.RootCode, plan.YearCode, plan.Name, plan.Price, plan.Description, plan.ExpiryMonths, plan.TotalCount); err != nil {
		return fmt.Errorf("create plan: %w", err)
	}
	if err = insertPlanSubjects(ctx, tx, plan.SubPlanCode, plan.Subjects); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create plan: %w", err)
	}
	return nil
}

// Update replaces a plan and its subject rows in one transaction.
func (r *SubscriptionRepository) Update(ctx context.Context, plan *models.SubscriptionPlan) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update plan: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `UPDATE subscription_plans SET year_code = $3, name = $4, price = $5, description = $6, expiry_months = $7, total_count = $8 WHERE root_code = $1 AND sub_plan_code = $2`
	var res sql.Result
	res, err = tx.ExecContext(ctx, query, plan.RootCode, plan.SubPlanCode, plan.YearCode, plan.Name, plan.Price, plan.Description, plan.ExpiryMonths, plan.TotalCount)
	if err != nil {
		return fmt.Errorf("update plan: %w", err)
	}
	if err = requireAffected(res); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM subscription_plan_subjects WHERE sub_plan_code = $1`, plan.SubPlanCode); err != nil {
		return fmt.Errorf("clear plan subjects: %w", err)
	}
	if err = insertPlanSubjects(ctx, tx, plan.SubPlanCode, plan.Subjects); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit update plan: %w", err)
	}
	return nil
}

// Delete removes a plan; subject rows cascade.
func (r *SubscriptionRepository) Delete(ctx context.Context, rootCode, code int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM subscription_plans WHERE root_code = $1 AND sub_plan_code = $2`, rootCode, code)
	if err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	return requireAffected(res)
}

func insertPlanSubjects(ctx context.Context, tx *sqlx.Tx, planCode int64, rows []models.PlanSubject) error {
	const query = `INSERT INTO subscription_plan_subjects (sub_plan_code, subject_code, count) VALUES ($1, $2, $3)`
	for _, row := range rows {
		if _, err := tx.ExecContext(ctx, query, planCode, row.SubjectCode, row.Count); err != nil {
			return fmt.Errorf("insert plan subject %d: %w", row.SubjectCode, err)
		}
	}
	return nil
}
