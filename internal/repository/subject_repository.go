package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-center-api/internal/models"
)

const subjectSelect = `SELECT s.subject_code, s.subject_name, s.is_primary, s.year_code, s.root_code, r.name AS root_name, y.year_name
FROM subjects s
JOIN roots r ON r.root_code = s.root_code
JOIN years y ON y.year_code = s.year_code`

// SubjectRepository handles persistence for years and subjects.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository creates a new repository instance.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// ListYears returns the academic years of a root.
func (r *SubjectRepository) ListYears(ctx context.Context, rootCode int64) ([]models.Year, error) {
	const query = `SELECT year_code, root_code, year_name FROM years WHERE root_code = $1 ORDER BY year_code ASC`
	var years []models.Year
	if err := r.db.SelectContext(ctx, &years, query, rootCode); err != nil {
		return nil, fmt.Errorf("list years: %w", err)
	}
	return years, nil
}

// FindYear returns a year scoped to its root.
func (r *SubjectRepository) FindYear(ctx context.Context, rootCode, yearCode int64) (*models.Year, error) {
	const query = `SELECT year_code, root_code, year_name FROM years WHERE root_code = $1 AND year_code = $2`
	var year models.Year
	if err := r.db.GetContext(ctx, &year, query, rootCode, yearCode); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find year: %w", err)
	}
	return &year, nil
}

// List returns subjects matching filters ordered by code.
func (r *SubjectRepository) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, error) {
	conditions := []string{"s.root_code = $1"}
	args := []interface{}{filter.RootCode}
	if filter.YearCode > 0 {
		conditions = append(conditions, fmt.Sprintf("s.year_code = $%d", len(args)+1))
		args = append(args, filter.YearCode)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(s.subject_name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	query := subjectSelect + " WHERE " + strings.Join(conditions, " AND ") + " ORDER BY s.subject_code ASC"
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, args...); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// FindByCode returns a subject scoped to its root.
func (r *SubjectRepository) FindByCode(ctx context.Context, rootCode, code int64) (*models.Subject, error) {
	query := subjectSelect + " WHERE s.root_code = $1 AND s.subject_code = $2"
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, rootCode, code); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find subject: %w", err)
	}
	return &subject, nil
}

// ExistsByName checks uniqueness of a subject name within a year.
func (r *SubjectRepository) ExistsByName(ctx context.Context, yearCode int64, name string, excludeCode int64) (bool, error) {
	query := "SELECT 1 FROM subjects WHERE year_code = $1 AND LOWER(subject_name) = LOWER($2)"
	args := []interface{}{yearCode, name}
	if excludeCode > 0 {
		query += " AND subject_code <> $3"
		args = append(args, excludeCode)
	}

	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check subject name: %w", err)
	}
	return true, nil
}

// Create inserts a subject and assigns its code.
func (r *SubjectRepository) Create(ctx context.Context, s *models.Subject) error {
	const query = `INSERT INTO subjects (root_code, year_code, subject_name, is_primary) VALUES ($1, $2, $3, $4) RETURNING subject_code`
	if err := r.db.GetContext(ctx, &s.SubjectCode, query, s.RootCode, s.YearCode, s.SubjectName, s.IsPrimary); err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

// Update modifies a subject.
func (r *SubjectRepository) Update(ctx context.Context, s *models.Subject) error {
	const query = `UPDATE subjects SET subject_name = :subject_name, is_primary = :is_primary, year_code = :year_code WHERE subject_code = :subject_code AND root_code = :root_code`
	res, err := r.db.NamedExecContext(ctx, query, s)
	if err != nil {
		return fmt.Errorf("update subject: %w", err)
	}
	return requireAffected(res)
}

// Delete removes a subject.
func (r *SubjectRepository) Delete(ctx context.Context, rootCode, code int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM subjects WHERE root_code = $1 AND subject_code = $2`, rootCode, code)
	if err != nil {
		return fmt.Errorf("delete subject: %w", err)
	}
	return requireAffected(res)
}

// CountPlanRows returns the number of subscription plan rows referencing the subject.
func (r *SubjectRepository) CountPlanRows(ctx context.Context, code int64) (int, error) {
	const query = `SELECT COUNT(*) FROM subscription_plan_subjects WHERE subject_code = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, code); err != nil {
		return 0, fmt.Errorf("count plan subjects: %w", err)
	}
	return count, nil
}
