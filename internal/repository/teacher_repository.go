package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-center-api/internal/models"
)

// TeacherRepository handles persistence for teacher profiles and subject assignments.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository creates a new repository instance.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// List returns the teachers of a root ordered by code.
func (r *TeacherRepository) List(ctx context.Context, rootCode int64) ([]models.Teacher, error) {
	const query = `SELECT teacher_code, root_code, name, phone, email, is_active FROM teachers WHERE root_code = $1 ORDER BY teacher_code ASC`
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query, rootCode); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return teachers, nil
}

// FindByCode returns a teacher scoped to its root.
func (r *TeacherRepository) FindByCode(ctx context.Context, rootCode, code int64) (*models.Teacher, error) {
	const query = `SELECT teacher_code, root_code, name, phone, email, is_active FROM teachers WHERE root_code = $1 AND teacher_code = $2`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, rootCode, code); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find teacher: %w", err)
	}
	return &teacher, nil
}

// ExistsByEmail checks uniqueness of a teacher email within a root.
func (r *TeacherRepository) ExistsByEmail(ctx context.Context, rootCode int64, email string, excludeCode int64) (bool, error) {
	query := "SELECT 1 FROM teachers WHERE root_code = $1 AND LOWER(email) = LOWER($2)"
	args := []interface{}{rootCode, strings.TrimSpace(email)}
	if excludeCode > 0 {
		query += " AND teacher_code <> $3"
		args = append(args, excludeCode)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check teacher email: %w", err)
	}
	return true, nil
}

// Create inserts a teacher and assigns its code.
func (r *TeacherRepository) Create(ctx context.Context, t *models.Teacher) error {
	const query = `INSERT INTO teachers (root_code, name, phone, email, is_active) VALUES ($1, $2, $3, $4, $5) RETURNING teacher_code`
	if err := r.db.GetContext(ctx, &t.TeacherCode, query, t.RootCode, t.Name, t.Phone, t.Email, t.IsActive); err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}
	return nil
}

// Update modifies a teacher.
func (r *TeacherRepository) Update(ctx context.Context, t *models.Teacher) error {
	const query = `UPDATE teachers SET name = :name, phone = :phone, email = :email, is_active = :is_active WHERE teacher_code = :teacher_code AND root_code = :root_code`
	res, err := r.db.NamedExecContext(ctx, query, t)
	if err != nil {
		return fmt.Errorf("update teacher: %w", err)
	}
	return requireAffected(res)
}

// Delete removes a teacher together with its assignments.
func (r *TeacherRepository) Delete(ctx context.Context, rootCode, code int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete teacher: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM teaches WHERE root_code = $1 AND teacher_code = $2`, rootCode, code); err != nil {
		return fmt.Errorf("delete teaches: %w", err)
	}
	var res sql.Result
	res, err = tx.ExecContext(ctx, `DELETE FROM teachers WHERE root_code = $1 AND teacher_code = $2`, rootCode, code)
	if err != nil {
		return fmt.Errorf("delete teacher: %w", err)
	}
	if err = requireAffected(res); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete teacher: %w", err)
	}
	return nil
}

// ListTeaches returns subject assignments of a root, optionally for one teacher.
func (r *TeacherRepository) ListTeaches(ctx context.Context, rootCode, teacherCode int64) ([]models.Teach, error) {
	query := `SELECT t.teach_code, t.root_code, t.teacher_code, t.subject_code, tr.name AS teacher_name, s.subject_name
FROM teaches t
JOIN teachers tr ON tr.teacher_code = t.teacher_code
JOIN subjects s ON s.subject_code = t.subject_code
WHERE t.root_code = $1`
	args := []interface{}{rootCode}
	if teacherCode > 0 {
		query += " AND t.teacher_code = $2"
		args = append(args, teacherCode)
	}
	query += " ORDER BY t.teach_code ASC"
	var teaches []models.Teach
	if err := r.db.SelectContext(ctx, &teaches, query, args...); err != nil {
		return nil, fmt.Errorf("list teaches: %w", err)
	}
	return teaches, nil
}

// CreateTeach assigns a teacher to a subject.
func (r *TeacherRepository) CreateTeach(ctx context.Context, t *models.Teach) error {
	const query = `INSERT INTO teaches (root_code, teacher_code, subject_code) VALUES ($1, $2, $3) RETURNING teach_code`
	if err := r.db.GetContext(ctx, &t.TeachCode, query, t.RootCode, t.TeacherCode, t.SubjectCode); err != nil {
		return fmt.Errorf("create teach: %w", err)
	}
	return nil
}

// TeachExists reports whether the teacher already teaches the subject.
func (r *TeacherRepository) TeachExists(ctx context.Context, teacherCode, subjectCode int64) (bool, error) {
	var exists int
	err := r.db.GetContext(ctx, &exists, `SELECT 1 FROM teaches WHERE teacher_code = $1 AND subject_code = $2 LIMIT 1`, teacherCode, subjectCode)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check teach: %w", err)
	}
	return true, nil
}

// DeleteTeach removes an assignment.
func (r *TeacherRepository) DeleteTeach(ctx context.Context, rootCode, teachCode int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM teaches WHERE root_code = $1 AND teach_code = $2`, rootCode, teachCode)
	if err != nil {
		return fmt.Errorf("delete teach: %w", err)
	}
	return requireAffected(res)
}
