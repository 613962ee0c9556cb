package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/edu-center-api/internal/models"
)

// ExamRepository handles persistence for exams, questions and student results.
type ExamRepository struct {
	db *sqlx.DB
}

// NewExamRepository creates a new repository instance.
func NewExamRepository(db *sqlx.DB) *ExamRepository {
	return &ExamRepository{db: db}
}

// ListForStudent returns the exams of a root joined with the student's results.
func (r *ExamRepository) ListForStudent(ctx context.Context, rootCode, studentCode int64) ([]models.ExamListRow, error) {
	const query = `SELECT e.exam_code, e.root_code, e.exam_name, e.duration_minutes, e.max_degree,
       se.degree, se.max_degree AS result_max_degree, se.submitted_at
FROM exams e
LEFT JOIN student_exams se ON se.exam_code = e.exam_code AND se.student_code = $2
WHERE e.root_code = $1 ORDER BY e.exam_code ASC`
	var rows []models.ExamListRow
	if err := r.db.SelectContext(ctx, &rows, query, rootCode, studentCode); err != nil {
		return nil, fmt.Errorf("list student exams: %w", err)
	}
	return rows, nil
}

// FindExam returns an exam scoped to its root.
func (r *ExamRepository) FindExam(ctx context.Context, rootCode, examCode int64) (*models.Exam, error) {
	const query = `SELECT exam_code, root_code, exam_name, duration_minutes, max_degree FROM exams WHERE root_code = $1 AND exam_code = $2`
	var exam models.Exam
	if err := r.db.GetContext(ctx, &exam, query, rootCode, examCode); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find exam: %w", err)
	}
	return &exam, nil
}

// ListQuestions returns the questions of an exam in display order with their answers.
func (r *ExamRepository) ListQuestions(ctx context.Context, examCode int64) ([]models.Question, error) {
	const query = `SELECT question_code, exam_code, question_text, degree, sort_order FROM questions WHERE exam_code = $1 ORDER BY sort_order ASC, question_code ASC`
	var questions []models.Question
	if err := r.db.SelectContext(ctx, &questions, query, examCode); err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	if len(questions) == 0 {
		return questions, nil
	}

	codes := make([]int64, len(questions))
	index := make(map[int64]int, len(questions))
	for i := range questions {
		codes[i] = questions[i].QuestionCode
		index[questions[i].QuestionCode] = i
		questions[i].Answers = []models.Answer{}
	}

	const answersQuery = `SELECT answer_code, question_code, answer_text, is_true FROM answers WHERE question_code = ANY($1) ORDER BY answer_code ASC`
	var answers []models.Answer
	if err := r.db.SelectContext(ctx, &answers, answersQuery, pq.Array(codes)); err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	for _, a := range answers {
		if i, ok := index[a.QuestionCode]; ok {
			questions[i].Answers = append(questions[i].Answers, a)
		}
	}
	return questions, nil
}

// HasResult reports whether the student already submitted the exam.
func (r *ExamRepository) HasResult(ctx context.Context, studentCode, examCode int64) (bool, error) {
	var exists int
	err := r.db.GetContext(ctx, &exists, `SELECT 1 FROM student_exams WHERE student_code = $1 AND exam_code = $2 LIMIT 1`, studentCode, examCode)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check student exam: %w", err)
	}
	return true, nil
}

// SaveResult stores the result and selected answers in one transaction.
// A concurrent duplicate insert surfaces as a unique violation.
func (r *ExamRepository) SaveResult(ctx context.Context, result *models.StudentExam, answers []models.SelectedAnswer) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save result: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO student_exams (student_code, exam_code, degree, max_degree, submitted_at, auto_submitted) VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err = tx.ExecContext(ctx, query, result.StudentCode, result.ExamCode, result.Degree, result.MaxDegree, result.SubmittedAt, result.AutoSubmitted); err != nil {
		return fmt.Errorf("insert student exam: %w", err)
	}
	const answerQuery = `INSERT INTO student_exam_answers (student_code, exam_code, question_code, answer_code) VALUES ($1, $2, $3, $4)`
	for _, a := range answers {
		if _, err = tx.ExecContext(ctx, answerQuery, result.StudentCode, result.ExamCode, a.QuestionCode, a.AnswerCode); err != nil {
			return fmt.Errorf("insert student answer %d: %w", a.QuestionCode, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save result: %w", err)
	}
	return nil
}

// IsUniqueViolation reports whether err is a PostgreSQL unique constraint failure.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
