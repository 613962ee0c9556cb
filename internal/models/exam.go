package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Exam is a timed question set.
type Exam struct {
	ExamCode        int64           `db:"exam_code" json:"exam_code"`
	RootCode        int64           `db:"root_code" json:"root_code"`
	ExamName        string          `db:"exam_name" json:"exam_name"`
	DurationMinutes int             `db:"duration_minutes" json:"duration_minutes"`
	MaxDegree       decimal.Decimal `db:"max_degree" json:"max_degree"`
}

// Question belongs to an exam; Order is its 1-based display number.
type Question struct {
	QuestionCode int64           `db:"question_code" json:"question_code"`
	ExamCode     int64           `db:"exam_code" json:"exam_code"`
	Text         string          `db:"question_text" json:"question_text"`
	Degree       decimal.Decimal `db:"degree" json:"degree"`
	Order        int             `db:"sort_order" json:"order"`
	Answers      []Answer        `db:"-" json:"answers"`
}

// Answer is a choice. IsTrue is never serialized to students.
type Answer struct {
	AnswerCode   int64  `db:"answer_code" json:"answer_code"`
	QuestionCode int64  `db:"question_code" json:"question_code"`
	Text         string `db:"answer_text" json:"answer_text"`
	IsTrue       bool   `db:"is_true" json:"-"`
}

// StudentExam is a recorded result.
type StudentExam struct {
	StudentCode   int64           `db:"student_code" json:"student_code"`
	ExamCode      int64           `db:"exam_code" json:"exam_code"`
	Degree        decimal.Decimal `db:"degree" json:"degree"`
	MaxDegree     decimal.Decimal `db:"max_degree" json:"max_degree"`
	SubmittedAt   time.Time       `db:"submitted_at" json:"submitted_at"`
	AutoSubmitted bool            `db:"auto_submitted" json:"auto_submitted"`
}

// ExamListRow joins an exam with the student's result when present.
type ExamListRow struct {
	Exam
	Degree      *decimal.Decimal `db:"degree" json:"degree,omitempty"`
	ResultMax   *decimal.Decimal `db:"result_max_degree" json:"-"`
	SubmittedAt *time.Time       `db:"submitted_at" json:"submitted_at,omitempty"`
}

// SelectedAnswer is one (question, answer) pair submitted by a student.
type SelectedAnswer struct {
	QuestionCode int64 `json:"question_code" db:"question_code"`
	AnswerCode   int64 `json:"answer_code" db:"answer_code"`
}
