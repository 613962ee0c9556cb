package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-center-api/internal/models"
)

func TestExamRepositoryListQuestionsAttachesAnswers(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewExamRepository(db)

	mock.ExpectQuery("FROM questions WHERE exam_code = \\$1").
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"question_code", "exam_code", "question_text", "degree", "sort_order"}).
			AddRow(int64(1), int64(4), "2+2?", "5", 1).
			AddRow(int64(2), int64(4), "3+3?", "5", 2))
	mock.ExpectQuery("FROM answers WHERE question_code = ANY").
		WillReturnRows(sqlmock.NewRows([]string{"answer_code", "question_code", "answer_text", "is_true"}).
			AddRow(int64(10), int64(1), "4", true).
			AddRow(int64(11), int64(1), "5", false).
			AddRow(int64(12), int64(2), "6", true))

	questions, err := repo.ListQuestions(context.Background(), 4)
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Len(t, questions[0].Answers, 2)
	assert.Len(t, questions[1].Answers, 1)
	assert.True(t, questions[0].Answers[0].IsTrue)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExamRepositorySaveResult(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewExamRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO student_exams").
		WithArgs(int64(30), int64(4), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), true).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO student_exam_answers").
		WithArgs(int64(30), int64(4), int64(1), int64(10)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	result := &models.StudentExam{StudentCode: 30, ExamCode: 4, Degree: decimal.NewFromInt(5), MaxDegree: decimal.NewFromInt(10), SubmittedAt: time.Now(), AutoSubmitted: true}
	err := repo.SaveResult(context.Background(), result, []models.SelectedAnswer{{QuestionCode: 1, AnswerCode: 10}})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pq.Error{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, IsUniqueViolation(nil))
}
