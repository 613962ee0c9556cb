package view

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-center-api/internal/models"
	"github.com/noah-isme/edu-center-api/internal/service"
)

func TestWalletRowsEscapesAndLabels(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	rows := []service.WalletView{
		{
			WalletExam:        models.WalletExam{Code: 7, Count: 2, OriginalCount: 5, DateStart: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), IsActive: true},
			DaysLeft:          -1,
			DaysLeftLabel:     "Expired",
			AmountDisplay:     "<b>100</b>",
			ExpireDateDisplay: "2024-02-01",
		},
	}
	out, err := r.WalletRows(rows)
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, `data-code="7"`)
	assert.Contains(t, html, `class="expired"`)
	assert.Contains(t, html, "Expired")
	assert.Contains(t, html, "2024-01-01")
	assert.Contains(t, html, "&lt;b&gt;100&lt;/b&gt;")
	assert.NotContains(t, html, "<b>")
}

func TestWalletRowsEmpty(t *testing.T) {
	r := MustNew()
	out, err := r.WalletRows(nil)
	require.NoError(t, err)
	assert.Contains(t, string(out), "No wallet rows")
}

func TestExamListBadges(t *testing.T) {
	r := MustNew()
	items := []service.ExamListItem{
		{ExamListRow: models.ExamListRow{Exam: models.Exam{ExamCode: 1, ExamName: "Algebra", DurationMinutes: 30}}},
		{
			ExamListRow: models.ExamListRow{Exam: models.Exam{ExamCode: 2, ExamName: "Physics", DurationMinutes: 45}},
			Taken:       true,
			Badge:       &service.ScoreBadge{Degree: decimal.NewFromInt(6), MaxDegree: decimal.NewFromInt(10), Percentage: 60, Passed: true},
		},
	}
	out, err := r.ExamList(items)
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, "Not taken")
	assert.Contains(t, html, `class="badge passed"`)
	assert.Contains(t, html, "6 / 10 (60.0%)")
}

func TestEmployeeRows(t *testing.T) {
	r := MustNew()
	out, err := r.EmployeeRows([]models.Employee{{EmployeeCode: 3, Name: "Mona", IsActive: false}})
	require.NoError(t, err)
	assert.Contains(t, string(out), "Mona")
	assert.Contains(t, string(out), "Inactive")
}
