package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-center-api/internal/models"
	appErrors "github.com/noah-isme/edu-center-api/pkg/errors"
	"github.com/noah-isme/edu-center-api/pkg/jobs"
)

type fakeExamRepo struct {
	mu        sync.Mutex
	exams     map[int64]models.Exam
	questions map[int64][]models.Question
	results   map[string]models.StudentExam
	answers   map[string][]models.SelectedAnswer
}

func newFakeExamRepo() *fakeExamRepo {
	d := decimal.NewFromInt
	return &fakeExamRepo{
		exams: map[int64]models.Exam{
			1: {ExamCode: 1, RootCode: 1, ExamName: "Algebra", DurationMinutes: 30, MaxDegree: d(10)},
			2: {ExamCode: 2, RootCode: 1, ExamName: "Quick", DurationMinutes: 0},
		},
		questions: map[int64][]models.Question{
			1: {
				{QuestionCode: 11, ExamCode: 1, Text: "1+1", Degree: d(4), Order: 1, Answers: []models.Answer{
					{AnswerCode: 111, QuestionCode: 11, Text: "2", IsTrue: true},
					{AnswerCode: 112, QuestionCode: 11, Text: "3"},
				}},
				{QuestionCode: 12, ExamCode: 1, Text: "2+2", Degree: d(6), Order: 2, Answers: []models.Answer{
					{AnswerCode: 121, QuestionCode: 12, Text: "4", IsTrue: true},
					{AnswerCode: 122, QuestionCode: 12, Text: "5"},
				}},
			},
			2: {
				{QuestionCode: 21, ExamCode: 2, Text: "yes?", Degree: d(1), Order: 1, Answers: []models.Answer{
					{AnswerCode: 211, QuestionCode: 21, Text: "yes", IsTrue: true},
				}},
			},
		},
		results: make(map[string]models.StudentExam),
		answers: make(map[string][]models.SelectedAnswer),
	}
}

func (f *fakeExamRepo) ListForStudent(ctx context.Context, rootCode, studentCode int64) ([]models.ExamListRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ExamListRow
	for code := int64(1); code <= 2; code++ {
		row := models.ExamListRow{Exam: f.exams[code]}
		if r, ok := f.results[sessionKey(studentCode, code)]; ok {
			degree, max, at := r.Degree, r.MaxDegree, r.SubmittedAt
			row.Degree, row.ResultMax, row.SubmittedAt = &degree, &max, &at
		}
		out = append(out, row)
	}
	return out, nil
}

func (f *fakeExamRepo) FindExam(ctx context.Context, rootCode, examCode int64) (*models.Exam, error) {
	if e, ok := f.exams[examCode]; ok && e.RootCode == rootCode {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeExamRepo) ListQuestions(ctx context.Context, examCode int64) ([]models.Question, error) {
	return append([]models.Question(nil), f.questions[examCode]...), nil
}

func (f *fakeExamRepo) HasResult(ctx context.Context, studentCode, examCode int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.results[sessionKey(studentCode, examCode)]
	return ok, nil
}

func (f *fakeExamRepo) SaveResult(ctx context.Context, result *models.StudentExam, answers []models.SelectedAnswer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := sessionKey(result.StudentCode, result.ExamCode)
	if _, ok := f.results[key]; ok {
		return &pq.Error{Code: "23505"}
	}
	f.results[key] = *result
	f.answers[key] = answers
	return nil
}

type fakeExamMetrics struct {
	mu          sync.Mutex
	submissions map[string]int
	active      int
}

func (m *fakeExamMetrics) RecordExamSubmission(trigger, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.submissions == nil {
		m.submissions = make(map[string]int)
	}
	m.submissions[trigger+":"+outcome]++
}

func (m *fakeExamMetrics) ExamSessionStarted() {
	m.mu.Lock()
	m.active++
	m.mu.Unlock()
}

func (m *fakeExamMetrics) ExamSessionEnded() {
	m.mu.Lock()
	m.active--
	m.mu.Unlock()
}

type chanQueue chan jobs.Job

func (q chanQueue) Enqueue(job jobs.Job) error {
	q <- job
	return nil
}

var student = models.Session{UserID: "u-1", Role: models.RoleStudent, RootCode: 1, StudentCode: 7}

func newExamService(t *testing.T, repo *fakeExamRepo, metrics *fakeExamMetrics) *StudentExamService {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	var m examMetrics
	if metrics != nil {
		m = metrics
	}
	return NewStudentExamService(ctx, repo, ExamServiceConfig{Warning: 5 * time.Minute, Critical: time.Minute, PassPercentage: 50}, m, zap.NewNop())
}

func TestCalculateScore(t *testing.T) {
	d := decimal.NewFromInt
	assert.Equal(t, 0.0, CalculateScore(d(5), d(0), 50).Percentage)
	assert.False(t, CalculateScore(d(5), d(0), 50).Passed)

	badge := CalculateScore(d(5), d(10), 50)
	assert.Equal(t, 50.0, badge.Percentage)
	assert.True(t, badge.Passed)

	badge = CalculateScore(d(49), d(100), 50)
	assert.False(t, badge.Passed)
}

func TestStudentExamStartAndResume(t *testing.T) {
	metrics := &fakeExamMetrics{}
	service := newExamService(t, newFakeExamRepo(), metrics)

	started, err := service.Start(context.Background(), student, 1)
	require.NoError(t, err)
	assert.Len(t, started.Questions, 2)
	assert.NotEmpty(t, started.Session.SessionID)
	assert.InDelta(t, 1800, started.Session.RemainingSeconds, 2)
	assert.Equal(t, "normal", string(started.Session.Phase))

	again, err := service.Start(context.Background(), student, 1)
	require.NoError(t, err)
	assert.Equal(t, started.Session.SessionID, again.Session.SessionID)
	assert.Equal(t, 1, metrics.active)

	view, err := service.Session(student, 1)
	require.NoError(t, err)
	assert.Equal(t, started.Session.SessionID, view.SessionID)
}

func TestStudentExamSubmitRequiresConfirmation(t *testing.T) {
	repo := newFakeExamRepo()
	service := newExamService(t, repo, &fakeExamMetrics{})
	_, err := service.Start(context.Background(), student, 1)
	require.NoError(t, err)

	req := SubmitExamRequest{Answers: []models.SelectedAnswer{{QuestionCode: 11, AnswerCode: 111}}}
	_, err = service.Submit(context.Background(), student, 1, req)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConfirmationRequired.Code, appErr.Code)
	assert.Equal(t, map[string]interface{}{"unanswered": []int{2}}, appErr.Details)
	assert.Empty(t, repo.results)

	req.Confirmed = true
	result, err := service.Submit(context.Background(), student, 1, req)
	require.NoError(t, err)
	assert.True(t, result.Degree.Equal(decimal.NewFromInt(4)))
	assert.True(t, result.MaxDegree.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, 40.0, result.Badge.Percentage)
	assert.False(t, result.Badge.Passed)
	assert.Equal(t, []int{2}, result.Unanswered)
	assert.Len(t, repo.answers[sessionKey(7, 1)], 1)
}

func TestStudentExamSubmitsExactlyOnce(t *testing.T) {
	repo := newFakeExamRepo()
	metrics := &fakeExamMetrics{}
	service := newExamService(t, repo, metrics)
	started, err := service.Start(context.Background(), student, 1)
	require.NoError(t, err)

	answers := []models.SelectedAnswer{{QuestionCode: 11, AnswerCode: 111}, {QuestionCode: 12, AnswerCode: 121}}
	result, err := service.Submit(context.Background(), student, 1, SubmitExamRequest{Answers: answers})
	require.NoError(t, err)
	assert.True(t, result.Badge.Passed)
	assert.Equal(t, 0, metrics.active)

	_, err = service.Submit(context.Background(), student, 1, SubmitExamRequest{Answers: answers})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadySubmitted.Code, appErrors.FromError(err).Code)

	_, err = service.Start(context.Background(), student, 1)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadySubmitted.Code, appErrors.FromError(err).Code)

	err = service.HandleAutoSubmit(context.Background(), jobs.Job{Payload: AutoSubmitPayload{RootCode: 1, StudentCode: 7, ExamCode: 1, SessionID: started.Session.SessionID}})
	require.NoError(t, err)
	assert.Equal(t, 1, metrics.submissions["manual:submitted"])
	assert.Equal(t, 1, metrics.submissions["manual:"+appErrors.ErrAlreadySubmitted.Code])
}

func TestStudentExamRejectsForeignAnswers(t *testing.T) {
	service := newExamService(t, newFakeExamRepo(), nil)
	_, err := service.Start(context.Background(), student, 1)
	require.NoError(t, err)

	_, err = service.Submit(context.Background(), student, 1, SubmitExamRequest{
		Confirmed: true,
		Answers:   []models.SelectedAnswer{{QuestionCode: 11, AnswerCode: 121}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStudentExamSubmitRequiresStartedSession(t *testing.T) {
	repo := newFakeExamRepo()
	metrics := &fakeExamMetrics{}
	service := newExamService(t, repo, metrics)

	_, err := service.Submit(context.Background(), student, 1, SubmitExamRequest{AutoSubmit: true})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.results)
	assert.Equal(t, 1, metrics.submissions["manual:"+appErrors.ErrNotFound.Code])
}

func TestStudentExamClientAutoSubmitHonouredOnlyAfterDeadline(t *testing.T) {
	repo := newFakeExamRepo()
	service := newExamService(t, repo, &fakeExamMetrics{})
	_, err := service.Start(context.Background(), student, 1)
	require.NoError(t, err)

	early := SubmitExamRequest{AutoSubmit: true, Answers: []models.SelectedAnswer{{QuestionCode: 11, AnswerCode: 111}}}
	_, err = service.Submit(context.Background(), student, 1, early)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConfirmationRequired.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.results)

	service.now = func() time.Time { return time.Now().Add(31 * time.Minute) }
	result, err := service.Submit(context.Background(), student, 1, early)
	require.NoError(t, err)
	assert.True(t, result.AutoSubmitted)
	assert.Equal(t, []int{2}, result.Unanswered)
	assert.True(t, repo.results[sessionKey(7, 1)].AutoSubmitted)
}

func TestStudentExamAutoSubmitWithoutAnswers(t *testing.T) {
	repo := newFakeExamRepo()
	service := newExamService(t, repo, &fakeExamMetrics{})
	started, err := service.Start(context.Background(), student, 1)
	require.NoError(t, err)

	err = service.HandleAutoSubmit(context.Background(), jobs.Job{Type: AutoSubmitJobType, Payload: AutoSubmitPayload{RootCode: 1, StudentCode: 7, ExamCode: 1, SessionID: started.Session.SessionID}})
	require.NoError(t, err)

	result := repo.results[sessionKey(7, 1)]
	assert.True(t, result.AutoSubmitted)
	assert.True(t, result.Degree.IsZero())
	_, err = service.Session(student, 1)
	require.Error(t, err)
}

func TestStudentExamExpiryEnqueuesAutoSubmit(t *testing.T) {
	repo := newFakeExamRepo()
	service := newExamService(t, repo, &fakeExamMetrics{})
	queue := make(chanQueue, 4)
	service.AttachQueue(queue)

	started, err := service.Start(context.Background(), student, 2)
	require.NoError(t, err)

	select {
	case job := <-queue:
		assert.Equal(t, AutoSubmitJobType, job.Type)
		assert.Equal(t, started.Session.SessionID, job.Key)
		payload := job.Payload.(AutoSubmitPayload)
		assert.Equal(t, started.Session.SessionID, payload.SessionID)
		require.NoError(t, service.HandleAutoSubmit(context.Background(), job))
	case <-time.After(3 * time.Second):
		t.Fatal("auto submit was not enqueued")
	}

	select {
	case <-queue:
		t.Fatal("auto submit enqueued twice")
	case <-time.After(1500 * time.Millisecond):
	}
	assert.True(t, repo.results[sessionKey(7, 2)].AutoSubmitted)
}

func TestStudentExamListBadges(t *testing.T) {
	repo := newFakeExamRepo()
	service := newExamService(t, repo, nil)
	repo.results[sessionKey(7, 1)] = models.StudentExam{StudentCode: 7, ExamCode: 1, Degree: decimal.NewFromInt(6), MaxDegree: decimal.NewFromInt(10)}

	items, err := service.List(context.Background(), student)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.True(t, items[0].Taken)
	assert.Equal(t, 60.0, items[0].Badge.Percentage)
	assert.False(t, items[1].Taken)
	assert.Nil(t, items[1].Badge)

	_, err = service.List(context.Background(), models.Session{Role: models.RoleAdmin, RootCode: 1})
	require.Error(t, err)
}
