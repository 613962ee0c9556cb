package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-center-api/internal/models"
	"github.com/noah-isme/edu-center-api/internal/repository"
	"github.com/noah-isme/edu-center-api/pkg/countdown"
	appErrors "github.com/noah-isme/edu-center-api/pkg/errors"
	"github.com/noah-isme/edu-center-api/pkg/jobs"
)

// AutoSubmitJobType identifies exam auto-submit jobs on the queue.
const AutoSubmitJobType = "exam.auto_submit"

const (
	submitTriggerManual = "manual"
	submitTriggerAuto   = "auto"
)

type examRepository interface {
	ListForStudent(ctx context.Context, rootCode, studentCode int64) ([]models.ExamListRow, error)
	FindExam(ctx context.Context, rootCode, examCode int64) (*models.Exam, error)
	ListQuestions(ctx context.Context, examCode int64) ([]models.Question, error)
	HasResult(ctx context.Context, studentCode, examCode int64) (bool, error)
	SaveResult(ctx context.Context, result *models.StudentExam, answers []models.SelectedAnswer) error
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

type examMetrics interface {
	RecordExamSubmission(trigger, outcome string)
	ExamSessionStarted()
	ExamSessionEnded()
}

// ExamServiceConfig carries countdown thresholds and grading rules.
type ExamServiceConfig struct {
	Warning        time.Duration
	Critical       time.Duration
	PassPercentage float64
}

// ScoreBadge summarises a taken exam.
type ScoreBadge struct {
	Degree     decimal.Decimal `json:"degree"`
	MaxDegree  decimal.Decimal `json:"max_degree"`
	Percentage float64         `json:"percentage"`
	Passed     bool            `json:"passed"`
}

// ExamListItem is one entry of the student's exam list.
type ExamListItem struct {
	models.ExamListRow
	Taken bool        `json:"taken"`
	Badge *ScoreBadge `json:"badge,omitempty"`
}

// ExamSessionView is the timer state of an open session.
type ExamSessionView struct {
	SessionID        string          `json:"session_id"`
	ExamCode         int64           `json:"exam_code"`
	RemainingSeconds int             `json:"remaining_seconds"`
	Display          string          `json:"display"`
	Phase            countdown.Phase `json:"phase"`
	Deadline         time.Time       `json:"deadline"`
}

// StartedExam is returned when a student opens an exam.
type StartedExam struct {
	Exam      models.Exam       `json:"exam"`
	Questions []models.Question `json:"questions"`
	Session   ExamSessionView   `json:"session"`
}

// SubmitExamRequest is the answer sheet.
type SubmitExamRequest struct {
	Answers    []models.SelectedAnswer `json:"answers" validate:"dive"`
	AutoSubmit bool                    `json:"auto_submit"`
	Confirmed  bool                    `json:"confirmed"`
}

// ExamResult is the graded outcome of a submission.
type ExamResult struct {
	models.StudentExam
	Badge      ScoreBadge `json:"badge"`
	Unanswered []int      `json:"unanswered,omitempty"`
}

// AutoSubmitPayload identifies the session an auto-submit job belongs to.
type AutoSubmitPayload struct {
	RootCode    int64
	StudentCode int64
	ExamCode    int64
	SessionID   string
}

type examSession struct {
	id          string
	rootCode    int64
	studentCode int64
	examCode    int64
	deadline    time.Time
	timer       *countdown.Countdown
	cancel      context.CancelFunc
	submitting  bool
}

// StudentExamService runs the exam-taking flow: list, start, countdown and a
// single submission per session.
type StudentExamService struct {
	repo    examRepository
	cfg     ExamServiceConfig
	metrics examMetrics
	logger  *zap.Logger
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*examSession
	queue    jobEnqueuer
	baseCtx  context.Context
}

// NewStudentExamService constructs the service. Countdowns run until ctx ends.
func NewStudentExamService(ctx context.Context, repo examRepository, cfg ExamServiceConfig, metrics examMetrics, logger *zap.Logger) *StudentExamService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PassPercentage <= 0 {
		cfg.PassPercentage = 50
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return &StudentExamService{
		repo:     repo,
		cfg:      cfg,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*examSession),
		baseCtx:  ctx,
	}
}

// AttachQueue sets the queue expiry jobs are pushed to.
func (s *StudentExamService) AttachQueue(q jobEnqueuer) {
	s.mu.Lock()
	s.queue = q
	s.mu.Unlock()
}

// CalculateScore returns the badge for degree out of max.
func CalculateScore(degree, max decimal.Decimal, passPercentage float64) ScoreBadge {
	badge := ScoreBadge{Degree: degree, MaxDegree: max}
	if max.IsZero() {
		return badge
	}
	pct, _ := degree.Div(max).Mul(decimal.NewFromInt(100)).Round(2).Float64()
	badge.Percentage = pct
	badge.Passed = pct >= passPercentage
	return badge
}

// List returns the student's exams with badges for the ones already taken.
func (s *StudentExamService) List(ctx context.Context, session models.Session) ([]ExamListItem, error) {
	if session.StudentCode == 0 {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "session is not a student")
	}
	rows, err := s.repo.ListForStudent(ctx, session.RootCode, session.StudentCode)
	if err != nil {
		return nil, internalError(err, "failed to list exams")
	}
	items := make([]ExamListItem, 0, len(rows))
	for _, row := range rows {
		item := ExamListItem{ExamListRow: row}
		if row.Degree != nil {
			max := row.MaxDegree
			if row.ResultMax != nil {
				max = *row.ResultMax
			}
			badge := CalculateScore(*row.Degree, max, s.cfg.PassPercentage)
			item.Taken = true
			item.Badge = &badge
		}
		items = append(items, item)
	}
	return items, nil
}

// Start opens the exam for the student, resuming a running session if one exists.
func (s *StudentExamService) Start(ctx context.Context, session models.Session, examCode int64) (*StartedExam, error) {
	if session.StudentCode == 0 {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "session is not a student")
	}
	exam, err := s.repo.FindExam(ctx, session.RootCode, examCode)
	if err != nil {
		return nil, notFoundOr(err, "exam", "load")
	}
	taken, err := s.repo.HasResult(ctx, session.StudentCode, examCode)
	if err != nil {
		return nil, internalError(err, "failed to check exam result")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrAlreadySubmitted, "exam already submitted")
	}
	questions, err := s.repo.ListQuestions(ctx, examCode)
	if err != nil {
		return nil, internalError(err, "failed to load questions")
	}
	sort.SliceStable(questions, func(i, j int) bool { return questions[i].Order < questions[j].Order })

	key := sessionKey(session.StudentCode, examCode)
	s.mu.Lock()
	active, ok := s.sessions[key]
	if !ok {
		active = s.openLocked(session, exam)
		s.sessions[key] = active
	}
	view := active.view()
	s.mu.Unlock()

	if !ok {
		if s.metrics != nil {
			s.metrics.ExamSessionStarted()
		}
		s.logger.Info("exam session started",
			zap.String("session_id", active.id),
			zap.Int64("student_code", session.StudentCode),
			zap.Int64("exam_code", examCode),
			zap.Int("duration_minutes", exam.DurationMinutes))
	}
	return &StartedExam{Exam: *exam, Questions: questions, Session: view}, nil
}

// Session returns the timer state of the student's open session.
func (s *StudentExamService) Session(session models.Session, examCode int64) (*ExamSessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	active, ok := s.sessions[sessionKey(session.StudentCode, examCode)]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "exam session not found")
	}
	view := active.view()
	return &view, nil
}

// Submit grades and stores the answer sheet of a started exam. A submission
// that leaves questions unanswered needs Confirmed set; AutoSubmit only waives
// that once the session's countdown has run out.
func (s *StudentExamService) Submit(ctx context.Context, session models.Session, examCode int64, req SubmitExamRequest) (*ExamResult, error) {
	if session.StudentCode == 0 {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "session is not a student")
	}
	result, err := s.submit(ctx, session.RootCode, session.StudentCode, examCode, req, "", false)
	trigger := submitTriggerManual
	if result != nil && result.AutoSubmitted {
		trigger = submitTriggerAuto
	}
	s.recordOutcome(trigger, err)
	return result, err
}

// HandleAutoSubmit processes an expiry job. Sessions already submitted are skipped.
func (s *StudentExamService) HandleAutoSubmit(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(AutoSubmitPayload)
	if !ok {
		return fmt.Errorf("unexpected auto submit payload %T", job.Payload)
	}
	_, err := s.submit(ctx, payload.RootCode, payload.StudentCode, payload.ExamCode, SubmitExamRequest{}, payload.SessionID, true)
	if errors.Is(err, appErrors.ErrAlreadySubmitted) || errors.Is(err, appErrors.ErrNotFound) {
		s.logger.Debug("auto submit skipped", zap.String("session_id", payload.SessionID), zap.Error(err))
		return nil
	}
	s.recordOutcome(submitTriggerAuto, err)
	return err
}

func (s *StudentExamService) submit(ctx context.Context, rootCode, studentCode, examCode int64, req SubmitExamRequest, sessionID string, fromTimer bool) (*ExamResult, error) {
	key := sessionKey(studentCode, examCode)
	active, err := s.claim(key, sessionID)
	if err != nil {
		return nil, err
	}
	done := false
	defer func() { s.release(key, active, done) }()

	exam, err := s.repo.FindExam(ctx, rootCode, examCode)
	if err != nil {
		return nil, notFoundOr(err, "exam", "load")
	}
	taken, err := s.repo.HasResult(ctx, studentCode, examCode)
	if err != nil {
		return nil, internalError(err, "failed to check exam result")
	}
	if taken {
		done = true
		return nil, appErrors.Clone(appErrors.ErrAlreadySubmitted, "exam already submitted")
	}
	if active == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "exam session not found, start the exam first")
	}
	auto := fromTimer || (req.AutoSubmit && !s.now().Before(active.deadline))
	questions, err := s.repo.ListQuestions(ctx, examCode)
	if err != nil {
		return nil, internalError(err, "failed to load questions")
	}

	selected, err := selectAnswers(questions, req.Answers)
	if err != nil {
		return nil, err
	}
	unanswered := unansweredNumbers(questions, selected)
	if !auto && !req.Confirmed && len(unanswered) > 0 {
		return nil, appErrors.WithDetails(appErrors.ErrConfirmationRequired,
			fmt.Sprintf("%d question(s) are unanswered", len(unanswered)),
			map[string]interface{}{"unanswered": unanswered})
	}

	degree, max := Grade(exam, questions, selected)
	record := &models.StudentExam{
		StudentCode:   studentCode,
		ExamCode:      examCode,
		Degree:        degree,
		MaxDegree:     max,
		SubmittedAt:   s.now().UTC(),
		AutoSubmitted: auto,
	}
	answers := make([]models.SelectedAnswer, 0, len(selected))
	for _, q := range questions {
		if code, ok := selected[q.QuestionCode]; ok {
			answers = append(answers, models.SelectedAnswer{QuestionCode: q.QuestionCode, AnswerCode: code})
		}
	}
	if err := s.repo.SaveResult(ctx, record, answers); err != nil {
		if repository.IsUniqueViolation(err) {
			done = true
			return nil, appErrors.Clone(appErrors.ErrAlreadySubmitted, "exam already submitted")
		}
		return nil, internalError(err, "failed to save exam result")
	}
	done = true

	s.logger.Info("exam submitted",
		zap.Int64("student_code", studentCode),
		zap.Int64("exam_code", examCode),
		zap.Bool("auto", auto),
		zap.String("degree", degree.String()),
		zap.Int("unanswered", len(unanswered)))

	return &ExamResult{
		StudentExam: *record,
		Badge:       CalculateScore(degree, max, s.cfg.PassPercentage),
		Unanswered:  unanswered,
	}, nil
}

// Grade sums the degree of every question answered correctly. The maximum is
// the exam's max degree, or the sum of question degrees when that is zero.
func Grade(exam *models.Exam, questions []models.Question, selected map[int64]int64) (decimal.Decimal, decimal.Decimal) {
	degree := decimal.Zero
	total := decimal.Zero
	for _, q := range questions {
		total = total.Add(q.Degree)
		code, ok := selected[q.QuestionCode]
		if !ok {
			continue
		}
		for _, a := range q.Answers {
			if a.AnswerCode == code && a.IsTrue {
				degree = degree.Add(q.Degree)
				break
			}
		}
	}
	max := exam.MaxDegree
	if max.IsZero() {
		max = total
	}
	return degree, max
}

// claim marks the session as submitting. Only one submission may run at a
// time. A missing session yields nil so the caller can tell an already
// submitted exam apart from one that was never started.
func (s *StudentExamService) claim(key, sessionID string) (*examSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	active, ok := s.sessions[key]
	if !ok {
		if sessionID != "" {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam session not found")
		}
		return nil, nil
	}
	if sessionID != "" && active.id != sessionID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "exam session not found")
	}
	if active.submitting {
		return nil, appErrors.Clone(appErrors.ErrRequestInFlight, "exam submission already in progress")
	}
	active.submitting = true
	return active, nil
}

// release closes the session after a completed submission or re-opens it for another attempt.
func (s *StudentExamService) release(key string, active *examSession, done bool) {
	if active == nil {
		return
	}
	s.mu.Lock()
	if !done {
		active.submitting = false
		s.mu.Unlock()
		return
	}
	if current, ok := s.sessions[key]; ok && current == active {
		delete(s.sessions, key)
	}
	s.mu.Unlock()

	active.timer.Stop()
	active.cancel()
	if s.metrics != nil {
		s.metrics.ExamSessionEnded()
	}
}

func (s *StudentExamService) openLocked(session models.Session, exam *models.Exam) *examSession {
	active := &examSession{
		id:          uuid.NewString(),
		rootCode:    session.RootCode,
		studentCode: session.StudentCode,
		examCode:    exam.ExamCode,
		deadline:    s.now().Add(time.Duration(exam.DurationMinutes) * time.Minute).UTC(),
	}
	payload := AutoSubmitPayload{RootCode: session.RootCode, StudentCode: session.StudentCode, ExamCode: exam.ExamCode, SessionID: active.id}
	active.timer = countdown.FromMinutes(exam.DurationMinutes, countdown.Options{
		Warning:  s.cfg.Warning,
		Critical: s.cfg.Critical,
		OnExpire: func() { s.enqueueAutoSubmit(payload) },
	})
	ctx, cancel := context.WithCancel(s.baseCtx)
	active.cancel = cancel
	active.timer.Start(ctx)
	return active
}

func (s *StudentExamService) enqueueAutoSubmit(payload AutoSubmitPayload) {
	s.mu.Lock()
	queue := s.queue
	s.mu.Unlock()
	if queue == nil {
		s.logger.Warn("no queue attached, submitting inline", zap.String("session_id", payload.SessionID))
		go func() {
			_ = s.HandleAutoSubmit(s.baseCtx, jobs.Job{Type: AutoSubmitJobType, Payload: payload})
		}()
		return
	}
	err := queue.Enqueue(jobs.Job{Key: payload.SessionID, Type: AutoSubmitJobType, Payload: payload})
	switch {
	case errors.Is(err, jobs.ErrDuplicate):
		s.logger.Debug("auto submit already queued", zap.String("session_id", payload.SessionID))
	case err != nil:
		s.logger.Error("enqueue auto submit", zap.String("session_id", payload.SessionID), zap.Error(err))
	}
}

func (s *StudentExamService) recordOutcome(trigger string, err error) {
	if s.metrics == nil {
		return
	}
	outcome := "submitted"
	if err != nil {
		outcome = appErrors.FromError(err).Code
	}
	s.metrics.RecordExamSubmission(trigger, outcome)
}

func (e *examSession) view() ExamSessionView {
	snap := e.timer.Snapshot()
	return ExamSessionView{
		SessionID:        e.id,
		ExamCode:         e.examCode,
		RemainingSeconds: snap.Remaining,
		Display:          snap.Display,
		Phase:            snap.Phase,
		Deadline:         e.deadline,
	}
}

// selectAnswers maps question code to chosen answer, rejecting answers that
// do not belong to their question. The last choice for a question wins.
func selectAnswers(questions []models.Question, answers []models.SelectedAnswer) (map[int64]int64, error) {
	byQuestion := make(map[int64]models.Question, len(questions))
	for _, q := range questions {
		byQuestion[q.QuestionCode] = q
	}
	selected := make(map[int64]int64, len(answers))
	var problems []string
	for _, a := range answers {
		if a.AnswerCode == 0 {
			continue
		}
		q, ok := byQuestion[a.QuestionCode]
		if !ok {
			problems = append(problems, fmt.Sprintf("question %d is not part of this exam", a.QuestionCode))
			continue
		}
		if !hasAnswer(q, a.AnswerCode) {
			problems = append(problems, fmt.Sprintf("answer %d does not belong to question %d", a.AnswerCode, a.QuestionCode))
			continue
		}
		selected[a.QuestionCode] = a.AnswerCode
	}
	if len(problems) > 0 {
		return nil, appErrors.WithDetails(appErrors.ErrValidation, "invalid answer sheet", problems)
	}
	return selected, nil
}

func unansweredNumbers(questions []models.Question, selected map[int64]int64) []int {
	var out []int
	for i, q := range questions {
		if _, ok := selected[q.QuestionCode]; ok {
			continue
		}
		n := q.Order
		if n <= 0 {
			n = i + 1
		}
		out = append(out, n)
	}
	return out
}

func hasAnswer(q models.Question, answerCode int64) bool {
	for _, a := range q.Answers {
		if a.AnswerCode == answerCode {
			return true
		}
	}
	return false
}

func sessionKey(studentCode, examCode int64) string {
	return fmt.Sprintf("%d:%d", studentCode, examCode)
}
