package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-center-api/internal/middleware"
	"github.com/noah-isme/edu-center-api/internal/models"
	"github.com/noah-isme/edu-center-api/internal/service"
	"github.com/noah-isme/edu-center-api/internal/view"
	"github.com/noah-isme/edu-center-api/pkg/antiforgery"
	appErrors "github.com/noah-isme/edu-center-api/pkg/errors"
	"github.com/noah-isme/edu-center-api/pkg/export"
	"github.com/noah-isme/edu-center-api/pkg/i18n"
	"github.com/noah-isme/edu-center-api/pkg/inflight"
)

type fakeWalletService struct {
	rows       []service.WalletView
	lastFilter models.WalletFilter
	updateErr  error
	original   *models.WalletExam
}

func (f *fakeWalletService) List(ctx context.Context, session models.Session, filter models.WalletFilter, fm *i18n.Formatter) (*service.WalletList, error) {
	f.lastFilter = filter
	return &service.WalletList{Rows: f.rows, Total: len(f.rows) + 1}, nil
}

func (f *fakeWalletService) Get(ctx context.Context, session models.Session, code int64, fm *i18n.Formatter) (*service.WalletView, error) {
	return &f.rows[0], nil
}

func (f *fakeWalletService) Create(ctx context.Context, session models.Session, draft service.WalletDraft) (*models.WalletExam, error) {
	return &models.WalletExam{Code: 9, RootCode: session.RootCode}, nil
}

func (f *fakeWalletService) Update(ctx context.Context, session models.Session, code int64, draft service.WalletDraft) (*models.WalletExam, *models.WalletExam, error) {
	if f.updateErr != nil {
		return nil, f.original, f.updateErr
	}
	return &models.WalletExam{Code: code}, nil, nil
}

func (f *fakeWalletService) Delete(ctx context.Context, session models.Session, code int64) error {
	return nil
}

type fakeExamService struct {
	submitErr error
	submits   int
}

func (f *fakeExamService) List(ctx context.Context, session models.Session) ([]service.ExamListItem, error) {
	return nil, nil
}

func (f *fakeExamService) Start(ctx context.Context, session models.Session, examCode int64) (*service.StartedExam, error) {
	return &service.StartedExam{Exam: models.Exam{ExamCode: examCode}}, nil
}

func (f *fakeExamService) Session(session models.Session, examCode int64) (*service.ExamSessionView, error) {
	return nil, appErrors.Clone(appErrors.ErrNotFound, "no open session")
}

func (f *fakeExamService) Submit(ctx context.Context, session models.Session, examCode int64, req service.SubmitExamRequest) (*service.ExamResult, error) {
	f.submits++
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return &service.ExamResult{StudentExam: models.StudentExam{StudentCode: session.StudentCode, ExamCode: examCode}}, nil
}

type fakeSubscriptionService struct{ hit bool }

func (f *fakeSubscriptionService) Years(ctx context.Context, rootCode int64) ([]models.Year, error) {
	return []models.Year{{YearCode: 1, RootCode: rootCode, YearName: "Grade 1"}}, nil
}

func (f *fakeSubscriptionService) SubjectsForYear(ctx context.Context, rootCode, yearCode int64) ([]models.Subject, bool, error) {
	return []models.Subject{{SubjectCode: 10, YearCode: yearCode}}, f.hit, nil
}

func (f *fakeSubscriptionService) List(ctx context.Context, rootCode int64) ([]models.SubscriptionPlan, error) {
	return nil, nil
}

func (f *fakeSubscriptionService) Get(ctx context.Context, rootCode, code int64) (*models.SubscriptionPlan, error) {
	return nil, appErrors.ErrNotFound
}

func (f *fakeSubscriptionService) Create(ctx context.Context, rootCode int64, req service.SubscriptionRequest) (*models.SubscriptionPlan, error) {
	return nil, appErrors.WithDetails(appErrors.ErrValidation, "subscription plan is incomplete", []string{"year is required", "name is required"})
}

func (f *fakeSubscriptionService) Update(ctx context.Context, rootCode, code int64, req service.SubscriptionRequest) (*models.SubscriptionPlan, error) {
	return nil, nil
}

func (f *fakeSubscriptionService) Delete(ctx context.Context, rootCode, code int64) error {
	return nil
}

type fakeExporter struct{ lastFilter models.LedgerFilter }

func (f *fakeExporter) Export(ctx context.Context, filter models.LedgerFilter, kind string, format export.Format) (*service.ExportResult, error) {
	f.lastFilter = filter
	if kind != service.LedgerIncome {
		return nil, appErrors.Clone(appErrors.ErrValidation, "kind must be expenses or income")
	}
	return &service.ExportResult{Filename: "income_1.csv", ContentType: format.ContentType(), Payload: []byte("ID,Amount\n")}, nil
}

type testRouter struct {
	engine       *gin.Engine
	issuer       *antiforgery.Issuer
	wallet       *fakeWalletService
	exams        *fakeExamService
	subscription *fakeSubscriptionService
	exporter     *fakeExporter
}

func newTestRouter(t *testing.T) *testRouter {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tr := &testRouter{
		issuer:       antiforgery.NewIssuer("test-secret", time.Hour),
		wallet:       &fakeWalletService{rows: []service.WalletView{{WalletExam: models.WalletExam{Code: 1, Amount: decimal.NewFromInt(50)}, DaysLeft: 3, DaysLeftLabel: "3 days"}}},
		exams:        &fakeExamService{},
		subscription: &fakeSubscriptionService{},
		exporter:     &fakeExporter{},
	}

	testAuth := func(c *gin.Context) {
		role := c.GetHeader("X-Test-Role")
		if role == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		student := int64(77)
		c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-" + role, Role: models.UserRole(role), RootCode: 1, StudentCode: &student})
		c.Next()
	}

	engine := gin.New()
	renderer := view.MustNew()
	RegisterRoutes(engine.Group("/api/v1"), Handlers{
		Wallet:       NewWalletHandler(tr.wallet, renderer),
		StudentExams: NewStudentExamHandler(tr.exams, renderer),
		Subscription: NewSubscriptionHandler(tr.subscription),
		Export:       NewExportHandler(tr.exporter),
		Auth:         NewAuthHandler(nil, tr.issuer, ""),
	}, Guards{
		Auth:        testAuth,
		AntiForgery: middleware.AntiForgery(tr.issuer, "", nil, nil),
		InFlight:    middleware.InFlight(inflight.NewMemoryGuard(), time.Minute, nil, nil),
	})
	tr.engine = engine
	return tr
}

func (tr *testRouter) do(t *testing.T, method, path, role string, body interface{}, withToken bool) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("X-Test-Role", role)
	}
	if withToken {
		token, _, err := tr.issuer.Issue("user-" + role)
		require.NoError(t, err)
		req.Header.Set(middleware.DefaultAntiForgeryHeader, token)
	}
	w := httptest.NewRecorder()
	tr.engine.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Meta  map[string]interface{} `json:"meta"`
	Error *struct {
		Code    string          `json:"code"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestRoutesEnforceRoles(t *testing.T) {
	tr := newTestRouter(t)

	assert.Equal(t, http.StatusUnauthorized, tr.do(t, http.MethodGet, "/api/v1/wallet-exams", "", nil, false).Code)
	assert.Equal(t, http.StatusForbidden, tr.do(t, http.MethodGet, "/api/v1/wallet-exams", string(models.RoleStudent), nil, false).Code)
	assert.Equal(t, http.StatusForbidden, tr.do(t, http.MethodGet, "/api/v1/student-exams", string(models.RoleAdmin), nil, false).Code)
	assert.Equal(t, http.StatusOK, tr.do(t, http.MethodGet, "/api/v1/wallet-exams", string(models.RoleEmployee), nil, false).Code)
}

func TestMutationsRequireAntiForgeryToken(t *testing.T) {
	tr := newTestRouter(t)
	draft := service.WalletDraft{Amount: "10", Count: "1", OriginalCount: "1", DateStart: "2024-01-01", ExpireDate: "2024-02-01"}

	w := tr.do(t, http.MethodPost, "/api/v1/wallet-exams", string(models.RoleAdmin), draft, false)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "INVALID_ANTIFORGERY_TOKEN", decode(t, w).Error.Code)

	w = tr.do(t, http.MethodPost, "/api/v1/wallet-exams", string(models.RoleAdmin), draft, true)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestAntiForgeryEndpointIssuesVerifiableToken(t *testing.T) {
	tr := newTestRouter(t)
	w := tr.do(t, http.MethodGet, "/api/v1/auth/antiforgery", string(models.RoleAdmin), nil, false)
	require.Equal(t, http.StatusOK, w.Code)

	var token AntiForgeryToken
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &token))
	assert.Equal(t, middleware.DefaultAntiForgeryHeader, token.Header)
	assert.NoError(t, tr.issuer.Verify("user-ADMIN", token.Token))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestWalletListFiltersAndMeta(t *testing.T) {
	tr := newTestRouter(t)
	w := tr.do(t, http.MethodGet, "/api/v1/wallet-exams?code=12&status=ACTIVE&expiry=expiring&root=3", string(models.RoleSuperAdmin), nil, false)
	require.Equal(t, http.StatusOK, w.Code)

	env := decode(t, w)
	assert.Equal(t, float64(2), env.Meta["total"])
	assert.Equal(t, float64(1), env.Meta["shown"])
	assert.Equal(t, models.WalletFilter{Code: "12", Status: "active", Expiry: models.ExpiryExpiring, RootCode: 3}, tr.wallet.lastFilter)

	w = tr.do(t, http.MethodGet, "/api/v1/wallet-exams?status=archived", string(models.RoleAdmin), nil, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWalletListHTMLFragment(t *testing.T) {
	tr := newTestRouter(t)
	w := tr.do(t, http.MethodGet, "/api/v1/wallet-exams?format=html", string(models.RoleAdmin), nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "3 days")
}

func TestWalletUpdateFailureCarriesOriginal(t *testing.T) {
	tr := newTestRouter(t)
	tr.wallet.updateErr = appErrors.WithDetails(appErrors.ErrValidation, "invalid wallet row", []string{"amount must be a number"})
	tr.wallet.original = &models.WalletExam{Code: 5, Count: 4}

	w := tr.do(t, http.MethodPut, "/api/v1/wallet-exams/5", string(models.RoleAdmin), service.WalletDraft{Amount: "abc"}, true)
	require.Equal(t, http.StatusBadRequest, w.Code)

	env := decode(t, w)
	original, ok := env.Meta["original"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(5), original["code"])
	assert.Equal(t, float64(4), original["count"])
	assert.JSONEq(t, `["amount must be a number"]`, string(env.Error.Details))
}

func TestExamSubmitNeedsConfirmation(t *testing.T) {
	tr := newTestRouter(t)
	tr.exams.submitErr = appErrors.WithDetails(appErrors.ErrConfirmationRequired, "2 questions are unanswered", map[string][]int{"unanswered": {2, 3}})

	w := tr.do(t, http.MethodPost, "/api/v1/student-exams/4/submit", string(models.RoleStudent), service.SubmitExamRequest{}, true)
	require.Equal(t, http.StatusConflict, w.Code)
	env := decode(t, w)
	assert.Equal(t, "CONFIRMATION_REQUIRED", env.Error.Code)
	assert.JSONEq(t, `{"unanswered":[2,3]}`, string(env.Error.Details))

	tr.exams.submitErr = nil
	w = tr.do(t, http.MethodPost, "/api/v1/student-exams/4/submit", string(models.RoleStudent), service.SubmitExamRequest{Confirmed: true}, true)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, tr.exams.submits)
}

func TestExamSessionMissing(t *testing.T) {
	tr := newTestRouter(t)
	w := tr.do(t, http.MethodGet, "/api/v1/student-exams/4/session", string(models.RoleStudent), nil, false)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = tr.do(t, http.MethodGet, "/api/v1/student-exams/abc/session", string(models.RoleStudent), nil, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubscriptionSubjectsReportCacheHit(t *testing.T) {
	tr := newTestRouter(t)
	tr.subscription.hit = true

	w := tr.do(t, http.MethodGet, "/api/v1/subscriptions/years/2/subjects", string(models.RoleAdmin), nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w).Meta["cache_hit"])
}

func TestSubscriptionCreateAggregatesProblems(t *testing.T) {
	tr := newTestRouter(t)
	w := tr.do(t, http.MethodPost, "/api/v1/subscriptions", string(models.RoleAdmin), service.SubscriptionRequest{}, true)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `["year is required","name is required"]`, string(decode(t, w).Error.Details))
}

func TestFinanceExportHeaders(t *testing.T) {
	tr := newTestRouter(t)
	w := tr.do(t, http.MethodGet, "/api/v1/finance/export?kind=income&from=2024-01-01", string(models.RoleAdmin), nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="income_1.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "ID,Amount\n", w.Body.String())
	require.NotNil(t, tr.exporter.lastFilter.From)
	assert.Equal(t, int64(1), tr.exporter.lastFilter.RootCode)

	w = tr.do(t, http.MethodGet, "/api/v1/finance/export?kind=income&from=01/02/2024", string(models.RoleAdmin), nil, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
