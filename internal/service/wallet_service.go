package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-center-api/internal/models"
	appErrors "github.com/noah-isme/edu-center-api/pkg/errors"
	"github.com/noah-isme/edu-center-api/pkg/i18n"
)

const defaultExpiringWithinDays = 7

type walletRepository interface {
	List(ctx context.Context, rootCode int64) ([]models.WalletExam, error)
	FindByCode(ctx context.Context, code int64) (*models.WalletExam, error)
	Create(ctx context.Context, w *models.WalletExam) error
	Update(ctx context.Context, w *models.WalletExam) error
	Delete(ctx context.Context, code int64) error
}

// WalletDraft carries the raw cell values of an edited wallet row. Values are
// parsed on save so blank or non-numeric cells surface as validation errors.
type WalletDraft struct {
	RootCode      int64  `json:"root_code"`
	Amount        string `json:"amount"`
	Count         string `json:"count"`
	OriginalCount string `json:"original_count"`
	DateStart     string `json:"date_start"`
	ExpireDate    string `json:"expire_date"`
	IsActive      *bool  `json:"is_active"`
}

type walletValues struct {
	amount        decimal.Decimal
	count         int
	originalCount int
	dateStart     time.Time
	expireDate    time.Time
}

// WalletView is a wallet row with its derived days-left value.
type WalletView struct {
	models.WalletExam
	DaysLeft          int    `json:"days_left"`
	DaysLeftLabel     string `json:"days_left_label"`
	AmountDisplay     string `json:"amount_display"`
	ExpireDateDisplay string `json:"expire_date_display"`
}

// WalletList is a filtered wallet page. Total counts rows before filtering.
type WalletList struct {
	Rows  []WalletView
	Total int
}

// WalletExamService manages wallet exam rows with inline editing.
type WalletExamService struct {
	repo         walletRepository
	logger       *zap.Logger
	expiringDays int
	now          func() time.Time
	edits        *rowEditor[models.WalletExam]
}

// NewWalletExamService constructs a wallet service.
func NewWalletExamService(repo walletRepository, expiringDays int, logger *zap.Logger) *WalletExamService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if expiringDays <= 0 {
		expiringDays = defaultExpiringWithinDays
	}
	return &WalletExamService{
		repo:         repo,
		logger:       logger,
		expiringDays: expiringDays,
		now:          time.Now,
		edits:        newRowEditor[models.WalletExam](),
	}
}

// DaysLeft returns whole days from today until expire, both taken at midnight UTC.
func DaysLeft(expire, today time.Time) int {
	e := midnight(expire)
	t := midnight(today)
	return int(math.Floor(e.Sub(t).Hours() / 24))
}

// DaysLeftLabel renders a days-left value for display.
func DaysLeftLabel(days int) string {
	if days < 0 {
		return "Expired"
	}
	return fmt.Sprintf("%d days", days)
}

// Bucket classifies a days-left value.
func Bucket(days, expiringWithin int) models.ExpiryBucket {
	switch {
	case days < 0:
		return models.ExpiryExpired
	case days <= expiringWithin:
		return models.ExpiryExpiring
	default:
		return models.ExpiryValid
	}
}

// FilterWallets returns the rows matching every non-empty criterion. The
// input slice is never modified.
func FilterWallets(rows []models.WalletExam, filter models.WalletFilter, today time.Time, expiringWithin int) []models.WalletExam {
	code := strings.TrimSpace(filter.Code)
	status := strings.ToLower(strings.TrimSpace(filter.Status))
	out := make([]models.WalletExam, 0, len(rows))
	for _, row := range rows {
		if code != "" && !strings.Contains(strconv.FormatInt(row.Code, 10), code) {
			continue
		}
		switch status {
		case "active":
			if !row.IsActive {
				continue
			}
		case "inactive":
			if row.IsActive {
				continue
			}
		}
		if filter.Expiry != "" && Bucket(DaysLeft(row.ExpireDate, today), expiringWithin) != filter.Expiry {
			continue
		}
		if filter.RootCode > 0 && row.RootCode != filter.RootCode {
			continue
		}
		out = append(out, row)
	}
	return out
}

// List loads the wallet rows visible to the session and applies filter.
func (s *WalletExamService) List(ctx context.Context, session models.Session, filter models.WalletFilter, f *i18n.Formatter) (*WalletList, error) {
	scope := int64(0)
	if session.Role != models.RoleSuperAdmin {
		root, err := ScopeRoot(session, 0)
		if err != nil {
			return nil, err
		}
		scope = root
		filter.RootCode = root
	}
	if filter.Expiry != "" && filter.Expiry != models.ExpiryExpired && filter.Expiry != models.ExpiryExpiring && filter.Expiry != models.ExpiryValid {
		return nil, appErrors.Clone(appErrors.ErrValidation, "expiry must be expired, expiring or valid")
	}

	rows, err := s.repo.List(ctx, scope)
	if err != nil {
		return nil, internalError(err, "failed to list wallet exams")
	}
	today := s.now()
	filtered := FilterWallets(rows, filter, today, s.expiringDays)
	f = formatterOrDefault(f)
	views := make([]WalletView, 0, len(filtered))
	for _, row := range filtered {
		views = append(views, s.view(row, today, f))
	}
	return &WalletList{Rows: views, Total: len(rows)}, nil
}

// Get returns one row with its derived values.
func (s *WalletExamService) Get(ctx context.Context, session models.Session, code int64, f *i18n.Formatter) (*WalletView, error) {
	wallet, err := s.find(ctx, session, code)
	if err != nil {
		return nil, err
	}
	view := s.view(*wallet, s.now(), formatterOrDefault(f))
	return &view, nil
}

// Create adds a wallet row.
func (s *WalletExamService) Create(ctx context.Context, session models.Session, draft WalletDraft) (*models.WalletExam, error) {
	rootCode, err := ScopeRoot(session, draft.RootCode)
	if err != nil {
		return nil, err
	}
	values, err := parseWalletDraft(draft)
	if err != nil {
		return nil, err
	}
	wallet := &models.WalletExam{RootCode: rootCode, IsActive: draft.IsActive == nil || *draft.IsActive}
	values.apply(wallet)
	if err := s.repo.Create(ctx, wallet); err != nil {
		return nil, internalError(err, "failed to create wallet exam")
	}
	return wallet, nil
}

// Update edits a wallet row. On failure the second result is the row as it
// was before the edit.
func (s *WalletExamService) Update(ctx context.Context, session models.Session, code int64, draft WalletDraft) (*models.WalletExam, *models.WalletExam, error) {
	current, err := s.find(ctx, session, code)
	if err != nil {
		return nil, nil, err
	}

	values, parseErr := parseWalletDraft(draft)
	validate := func(models.WalletExam) error { return parseErr }
	commit := func(w models.WalletExam) (models.WalletExam, error) {
		values.apply(&w)
		if draft.IsActive != nil {
			w.IsActive = *draft.IsActive
		}
		if err := s.repo.Update(ctx, &w); err != nil {
			return w, notFoundOr(err, "wallet exam", "update")
		}
		return w, nil
	}

	saved, original, err := s.edits.Edit(strconv.FormatInt(code, 10), *current, *current, validate, commit)
	if err != nil {
		s.logger.Debug("wallet edit rejected", zap.Int64("code", code), zap.Error(err))
		return nil, &original, err
	}
	return &saved, nil, nil
}

// Delete removes a wallet row.
func (s *WalletExamService) Delete(ctx context.Context, session models.Session, code int64) error {
	if _, err := s.find(ctx, session, code); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, code); err != nil {
		return notFoundOr(err, "wallet exam", "delete")
	}
	return nil
}

func (s *WalletExamService) find(ctx context.Context, session models.Session, code int64) (*models.WalletExam, error) {
	wallet, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, notFoundOr(err, "wallet exam", "load")
	}
	if session.Role != models.RoleSuperAdmin && wallet.RootCode != session.RootCode {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "wallet exam not found")
	}
	return wallet, nil
}

func (s *WalletExamService) view(row models.WalletExam, today time.Time, f *i18n.Formatter) WalletView {
	days := DaysLeft(row.ExpireDate, today)
	return WalletView{
		WalletExam:        row,
		DaysLeft:          days,
		DaysLeftLabel:     DaysLeftLabel(days),
		AmountDisplay:     f.FormatMoney(row.Amount),
		ExpireDateDisplay: f.FormatDate(row.ExpireDate),
	}
}

func parseWalletDraft(d WalletDraft) (walletValues, error) {
	var v walletValues
	var problems []string

	amount, err := decimal.NewFromString(strings.TrimSpace(d.Amount))
	if err != nil {
		problems = append(problems, "amount must be a number")
	} else if amount.IsNegative() {
		problems = append(problems, "amount must not be negative")
	}
	v.amount = amount

	v.count, problems = parseCount(d.Count, "count", problems)
	v.originalCount, problems = parseCount(d.OriginalCount, "original count", problems)

	if v.dateStart, err = time.Parse(DateLayout, strings.TrimSpace(d.DateStart)); err != nil {
		problems = append(problems, "date start must be a date (YYYY-MM-DD)")
	}
	if v.expireDate, err = time.Parse(DateLayout, strings.TrimSpace(d.ExpireDate)); err != nil {
		problems = append(problems, "expire date must be a date (YYYY-MM-DD)")
	}
	if len(problems) == 0 && v.expireDate.Before(v.dateStart) {
		problems = append(problems, "expire date must not be before date start")
	}

	if len(problems) > 0 {
		return v, appErrors.WithDetails(appErrors.ErrValidation, "invalid wallet row", problems)
	}
	return v, nil
}

func parseCount(raw, field string, problems []string) (int, []string) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, append(problems, field+" must be a whole number")
	}
	if n < 0 {
		return 0, append(problems, field+" must not be negative")
	}
	return n, problems
}

func (v walletValues) apply(w *models.WalletExam) {
	w.Amount = v.amount
	w.Count = v.count
	w.OriginalCount = v.originalCount
	w.DateStart = v.dateStart
	w.ExpireDate = v.expireDate
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
