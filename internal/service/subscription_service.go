package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-center-api/internal/models"
	appErrors "github.com/noah-isme/edu-center-api/pkg/errors"
)

const subjectsCachePrefix = "subjects"

type subscriptionRepository interface {
	List(ctx context.Context, rootCode int64) ([]models.SubscriptionPlan, error)
	FindByCode(ctx context.Context, rootCode, code int64) (*models.SubscriptionPlan, error)
	Create(ctx context.Context, plan *models.SubscriptionPlan) error
	Update(ctx context.Context, plan *models.SubscriptionPlan) error
	Delete(ctx context.Context, rootCode, code int64) error
}

type yearSubjectSource interface {
	ListYears(ctx context.Context, rootCode int64) ([]models.Year, error)
	FindYear(ctx context.Context, rootCode, yearCode int64) (*models.Year, error)
	List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, error)
}

// PlanRowRequest is one builder row. Zero values mean the row was left blank.
type PlanRowRequest struct {
	SubjectCode int64 `json:"subject_code"`
	Count       int   `json:"count"`
}

// SubscriptionRequest is the builder submission. Any total sent by the client is ignored.
type SubscriptionRequest struct {
	YearCode     int64            `json:"year_code"`
	Name         string           `json:"name"`
	Price        *decimal.Decimal `json:"price"`
	Description  string           `json:"description"`
	ExpiryMonths *int             `json:"expiry_months"`
	Subjects     []PlanRowRequest `json:"subjects"`
}

// SubscriptionService builds subscription plans from year, subject and count rows.
type SubscriptionService struct {
	repo     subscriptionRepository
	subjects yearSubjectSource
	cache    *SubjectCache
	logger   *zap.Logger
}

// NewSubscriptionService constructs a subscription service.
func NewSubscriptionService(repo subscriptionRepository, subjects yearSubjectSource, cache *SubjectCache, logger *zap.Logger) *SubscriptionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubscriptionService{repo: repo, subjects: subjects, cache: cache, logger: logger}
}

// Years lists the years a plan can be built for.
func (s *SubscriptionService) Years(ctx context.Context, rootCode int64) ([]models.Year, error) {
	years, err := s.subjects.ListYears(ctx, rootCode)
	if err != nil {
		return nil, internalError(err, "failed to list years")
	}
	return years, nil
}

// SubjectsForYear returns the subjects offered for a year. The boolean reports a cache hit.
func (s *SubscriptionService) SubjectsForYear(ctx context.Context, rootCode, yearCode int64) ([]models.Subject, bool, error) {
	if cached, hit := s.cache.Lookup(ctx, rootCode, yearCode); hit {
		return cached, true, nil
	}

	if _, err := s.subjects.FindYear(ctx, rootCode, yearCode); err != nil {
		return nil, false, notFoundOr(err, "year", "load")
	}
	subjects, err := s.subjects.List(ctx, models.SubjectFilter{RootCode: rootCode, YearCode: yearCode})
	if err != nil {
		return nil, false, internalError(err, "failed to list subjects")
	}
	s.cache.Remember(ctx, rootCode, yearCode, subjects)
	return subjects, false, nil
}

// List returns the plans of a root.
func (s *SubscriptionService) List(ctx context.Context, rootCode int64) ([]models.SubscriptionPlan, error) {
	plans, err := s.repo.List(ctx, rootCode)
	if err != nil {
		return nil, internalError(err, "failed to list subscription plans")
	}
	return plans, nil
}

// Get returns one plan.
func (s *SubscriptionService) Get(ctx context.Context, rootCode, code int64) (*models.SubscriptionPlan, error) {
	plan, err := s.repo.FindByCode(ctx, rootCode, code)
	if err != nil {
		return nil, notFoundOr(err, "subscription plan", "load")
	}
	return plan, nil
}

// Create validates the builder submission and stores the plan.
func (s *SubscriptionService) Create(ctx context.Context, rootCode int64, req SubscriptionRequest) (*models.SubscriptionPlan, error) {
	plan, err := s.build(ctx, rootCode, req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, plan); err != nil {
		return nil, internalError(err, "failed to create subscription plan")
	}
	s.logger.Info("subscription plan created", zap.Int64("sub_plan_code", plan.SubPlanCode), zap.Int("total_count", plan.TotalCount))
	return plan, nil
}

// Update replaces a plan and its rows.
func (s *SubscriptionService) Update(ctx context.Context, rootCode, code int64, req SubscriptionRequest) (*models.SubscriptionPlan, error) {
	if _, err := s.repo.FindByCode(ctx, rootCode, code); err != nil {
		return nil, notFoundOr(err, "subscription plan", "load")
	}
	plan, err := s.build(ctx, rootCode, req)
	if err != nil {
		return nil, err
	}
	plan.SubPlanCode = code
	if err := s.repo.Update(ctx, plan); err != nil {
		return nil, notFoundOr(err, "subscription plan", "update")
	}
	return plan, nil
}

// Delete removes a plan.
func (s *SubscriptionService) Delete(ctx context.Context, rootCode, code int64) error {
	if err := s.repo.Delete(ctx, rootCode, code); err != nil {
		return notFoundOr(err, "subscription plan", "delete")
	}
	return nil
}

// build checks the whole submission and reports every problem in one error.
func (s *SubscriptionService) build(ctx context.Context, rootCode int64, req SubscriptionRequest) (*models.SubscriptionPlan, error) {
	var problems []string
	if req.YearCode <= 0 {
		problems = append(problems, "year is required")
	}
	if strings.TrimSpace(req.Name) == "" {
		problems = append(problems, "name is required")
	}
	if req.Price == nil {
		problems = append(problems, "price is required")
	} else if req.Price.IsNegative() {
		problems = append(problems, "price must not be negative")
	}
	if strings.TrimSpace(req.Description) == "" {
		problems = append(problems, "description is required")
	}
	if req.ExpiryMonths == nil || *req.ExpiryMonths < 1 {
		problems = append(problems, "expiry months must be at least 1")
	}

	rows, rowProblems := MergePlanRows(req.Subjects)
	problems = append(problems, rowProblems...)

	var subjectNames map[int64]string
	if req.YearCode > 0 {
		offered, err := s.offeredSubjects(ctx, rootCode, req.YearCode)
		if err != nil {
			return nil, err
		}
		if offered == nil {
			problems = append(problems, "year not found")
		} else {
			subjectNames = offered
			for _, row := range rows {
				if _, ok := offered[row.SubjectCode]; !ok {
					problems = append(problems, fmt.Sprintf("subject %d is not offered for the selected year", row.SubjectCode))
				}
			}
		}
	}

	if len(problems) > 0 {
		return nil, appErrors.WithDetails(appErrors.ErrValidation, "subscription plan is incomplete", problems)
	}

	for i := range rows {
		rows[i].SubjectName = subjectNames[rows[i].SubjectCode]
	}
	return &models.SubscriptionPlan{
		RootCode:     rootCode,
		YearCode:     req.YearCode,
		Name:         strings.TrimSpace(req.Name),
		Price:        *req.Price,
		Description:  strings.TrimSpace(req.Description),
		ExpiryMonths: *req.ExpiryMonths,
		TotalCount:   models.SumCounts(rows),
		Subjects:     rows,
	}, nil
}

// offeredSubjects returns subject names keyed by code, or nil when the year does not exist.
func (s *SubscriptionService) offeredSubjects(ctx context.Context, rootCode, yearCode int64) (map[int64]string, error) {
	subjects, _, err := s.SubjectsForYear(ctx, rootCode, yearCode)
	if err != nil {
		if appErrors.FromError(err).Code == appErrors.ErrNotFound.Code {
			return nil, nil
		}
		return nil, err
	}
	offered := make(map[int64]string, len(subjects))
	for _, subject := range subjects {
		offered[subject.SubjectCode] = subject.SubjectName
	}
	return offered, nil
}

// MergePlanRows skips rows left entirely blank, reports half-filled rows and
// merges duplicate subjects by summing counts. At least one complete row must
// remain.
func MergePlanRows(rows []PlanRowRequest) ([]models.PlanSubject, []string) {
	var problems []string
	totals := make(map[int64]int)
	for i, row := range rows {
		if row.SubjectCode == 0 && row.Count == 0 {
			continue
		}
		n := i + 1
		if row.SubjectCode <= 0 {
			problems = append(problems, fmt.Sprintf("row %d: subject is required", n))
			continue
		}
		if row.Count < 1 {
			problems = append(problems, fmt.Sprintf("row %d: count must be at least 1", n))
			continue
		}
		totals[row.SubjectCode] += row.Count
	}
	if len(totals) == 0 && len(problems) == 0 {
		return nil, []string{"at least one subject row is required"}
	}

	merged := make([]models.PlanSubject, 0, len(totals))
	for code, count := range totals {
		merged = append(merged, models.PlanSubject{SubjectCode: code, Count: count})
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].SubjectCode < merged[j].SubjectCode })
	return merged, problems
}
