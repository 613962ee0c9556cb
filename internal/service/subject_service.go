package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-center-api/internal/models"
	appErrors "github.com/noah-isme/edu-center-api/pkg/errors"
)

type subjectRepository interface {
	ListYears(ctx context.Context, rootCode int64) ([]models.Year, error)
	FindYear(ctx context.Context, rootCode, yearCode int64) (*models.Year, error)
	List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, error)
	FindByCode(ctx context.Context, rootCode, code int64) (*models.Subject, error)
	ExistsByName(ctx context.Context, yearCode int64, name string, excludeCode int64) (bool, error)
	Create(ctx context.Context, s *models.Subject) error
	Update(ctx context.Context, s *models.Subject) error
	Delete(ctx context.Context, rootCode, code int64) error
	CountPlanRows(ctx context.Context, code int64) (int, error)
}

// SubjectRequest captures fields for creating or editing subjects.
type SubjectRequest struct {
	SubjectName string `json:"subject_name" validate:"required"`
	IsPrimary   bool   `json:"is_primary"`
	YearCode    int64  `json:"year_code" validate:"required,gt=0"`
}

// SubjectService handles subject domain workflows.
type SubjectService struct {
	repo      subjectRepository
	cache     *SubjectCache
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService creates a new subject service.
func NewSubjectService(repo subjectRepository, cache *SubjectCache, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns subjects of a root.
func (s *SubjectService) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	subjects, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, internalError(err, "failed to list subjects")
	}
	return subjects, nil
}

// Get returns subject by code.
func (s *SubjectService) Get(ctx context.Context, rootCode, code int64) (*models.Subject, error) {
	subject, err := s.repo.FindByCode(ctx, rootCode, code)
	if err != nil {
		return nil, notFoundOr(err, "subject", "load")
	}
	return subject, nil
}

// Create adds a subject ensuring its name is unique within the year.
func (s *SubjectService) Create(ctx context.Context, rootCode int64, req SubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid subject payload")
	}
	year, err := s.repo.FindYear(ctx, rootCode, req.YearCode)
	if err != nil {
		return nil, notFoundOr(err, "year", "load")
	}
	name := strings.TrimSpace(req.SubjectName)
	exists, err := s.repo.ExistsByName(ctx, year.YearCode, name, 0)
	if err != nil {
		return nil, internalError(err, "failed to check subject name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "subject already exists for this year")
	}

	subject := &models.Subject{SubjectName: name, IsPrimary: req.IsPrimary, YearCode: year.YearCode, RootCode: rootCode, YearName: year.YearName}
	if err := s.repo.Create(ctx, subject); err != nil {
		return nil, internalError(err, "failed to create subject")
	}
	s.invalidate(ctx, rootCode)
	return subject, nil
}

// Update modifies an existing subject.
func (s *SubjectService) Update(ctx context.Context, rootCode, code int64, req SubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid subject payload")
	}
	subject, err := s.repo.FindByCode(ctx, rootCode, code)
	if err != nil {
		return nil, notFoundOr(err, "subject", "load")
	}
	year, err := s.repo.FindYear(ctx, rootCode, req.YearCode)
	if err != nil {
		return nil, notFoundOr(err, "year", "load")
	}
	name := strings.TrimSpace(req.SubjectName)
	exists, err := s.repo.ExistsByName(ctx, year.YearCode, name, code)
	if err != nil {
		return nil, internalError(err, "failed to check subject name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "subject already exists for this year")
	}

	subject.SubjectName = name
	subject.IsPrimary = req.IsPrimary
	subject.YearCode = year.YearCode
	subject.YearName = year.YearName
	if err := s.repo.Update(ctx, subject); err != nil {
		return nil, notFoundOr(err, "subject", "update")
	}
	s.invalidate(ctx, rootCode)
	return subject, nil
}

// Delete removes a subject when no subscription plan uses it.
func (s *SubjectService) Delete(ctx context.Context, rootCode, code int64) error {
	subject, err := s.repo.FindByCode(ctx, rootCode, code)
	if err != nil {
		return notFoundOr(err, "subject", "load")
	}
	count, err := s.repo.CountPlanRows(ctx, subject.SubjectCode)
	if err != nil {
		return internalError(err, "failed to check subject dependencies")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "subject is used by subscription plans")
	}
	if err := s.repo.Delete(ctx, rootCode, code); err != nil {
		return notFoundOr(err, "subject", "delete")
	}
	s.invalidate(ctx, rootCode)
	return nil
}

func (s *SubjectService) invalidate(ctx context.Context, rootCode int64) {
	s.cache.Forget(ctx, rootCode)
}
