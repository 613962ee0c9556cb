package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-center-api/internal/models"
	appErrors "github.com/noah-isme/edu-center-api/pkg/errors"
)

type teacherRepository interface {
	List(ctx context.Context, rootCode int64) ([]models.Teacher, error)
	FindByCode(ctx context.Context, rootCode, code int64) (*models.Teacher, error)
	ExistsByEmail(ctx context.Context, rootCode int64, email string, excludeCode int64) (bool, error)
	Create(ctx context.Context, t *models.Teacher) error
	Update(ctx context.Context, t *models.Teacher) error
	Delete(ctx context.Context, rootCode, code int64) error
	ListTeaches(ctx context.Context, rootCode, teacherCode int64) ([]models.Teach, error)
	CreateTeach(ctx context.Context, t *models.Teach) error
	TeachExists(ctx context.Context, teacherCode, subjectCode int64) (bool, error)
	DeleteTeach(ctx context.Context, rootCode, teachCode int64) error
}

type subjectLookup interface {
	FindByCode(ctx context.Context, rootCode, code int64) (*models.Subject, error)
}

// TeacherRequest captures teacher profile fields.
type TeacherRequest struct {
	Name     string `json:"name" validate:"required"`
	Phone    string `json:"phone" validate:"omitempty,max=32"`
	Email    string `json:"email" validate:"omitempty,email"`
	IsActive *bool  `json:"is_active"`
}

// TeachRequest assigns a teacher to a subject.
type TeachRequest struct {
	TeacherCode int64 `json:"teacher_code" validate:"required,gt=0"`
	SubjectCode int64 `json:"subject_code" validate:"required,gt=0"`
}

// TeacherService handles teacher profiles and their subject assignments.
type TeacherService struct {
	repo      teacherRepository
	subjects  subjectLookup
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs a teacher service.
func NewTeacherService(repo teacherRepository, subjects subjectLookup, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, subjects: subjects, validator: validate, logger: logger}
}

// List returns the teachers of a root.
func (s *TeacherService) List(ctx context.Context, rootCode int64) ([]models.Teacher, error) {
	teachers, err := s.repo.List(ctx, rootCode)
	if err != nil {
		return nil, internalError(err, "failed to list teachers")
	}
	return teachers, nil
}

// Get returns a teacher by code.
func (s *TeacherService) Get(ctx context.Context, rootCode, code int64) (*models.Teacher, error) {
	teacher, err := s.repo.FindByCode(ctx, rootCode, code)
	if err != nil {
		return nil, notFoundOr(err, "teacher", "load")
	}
	return teacher, nil
}

// Create registers a teacher.
func (s *TeacherService) Create(ctx context.Context, rootCode int64, req TeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid teacher payload")
	}
	if err := s.ensureUniqueEmail(ctx, rootCode, req.Email, 0); err != nil {
		return nil, err
	}
	teacher := &models.Teacher{
		RootCode: rootCode,
		Name:     strings.TrimSpace(req.Name),
		Phone:    strings.TrimSpace(req.Phone),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		IsActive: req.IsActive == nil || *req.IsActive,
	}
	if err := s.repo.Create(ctx, teacher); err != nil {
		return nil, internalError(err, "failed to create teacher")
	}
	return teacher, nil
}

// Update modifies teacher data.
func (s *TeacherService) Update(ctx context.Context, rootCode, code int64, req TeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid teacher payload")
	}
	teacher, err := s.repo.FindByCode(ctx, rootCode, code)
	if err != nil {
		return nil, notFoundOr(err, "teacher", "load")
	}
	if err := s.ensureUniqueEmail(ctx, rootCode, req.Email, code); err != nil {
		return nil, err
	}
	teacher.Name = strings.TrimSpace(req.Name)
	teacher.Phone = strings.TrimSpace(req.Phone)
	teacher.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.IsActive != nil {
		teacher.IsActive = *req.IsActive
	}
	if err := s.repo.Update(ctx, teacher); err != nil {
		return nil, notFoundOr(err, "teacher", "update")
	}
	return teacher, nil
}

// Delete removes a teacher and its assignments.
func (s *TeacherService) Delete(ctx context.Context, rootCode, code int64) error {
	if err := s.repo.Delete(ctx, rootCode, code); err != nil {
		return notFoundOr(err, "teacher", "delete")
	}
	return nil
}

// ListTeaches returns subject assignments, optionally for a single teacher.
func (s *TeacherService) ListTeaches(ctx context.Context, rootCode, teacherCode int64) ([]models.Teach, error) {
	teaches, err := s.repo.ListTeaches(ctx, rootCode, teacherCode)
	if err != nil {
		return nil, internalError(err, "failed to list teaches")
	}
	return teaches, nil
}

// CreateTeach assigns a teacher of the root to a subject of the same root.
func (s *TeacherService) CreateTeach(ctx context.Context, rootCode int64, req TeachRequest) (*models.Teach, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid teach payload")
	}
	teacher, err := s.repo.FindByCode(ctx, rootCode, req.TeacherCode)
	if err != nil {
		return nil, notFoundOr(err, "teacher", "load")
	}
	subject, err := s.subjects.FindByCode(ctx, rootCode, req.SubjectCode)
	if err != nil {
		return nil, notFoundOr(err, "subject", "load")
	}
	exists, err := s.repo.TeachExists(ctx, teacher.TeacherCode, subject.SubjectCode)
	if err != nil {
		return nil, internalError(err, "failed to check teach")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "teacher already teaches this subject")
	}
	teach := &models.Teach{
		RootCode:    rootCode,
		TeacherCode: teacher.TeacherCode,
		SubjectCode: subject.SubjectCode,
		TeacherName: teacher.Name,
		SubjectName: subject.SubjectName,
	}
	if err := s.repo.CreateTeach(ctx, teach); err != nil {
		return nil, internalError(err, "failed to create teach")
	}
	return teach, nil
}

// DeleteTeach removes an assignment.
func (s *TeacherService) DeleteTeach(ctx context.Context, rootCode, teachCode int64) error {
	if err := s.repo.DeleteTeach(ctx, rootCode, teachCode); err != nil {
		return notFoundOr(err, "teach", "delete")
	}
	return nil
}

func (s *TeacherService) ensureUniqueEmail(ctx context.Context, rootCode int64, email string, excludeCode int64) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil
	}
	exists, err := s.repo.ExistsByEmail(ctx, rootCode, email, excludeCode)
	if err != nil {
		return internalError(err, "failed to check email uniqueness")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "email already in use")
	}
	return nil
}
