package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-center-api/internal/models"
)

type rootRepository interface {
	List(ctx context.Context, kind models.RootKind) ([]models.Root, error)
	FindByCode(ctx context.Context, code int64) (*models.Root, error)
	Create(ctx context.Context, root *models.Root) error
	Update(ctx context.Context, root *models.Root) error
	Delete(ctx context.Context, code int64) error
}

// RootRequest captures the editable fields of a center or independent teacher.
type RootRequest struct {
	Name     string          `json:"name" validate:"required"`
	Kind     models.RootKind `json:"kind" validate:"required,oneof=CENTER TEACHER"`
	IsActive *bool           `json:"is_active"`
}

// RootService manages tenants.
type RootService struct {
	repo      rootRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRootService creates a root service.
func NewRootService(repo rootRepository, validate *validator.Validate, logger *zap.Logger) *RootService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RootService{repo: repo, validator: validate, logger: logger}
}

// List returns roots of one kind, or all when kind is empty.
func (s *RootService) List(ctx context.Context, kind models.RootKind) ([]models.Root, error) {
	roots, err := s.repo.List(ctx, models.RootKind(strings.ToUpper(string(kind))))
	if err != nil {
		return nil, internalError(err, "failed to list roots")
	}
	return roots, nil
}

// Get returns one root.
func (s *RootService) Get(ctx context.Context, code int64) (*models.Root, error) {
	root, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, notFoundOr(err, "root", "load")
	}
	return root, nil
}

// Create adds a root.
func (s *RootService) Create(ctx context.Context, req RootRequest) (*models.Root, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid root payload")
	}
	root := &models.Root{Name: strings.TrimSpace(req.Name), Kind: req.Kind, IsActive: req.IsActive == nil || *req.IsActive}
	if err := s.repo.Create(ctx, root); err != nil {
		return nil, internalError(err, "failed to create root")
	}
	s.logger.Info("root created", zap.Int64("root_code", root.RootCode), zap.String("kind", string(root.Kind)))
	return root, nil
}

// Update replaces a root's editable fields.
func (s *RootService) Update(ctx context.Context, code int64, req RootRequest) (*models.Root, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid root payload")
	}
	root, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, notFoundOr(err, "root", "load")
	}
	root.Name = strings.TrimSpace(req.Name)
	root.Kind = req.Kind
	if req.IsActive != nil {
		root.IsActive = *req.IsActive
	}
	if err := s.repo.Update(ctx, root); err != nil {
		return nil, notFoundOr(err, "root", "update")
	}
	return root, nil
}

// Delete removes a root.
func (s *RootService) Delete(ctx context.Context, code int64) error {
	if err := s.repo.Delete(ctx, code); err != nil {
		return notFoundOr(err, "root", "delete")
	}
	return nil
}
