package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-center-api/internal/models"
)

type branchRepository interface {
	ListBranches(ctx context.Context, rootCode int64) ([]models.Branch, error)
	FindBranch(ctx context.Context, rootCode, branchCode int64) (*models.Branch, error)
	CreateBranch(ctx context.Context, branch *models.Branch) error
	UpdateBranch(ctx context.Context, branch *models.Branch) error
	DeleteBranch(ctx context.Context, rootCode, branchCode int64) error
}

// BranchRequest is the full editable payload of a branch row.
type BranchRequest struct {
	Name     string `json:"name" validate:"required"`
	Address  string `json:"address"`
	Phone    string `json:"phone" validate:"omitempty,max=32"`
	IsActive *bool  `json:"is_active"`
}

// BranchService manages branches with inline row editing.
type BranchService struct {
	repo      branchRepository
	validator *validator.Validate
	logger    *zap.Logger
	edits     *rowEditor[models.Branch]
}

// NewBranchService creates a branch service.
func NewBranchService(repo branchRepository, validate *validator.Validate, logger *zap.Logger) *BranchService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BranchService{repo: repo, validator: validate, logger: logger, edits: newRowEditor[models.Branch]()}
}

// List returns the branches of a root.
func (s *BranchService) List(ctx context.Context, rootCode int64) ([]models.Branch, error) {
	branches, err := s.repo.ListBranches(ctx, rootCode)
	if err != nil {
		return nil, internalError(err, "failed to list branches")
	}
	return branches, nil
}

// Get returns one branch.
func (s *BranchService) Get(ctx context.Context, rootCode, code int64) (*models.Branch, error) {
	branch, err := s.repo.FindBranch(ctx, rootCode, code)
	if err != nil {
		return nil, notFoundOr(err, "branch", "load")
	}
	return branch, nil
}

// Create adds a branch.
func (s *BranchService) Create(ctx context.Context, rootCode int64, req BranchRequest) (*models.Branch, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid branch payload")
	}
	branch := &models.Branch{
		RootCode: rootCode,
		Name:     strings.TrimSpace(req.Name),
		Address:  strings.TrimSpace(req.Address),
		Phone:    strings.TrimSpace(req.Phone),
		IsActive: req.IsActive == nil || *req.IsActive,
	}
	if err := s.repo.CreateBranch(ctx, branch); err != nil {
		return nil, internalError(err, "failed to create branch")
	}
	return branch, nil
}

// Update edits a branch row. On failure the returned branch is the row as it
// was before the edit.
func (s *BranchService) Update(ctx context.Context, rootCode, code int64, req BranchRequest) (*models.Branch, *models.Branch, error) {
	current, err := s.repo.FindBranch(ctx, rootCode, code)
	if err != nil {
		return nil, nil, notFoundOr(err, "branch", "load")
	}

	edited := *current
	edited.Name = strings.TrimSpace(req.Name)
	edited.Address = strings.TrimSpace(req.Address)
	edited.Phone = strings.TrimSpace(req.Phone)
	if req.IsActive != nil {
		edited.IsActive = *req.IsActive
	}

	validate := func(models.Branch) error {
		if err := s.validator.Struct(req); err != nil {
			return validationError(err, "invalid branch payload")
		}
		return nil
	}
	commit := func(b models.Branch) (models.Branch, error) {
		if err := s.repo.UpdateBranch(ctx, &b); err != nil {
			return b, notFoundOr(err, "branch", "update")
		}
		return b, nil
	}

	saved, original, err := s.edits.Edit(fmt.Sprintf("%d:%d", rootCode, code), *current, edited, validate, commit)
	if err != nil {
		s.logger.Debug("branch edit rejected", zap.Int64("branch_code", code), zap.Error(err))
		return nil, &original, err
	}
	return &saved, nil, nil
}

// Delete removes a branch.
func (s *BranchService) Delete(ctx context.Context, rootCode, code int64) error {
	if err := s.repo.DeleteBranch(ctx, rootCode, code); err != nil {
		return notFoundOr(err, "branch", "delete")
	}
	return nil
}
