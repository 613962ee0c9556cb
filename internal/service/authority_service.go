package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-center-api/internal/models"
	appErrors "github.com/noah-isme/edu-center-api/pkg/errors"
)

type authorityRepository interface {
	ListGroups(ctx context.Context, rootCode int64) ([]models.Group, error)
	ListPages(ctx context.Context, rootCode int64) ([]models.Page, error)
	ListGroupPages(ctx context.Context, rootCode int64) ([]models.GroupPage, error)
	FindGroup(ctx context.Context, groupCode int64) (*models.Group, error)
	AvailablePages(ctx context.Context, rootCode, groupCode int64) ([]models.Page, error)
	MappedPages(ctx context.Context, groupCode int64, pageCodes []int64) ([]int64, error)
	CountRootPages(ctx context.Context, rootCode int64, pageCodes []int64) (int, error)
	Grant(ctx context.Context, grants []models.GroupPage) error
	Revoke(ctx context.Context, groupCode, pageCode int64) error
}

type auditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// GrantRequest assigns pages to a group with the same action flags.
type GrantRequest struct {
	RootCode  int64   `json:"root_code" validate:"required,gt=0"`
	GroupCode int64   `json:"group_code" validate:"required,gt=0"`
	PageCodes []int64 `json:"page_codes" validate:"required,min=1,dive,gt=0"`
	Insert    bool    `json:"insert"`
	Update    bool    `json:"update"`
	Delete    bool    `json:"delete"`
}

// AuthorityService maintains group to page permissions.
type AuthorityService struct {
	repo      authorityRepository
	audit     auditWriter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAuthorityService constructs the service.
func NewAuthorityService(repo authorityRepository, audit auditWriter, validate *validator.Validate, logger *zap.Logger) *AuthorityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthorityService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// Cascade loads groups, pages and existing grants of a root.
func (s *AuthorityService) Cascade(ctx context.Context, rootCode int64) (*models.AuthorityCascade, error) {
	groups, err := s.repo.ListGroups(ctx, rootCode)
	if err != nil {
		return nil, internalError(err, "failed to list groups")
	}
	pages, err := s.repo.ListPages(ctx, rootCode)
	if err != nil {
		return nil, internalError(err, "failed to list pages")
	}
	grants, err := s.repo.ListGroupPages(ctx, rootCode)
	if err != nil {
		return nil, internalError(err, "failed to list group pages")
	}
	return &models.AuthorityCascade{RootCode: rootCode, Groups: groups, Pages: pages, GroupPages: grants}, nil
}

// AvailablePages lists the pages of the root not yet granted to the group.
func (s *AuthorityService) AvailablePages(ctx context.Context, rootCode, groupCode int64) ([]models.Page, error) {
	if _, err := s.groupInRoot(ctx, rootCode, groupCode); err != nil {
		return nil, err
	}
	pages, err := s.repo.AvailablePages(ctx, rootCode, groupCode)
	if err != nil {
		return nil, internalError(err, "failed to list available pages")
	}
	return pages, nil
}

// Grant creates the group × pages cross product in one transaction and
// returns the refreshed cascade.
func (s *AuthorityService) Grant(ctx context.Context, actor models.Session, req GrantRequest) (*models.AuthorityCascade, error) {
	req.PageCodes = uniqueCodes(req.PageCodes)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid permission payload")
	}
	if _, err := s.groupInRoot(ctx, req.RootCode, req.GroupCode); err != nil {
		return nil, err
	}

	count, err := s.repo.CountRootPages(ctx, req.RootCode, req.PageCodes)
	if err != nil {
		return nil, internalError(err, "failed to check pages")
	}
	if count != len(req.PageCodes) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "one or more pages do not belong to the root")
	}
	mapped, err := s.repo.MappedPages(ctx, req.GroupCode, req.PageCodes)
	if err != nil {
		return nil, internalError(err, "failed to check existing permissions")
	}
	if len(mapped) > 0 {
		return nil, appErrors.WithDetails(appErrors.ErrConflict, "pages are already assigned to the group", map[string]interface{}{"page_codes": mapped})
	}

	grants := make([]models.GroupPage, 0, len(req.PageCodes))
	for _, page := range req.PageCodes {
		grants = append(grants, models.GroupPage{
			GroupCode:  req.GroupCode,
			PageCode:   page,
			InsertFlag: req.Insert,
			UpdateFlag: req.Update,
			DeleteFlag: req.Delete,
		})
	}
	if err := s.repo.Grant(ctx, grants); err != nil {
		return nil, internalError(err, "failed to grant permissions")
	}

	s.writeAudit(ctx, actor, models.AuditActionPermissionGrant, req.GroupCode, req)
	s.logger.Info("permissions granted", zap.Int64("group_code", req.GroupCode), zap.Int("pages", len(grants)))
	return s.Cascade(ctx, req.RootCode)
}

// Revoke removes one grant and returns the refreshed cascade of the group's root.
func (s *AuthorityService) Revoke(ctx context.Context, actor models.Session, groupCode, pageCode int64) (*models.AuthorityCascade, error) {
	group, err := s.repo.FindGroup(ctx, groupCode)
	if err != nil {
		return nil, notFoundOr(err, "group", "load")
	}
	if _, err := ScopeRoot(actor, group.RootCode); err != nil {
		return nil, err
	}
	if err := s.repo.Revoke(ctx, groupCode, pageCode); err != nil {
		return nil, notFoundOr(err, "permission", "revoke")
	}
	s.writeAudit(ctx, actor, models.AuditActionPermissionRevoke, groupCode, map[string]int64{"group_code": groupCode, "page_code": pageCode})
	return s.Cascade(ctx, group.RootCode)
}

func (s *AuthorityService) groupInRoot(ctx context.Context, rootCode, groupCode int64) (*models.Group, error) {
	group, err := s.repo.FindGroup(ctx, groupCode)
	if err != nil {
		return nil, notFoundOr(err, "group", "load")
	}
	if group.RootCode != rootCode {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
	}
	return group, nil
}

func (s *AuthorityService) writeAudit(ctx context.Context, actor models.Session, action string, groupCode int64, values interface{}) {
	if s.audit == nil {
		return
	}
	payload, _ := json.Marshal(values)
	resourceID := fmt.Sprintf("%d", groupCode)
	entry := &models.AuditLog{Action: action, Resource: "group_pages", ResourceID: &resourceID, NewValues: payload}
	if actor.UserID != "" {
		uid := actor.UserID
		entry.UserID = &uid
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("write audit log", zap.String("action", action), zap.Error(err))
	}
}

func uniqueCodes(codes []int64) []int64 {
	if len(codes) == 0 {
		return codes
	}
	seen := make(map[int64]struct{}, len(codes))
	out := make([]int64, 0, len(codes))
	for _, c := range codes {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
