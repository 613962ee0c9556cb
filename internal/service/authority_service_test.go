package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-center-api/internal/models"
	appErrors "github.com/noah-isme/edu-center-api/pkg/errors"
)

type fakeAuthorityRepo struct {
	groups   map[int64]models.Group
	pages    map[int64]models.Page
	grants   map[[2]int64]models.GroupPage
	grantErr error
}

func newFakeAuthorityRepo() *fakeAuthorityRepo {
	return &fakeAuthorityRepo{
		groups: map[int64]models.Group{
			1: {GroupCode: 1, RootCode: 1, GroupName: "Admins"},
			2: {GroupCode: 2, RootCode: 2, GroupName: "Other"},
		},
		pages: map[int64]models.Page{
			10: {PageCode: 10, RootCode: 1, PageName: "Employees"},
			11: {PageCode: 11, RootCode: 1, PageName: "Expenses"},
			12: {PageCode: 12, RootCode: 1, PageName: "Income"},
			20: {PageCode: 20, RootCode: 2, PageName: "Foreign"},
		},
		grants: map[[2]int64]models.GroupPage{
			{1, 10}: {GroupCode: 1, PageCode: 10, InsertFlag: true},
		},
	}
}

func (f *fakeAuthorityRepo) ListGroups(ctx context.Context, rootCode int64) ([]models.Group, error) {
	var out []models.Group
	for _, g := range f.groups {
		if g.RootCode == rootCode {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeAuthorityRepo) ListPages(ctx context.Context, rootCode int64) ([]models.Page, error) {
	var out []models.Page
	for _, p := range f.pages {
		if p.RootCode == rootCode {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeAuthorityRepo) ListGroupPages(ctx context.Context, rootCode int64) ([]models.GroupPage, error) {
	var out []models.GroupPage
	for _, g := range f.grants {
		if f.groups[g.GroupCode].RootCode == rootCode {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeAuthorityRepo) FindGroup(ctx context.Context, groupCode int64) (*models.Group, error) {
	if g, ok := f.groups[groupCode]; ok {
		return &g, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAuthorityRepo) AvailablePages(ctx context.Context, rootCode, groupCode int64) ([]models.Page, error) {
	var out []models.Page
	for code := int64(1); code <= 30; code++ {
		p, ok := f.pages[code]
		if !ok || p.RootCode != rootCode {
			continue
		}
		if _, mapped := f.grants[[2]int64{groupCode, code}]; !mapped {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeAuthorityRepo) MappedPages(ctx context.Context, groupCode int64, pageCodes []int64) ([]int64, error) {
	var out []int64
	for _, code := range pageCodes {
		if _, ok := f.grants[[2]int64{groupCode, code}]; ok {
			out = append(out, code)
		}
	}
	return out, nil
}

func (f *fakeAuthorityRepo) CountRootPages(ctx context.Context, rootCode int64, pageCodes []int64) (int, error) {
	n := 0
	for _, code := range pageCodes {
		if p, ok := f.pages[code]; ok && p.RootCode == rootCode {
			n++
		}
	}
	return n, nil
}

func (f *fakeAuthorityRepo) Grant(ctx context.Context, grants []models.GroupPage) error {
	if f.grantErr != nil {
		return f.grantErr
	}
	for _, g := range grants {
		f.grants[[2]int64{g.GroupCode, g.PageCode}] = g
	}
	return nil
}

func (f *fakeAuthorityRepo) Revoke(ctx context.Context, groupCode, pageCode int64) error {
	key := [2]int64{groupCode, pageCode}
	if _, ok := f.grants[key]; !ok {
		return sql.ErrNoRows
	}
	delete(f.grants, key)
	return nil
}

type recordingAudit struct {
	entries []models.AuditLog
}

func (r *recordingAudit) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	r.entries = append(r.entries, *log)
	return nil
}

var admin = models.Session{UserID: "admin-1", Role: models.RoleAdmin, RootCode: 1}

func TestAuthorityServiceAvailablePages(t *testing.T) {
	service := NewAuthorityService(newFakeAuthorityRepo(), nil, validator.New(), zap.NewNop())

	pages, err := service.AvailablePages(context.Background(), 1, 1)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, int64(11), pages[0].PageCode)
	assert.Equal(t, int64(12), pages[1].PageCode)

	_, err = service.AvailablePages(context.Background(), 1, 2)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAuthorityServiceGrantCrossProduct(t *testing.T) {
	repo := newFakeAuthorityRepo()
	audit := &recordingAudit{}
	service := NewAuthorityService(repo, audit, validator.New(), zap.NewNop())

	cascade, err := service.Grant(context.Background(), admin, GrantRequest{
		RootCode: 1, GroupCode: 1, PageCodes: []int64{12, 11, 12}, Update: true,
	})
	require.NoError(t, err)
	assert.Len(t, cascade.GroupPages, 3)
	assert.True(t, repo.grants[[2]int64{1, 11}].UpdateFlag)
	assert.False(t, repo.grants[[2]int64{1, 12}].InsertFlag)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionPermissionGrant, audit.entries[0].Action)
	assert.Equal(t, "admin-1", *audit.entries[0].UserID)
}

func TestAuthorityServiceGrantRejectsMappedPages(t *testing.T) {
	repo := newFakeAuthorityRepo()
	service := NewAuthorityService(repo, nil, validator.New(), zap.NewNop())

	_, err := service.Grant(context.Background(), admin, GrantRequest{RootCode: 1, GroupCode: 1, PageCodes: []int64{10, 11}})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Equal(t, map[string]interface{}{"page_codes": []int64{10}}, appErr.Details)
	assert.Len(t, repo.grants, 1)
}

func TestAuthorityServiceGrantValidation(t *testing.T) {
	service := NewAuthorityService(newFakeAuthorityRepo(), nil, validator.New(), zap.NewNop())

	_, err := service.Grant(context.Background(), admin, GrantRequest{RootCode: 1, GroupCode: 1})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = service.Grant(context.Background(), admin, GrantRequest{RootCode: 1, GroupCode: 1, PageCodes: []int64{20}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAuthorityServiceRevokeRefreshesCascade(t *testing.T) {
	repo := newFakeAuthorityRepo()
	audit := &recordingAudit{}
	service := NewAuthorityService(repo, audit, validator.New(), zap.NewNop())

	cascade, err := service.Revoke(context.Background(), admin, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cascade.RootCode)
	assert.Empty(t, cascade.GroupPages)
	assert.Len(t, cascade.Pages, 3)
	assert.Equal(t, models.AuditActionPermissionRevoke, audit.entries[0].Action)

	_, err = service.Revoke(context.Background(), admin, 1, 10)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = service.Revoke(context.Background(), admin, 2, 20)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
