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

type mockTeacherRepo struct {
	items   map[int64]*models.Teacher
	teaches map[int64]*models.Teach
	nextID  int64
	listErr error
}

func newMockTeacherRepo(teachers ...models.Teacher) *mockTeacherRepo {
	m := &mockTeacherRepo{items: make(map[int64]*models.Teacher), teaches: make(map[int64]*models.Teach), nextID: 100}
	for i := range teachers {
		t := teachers[i]
		m.items[t.TeacherCode] = &t
	}
	return m
}

func (m *mockTeacherRepo) List(ctx context.Context, rootCode int64) ([]models.Teacher, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []models.Teacher
	for _, t := range m.items {
		if t.RootCode == rootCode {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *mockTeacherRepo) FindByCode(ctx context.Context, rootCode, code int64) (*models.Teacher, error) {
	if t, ok := m.items[code]; ok && t.RootCode == rootCode {
		cp := *t
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTeacherRepo) ExistsByEmail(ctx context.Context, rootCode int64, email string, excludeCode int64) (bool, error) {
	for _, t := range m.items {
		if t.RootCode == rootCode && t.Email == email && t.TeacherCode != excludeCode {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockTeacherRepo) Create(ctx context.Context, t *models.Teacher) error {
	m.nextID++
	t.TeacherCode = m.nextID
	cp := *t
	m.items[t.TeacherCode] = &cp
	return nil
}

func (m *mockTeacherRepo) Update(ctx context.Context, t *models.Teacher) error {
	if _, ok := m.items[t.TeacherCode]; !ok {
		return sql.ErrNoRows
	}
	cp := *t
	m.items[t.TeacherCode] = &cp
	return nil
}

func (m *mockTeacherRepo) Delete(ctx context.Context, rootCode, code int64) error {
	if _, ok := m.items[code]; !ok {
		return sql.ErrNoRows
	}
	delete(m.items, code)
	return nil
}

func (m *mockTeacherRepo) ListTeaches(ctx context.Context, rootCode, teacherCode int64) ([]models.Teach, error) {
	var out []models.Teach
	for _, t := range m.teaches {
		if t.RootCode == rootCode && (teacherCode == 0 || t.TeacherCode == teacherCode) {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *mockTeacherRepo) CreateTeach(ctx context.Context, t *models.Teach) error {
	m.nextID++
	t.TeachCode = m.nextID
	cp := *t
	m.teaches[t.TeachCode] = &cp
	return nil
}

func (m *mockTeacherRepo) TeachExists(ctx context.Context, teacherCode, subjectCode int64) (bool, error) {
	for _, t := range m.teaches {
		if t.TeacherCode == teacherCode && t.SubjectCode == subjectCode {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockTeacherRepo) DeleteTeach(ctx context.Context, rootCode, teachCode int64) error {
	if _, ok := m.teaches[teachCode]; !ok {
		return sql.ErrNoRows
	}
	delete(m.teaches, teachCode)
	return nil
}

type stubSubjectLookup map[int64]models.Subject

func (s stubSubjectLookup) FindByCode(ctx context.Context, rootCode, code int64) (*models.Subject, error) {
	if subject, ok := s[code]; ok && subject.RootCode == rootCode {
		return &subject, nil
	}
	return nil, sql.ErrNoRows
}

func TestTeacherServiceCreate(t *testing.T) {
	repo := newMockTeacherRepo()
	service := NewTeacherService(repo, nil, validator.New(), zap.NewNop())

	teacher, err := service.Create(context.Background(), 1, TeacherRequest{Name: " Teacher One ", Email: "Teach@Example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Teacher One", teacher.Name)
	assert.Equal(t, "teach@example.com", teacher.Email)
	assert.True(t, teacher.IsActive)
	assert.Len(t, repo.items, 1)
}

func TestTeacherServiceCreateDuplicateEmail(t *testing.T) {
	repo := newMockTeacherRepo(models.Teacher{TeacherCode: 1, RootCode: 1, Name: "A", Email: "teach@example.com"})
	service := NewTeacherService(repo, nil, validator.New(), zap.NewNop())

	_, err := service.Create(context.Background(), 1, TeacherRequest{Name: "B", Email: "teach@example.com"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestTeacherServiceUpdate(t *testing.T) {
	repo := newMockTeacherRepo(models.Teacher{TeacherCode: 1, RootCode: 1, Name: "Teacher One", Email: "teach@example.com", IsActive: true})
	service := NewTeacherService(repo, nil, validator.New(), zap.NewNop())

	inactive := false
	updated, err := service.Update(context.Background(), 1, 1, TeacherRequest{Name: "Teacher Updated", Email: "teach@example.com", IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "Teacher Updated", updated.Name)
	assert.False(t, updated.IsActive)
}

func TestTeacherServiceUpdateOtherRootIsNotFound(t *testing.T) {
	repo := newMockTeacherRepo(models.Teacher{TeacherCode: 1, RootCode: 2, Name: "Teacher"})
	service := NewTeacherService(repo, nil, validator.New(), zap.NewNop())

	_, err := service.Update(context.Background(), 1, 1, TeacherRequest{Name: "X"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTeacherServiceCreateTeach(t *testing.T) {
	repo := newMockTeacherRepo(models.Teacher{TeacherCode: 1, RootCode: 1, Name: "Teacher"})
	subjects := stubSubjectLookup{7: {SubjectCode: 7, RootCode: 1, SubjectName: "Math"}}
	service := NewTeacherService(repo, subjects, validator.New(), zap.NewNop())

	teach, err := service.CreateTeach(context.Background(), 1, TeachRequest{TeacherCode: 1, SubjectCode: 7})
	require.NoError(t, err)
	assert.Equal(t, "Teacher", teach.TeacherName)
	assert.Equal(t, "Math", teach.SubjectName)

	_, err = service.CreateTeach(context.Background(), 1, TeachRequest{TeacherCode: 1, SubjectCode: 7})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	_, err = service.CreateTeach(context.Background(), 1, TeachRequest{TeacherCode: 1, SubjectCode: 8})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTeacherServiceDelete(t *testing.T) {
	repo := newMockTeacherRepo(models.Teacher{TeacherCode: 1, RootCode: 1, Name: "Teacher"})
	service := NewTeacherService(repo, nil, validator.New(), zap.NewNop())

	require.NoError(t, service.Delete(context.Background(), 1, 1))
	err := service.Delete(context.Background(), 1, 1)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
