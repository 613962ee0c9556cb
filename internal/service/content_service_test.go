package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-center-api/internal/models"
	appErrors "github.com/noah-isme/edu-center-api/pkg/errors"
)

type fakeContentRepo struct {
	colors  map[string]string
	failKey string
}

func (f *fakeContentRepo) ListColors(ctx context.Context, rootCode int64) ([]models.ColorSetting, error) {
	var out []models.ColorSetting
	for k, v := range f.colors {
		out = append(out, models.ColorSetting{RootCode: rootCode, Key: k, Value: v})
	}
	return out, nil
}

func (f *fakeContentRepo) UpsertColor(ctx context.Context, color models.ColorSetting) error {
	if color.Key == f.failKey {
		return errors.New("write failed")
	}
	f.colors[color.Key] = color.Value
	return nil
}

func TestNormalizeColor(t *testing.T) {
	cases := map[string]string{
		"abc":      "#AABBCC",
		"#1a2b3c":  "#1A2B3C",
		" #FFF ":   "#FFFFFF",
		"000000":   "#000000",
		"zzz":      "",
		"":         "",
		"#12345":   "",
		"#1234567": "",
		"#gg0000":  "",
	}
	for in, want := range cases {
		got, ok := NormalizeColor(in)
		assert.Equal(t, want != "", ok, in)
		assert.Equal(t, want, got, in)
	}
}

func TestContentServiceSaveColors(t *testing.T) {
	repo := &fakeContentRepo{colors: map[string]string{}}
	service := NewContentService(repo, zap.NewNop())

	colors, err := service.SaveColors(context.Background(), 1, SaveColorsRequest{Items: []ColorItem{
		{Key: "primary", Value: "abc"},
		{Key: "accent", Value: "#1a2b3c"},
	}})
	require.NoError(t, err)
	assert.Len(t, colors, 2)
	assert.Equal(t, "#AABBCC", repo.colors["primary"])
	assert.Equal(t, "#1A2B3C", repo.colors["accent"])
}

func TestContentServiceSaveColorsCoalescesFailures(t *testing.T) {
	repo := &fakeContentRepo{colors: map[string]string{}, failKey: "accent"}
	service := NewContentService(repo, zap.NewNop())

	_, err := service.SaveColors(context.Background(), 1, SaveColorsRequest{Items: []ColorItem{
		{Key: "primary", Value: "abc"},
		{Key: "accent", Value: "#123456"},
		{Key: "header", Value: "zzz"},
	}})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrBusinessFailure.Code, appErr.Code)
	assert.Nil(t, appErr.Details)
	assert.Equal(t, "#AABBCC", repo.colors["primary"])

	_, err = service.SaveColors(context.Background(), 1, SaveColorsRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
