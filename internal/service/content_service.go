package service

import (
	"context"
	"encoding/hex"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/edu-center-api/internal/models"
	appErrors "github.com/noah-isme/edu-center-api/pkg/errors"
)

type contentRepository interface {
	ListColors(ctx context.Context, rootCode int64) ([]models.ColorSetting, error)
	UpsertColor(ctx context.Context, color models.ColorSetting) error
}

// ColorItem is one submitted theme color.
type ColorItem struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// SaveColorsRequest is the Content page save payload.
type SaveColorsRequest struct {
	Items []ColorItem `json:"items"`
}

// ContentService stores the theme colors of a root.
type ContentService struct {
	repo   contentRepository
	logger *zap.Logger
}

// NewContentService constructs the service.
func NewContentService(repo contentRepository, logger *zap.Logger) *ContentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContentService{repo: repo, logger: logger}
}

// NormalizeColor returns value as an upper-case "#RRGGBB". Three digit
// shorthand is expanded; anything else is rejected.
func NormalizeColor(value string) (string, bool) {
	v := strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(v) == 3 {
		v = string([]byte{v[0], v[0], v[1], v[1], v[2], v[2]})
	}
	if len(v) != 6 {
		return "", false
	}
	if _, err := hex.DecodeString(v); err != nil {
		return "", false
	}
	return "#" + strings.ToUpper(v), true
}

// Colors lists the saved colors of a root.
func (s *ContentService) Colors(ctx context.Context, rootCode int64) ([]models.ColorSetting, error) {
	colors, err := s.repo.ListColors(ctx, rootCode)
	if err != nil {
		return nil, internalError(err, "failed to list colors")
	}
	return colors, nil
}

// SaveColors stores every item. When any item fails the caller gets one
// generic failure; items saved before it stay saved.
func (s *ContentService) SaveColors(ctx context.Context, rootCode int64, req SaveColorsRequest) ([]models.ColorSetting, error) {
	if len(req.Items) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one color is required")
	}
	failed := 0
	for _, item := range req.Items {
		key := strings.TrimSpace(item.Key)
		value, ok := NormalizeColor(item.Value)
		if key == "" || !ok {
			s.logger.Debug("color rejected", zap.String("key", key), zap.String("value", item.Value))
			failed++
			continue
		}
		if err := s.repo.UpsertColor(ctx, models.ColorSetting{RootCode: rootCode, Key: key, Value: value}); err != nil {
			s.logger.Warn("save color", zap.String("key", key), zap.Error(err))
			failed++
		}
	}
	if failed > 0 {
		return nil, appErrors.Clone(appErrors.ErrBusinessFailure, "failed to save colors")
	}
	return s.Colors(ctx, rootCode)
}
