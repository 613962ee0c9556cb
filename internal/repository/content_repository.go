package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-center-api/internal/models"
)

// ContentRepository handles persistence for theme colors.
type ContentRepository struct {
	db *sqlx.DB
}

// NewContentRepository creates a new repository instance.
func NewContentRepository(db *sqlx.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

// ListColors returns the saved colors of a root.
func (r *ContentRepository) ListColors(ctx context.Context, rootCode int64) ([]models.ColorSetting, error) {
	const query = `SELECT root_code, key, value FROM color_settings WHERE root_code = $1 ORDER BY key ASC`
	var colors []models.ColorSetting
	if err := r.db.SelectContext(ctx, &colors, query, rootCode); err != nil {
		return nil, fmt.Errorf("list colors: %w", err)
	}
	return colors, nil
}

// UpsertColor stores one color value.
func (r *ContentRepository) UpsertColor(ctx context.Context, color models.ColorSetting) error {
	const query = `INSERT INTO color_settings (root_code, key, value) VALUES (:root_code, :key, :value)
ON CONFLICT (root_code, key) DO UPDATE SET value = EXCLUDED.value`
	if _, err := r.db.NamedExecContext(ctx, query, color); err != nil {
		return fmt.Errorf("upsert color %s: %w", color.Key, err)
	}
	return nil
}
