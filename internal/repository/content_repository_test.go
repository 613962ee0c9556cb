package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-center-api/internal/models"
)

func TestContentRepositoryUpsertColor(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewContentRepository(db)

	mock.ExpectExec(`(?s)INSERT INTO color_settings.*ON CONFLICT \(root_code, key\) DO UPDATE`).
		WithArgs(int64(1), "primary", "#AABBCC").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.UpsertColor(context.Background(), models.ColorSetting{RootCode: 1, Key: "primary", Value: "#AABBCC"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
