package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-center-api/internal/models"
)

const walletColumns = "code, root_code, amount, count, original_count, date_start, expire_date, is_active"

// WalletRepository handles persistence for exam wallets.
type WalletRepository struct {
	db *sqlx.DB
}

// NewWalletRepository creates a new repository instance.
func NewWalletRepository(db *sqlx.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// List returns wallet rows ordered by code. A zero rootCode returns every root.
func (r *WalletRepository) List(ctx context.Context, rootCode int64) ([]models.WalletExam, error) {
	query := "SELECT " + walletColumns + " FROM wallet_exams"
	var args []interface{}
	if rootCode > 0 {
		query += " WHERE root_code = $1"
		args = append(args, rootCode)
	}
	query += " ORDER BY code ASC"
	var wallets []models.WalletExam
	if err := r.db.SelectContext(ctx, &wallets, query, args...); err != nil {
		return nil, fmt.Errorf("list wallet exams: %w", err)
	}
	return wallets, nil
}

// FindByCode returns a wallet row.
func (r *WalletRepository) FindByCode(ctx context.Context, code int64) (*models.WalletExam, error) {
	query := "SELECT " + walletColumns + " FROM wallet_exams WHERE code = $1"
	var wallet models.WalletExam
	if err := r.db.GetContext(ctx, &wallet, query, code); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find wallet exam: %w", err)
	}
	return &wallet, nil
}

// Create inserts a wallet row and assigns its code.
func (r *WalletRepository) Create(ctx context.Context, w *models.WalletExam) error {
	const query = `INSERT INTO wallet_exams (root_code, amount, count, original_count, date_start, expire_date, is_active) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING code`
	if err := r.db.GetContext(ctx, &w.Code, query, w.RootCode, w.Amount, w.Count, w.OriginalCount, w.DateStart, w.ExpireDate, w.IsActive); err != nil {
		return fmt.Errorf("create wallet exam: %w", err)
	}
	return nil
}

// Update persists the editable wallet columns.
func (r *WalletRepository) Update(ctx context.Context, w *models.WalletExam) error {
	const query = `UPDATE wallet_exams SET amount = :amount, count = :count, original_count = :original_count, date_start = :date_start, expire_date = :expire_date, is_active = :is_active WHERE code = :code`
	res, err := r.db.NamedExecContext(ctx, query, w)
	if err != nil {
		return fmt.Errorf("update wallet exam: %w", err)
	}
	return requireAffected(res)
}

// Delete removes a wallet row.
func (r *WalletRepository) Delete(ctx context.Context, code int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM wallet_exams WHERE code = $1`, code)
	if err != nil {
		return fmt.Errorf("delete wallet exam: %w", err)
	}
	return requireAffected(res)
}
