package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-center-api/internal/models"
)

// RootRepository handles persistence for tenants and their branches.
type RootRepository struct {
	db *sqlx.DB
}

// NewRootRepository creates a new repository instance.
func NewRootRepository(db *sqlx.DB) *RootRepository {
	return &RootRepository{db: db}
}

// List returns roots of the given kind; an empty kind returns all.
func (r *RootRepository) List(ctx context.Context, kind models.RootKind) ([]models.Root, error) {
	query := "SELECT root_code, name, kind, is_active FROM roots"
	var args []interface{}
	if kind != "" {
		query += " WHERE kind = $1"
		args = append(args, kind)
	}
	query += " ORDER BY root_code ASC"
	var roots []models.Root
	if err := r.db.SelectContext(ctx, &roots, query, args...); err != nil {
		return nil, fmt.Errorf("list roots: %w", err)
	}
	return roots, nil
}

// FindByCode returns a root by code.
func (r *RootRepository) FindByCode(ctx context.Context, code int64) (*models.Root, error) {
	const query = `SELECT root_code, name, kind, is_active FROM roots WHERE root_code = $1`
	var root models.Root
	if err := r.db.GetContext(ctx, &root, query, code); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find root: %w", err)
	}
	return &root, nil
}

// Create inserts a root and assigns its code.
func (r *RootRepository) Create(ctx context.Context, root *models.Root) error {
	const query = `INSERT INTO roots (name, kind, is_active) VALUES ($1, $2, $3) RETURNING root_code`
	if err := r.db.GetContext(ctx, &root.RootCode, query, root.Name, root.Kind, root.IsActive); err != nil {
		return fmt.Errorf("create root: %w", err)
	}
	return nil
}

// Update modifies a root.
func (r *RootRepository) Update(ctx context.Context, root *models.Root) error {
	const query = `UPDATE roots SET name = :name, kind = :kind, is_active = :is_active WHERE root_code = :root_code`
	res, err := r.db.NamedExecContext(ctx, query, root)
	if err != nil {
		return fmt.Errorf("update root: %w", err)
	}
	return requireAffected(res)
}

// Delete removes a root.
func (r *RootRepository) Delete(ctx context.Context, code int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM roots WHERE root_code = $1`, code)
	if err != nil {
		return fmt.Errorf("delete root: %w", err)
	}
	return requireAffected(res)
}

// ListBranches returns the branches of a root ordered by code.
func (r *RootRepository) ListBranches(ctx context.Context, rootCode int64) ([]models.Branch, error) {
	const query = `SELECT branch_code, root_code, name, address, phone, is_active FROM branches WHERE root_code = $1 ORDER BY branch_code ASC`
	var branches []models.Branch
	if err := r.db.SelectContext(ctx, &branches, query, rootCode); err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	return branches, nil
}

// FindBranch returns a branch scoped to its root.
func (r *RootRepository) FindBranch(ctx context.Context, rootCode, branchCode int64) (*models.Branch, error) {
	const query = `SELECT branch_code, root_code, name, address, phone, is_active FROM branches WHERE root_code = $1 AND branch_code = $2`
	var branch models.Branch
	if err := r.db.GetContext(ctx, &branch, query, rootCode, branchCode); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find branch: %w", err)
	}
	return &branch, nil
}

// CreateBranch inserts a branch and assigns its code.
func (r *RootRepository) CreateBranch(ctx context.Context, branch *models.Branch) error {
	const query = `INSERT INTO branches (root_code, name, address, phone, is_active) VALUES ($1, $2, $3, $4, $5) RETURNING branch_code`
	if err := r.db.GetContext(ctx, &branch.BranchCode, query, branch.RootCode, branch.Name, branch.Address, branch.Phone, branch.IsActive); err != nil {
		return fmt.Errorf("create branch: %w", err)
	}
	return nil
}

// UpdateBranch modifies a branch.
func (r *RootRepository) UpdateBranch(ctx context.Context, branch *models.Branch) error {
	const query = `UPDATE branches SET name = :name, address = :address, phone = :phone, is_active = :is_active WHERE branch_code = :branch_code AND root_code = :root_code`
	res, err := r.db.NamedExecContext(ctx, query, branch)
	if err != nil {
		return fmt.Errorf("update branch: %w", err)
	}
	return requireAffected(res)
}

// DeleteBranch removes a branch.
func (r *RootRepository) DeleteBranch(ctx context.Context, rootCode, branchCode int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM branches WHERE root_code = $1 AND branch_code = $2`, rootCode, branchCode)
	if err != nil {
		return fmt.Errorf("delete branch: %w", err)
	}
	return requireAffected(res)
}

// requireAffected maps a zero-row write to sql.ErrNoRows.
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
