package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/edu-center-api/internal/models"
)

// AuthorityRepository handles persistence for groups, pages and group-page grants.
type AuthorityRepository struct {
	db *sqlx.DB
}

// NewAuthorityRepository creates a new repository instance.
func NewAuthorityRepository(db *sqlx.DB) *AuthorityRepository {
	return &AuthorityRepository{db: db}
}

// ListGroups returns the groups of a root.
func (r *AuthorityRepository) ListGroups(ctx context.Context, rootCode int64) ([]models.Group, error) {
	const query = `SELECT group_code, root_code, group_name FROM groups WHERE root_code = $1 ORDER BY group_code ASC`
	var groups []models.Group
	if err := r.db.SelectContext(ctx, &groups, query, rootCode); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

// ListPages returns the pages of a root.
func (r *AuthorityRepository) ListPages(ctx context.Context, rootCode int64) ([]models.Page, error) {
	const query = `SELECT page_code, root_code, page_name, page_path FROM pages WHERE root_code = $1 ORDER BY page_code ASC`
	var pages []models.Page
	if err := r.db.SelectContext(ctx, &pages, query, rootCode); err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	return pages, nil
}

// ListGroupPages returns the grants of every group of a root.
func (r *AuthorityRepository) ListGroupPages(ctx context.Context, rootCode int64) ([]models.GroupPage, error) {
	const query = `SELECT gp.group_code, gp.page_code, g.group_name, p.page_name, gp.insert_flag, gp.update_flag, gp.delete_flag
FROM group_pages gp
JOIN groups g ON g.group_code = gp.group_code
JOIN pages p ON p.page_code = gp.page_code
WHERE g.root_code = $1 ORDER BY gp.group_code ASC, gp.page_code ASC`
	var grants []models.GroupPage
	if err := r.db.SelectContext(ctx, &grants, query, rootCode); err != nil {
		return nil, fmt.Errorf("list group pages: %w", err)
	}
	return grants, nil
}

// FindGroup returns a group by code.
func (r *AuthorityRepository) FindGroup(ctx context.Context, groupCode int64) (*models.Group, error) {
	const query = `SELECT group_code, root_code, group_name FROM groups WHERE group_code = $1`
	var group models.Group
	if err := r.db.GetContext(ctx, &group, query, groupCode); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find group: %w", err)
	}
	return &group, nil
}

// AvailablePages returns root pages not yet mapped to the group.
func (r *AuthorityRepository) AvailablePages(ctx context.Context, rootCode, groupCode int64) ([]models.Page, error) {
	const query = `SELECT p.page_code, p.root_code, p.page_name, p.page_path FROM pages p
WHERE p.root_code = $1 AND NOT EXISTS (SELECT 1 FROM group_pages gp WHERE gp.group_code = $2 AND gp.page_code = p.page_code)
ORDER BY p.page_code ASC`
	var pages []models.Page
	if err := r.db.SelectContext(ctx, &pages, query, rootCode, groupCode); err != nil {
		return nil, fmt.Errorf("list available pages: %w", err)
	}
	return pages, nil
}

// MappedPages returns which of the given pages are already granted to the group.
func (r *AuthorityRepository) MappedPages(ctx context.Context, groupCode int64, pageCodes []int64) ([]int64, error) {
	const query = `SELECT page_code FROM group_pages WHERE group_code = $1 AND page_code = ANY($2) ORDER BY page_code ASC`
	var mapped []int64
	if err := r.db.SelectContext(ctx, &mapped, query, groupCode, pq.Array(pageCodes)); err != nil {
		return nil, fmt.Errorf("check mapped pages: %w", err)
	}
	return mapped, nil
}

// CountRootPages returns how many of the given pages belong to the root.
func (r *AuthorityRepository) CountRootPages(ctx context.Context, rootCode int64, pageCodes []int64) (int, error) {
	const query = `SELECT COUNT(*) FROM pages WHERE root_code = $1 AND page_code = ANY($2)`
	var count int
	if err := r.db.GetContext(ctx, &count, query, rootCode, pq.Array(pageCodes)); err != nil {
		return 0, fmt.Errorf("count root pages: %w", err)
	}
	return count, nil
}

// Grant inserts every grant in one transaction.
func (r *AuthorityRepository) Grant(ctx context.Context, grants []models.GroupPage) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin grant: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO group_pages (group_code, page_code, insert_flag, update_flag, delete_flag) VALUES ($1, $2, $3, $4, $5)`
	for _, g := range grants {
		if _, err = tx.ExecContext(ctx, query, g.GroupCode, g.PageCode, g.InsertFlag, g.UpdateFlag, g.DeleteFlag); err != nil {
			return fmt.Errorf("insert group page %d/%d: %w", g.GroupCode, g.PageCode, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit grant: %w", err)
	}
	return nil
}

// Revoke removes one grant.
func (r *AuthorityRepository) Revoke(ctx context.Context, groupCode, pageCode int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM group_pages WHERE group_code = $1 AND page_code = $2`, groupCode, pageCode)
	if err != nil {
		return fmt.Errorf("revoke group page: %w", err)
	}
	return requireAffected(res)
}
