package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/newsdesk-api/internal/models"
)

// categoryOrderLock is the advisory lock key guarding sort_order assignment
const categoryOrderLock int64 = 7_301_001

// categoryRepo is the concrete implementation of CategoryRepository
type categoryRepo struct {
	db Querier
}

const categoryColumns = `id, name, name_english, slug, description, color, icon, subcategories,
	seo_title, seo_description, is_active, articles_count, sort_order, created_at`

// Create inserts a new category with order MAX(sort_order)+1; the advisory
// lock keeps two concurrent creates from picking the same value.
func (r *categoryRepo) Create(ctx context.Context, c *models.Category) error {
	subs, err := jsonArray(c.Subcategories)
	if err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", categoryOrderLock); err != nil {
		return fmt.Errorf("failed to lock category order: %w", err)
	}

	query := `
		INSERT INTO categories (name, name_english, slug, description, color, icon, subcategories,
			seo_title, seo_description, is_active, articles_count, sort_order, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 0,
			(SELECT COALESCE(MAX(sort_order), 0) + 1 FROM categories), $11)
		RETURNING id, sort_order
	`
	err = r.db.QueryRowContext(ctx, query,
		c.Name, c.NameEnglish, c.Slug, c.Description, c.Color, c.Icon, subs,
		c.SEOTitle, c.SEODescription, c.IsActive, c.CreatedAt,
	).Scan(&c.ID, &c.Order)
	if err != nil {
		return mapError(err)
	}
	c.ArticlesCount = 0
	return nil
}

// Update writes the editable category fields
func (r *categoryRepo) Update(ctx context.Context, c *models.Category) error {
	subs, err := jsonArray(c.Subcategories)
	if err != nil {
		return err
	}

	query := `
		UPDATE categories SET name = $2, name_english = $3, slug = $4, description = $5,
			color = $6, icon = $7, subcategories = $8, seo_title = $9, seo_description = $10,
			is_active = $11, sort_order = $12
		WHERE id = $1
	`
	_, err = r.db.ExecContext(ctx, query,
		c.ID, c.Name, c.NameEnglish, c.Slug, c.Description,
		c.Color, c.Icon, subs, c.SEOTitle, c.SEODescription,
		c.IsActive, c.Order,
	)
	return mapError(err)
}

// Delete removes a category
func (r *categoryRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM categories WHERE id = $1", id)
	return err
}

// GetByID retrieves a category by ID
func (r *categoryRepo) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	return r.get(ctx, id, false)
}

// GetByIDForUpdate retrieves a category and locks its row
func (r *categoryRepo) GetByIDForUpdate(ctx context.Context, id int64) (*models.Category, error) {
	return r.get(ctx, id, true)
}

func (r *categoryRepo) get(ctx context.Context, id int64, forUpdate bool) (*models.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1` + lockFor(forUpdate)
	c, err := scanCategory(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// List returns a page of categories in display order
func (r *categoryRepo) List(ctx context.Context, page models.Page) ([]*models.Category, int, error) {
	page = page.Normalize()

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM categories").Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + categoryColumns + ` FROM categories ORDER BY sort_order LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var categories []*models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, 0, err
		}
		categories = append(categories, c)
	}
	return categories, total, rows.Err()
}

// AdjustArticlesCount atomically adds delta to the category's article counter
func (r *categoryRepo) AdjustArticlesCount(ctx context.Context, id int64, delta int) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE categories SET articles_count = articles_count + $2 WHERE id = $1", id, delta)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("category %d: %w", id, ErrInvalidReference)
	}
	return nil
}

// RecountArticles recomputes every category's counter from the articles table
// and returns how many rows were corrected
func (r *categoryRepo) RecountArticles(ctx context.Context) (int64, error) {
	query := `
		UPDATE categories cat SET articles_count = c.n
		FROM (
			SELECT c2.id, COUNT(a.id) AS n
			FROM categories c2 LEFT JOIN articles a ON a.category_id = c2.id
			GROUP BY c2.id
		) c
		WHERE cat.id = c.id AND cat.articles_count <> c.n
	`
	res, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanCategory(row rowScanner) (*models.Category, error) {
	var (
		c    models.Category
		subs []byte
	)
	err := row.Scan(
		&c.ID, &c.Name, &c.NameEnglish, &c.Slug, &c.Description, &c.Color, &c.Icon, &subs,
		&c.SEOTitle, &c.SEODescription, &c.IsActive, &c.ArticlesCount, &c.Order, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := decodeJSON(subs, &c.Subcategories); err != nil {
		return nil, fmt.Errorf("decode subcategories: %w", err)
	}
	if c.Subcategories == nil {
		c.Subcategories = []string{}
	}
	return &c, nil
}
