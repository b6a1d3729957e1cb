package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/newsdesk-api/internal/models"
)

// videoCategoryRepo is the concrete implementation of VideoCategoryRepository
type videoCategoryRepo struct {
	db Querier
}

// Create inserts a new video category
func (r *videoCategoryRepo) Create(ctx context.Context, c *models.VideoCategory) error {
	query := `
		INSERT INTO video_categories (name, description, is_active, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query, c.Name, c.Description, c.IsActive, c.CreatedAt).Scan(&c.ID)
	return mapError(err)
}

// GetByID retrieves a video category by ID
func (r *videoCategoryRepo) GetByID(ctx context.Context, id int64) (*models.VideoCategory, error) {
	query := `SELECT id, name, description, is_active, created_at FROM video_categories WHERE id = $1`

	var c models.VideoCategory
	err := r.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Name, &c.Description, &c.IsActive, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns a page of video categories ordered by name
func (r *videoCategoryRepo) List(ctx context.Context, page models.Page) ([]*models.VideoCategory, int, error) {
	page = page.Normalize()

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM video_categories").Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, name, description, is_active, created_at
		FROM video_categories ORDER BY name, id LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, query, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var categories []*models.VideoCategory
	for rows.Next() {
		var c models.VideoCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, 0, err
		}
		categories = append(categories, &c)
	}
	return categories, total, rows.Err()
}
