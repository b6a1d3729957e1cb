package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/newsdesk-api/internal/models"
)

// writerRepo is the concrete implementation of WriterRepository
type writerRepo struct {
	db Querier
}

const writerColumns = `id, user_id, name, email, phone, role, department, expertise, bio,
	location, social_links, avatar, join_date, articles_count, status`

// Create inserts a new writer; articles_count always starts at zero
func (r *writerRepo) Create(ctx context.Context, w *models.Writer) error {
	expertise, err := jsonArray(w.Expertise)
	if err != nil {
		return err
	}
	links, err := jsonObject(w.SocialLinks)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO writers (user_id, name, email, phone, role, department, expertise, bio,
			location, social_links, avatar, join_date, articles_count, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 0, $13)
		RETURNING id
	`
	err = r.db.QueryRowContext(ctx, query,
		w.UserID, w.Name, w.Email, w.Phone, w.Role, w.Department, expertise, w.Bio,
		w.Location, links, w.Avatar, w.JoinDate, w.Status,
	).Scan(&w.ID)
	if err != nil {
		return mapError(err)
	}
	w.ArticlesCount = 0
	return nil
}

// Update writes the editable writer fields
func (r *writerRepo) Update(ctx context.Context, w *models.Writer) error {
	expertise, err := jsonArray(w.Expertise)
	if err != nil {
		return err
	}
	links, err := jsonObject(w.SocialLinks)
	if err != nil {
		return err
	}

	query := `
		UPDATE writers SET user_id = $2, name = $3, email = $4, phone = $5, role = $6,
			department = $7, expertise = $8, bio = $9, location = $10, social_links = $11,
			avatar = $12, status = $13
		WHERE id = $1
	`
	_, err = r.db.ExecContext(ctx, query,
		w.ID, w.UserID, w.Name, w.Email, w.Phone, w.Role,
		w.Department, expertise, w.Bio, w.Location, links,
		w.Avatar, w.Status,
	)
	return mapError(err)
}

// Delete removes a writer; their articles go with them via ON DELETE CASCADE
func (r *writerRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM writers WHERE id = $1", id)
	return err
}

// GetByID retrieves a writer by ID
func (r *writerRepo) GetByID(ctx context.Context, id int64) (*models.Writer, error) {
	return r.get(ctx, id, false)
}

// GetByIDForUpdate retrieves a writer and locks its row
func (r *writerRepo) GetByIDForUpdate(ctx context.Context, id int64) (*models.Writer, error) {
	return r.get(ctx, id, true)
}

func (r *writerRepo) get(ctx context.Context, id int64, forUpdate bool) (*models.Writer, error) {
	query := `SELECT ` + writerColumns + ` FROM writers WHERE id = $1` + lockFor(forUpdate)
	w, err := scanWriter(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return w, err
}

// List returns a page of writers ordered by name
func (r *writerRepo) List(ctx context.Context, page models.Page) ([]*models.Writer, int, error) {
	page = page.Normalize()

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM writers").Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + writerColumns + ` FROM writers ORDER BY name, id LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var writers []*models.Writer
	for rows.Next() {
		w, err := scanWriter(rows)
		if err != nil {
			return nil, 0, err
		}
		writers = append(writers, w)
	}
	return writers, total, rows.Err()
}

// AdjustArticlesCount atomically adds delta to the writer's article counter
func (r *writerRepo) AdjustArticlesCount(ctx context.Context, id int64, delta int) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE writers SET articles_count = articles_count + $2 WHERE id = $1", id, delta)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("writer %d: %w", id, ErrInvalidReference)
	}
	return nil
}

// RecountArticles recomputes every writer's counter from the articles table
// and returns how many rows were corrected
func (r *writerRepo) RecountArticles(ctx context.Context) (int64, error) {
	query := `
		UPDATE writers w SET articles_count = c.n
		FROM (
			SELECT w2.id, COUNT(a.id) AS n
			FROM writers w2 LEFT JOIN articles a ON a.author_id = w2.id
			GROUP BY w2.id
		) c
		WHERE w.id = c.id AND w.articles_count <> c.n
	`
	res, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanWriter(row rowScanner) (*models.Writer, error) {
	var (
		w         models.Writer
		userID    sql.NullInt64
		expertise []byte
		links     []byte
	)
	err := row.Scan(
		&w.ID, &userID, &w.Name, &w.Email, &w.Phone, &w.Role, &w.Department, &expertise, &w.Bio,
		&w.Location, &links, &w.Avatar, &w.JoinDate, &w.ArticlesCount, &w.Status,
	)
	if err != nil {
		return nil, err
	}
	if userID.Valid {
		w.UserID = &userID.Int64
	}
	if err := decodeJSON(expertise, &w.Expertise); err != nil {
		return nil, fmt.Errorf("decode expertise: %w", err)
	}
	if err := decodeJSON(links, &w.SocialLinks); err != nil {
		return nil, fmt.Errorf("decode social_links: %w", err)
	}
	return &w, nil
}
