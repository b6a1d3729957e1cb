package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/newsdesk-api/internal/models"
)

// featuredLock is the advisory lock key guarding the featured set
const featuredLock int64 = 7_301_002

// articleRepo is the concrete implementation of ArticleRepository
type articleRepo struct {
	db Querier
}

// articleSelect joins the parents so every read carries the nested summaries
const articleSelect = `
	SELECT a.id, a.title, a.excerpt, a.content, a.category_id, a.subcategory, a.author_id,
		a.featured_image, a.gallery, a.tags, a.status, a.is_featured, a.is_hot, a.is_trending,
		a.is_breaking, to_char(a.publish_date, 'YYYY-MM-DD'), to_char(a.publish_time, 'HH24:MI:SS'),
		a.seo_title, a.seo_description, a.seo_keywords, a.read_time, a.views, a.created_at, a.updated_at,
		c.name, c.subcategories, w.name
	FROM articles a
	JOIN categories c ON c.id = a.category_id
	JOIN writers w ON w.id = a.author_id`

// Create inserts a new article and fills in its ID
func (r *articleRepo) Create(ctx context.Context, a *models.Article) error {
	gallery, err := jsonArray(a.Gallery)
	if err != nil {
		return err
	}
	tags, err := jsonArray(a.Tags)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO articles (title, excerpt, content, category_id, subcategory, author_id,
			featured_image, gallery, tags, status, is_featured, is_hot, is_trending, is_breaking,
			publish_date, publish_time, seo_title, seo_description, seo_keywords, read_time, views,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23)
		RETURNING id
	`
	err = r.db.QueryRowContext(ctx, query,
		a.Title, a.Excerpt, a.Content, a.CategoryID, a.Subcategory, a.AuthorID,
		a.FeaturedImage, gallery, tags, a.Status, a.IsFeatured, a.IsHot, a.IsTrending, a.IsBreaking,
		a.PublishDate, a.PublishTime, a.SEOTitle, a.SEODescription, a.SEOKeywords, a.ReadTime, a.Views,
		a.CreatedAt, a.UpdatedAt,
	).Scan(&a.ID)
	return mapError(err)
}

// Update writes every article column except views and created_at
func (r *articleRepo) Update(ctx context.Context, a *models.Article) error {
	gallery, err := jsonArray(a.Gallery)
	if err != nil {
		return err
	}
	tags, err := jsonArray(a.Tags)
	if err != nil {
		return err
	}

	query := `
		UPDATE articles SET title = $2, excerpt = $3, content = $4, category_id = $5,
			subcategory = $6, author_id = $7, featured_image = $8, gallery = $9, tags = $10,
			status = $11, is_featured = $12, is_hot = $13, is_trending = $14, is_breaking = $15,
			publish_date = $16, publish_time = $17, seo_title = $18, seo_description = $19,
			seo_keywords = $20, read_time = $21, updated_at = $22
		WHERE id = $1
	`
	_, err = r.db.ExecContext(ctx, query,
		a.ID, a.Title, a.Excerpt, a.Content, a.CategoryID,
		a.Subcategory, a.AuthorID, a.FeaturedImage, gallery, tags,
		a.Status, a.IsFeatured, a.IsHot, a.IsTrending, a.IsBreaking,
		a.PublishDate, a.PublishTime, a.SEOTitle, a.SEODescription,
		a.SEOKeywords, a.ReadTime, a.UpdatedAt,
	)
	return mapError(err)
}

// Delete removes an article
func (r *articleRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM articles WHERE id = $1", id)
	return err
}

// GetByID retrieves an article by ID
func (r *articleRepo) GetByID(ctx context.Context, id int64) (*models.Article, error) {
	return r.get(ctx, articleSelect+` WHERE a.id = $1`, id)
}

// GetByIDForUpdate retrieves an article and locks its row (not its parents)
func (r *articleRepo) GetByIDForUpdate(ctx context.Context, id int64) (*models.Article, error) {
	return r.get(ctx, articleSelect+` WHERE a.id = $1 FOR UPDATE OF a`, id)
}

func (r *articleRepo) get(ctx context.Context, query string, id int64) (*models.Article, error) {
	a, err := scanArticle(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

// List returns a filtered page of articles, newest first
func (r *articleRepo) List(ctx context.Context, filter models.ArticleFilter) ([]*models.Article, int, error) {
	page := filter.Page.Normalize()
	where, args := articleWhere(filter)

	var total int
	countQuery := `SELECT COUNT(*) FROM articles a` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("%s%s ORDER BY a.created_at DESC, a.id DESC LIMIT $%d OFFSET $%d",
		articleSelect, where, len(args)+1, len(args)+2)
	args = append(args, page.Limit, page.Offset())

	articles, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return articles, total, nil
}

// articleWhere builds the WHERE clause for a listing filter
func articleWhere(filter models.ArticleFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.Status != "" {
		add("a.status = $%d", filter.Status)
	}
	if filter.CategoryID > 0 {
		add("a.category_id = $%d", filter.CategoryID)
	}
	if filter.AuthorID > 0 {
		add("a.author_id = $%d", filter.AuthorID)
	}
	if filter.Featured != nil {
		add("a.is_featured = $%d", *filter.Featured)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		add("(a.title ILIKE $%[1]d OR a.excerpt ILIKE $%[1]d)", "%"+escapeLike(s)+"%")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// LockFeatured takes the featured-set advisory lock for the current transaction
func (r *articleRepo) LockFeatured(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", featuredLock)
	return err
}

// ListFeatured returns featured articles other than excludeID, most recently updated first
func (r *articleRepo) ListFeatured(ctx context.Context, excludeID int64) ([]*models.Article, error) {
	query := articleSelect + ` WHERE a.is_featured AND a.id <> $1 ORDER BY a.updated_at DESC, a.id DESC`
	return r.query(ctx, query, excludeID)
}

// SetFeatured flips the featured flag of one article
func (r *articleRepo) SetFeatured(ctx context.Context, id int64, featured bool, updatedAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE articles SET is_featured = $2, updated_at = $3 WHERE id = $1", id, featured, updatedAt)
	return err
}

// CountByCategoryForAuthor returns the author's article count per category
func (r *articleRepo) CountByCategoryForAuthor(ctx context.Context, authorID int64) (map[int64]int, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT category_id, COUNT(*) FROM articles WHERE author_id = $1 GROUP BY category_id ORDER BY category_id",
		authorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int64]int)
	for rows.Next() {
		var (
			categoryID int64
			n          int
		)
		if err := rows.Scan(&categoryID, &n); err != nil {
			return nil, err
		}
		counts[categoryID] = n
	}
	return counts, rows.Err()
}

func (r *articleRepo) SubcategoriesInUse(ctx context.Context, categoryID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT DISTINCT subcategory FROM articles WHERE category_id = $1 AND subcategory <> '' ORDER BY subcategory",
		categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var used []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		used = append(used, name)
	}
	return used, rows.Err()
}

// CountByStatus returns article totals grouped by status
func (r *articleRepo) CountByStatus(ctx context.Context) (*models.ArticleStats, error) {
	query := `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'published'),
			COUNT(*) FILTER (WHERE status = 'draft'),
			COUNT(*) FILTER (WHERE status = 'scheduled')
		FROM articles
	`
	var stats models.ArticleStats
	err := r.db.QueryRowContext(ctx, query).Scan(&stats.Total, &stats.Published, &stats.Drafts, &stats.Scheduled)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// PublishDue publishes scheduled articles whose publish date and time have passed
func (r *articleRepo) PublishDue(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE articles SET status = 'published', updated_at = $1
		WHERE status = 'scheduled' AND (publish_date + publish_time) <= $2::timestamp
	`
	res, err := r.db.ExecContext(ctx, query, now, now.Format("2006-01-02 15:04:05"))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// StreamAll streams all articles for export (memory efficient)
func (r *articleRepo) StreamAll(ctx context.Context, callback func(*models.Article) error) error {
	rows, err := r.db.QueryContext(ctx, articleSelect+` ORDER BY a.created_at, a.id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return err
		}
		if err := callback(a); err != nil {
			return err
		}
	}

	return rows.Err()
}

func (r *articleRepo) query(ctx context.Context, query string, args ...any) ([]*models.Article, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var articles []*models.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

func scanArticle(row rowScanner) (*models.Article, error) {
	var (
		a             models.Article
		gallery, tags []byte
		categoryName  string
		subcategories []byte
		authorName    string
	)
	err := row.Scan(
		&a.ID, &a.Title, &a.Excerpt, &a.Content, &a.CategoryID, &a.Subcategory, &a.AuthorID,
		&a.FeaturedImage, &gallery, &tags, &a.Status, &a.IsFeatured, &a.IsHot, &a.IsTrending,
		&a.IsBreaking, &a.PublishDate, &a.PublishTime,
		&a.SEOTitle, &a.SEODescription, &a.SEOKeywords, &a.ReadTime, &a.Views, &a.CreatedAt, &a.UpdatedAt,
		&categoryName, &subcategories, &authorName,
	)
	if err != nil {
		return nil, err
	}
	if err := decodeJSON(gallery, &a.Gallery); err != nil {
		return nil, fmt.Errorf("decode gallery: %w", err)
	}
	if err := decodeJSON(tags, &a.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}

	a.Category = &models.CategorySummary{ID: a.CategoryID, Name: categoryName, Subcategories: []string{}}
	if err := decodeJSON(subcategories, &a.Category.Subcategories); err != nil {
		return nil, fmt.Errorf("decode subcategories: %w", err)
	}
	a.Author = &models.WriterSummary{ID: a.AuthorID, Name: authorName}
	return &a, nil
}
