package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/newsdesk-api/internal/database"
	"github.com/newsdesk-api/internal/models"
	"github.com/rs/zerolog"
)

var (
	// ErrConflict is returned when a write violates a unique constraint
	ErrConflict = errors.New("conflicting row already exists")
	// ErrInvalidReference is returned when a write points at a missing parent row
	ErrInvalidReference = errors.New("referenced row does not exist")
)

// Querier is the subset of *sql.DB and *sql.Tx the repositories need
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Count(ctx context.Context) (int, error)
}

// WriterRepository defines the interface for writer data operations.
// Update never writes articles_count; counters move through AdjustArticlesCount.
type WriterRepository interface {
	Create(ctx context.Context, writer *models.Writer) error
	Update(ctx context.Context, writer *models.Writer) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*models.Writer, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Writer, error)
	List(ctx context.Context, page models.Page) ([]*models.Writer, int, error)
	AdjustArticlesCount(ctx context.Context, id int64, delta int) error
	RecountArticles(ctx context.Context) (int64, error)
}

// CategoryRepository defines the interface for category data operations.
// Create always assigns the next free order.
type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*models.Category, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Category, error)
	List(ctx context.Context, page models.Page) ([]*models.Category, int, error)
	AdjustArticlesCount(ctx context.Context, id int64, delta int) error
	RecountArticles(ctx context.Context) (int64, error)
}

// ArticleRepository defines the interface for article data operations
type ArticleRepository interface {
	Create(ctx context.Context, article *models.Article) error
	Update(ctx context.Context, article *models.Article) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*models.Article, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Article, error)
	List(ctx context.Context, filter models.ArticleFilter) ([]*models.Article, int, error)
	// LockFeatured serializes changes to the featured set until the transaction ends
	LockFeatured(ctx context.Context) error
	// ListFeatured returns featured articles other than excludeID, most recently updated first
	ListFeatured(ctx context.Context, excludeID int64) ([]*models.Article, error)
	SetFeatured(ctx context.Context, id int64, featured bool, updatedAt time.Time) error
	// CountByCategoryForAuthor returns the author's article count per category
	CountByCategoryForAuthor(ctx context.Context, authorID int64) (map[int64]int, error)
	// SubcategoriesInUse returns the distinct non-empty subcategories of a category's articles
	SubcategoriesInUse(ctx context.Context, categoryID int64) ([]string, error)
	CountByStatus(ctx context.Context) (*models.ArticleStats, error)
	// PublishDue publishes scheduled articles whose publish date and time have passed
	PublishDue(ctx context.Context, now time.Time) (int64, error)
	StreamAll(ctx context.Context, callback func(*models.Article) error) error
}

// VideoCategoryRepository defines the interface for video category data operations
type VideoCategoryRepository interface {
	Create(ctx context.Context, category *models.VideoCategory) error
	GetByID(ctx context.Context, id int64) (*models.VideoCategory, error)
	List(ctx context.Context, page models.Page) ([]*models.VideoCategory, int, error)
}

// VideoRepository defines the interface for video data operations
type VideoRepository interface {
	Create(ctx context.Context, video *models.Video) error
	Update(ctx context.Context, video *models.Video) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*models.Video, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Video, error)
	List(ctx context.Context, filter models.VideoFilter) ([]*models.Video, int, error)
	// ArchiveExpired archives live videos whose end time is before now
	ArchiveExpired(ctx context.Context, now time.Time) (int64, error)
}

// Transactor runs fn with repositories bound to a single database transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos *Repositories) error) error
}

// Repositories holds all repository interfaces
type Repositories struct {
	User          UserRepository
	Writer        WriterRepository
	Category      CategoryRepository
	Article       ArticleRepository
	VideoCategory VideoCategoryRepository
	Video         VideoRepository
	Tx            Transactor
}

// New creates all repositories with the given database connection
func New(db *database.DB, log zerolog.Logger) *Repositories {
	repos := bind(db)
	repos.Tx = &pgTransactor{
		db:  db,
		log: log.With().Str("component", "transactor").Logger(),
	}
	return repos
}

func bind(q Querier) *Repositories {
	return &Repositories{
		User:          &userRepo{db: q},
		Writer:        &writerRepo{db: q},
		Category:      &categoryRepo{db: q},
		Article:       &articleRepo{db: q},
		VideoCategory: &videoCategoryRepo{db: q},
		Video:         &videoRepo{db: q},
	}
}

// maxTxAttempts bounds retries of serialization failures and deadlocks
const maxTxAttempts = 3

type pgTransactor struct {
	db  *database.DB
	log zerolog.Logger
}

func (t *pgTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, repos *Repositories) error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = t.runOnce(ctx, fn)
		if err == nil || !IsRetryable(err) || ctx.Err() != nil {
			return err
		}
		t.log.Warn().Err(err).Int("attempt", attempt).Msg("Retrying transaction")
	}
	return err
}

func (t *pgTransactor) runOnce(ctx context.Context, fn func(ctx context.Context, repos *Repositories) error) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	repos := bind(tx)
	repos.Tx = joinedTx{repos: repos}

	if err := fn(ctx, repos); err != nil {
		return err
	}
	return tx.Commit()
}

// joinedTx runs nested WithinTx calls in the enclosing transaction
type joinedTx struct {
	repos *Repositories
}

func (j joinedTx) WithinTx(ctx context.Context, fn func(ctx context.Context, repos *Repositories) error) error {
	return fn(ctx, j.repos)
}

// IsRetryable reports whether err is a serialization failure or deadlock
func IsRetryable(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "40001" || pqErr.Code == "40P01"
}

// mapError translates constraint violations into repository errors
func mapError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case "23505":
		return fmt.Errorf("%w: %s", ErrConflict, pqErr.Constraint)
	case "23503":
		return fmt.Errorf("%w: %s", ErrInvalidReference, pqErr.Constraint)
	}
	return err
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

// jsonArray encodes a slice for a JSONB column, writing [] for nil
func jsonArray[T any](v []T) ([]byte, error) {
	if v == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(v)
}

// jsonObject encodes a map for a JSONB column, writing {} for nil
func jsonObject[K comparable, V any](v map[K]V) ([]byte, error) {
	if v == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(v)
}

func decodeJSON(data []byte, dst any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dst)
}

func lockFor(forUpdate bool) string {
	if forUpdate {
		return " FOR UPDATE"
	}
	return ""
}
