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

// videoRepo is the concrete implementation of VideoRepository
type videoRepo struct {
	db Querier
}

const videoColumns = `id, title, description, video_type, video_file, thumbnail, platform, platform_url,
	status, is_live, live_start_time, live_end_time, category_id, uploader_id, views, created_at, updated_at`

// Create inserts a new video and fills in its ID
func (r *videoRepo) Create(ctx context.Context, v *models.Video) error {
	query := `
		INSERT INTO videos (title, description, video_type, video_file, thumbnail, platform, platform_url,
			status, is_live, live_start_time, live_end_time, category_id, uploader_id, views,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		v.Title, v.Description, v.VideoType, v.VideoFile, v.Thumbnail, v.Platform, v.PlatformURL,
		v.Status, v.IsLive, v.LiveStartTime, v.LiveEndTime, v.CategoryID, v.UploaderID, v.Views,
		v.CreatedAt, v.UpdatedAt,
	).Scan(&v.ID)
	return mapError(err)
}

// Update writes every video column except uploader, views and created_at
func (r *videoRepo) Update(ctx context.Context, v *models.Video) error {
	query := `
		UPDATE videos SET title = $2, description = $3, video_type = $4, video_file = $5,
			thumbnail = $6, platform = $7, platform_url = $8, status = $9, is_live = $10,
			live_start_time = $11, live_end_time = $12, category_id = $13, updated_at = $14
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query,
		v.ID, v.Title, v.Description, v.VideoType, v.VideoFile,
		v.Thumbnail, v.Platform, v.PlatformURL, v.Status, v.IsLive,
		v.LiveStartTime, v.LiveEndTime, v.CategoryID, v.UpdatedAt,
	)
	return mapError(err)
}

// Delete removes a video
func (r *videoRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM videos WHERE id = $1", id)
	return err
}

// GetByID retrieves a video by ID
func (r *videoRepo) GetByID(ctx context.Context, id int64) (*models.Video, error) {
	return r.get(ctx, id, false)
}

// GetByIDForUpdate retrieves a video and locks its row
func (r *videoRepo) GetByIDForUpdate(ctx context.Context, id int64) (*models.Video, error) {
	return r.get(ctx, id, true)
}

func (r *videoRepo) get(ctx context.Context, id int64, forUpdate bool) (*models.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE id = $1` + lockFor(forUpdate)
	v, err := scanVideo(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return v, err
}

// List returns a filtered page of videos, newest first
func (r *videoRepo) List(ctx context.Context, filter models.VideoFilter) ([]*models.Video, int, error) {
	page := filter.Page.Normalize()

	var (
		conds []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.CategoryID > 0 {
		args = append(args, filter.CategoryID)
		conds = append(conds, fmt.Sprintf("category_id = $%d", len(args)))
	}
	if filter.IsLive != nil {
		args = append(args, *filter.IsLive)
		conds = append(conds, fmt.Sprintf("is_live = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM videos"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT %s FROM videos%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d",
		videoColumns, where, len(args)+1, len(args)+2)
	args = append(args, page.Limit, page.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var videos []*models.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, 0, err
		}
		videos = append(videos, v)
	}
	return videos, total, rows.Err()
}

// ArchiveExpired archives live videos whose end time is before now
func (r *videoRepo) ArchiveExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE videos SET is_live = FALSE, status = 'archived', updated_at = $1
		WHERE is_live AND live_end_time IS NOT NULL AND live_end_time < $1
	`
	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanVideo(row rowScanner) (*models.Video, error) {
	var (
		v          models.Video
		start, end sql.NullTime
		categoryID sql.NullInt64
	)
	err := row.Scan(
		&v.ID, &v.Title, &v.Description, &v.VideoType, &v.VideoFile, &v.Thumbnail, &v.Platform, &v.PlatformURL,
		&v.Status, &v.IsLive, &start, &end, &categoryID, &v.UploaderID, &v.Views, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if start.Valid {
		v.LiveStartTime = &start.Time
	}
	if end.Valid {
		v.LiveEndTime = &end.Time
	}
	if categoryID.Valid {
		v.CategoryID = &categoryID.Int64
	}
	return &v, nil
}
