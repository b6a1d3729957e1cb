package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/newsdesk-api/internal/models"
	"github.com/newsdesk-api/internal/repository"
	"github.com/newsdesk-api/internal/validation"
	"github.com/rs/zerolog"
)

// videoCategoryService is the concrete implementation of VideoCategoryService
type videoCategoryService struct {
	repos *repository.Repositories
	now   func() time.Time
	log   zerolog.Logger
}

// newVideoCategoryService creates a new VideoCategoryService
func newVideoCategoryService(repos *repository.Repositories, now func() time.Time, log zerolog.Logger) *videoCategoryService {
	return &videoCategoryService{
		repos: repos,
		now:   now,
		log:   log.With().Str("service", "video_category").Logger(),
	}
}

func (s *videoCategoryService) List(ctx context.Context, page models.Page) (models.PageResult[*models.VideoCategory], error) {
	categories, total, err := s.repos.VideoCategory.List(ctx, page)
	if err != nil {
		return models.PageResult[*models.VideoCategory]{}, fmt.Errorf("failed to list video categories: %w", err)
	}
	return models.NewPageResult(categories, total, page), nil
}

func (s *videoCategoryService) Create(ctx context.Context, in *models.VideoCategoryInput) (*models.VideoCategory, error) {
	c := &models.VideoCategory{
		Name:        in.Name,
		Description: in.Description,
		IsActive:    true,
		CreatedAt:   s.now(),
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	if err := fromValidation(validation.ValidateVideoCategory(c)); err != nil {
		return nil, err
	}
	if err := s.repos.VideoCategory.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create video category: %w", err)
	}

	s.log.Info().Int64("video_category_id", c.ID).Msg("Video category created")
	return c, nil
}

// videoService is the concrete implementation of VideoService
type videoService struct {
	repos *repository.Repositories
	now   func() time.Time
	log   zerolog.Logger
}

// newVideoService creates a new VideoService
func newVideoService(repos *repository.Repositories, now func() time.Time, log zerolog.Logger) *videoService {
	return &videoService{
		repos: repos,
		now:   now,
		log:   log.With().Str("service", "video").Logger(),
	}
}

// List archives expired live videos before reading so the page reflects them
func (s *videoService) List(ctx context.Context, filter models.VideoFilter) (models.PageResult[*models.Video], error) {
	if _, err := s.ArchiveExpired(ctx); err != nil {
		return models.PageResult[*models.Video]{}, err
	}
	videos, total, err := s.repos.Video.List(ctx, filter)
	if err != nil {
		return models.PageResult[*models.Video]{}, fmt.Errorf("failed to list videos: %w", err)
	}
	return models.NewPageResult(videos, total, filter.Page), nil
}

// Get returns a video, archiving it first when its live stream has ended
func (s *videoService) Get(ctx context.Context, id int64) (*models.Video, error) {
	v, err := s.repos.Video.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load video: %w", err)
	}
	if v == nil {
		return nil, ErrNotFound
	}
	if !v.ExpireIfEnded(s.now()) {
		return v, nil
	}

	var expired *models.Video
	err = s.repos.Tx.WithinTx(ctx, func(ctx context.Context, tx *repository.Repositories) error {
		locked, err := tx.Video.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if locked == nil {
			return ErrNotFound
		}
		now := s.now()
		if locked.ExpireIfEnded(now) {
			locked.UpdatedAt = now
			if err := tx.Video.Update(ctx, locked); err != nil {
				return err
			}
		}
		expired = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	return expired, nil
}

// Create adds a video. is_live on input starts the video as live.
func (s *videoService) Create(ctx context.Context, uploaderID int64, in *models.VideoInput) (*models.Video, error) {
	now := s.now()
	v := &models.Video{
		VideoType:  "news",
		Platform:   models.PlatformCustom,
		Status:     models.VideoDraft,
		UploaderID: uploaderID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	in.ApplyTo(v)
	v.LiveStartTime = in.LiveStartTime
	if in.IsLive != nil && *in.IsLive {
		v.IsLive = true
		v.Status = models.VideoLive
	}
	v.ExpireIfEnded(now)
	if err := fromValidation(validation.ValidateVideo(v)); err != nil {
		return nil, err
	}

	if err := s.checkCategory(ctx, s.repos, v.CategoryID); err != nil {
		return nil, err
	}
	if err := s.repos.Video.Create(ctx, v); err != nil {
		if errors.Is(err, repository.ErrInvalidReference) {
			return nil, invalid("Referenced object does not exist.")
		}
		return nil, err
	}

	s.log.Info().Int64("video_id", v.ID).Bool("live", v.IsLive).Msg("Video created")
	return v, nil
}

// Update edits a video. Live state only changes through SetLive.
func (s *videoService) Update(ctx context.Context, id int64, in *models.VideoInput, partial bool) (*models.Video, error) {
	if !partial {
		if err := requireFields(map[string]bool{"title": in.Title != nil}, "title"); err != nil {
			return nil, err
		}
	}

	var updated *models.Video
	err := s.repos.Tx.WithinTx(ctx, func(ctx context.Context, tx *repository.Repositories) error {
		v, err := tx.Video.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if v == nil {
			return ErrNotFound
		}

		now := s.now()
		v.ExpireIfEnded(now)
		if err := checkLiveFields(v, in, now); err != nil {
			return err
		}

		in.ApplyTo(v)
		if in.LiveStartTime != nil {
			v.LiveStartTime = in.LiveStartTime
		}
		v.ExpireIfEnded(now)
		if err := fromValidation(validation.ValidateVideo(v)); err != nil {
			return err
		}
		if in.CategoryID.Set {
			if err := s.checkCategory(ctx, tx, v.CategoryID); err != nil {
				return err
			}
		}

		v.UpdatedAt = now
		if err := tx.Video.Update(ctx, v); err != nil {
			return err
		}
		updated = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *videoService) Delete(ctx context.Context, id int64) error {
	v, err := s.repos.Video.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load video: %w", err)
	}
	if v == nil {
		return ErrNotFound
	}
	if err := s.repos.Video.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete video: %w", err)
	}

	s.log.Info().Int64("video_id", id).Msg("Video deleted")
	return nil
}

// SetLive starts (live=true) or ends (live=false) a live stream
func (s *videoService) SetLive(ctx context.Context, id int64, live bool) (*models.Video, error) {
	var result *models.Video
	err := s.repos.Tx.WithinTx(ctx, func(ctx context.Context, tx *repository.Repositories) error {
		v, err := tx.Video.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if v == nil {
			return ErrNotFound
		}

		now := s.now()
		v.ExpireIfEnded(now)
		if live {
			err = v.GoLive(now)
		} else {
			err = v.EndLive(now)
		}
		if errors.Is(err, models.ErrInvalidTransition) {
			return liveTransitionError(live, v.Status)
		}
		if err != nil {
			return err
		}

		v.UpdatedAt = now
		if err := tx.Video.Update(ctx, v); err != nil {
			return err
		}
		result = v
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("video_id", id).Bool("live", live).Str("status", string(result.Status)).Msg("Video live state changed")
	return result, nil
}

// ArchiveExpired archives every live video whose end time has passed
func (s *videoService) ArchiveExpired(ctx context.Context) (int64, error) {
	n, err := s.repos.Video.ArchiveExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to archive expired live videos: %w", err)
	}
	if n > 0 {
		s.log.Info().Int64("count", n).Msg("Archived expired live videos")
	}
	return n, nil
}

func (s *videoService) checkCategory(ctx context.Context, repos *repository.Repositories, id *int64) error {
	if id == nil {
		return nil
	}
	c, err := repos.VideoCategory.GetByID(ctx, *id)
	if err != nil {
		return err
	}
	if c == nil {
		return fieldError("category", missingRef(*id))
	}
	return nil
}

// checkLiveFields rejects generic updates that would change the live state of v.
// A planned end that has already passed would archive a live video on save.
func checkLiveFields(v *models.Video, in *models.VideoInput, now time.Time) error {
	if in.IsLive != nil && *in.IsLive != v.IsLive {
		return fieldError("is_live", "Use the live endpoint to start or end a live stream.")
	}
	if v.IsLive && in.LiveEndTime != nil && !in.LiveEndTime.After(now) {
		return fieldError("live_end_time", "Live end time must be in the future. Use the live endpoint to end a live stream.")
	}
	if in.Status == nil || *in.Status == v.Status {
		return nil
	}
	if *in.Status == models.VideoLive {
		return fieldError("status", "Use the live endpoint to start a live stream.")
	}
	if v.IsLive {
		return fieldError("status", "Use the live endpoint to end a live stream.")
	}
	return nil
}

func liveTransitionError(live bool, status models.VideoStatus) error {
	if live {
		return invalid(fmt.Sprintf("Cannot go live from status %q.", status))
	}
	return invalid("Video is not live.")
}
