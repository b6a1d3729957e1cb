package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/newsdesk-api/internal/models"
	"github.com/newsdesk-api/internal/repository"
	"github.com/newsdesk-api/internal/validation"
	"github.com/rs/zerolog"
)

var writerConflicts = map[string]string{
	"writers_email_key":   "email",
	"writers_user_id_key": "user",
}

// writerService is the concrete implementation of WriterService
type writerService struct {
	repos *repository.Repositories
	now   func() time.Time
	log   zerolog.Logger
}

// newWriterService creates a new WriterService
func newWriterService(repos *repository.Repositories, now func() time.Time, log zerolog.Logger) *writerService {
	return &writerService{
		repos: repos,
		now:   now,
		log:   log.With().Str("service", "writer").Logger(),
	}
}

func (s *writerService) List(ctx context.Context, page models.Page) (models.PageResult[*models.Writer], error) {
	writers, total, err := s.repos.Writer.List(ctx, page)
	if err != nil {
		return models.PageResult[*models.Writer]{}, fmt.Errorf("failed to list writers: %w", err)
	}
	return models.NewPageResult(writers, total, page), nil
}

func (s *writerService) Get(ctx context.Context, id int64) (*models.Writer, error) {
	w, err := s.repos.Writer.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load writer: %w", err)
	}
	if w == nil {
		return nil, ErrNotFound
	}
	return w, nil
}

// Create adds a writer. The article counter always starts at zero.
func (s *writerService) Create(ctx context.Context, in *models.WriterInput) (*models.Writer, error) {
	now := s.now()
	w := &models.Writer{
		Status:      models.WriterActive,
		Expertise:   []string{},
		SocialLinks: map[string]string{},
		JoinDate:    time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
	}
	in.ApplyTo(w)
	if err := fromValidation(validation.ValidateWriter(w)); err != nil {
		return nil, err
	}

	err := s.repos.Tx.WithinTx(ctx, func(ctx context.Context, tx *repository.Repositories) error {
		if err := checkUser(ctx, tx, w.UserID); err != nil {
			return err
		}
		return tx.Writer.Create(ctx, w)
	})
	if err != nil {
		return nil, conflictError(err, writerConflicts)
	}

	s.log.Info().Int64("writer_id", w.ID).Msg("Writer created")
	return w, nil
}

// Update edits a writer; articles_count is never taken from the input
func (s *writerService) Update(ctx context.Context, id int64, in *models.WriterInput, partial bool) (*models.Writer, error) {
	if !partial {
		present := map[string]bool{
			"name":       in.Name != nil,
			"email":      in.Email != nil,
			"role":       in.Role != nil,
			"department": in.Department != nil,
		}
		if err := requireFields(present, "name", "email", "role", "department"); err != nil {
			return nil, err
		}
	}

	var updated *models.Writer
	err := s.repos.Tx.WithinTx(ctx, func(ctx context.Context, tx *repository.Repositories) error {
		w, err := tx.Writer.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if w == nil {
			return ErrNotFound
		}

		in.ApplyTo(w)
		if err := fromValidation(validation.ValidateWriter(w)); err != nil {
			return err
		}
		if in.UserID.Set {
			if err := checkUser(ctx, tx, w.UserID); err != nil {
				return err
			}
		}
		if err := tx.Writer.Update(ctx, w); err != nil {
			return err
		}
		updated = w
		return nil
	})
	if err != nil {
		return nil, conflictError(err, writerConflicts)
	}
	return updated, nil
}

// Delete removes a writer together with their articles. Categories lose one
// article per removed article inside the same transaction.
func (s *writerService) Delete(ctx context.Context, id int64) error {
	var removed int
	err := s.repos.Tx.WithinTx(ctx, func(ctx context.Context, tx *repository.Repositories) error {
		before, err := tx.Article.CountByCategoryForAuthor(ctx, id)
		if err != nil {
			return err
		}
		locked := make(map[int64]bool, len(before))
		if err := lockCategories(ctx, tx, keys(before), locked); err != nil {
			return err
		}

		w, err := tx.Writer.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if w == nil {
			return ErrNotFound
		}

		// recount under the writer lock; no article can be added for this author now
		counts, err := tx.Article.CountByCategoryForAuthor(ctx, id)
		if err != nil {
			return err
		}
		if err := lockCategories(ctx, tx, keys(counts), locked); err != nil {
			return err
		}

		for categoryID, n := range counts {
			if err := tx.Category.AdjustArticlesCount(ctx, categoryID, -n); err != nil {
				return err
			}
			removed += n
		}
		return tx.Writer.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.log.Info().Int64("writer_id", id).Int("articles_removed", removed).Msg("Writer deleted")
	return nil
}

func checkUser(ctx context.Context, tx *repository.Repositories, userID *int64) error {
	if userID == nil {
		return nil
	}
	user, err := tx.User.GetByID(ctx, *userID)
	if err != nil {
		return err
	}
	if user == nil {
		return fieldError("user", missingRef(*userID))
	}
	return nil
}

// lockCategories row-locks the given categories in ascending id order,
// skipping ids already in locked
func lockCategories(ctx context.Context, tx *repository.Repositories, ids []int64, locked map[int64]bool) error {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if locked[id] {
			continue
		}
		if _, err := tx.Category.GetByIDForUpdate(ctx, id); err != nil {
			return err
		}
		locked[id] = true
	}
	return nil
}

func keys[V any](m map[int64]V) []int64 {
	out := make([]int64, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
