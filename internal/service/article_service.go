package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/newsdesk-api/internal/models"
	"github.com/newsdesk-api/internal/repository"
	"github.com/newsdesk-api/internal/validation"
	"github.com/rs/zerolog"
)

// wordsPerMinute is the reading speed used for readTime
const wordsPerMinute = 200

// RecountResult reports how many counters a recount corrected
type RecountResult struct {
	Categories int64 `json:"categories"`
	Writers    int64 `json:"writers"`
}

// articleService is the concrete implementation of ArticleService
type articleService struct {
	repos   *repository.Repositories
	content *bluemonday.Policy
	text    *bluemonday.Policy
	now     func() time.Time
	log     zerolog.Logger
}

// newArticleService creates a new ArticleService
func newArticleService(repos *repository.Repositories, now func() time.Time, log zerolog.Logger) *articleService {
	return &articleService{
		repos:   repos,
		content: bluemonday.UGCPolicy(),
		text:    bluemonday.StrictPolicy(),
		now:     now,
		log:     log.With().Str("service", "article").Logger(),
	}
}

func (s *articleService) List(ctx context.Context, filter models.ArticleFilter) (models.PageResult[*models.Article], error) {
	articles, total, err := s.repos.Article.List(ctx, filter)
	if err != nil {
		return models.PageResult[*models.Article]{}, fmt.Errorf("failed to list articles: %w", err)
	}
	return models.NewPageResult(articles, total, filter.Page), nil
}

func (s *articleService) Get(ctx context.Context, id int64) (*models.Article, error) {
	a, err := s.repos.Article.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load article: %w", err)
	}
	if a == nil {
		return nil, ErrNotFound
	}
	return a, nil
}

// Create inserts an article and increments both parent counters in one transaction
func (s *articleService) Create(ctx context.Context, in *models.ArticleInput) (*models.Article, error) {
	now := s.now()
	draft := &models.Article{
		Status:      models.ArticleDraft,
		Gallery:     []map[string]any{},
		Tags:        []string{},
		PublishDate: now.Format(models.DateLayout),
		PublishTime: now.Format(models.TimeLayout),
	}
	in.ApplyTo(draft)
	if err := s.prepare(draft); err != nil {
		return nil, err
	}

	var created *models.Article
	err := s.repos.Tx.WithinTx(ctx, func(ctx context.Context, tx *repository.Repositories) error {
		a := *draft
		categories, writers, err := lockParents(ctx, tx, []int64{a.CategoryID}, []int64{a.AuthorID})
		if err != nil {
			return err
		}
		if err := checkParents(&a, categories, writers); err != nil {
			return err
		}

		if a.IsFeatured {
			if err := s.enforceFeaturedCap(ctx, tx, 0, now); err != nil {
				return err
			}
		}

		a.Views = 0
		a.CreatedAt, a.UpdatedAt = now, now
		if err := tx.Article.Create(ctx, &a); err != nil {
			return err
		}
		if err := tx.Category.AdjustArticlesCount(ctx, a.CategoryID, 1); err != nil {
			return err
		}
		if err := tx.Writer.AdjustArticlesCount(ctx, a.AuthorID, 1); err != nil {
			return err
		}

		a.Category = categories[a.CategoryID].Summary()
		a.Author = &models.WriterSummary{ID: a.AuthorID, Name: writers[a.AuthorID].Name}
		created = &a
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("article_id", created.ID).
		Int64("category_id", created.CategoryID).
		Int64("author_id", created.AuthorID).
		Bool("featured", created.IsFeatured).
		Msg("Article created")
	return created, nil
}

// Update edits an article. Moving it between categories or authors moves one
// unit of the matching counters; turning it featured applies the cap.
func (s *articleService) Update(ctx context.Context, id int64, in *models.ArticleInput, partial bool) (*models.Article, error) {
	if !partial {
		present := map[string]bool{
			"title":    in.Title != nil,
			"excerpt":  in.Excerpt != nil,
			"content":  in.Content != nil,
			"category": in.CategoryID != nil,
			"author":   in.AuthorID != nil,
		}
		if err := requireFields(present, "title", "excerpt", "content", "category", "author"); err != nil {
			return nil, err
		}
	}

	now := s.now()
	var updated *models.Article
	err := s.repos.Tx.WithinTx(ctx, func(ctx context.Context, tx *repository.Repositories) error {
		existing, err := tx.Article.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return ErrNotFound
		}

		a := *existing
		in.ApplyTo(&a)
		if err := s.prepare(&a); err != nil {
			return err
		}

		categories, writers, err := lockParents(ctx, tx,
			[]int64{existing.CategoryID, a.CategoryID},
			[]int64{existing.AuthorID, a.AuthorID})
		if err != nil {
			return err
		}
		if err := checkParents(&a, categories, writers); err != nil {
			return err
		}

		if a.IsFeatured && !existing.IsFeatured {
			if err := s.enforceFeaturedCap(ctx, tx, a.ID, now); err != nil {
				return err
			}
		}

		a.UpdatedAt = now
		if err := tx.Article.Update(ctx, &a); err != nil {
			return err
		}

		if a.CategoryID != existing.CategoryID {
			if err := tx.Category.AdjustArticlesCount(ctx, existing.CategoryID, -1); err != nil {
				return err
			}
			if err := tx.Category.AdjustArticlesCount(ctx, a.CategoryID, 1); err != nil {
				return err
			}
		}
		if a.AuthorID != existing.AuthorID {
			if err := tx.Writer.AdjustArticlesCount(ctx, existing.AuthorID, -1); err != nil {
				return err
			}
			if err := tx.Writer.AdjustArticlesCount(ctx, a.AuthorID, 1); err != nil {
				return err
			}
		}

		a.Category = categories[a.CategoryID].Summary()
		a.Author = &models.WriterSummary{ID: a.AuthorID, Name: writers[a.AuthorID].Name}
		updated = &a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes an article and decrements both parent counters
func (s *articleService) Delete(ctx context.Context, id int64) error {
	err := s.repos.Tx.WithinTx(ctx, func(ctx context.Context, tx *repository.Repositories) error {
		a, err := tx.Article.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if a == nil {
			return ErrNotFound
		}

		if _, _, err := lockParents(ctx, tx, []int64{a.CategoryID}, []int64{a.AuthorID}); err != nil {
			return err
		}
		if err := tx.Article.Delete(ctx, id); err != nil {
			return err
		}
		if err := tx.Category.AdjustArticlesCount(ctx, a.CategoryID, -1); err != nil {
			return err
		}
		return tx.Writer.AdjustArticlesCount(ctx, a.AuthorID, -1)
	})
	if err != nil {
		return err
	}

	s.log.Info().Int64("article_id", id).Msg("Article deleted")
	return nil
}

func (s *articleService) Stats(ctx context.Context) (*models.ArticleStats, error) {
	stats, err := s.repos.Article.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count articles: %w", err)
	}
	return stats, nil
}

// PublishDue moves scheduled articles whose publish time has passed to published
func (s *articleService) PublishDue(ctx context.Context) (int64, error) {
	n, err := s.repos.Article.PublishDue(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to publish scheduled articles: %w", err)
	}
	if n > 0 {
		s.log.Info().Int64("count", n).Msg("Published scheduled articles")
	}
	return n, nil
}

// Recount recomputes every denormalized article counter from the articles table
func (s *articleService) Recount(ctx context.Context) (*RecountResult, error) {
	result := &RecountResult{}
	err := s.repos.Tx.WithinTx(ctx, func(ctx context.Context, tx *repository.Repositories) error {
		var err error
		if result.Categories, err = tx.Category.RecountArticles(ctx); err != nil {
			return err
		}
		result.Writers, err = tx.Writer.RecountArticles(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to recount articles: %w", err)
	}

	s.log.Info().
		Int64("categories_fixed", result.Categories).
		Int64("writers_fixed", result.Writers).
		Msg("Article counters recounted")
	return result, nil
}

// prepare validates the article's own fields and fills the derived ones
func (s *articleService) prepare(a *models.Article) error {
	if err := fromValidation(validation.ValidateArticle(a)); err != nil {
		return err
	}

	clock, _ := validation.ParseClock(a.PublishTime)
	a.PublishTime = clock.Format(models.TimeLayout)
	a.Content = s.content.Sanitize(a.Content)
	if strings.TrimSpace(s.text.Sanitize(a.Content)) == "" {
		return fieldError("content", "Content is required.")
	}
	a.ReadTime = readTime(s.text.Sanitize(a.Content))
	if a.Tags == nil {
		a.Tags = []string{}
	}
	if a.Gallery == nil {
		a.Gallery = []map[string]any{}
	}
	return nil
}

// enforceFeaturedCap makes room for one more featured article by unfeaturing
// the least recently updated ones. excludeID is the article being featured.
func (s *articleService) enforceFeaturedCap(ctx context.Context, tx *repository.Repositories, excludeID int64, now time.Time) error {
	if err := tx.Article.LockFeatured(ctx); err != nil {
		return fmt.Errorf("failed to lock featured set: %w", err)
	}
	others, err := tx.Article.ListFeatured(ctx, excludeID)
	if err != nil {
		return err
	}

	for len(others) >= models.MaxFeaturedArticles {
		oldest := others[len(others)-1]
		if err := tx.Article.SetFeatured(ctx, oldest.ID, false, now); err != nil {
			return err
		}
		s.log.Info().Int64("article_id", oldest.ID).Msg("Unfeatured article to respect featured cap")
		others = others[:len(others)-1]
	}
	return nil
}

// lockParents row-locks categories then writers, each in ascending id order.
// Missing rows are absent from the returned maps.
func lockParents(ctx context.Context, tx *repository.Repositories, categoryIDs, writerIDs []int64) (map[int64]*models.Category, map[int64]*models.Writer, error) {
	categories := make(map[int64]*models.Category, len(categoryIDs))
	for _, id := range sortedUnique(categoryIDs) {
		c, err := tx.Category.GetByIDForUpdate(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		if c != nil {
			categories[id] = c
		}
	}

	writers := make(map[int64]*models.Writer, len(writerIDs))
	for _, id := range sortedUnique(writerIDs) {
		w, err := tx.Writer.GetByIDForUpdate(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		if w != nil {
			writers[id] = w
		}
	}
	return categories, writers, nil
}

// checkParents reports missing parents and subcategories outside the category
func checkParents(a *models.Article, categories map[int64]*models.Category, writers map[int64]*models.Writer) error {
	ve := &ValidationError{Detail: defaultDetail}

	category, ok := categories[a.CategoryID]
	if !ok {
		ve.merge(fieldError("category", missingRef(a.CategoryID)))
	} else if sub := validation.ValidateSubcategory(a, category); sub != nil {
		ve.merge(fieldError(sub.Field, sub.Message))
	}
	if _, ok := writers[a.AuthorID]; !ok {
		ve.merge(fieldError("author", missingRef(a.AuthorID)))
	}

	switch len(ve.Fields) {
	case 0:
		return nil
	case 1:
		for _, msg := range ve.Fields {
			ve.Detail = msg
		}
	}
	return ve
}

func sortedUnique(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

// readTime estimates minutes of reading for plain text, at least one
func readTime(text string) int {
	words := len(strings.Fields(text))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}
