package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gosimple/slug"
	"github.com/newsdesk-api/internal/models"
	"github.com/newsdesk-api/internal/repository"
	"github.com/newsdesk-api/internal/validation"
	"github.com/rs/zerolog"
)

var categoryConflicts = map[string]string{
	"categories_sort_order_key": "order",
}

// categoryService is the concrete implementation of CategoryService
type categoryService struct {
	repos *repository.Repositories
	now   func() time.Time
	log   zerolog.Logger
}

// newCategoryService creates a new CategoryService
func newCategoryService(repos *repository.Repositories, now func() time.Time, log zerolog.Logger) *categoryService {
	return &categoryService{
		repos: repos,
		now:   now,
		log:   log.With().Str("service", "category").Logger(),
	}
}

func (s *categoryService) List(ctx context.Context, page models.Page) (models.PageResult[*models.Category], error) {
	categories, total, err := s.repos.Category.List(ctx, page)
	if err != nil {
		return models.PageResult[*models.Category]{}, fmt.Errorf("failed to list categories: %w", err)
	}
	return models.NewPageResult(categories, total, page), nil
}

func (s *categoryService) Get(ctx context.Context, id int64) (*models.Category, error) {
	c, err := s.repos.Category.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load category: %w", err)
	}
	if c == nil {
		return nil, ErrNotFound
	}
	return c, nil
}

// Create adds a category at the end of the display order
func (s *categoryService) Create(ctx context.Context, in *models.CategoryInput) (*models.Category, error) {
	c := &models.Category{
		Color:         models.DefaultCategoryColor,
		Subcategories: []string{},
		IsActive:      true,
		CreatedAt:     s.now(),
	}
	in.ApplyTo(c)
	// the repository assigns the next order; a client value only counts on update
	c.Order = 0
	c.Slug = categorySlug(c)
	if err := fromValidation(validation.ValidateCategory(c)); err != nil {
		return nil, err
	}

	err := s.repos.Tx.WithinTx(ctx, func(ctx context.Context, tx *repository.Repositories) error {
		return tx.Category.Create(ctx, c)
	})
	if err != nil {
		return nil, conflictError(err, categoryConflicts)
	}

	s.log.Info().Int64("category_id", c.ID).Int("order", c.Order).Msg("Category created")
	return c, nil
}

// Update edits a category; articlesCount is never taken from the input
func (s *categoryService) Update(ctx context.Context, id int64, in *models.CategoryInput, partial bool) (*models.Category, error) {
	if !partial {
		present := map[string]bool{"name": in.Name != nil, "nameEnglish": in.NameEnglish != nil}
		if err := requireFields(present, "name", "nameEnglish"); err != nil {
			return nil, err
		}
	}

	var updated *models.Category
	err := s.repos.Tx.WithinTx(ctx, func(ctx context.Context, tx *repository.Repositories) error {
		c, err := tx.Category.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if c == nil {
			return ErrNotFound
		}

		in.ApplyTo(c)
		c.Slug = categorySlug(c)
		if c.Subcategories == nil {
			c.Subcategories = []string{}
		}
		if err := fromValidation(validation.ValidateCategory(c)); err != nil {
			return err
		}
		if in.Subcategories != nil {
			if err := checkSubcategoriesInUse(ctx, tx, c); err != nil {
				return err
			}
		}
		if err := tx.Category.Update(ctx, c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, conflictError(err, categoryConflicts)
	}
	return updated, nil
}

// Delete removes a category that has no articles
func (s *categoryService) Delete(ctx context.Context, id int64) error {
	err := s.repos.Tx.WithinTx(ctx, func(ctx context.Context, tx *repository.Repositories) error {
		c, err := tx.Category.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if c == nil {
			return ErrNotFound
		}
		if c.ArticlesCount > 0 {
			return invalid("Cannot delete category with associated articles.")
		}
		return tx.Category.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.log.Info().Int64("category_id", id).Msg("Category deleted")
	return nil
}

// checkSubcategoriesInUse rejects a subcategory list that drops a subcategory
// still set on one of the category's articles. The category row is locked, so
// no article can move into it meanwhile.
func checkSubcategoriesInUse(ctx context.Context, tx *repository.Repositories, c *models.Category) error {
	used, err := tx.Article.SubcategoriesInUse(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("failed to load subcategories in use: %w", err)
	}
	for _, name := range used {
		if !c.HasSubcategory(name) {
			return fieldError("subcategories",
				fmt.Sprintf("Subcategory '%s' is still used by articles in this category.", name))
		}
	}
	return nil
}

// categorySlug derives a URL slug, preferring the English name
func categorySlug(c *models.Category) string {
	if c.NameEnglish != "" {
		return slug.Make(c.NameEnglish)
	}
	return slug.Make(c.Name)
}
