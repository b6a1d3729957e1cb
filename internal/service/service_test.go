package service_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/newsdesk-api/internal/config"
	"github.com/newsdesk-api/internal/mocks"
	"github.com/newsdesk-api/internal/models"
	"github.com/newsdesk-api/internal/service"
	"github.com/rs/zerolog"
)

// testClock advances by step on every reading so updated_at values are ordered
type testClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func newTestClock(start time.Time) *testClock {
	return &testClock{now: start, step: time.Second}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(c.step)
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type testEnv struct {
	store    *mocks.Store
	svc      *service.Services
	clock    *testClock
	storage  *mocks.MockStorage
	revoker  *mocks.MockRevoker
	uploader *models.User
}

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:       "test-secret-with-enough-length-000",
			Issuer:          "newsdesk-test",
			AccessTokenTTL:  5 * time.Minute,
			RefreshTokenTTL: 24 * time.Hour,
		},
		Media: config.MediaConfig{
			ImageMaxSize: 5 << 20,
			VideoMaxSize: 500 << 20,
		},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	clock := newTestClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	env := &testEnv{
		store:   mocks.NewStore(),
		clock:   clock,
		storage: mocks.NewMockStorage(),
		revoker: mocks.NewMockRevoker(clock.Now),
	}
	env.svc = service.NewServices(env.store.Repositories(), testConfig(), service.Deps{
		Storage: env.storage,
		Revoker: env.revoker,
		Clock:   env.clock.Now,
	}, zerolog.Nop())

	user, err := env.svc.Auth.CreateUser(context.Background(), "editor", "password123", models.RoleEditor)
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	env.uploader = user
	return env
}

func ptr[T any](v T) *T { return &v }

func (env *testEnv) category(t *testing.T, name string, subcategories ...string) *models.Category {
	t.Helper()
	if subcategories == nil {
		subcategories = []string{}
	}
	c, err := env.svc.Category.Create(context.Background(), &models.CategoryInput{
		Name:          ptr(name),
		NameEnglish:   ptr(name),
		Subcategories: &subcategories,
	})
	if err != nil {
		t.Fatalf("Category create failed: %v", err)
	}
	return c
}

func (env *testEnv) writer(t *testing.T, name, email string) *models.Writer {
	t.Helper()
	w, err := env.svc.Writer.Create(context.Background(), &models.WriterInput{
		Name:       ptr(name),
		Email:      ptr(email),
		Role:       ptr("Reporter"),
		Department: ptr("News"),
	})
	if err != nil {
		t.Fatalf("Writer create failed: %v", err)
	}
	return w
}

func articleInput(title string, categoryID, authorID int64) *models.ArticleInput {
	return &models.ArticleInput{
		Title:      ptr(title),
		Excerpt:    ptr("Excerpt of " + title),
		Content:    ptr("<p>Body of " + title + "</p>"),
		CategoryID: ptr(categoryID),
		AuthorID:   ptr(authorID),
	}
}

func (env *testEnv) article(t *testing.T, in *models.ArticleInput) *models.Article {
	t.Helper()
	a, err := env.svc.Article.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("Article create failed: %v", err)
	}
	return a
}

func (env *testEnv) counts(t *testing.T, categoryID, writerID int64) (int, int) {
	t.Helper()
	ctx := context.Background()
	c, err := env.svc.Category.Get(ctx, categoryID)
	if err != nil {
		t.Fatalf("Category get failed: %v", err)
	}
	w, err := env.svc.Writer.Get(ctx, writerID)
	if err != nil {
		t.Fatalf("Writer get failed: %v", err)
	}
	return c.ArticlesCount, w.ArticlesCount
}

func validationError(t *testing.T, err error) *service.ValidationError {
	t.Helper()
	var ve *service.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Expected validation error, got %v", err)
	}
	return ve
}

func TestCategoryService_CreateAssignsOrderAndSlug(t *testing.T) {
	env := newTestEnv(t)

	first := env.category(t, "World News")
	second := env.category(t, "Sports")

	if first.Order != 1 || second.Order != 2 {
		t.Errorf("Expected orders 1 and 2, got %d and %d", first.Order, second.Order)
	}
	if first.Slug != "world-news" {
		t.Errorf("Expected slug world-news, got %s", first.Slug)
	}
	if first.Color != models.DefaultCategoryColor {
		t.Errorf("Expected default color, got %s", first.Color)
	}

	third, err := env.svc.Category.Create(context.Background(), &models.CategoryInput{
		Name: ptr("Culture"), NameEnglish: ptr("Culture"), Order: ptr(50),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if third.Order != 3 {
		t.Errorf("Expected order 3 regardless of input, got %d", third.Order)
	}

	_, err = env.svc.Category.Update(context.Background(), third.ID, &models.CategoryInput{Order: ptr(1)}, true)
	ve := validationError(t, err)
	if _, ok := ve.Fields["order"]; !ok {
		t.Errorf("Expected order conflict, got %v", ve.Fields)
	}
}

func TestCategoryService_UpdateKeepsSubcategoriesInUse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.category(t, "Politics", "Local", "International")
	w := env.writer(t, "Asha", "asha@example.com")
	in := articleInput("Ward election", c.ID, w.ID)
	in.Subcategory = ptr("Local")
	a := env.article(t, in)

	_, err := env.svc.Category.Update(ctx, c.ID, &models.CategoryInput{
		Subcategories: &[]string{"International"},
	}, true)
	ve := validationError(t, err)
	if msg := ve.Fields["subcategories"]; !strings.Contains(msg, "'Local'") {
		t.Errorf("Expected subcategories error naming Local, got %v", ve.Fields)
	}

	got, err := env.svc.Category.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(got.Subcategories) != 2 {
		t.Errorf("Expected subcategories unchanged, got %v", got.Subcategories)
	}
	if _, err := env.svc.Article.Update(ctx, a.ID, &models.ArticleInput{Title: ptr("Ward election results")}, true); err != nil {
		t.Errorf("Expected article update to succeed, got %v", err)
	}

	// unused subcategories can still be removed
	updated, err := env.svc.Category.Update(ctx, c.ID, &models.CategoryInput{
		Subcategories: &[]string{"Local"},
	}, true)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if len(updated.Subcategories) != 1 || updated.Subcategories[0] != "Local" {
		t.Errorf("Expected [Local], got %v", updated.Subcategories)
	}
}

func TestCategoryService_DeleteWithArticles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.category(t, "Politics")
	w := env.writer(t, "Asha", "asha@example.com")
	a := env.article(t, articleInput("Budget", c.ID, w.ID))

	err := env.svc.Category.Delete(ctx, c.ID)
	ve := validationError(t, err)
	if ve.Detail != "Cannot delete category with associated articles." {
		t.Errorf("Unexpected detail: %s", ve.Detail)
	}

	if err := env.svc.Article.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Article delete failed: %v", err)
	}
	if err := env.svc.Category.Delete(ctx, c.ID); err != nil {
		t.Errorf("Expected empty category to be deleted, got %v", err)
	}
	if _, err := env.svc.Category.Get(ctx, c.ID); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestCategoryService_UpdateIgnoresCounter(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.category(t, "Politics")
	w := env.writer(t, "Asha", "asha@example.com")
	env.article(t, articleInput("Budget", c.ID, w.ID))

	updated, err := env.svc.Category.Update(ctx, c.ID, &models.CategoryInput{Description: ptr("All politics")}, true)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.ArticlesCount != 1 {
		t.Errorf("Expected articlesCount 1, got %d", updated.ArticlesCount)
	}

	_, err = env.svc.Category.Update(ctx, c.ID, &models.CategoryInput{Name: ptr("Only name")}, false)
	ve := validationError(t, err)
	if _, ok := ve.Fields["nameEnglish"]; !ok {
		t.Errorf("Expected nameEnglish to be required on PUT, got %v", ve.Fields)
	}
}

func TestWriterService_CreateValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	w := env.writer(t, "Asha", "asha@example.com")
	if w.Status != models.WriterActive {
		t.Errorf("Expected default status active, got %s", w.Status)
	}
	if w.ArticlesCount != 0 {
		t.Errorf("Expected articles_count 0, got %d", w.ArticlesCount)
	}

	tests := []struct {
		name  string
		in    *models.WriterInput
		field string
	}{
		{
			name:  "duplicate email",
			in:    &models.WriterInput{Name: ptr("B"), Email: ptr("asha@example.com"), Role: ptr("r"), Department: ptr("d")},
			field: "email",
		},
		{
			name:  "missing name",
			in:    &models.WriterInput{Email: ptr("b@example.com"), Role: ptr("r"), Department: ptr("d")},
			field: "name",
		},
		{
			name:  "unknown user",
			in:    &models.WriterInput{Name: ptr("B"), Email: ptr("b@example.com"), Role: ptr("r"), Department: ptr("d"), UserID: models.OptionalID{Set: true, ID: ptr(int64(999))}},
			field: "user",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Writer.Create(ctx, tt.in)
			ve := validationError(t, err)
			if _, ok := ve.Fields[tt.field]; !ok {
				t.Errorf("Expected error on %s, got %v", tt.field, ve.Fields)
			}
		})
	}
}

func TestWriterService_DeleteCascadesAndDecrementsCategories(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	politics := env.category(t, "Politics")
	sports := env.category(t, "Sports")
	asha := env.writer(t, "Asha", "asha@example.com")
	ravi := env.writer(t, "Ravi", "ravi@example.com")

	env.article(t, articleInput("One", politics.ID, asha.ID))
	env.article(t, articleInput("Two", politics.ID, asha.ID))
	env.article(t, articleInput("Three", sports.ID, asha.ID))
	kept := env.article(t, articleInput("Four", politics.ID, ravi.ID))

	if err := env.svc.Writer.Delete(ctx, asha.ID); err != nil {
		t.Fatalf("Writer delete failed: %v", err)
	}

	p, _ := env.svc.Category.Get(ctx, politics.ID)
	s, _ := env.svc.Category.Get(ctx, sports.ID)
	if p.ArticlesCount != 1 || s.ArticlesCount != 0 {
		t.Errorf("Expected counts 1 and 0, got %d and %d", p.ArticlesCount, s.ArticlesCount)
	}
	list, err := env.svc.Article.List(ctx, models.ArticleFilter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if list.Total != 1 || list.Data[0].ID != kept.ID {
		t.Errorf("Expected only article %d to remain, got %+v", kept.ID, list.Data)
	}
	if err := env.svc.Writer.Delete(ctx, asha.ID); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}
