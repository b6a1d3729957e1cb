package benchmark

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/newsdesk-api/internal/config"
	"github.com/newsdesk-api/internal/media"
	"github.com/newsdesk-api/internal/mocks"
	"github.com/newsdesk-api/internal/models"
	"github.com/newsdesk-api/internal/service"
	"github.com/newsdesk-api/internal/validation"
	"github.com/rs/zerolog"
)

func ptr[T any](v T) *T { return &v }

func newServices(b *testing.B) (*service.Services, int64, int64) {
	b.Helper()
	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:       "bench-secret-with-enough-length-00",
			AccessTokenTTL:  5 * time.Minute,
			RefreshTokenTTL: time.Hour,
		},
	}
	svc := service.NewServices(mocks.NewStore().Repositories(), cfg, service.Deps{Storage: mocks.NewMockStorage()}, zerolog.Nop())

	ctx := context.Background()
	category, err := svc.Category.Create(ctx, &models.CategoryInput{
		Name:          ptr("राजनीति"),
		NameEnglish:   ptr("Politics"),
		Subcategories: &[]string{"National"},
	})
	if err != nil {
		b.Fatal(err)
	}
	writer, err := svc.Writer.Create(ctx, &models.WriterInput{
		Name:       ptr("Sita Sharma"),
		Email:      ptr("sita@example.com"),
		Role:       ptr("Reporter"),
		Department: ptr("Politics"),
	})
	if err != nil {
		b.Fatal(err)
	}
	return svc, category.ID, writer.ID
}

func articleInput(i int, categoryID, writerID int64, featured bool) *models.ArticleInput {
	return &models.ArticleInput{
		Title:       ptr(fmt.Sprintf("Article %d", i)),
		Excerpt:     ptr("Excerpt"),
		Content:     ptr("<p>" + strings.Repeat("word ", 400) + "</p><script>x()</script>"),
		CategoryID:  ptr(categoryID),
		Subcategory: ptr("National"),
		AuthorID:    ptr(writerID),
		IsFeatured:  ptr(featured),
	}
}

// BenchmarkArticleCreate measures the full write path: validation, sanitizing,
// parent locks and counter updates
func BenchmarkArticleCreate(b *testing.B) {
	svc, categoryID, writerID := newServices(b)
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := svc.Article.Create(ctx, articleInput(i, categoryID, writerID, false)); err != nil {
			b.Fatal(err)
		}
	}

	b.ReportMetric(float64(b.N)/b.Elapsed().Seconds(), "articles/sec")
}

// BenchmarkFeaturedCreate adds the featured cap enforcement on every write
func BenchmarkFeaturedCreate(b *testing.B) {
	svc, categoryID, writerID := newServices(b)
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := svc.Article.Create(ctx, articleInput(i, categoryID, writerID, true)); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkArticleCreateParallel measures contention on the shared parents
func BenchmarkArticleCreateParallel(b *testing.B) {
	svc, categoryID, writerID := newServices(b)
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			if _, err := svc.Article.Create(ctx, articleInput(i, categoryID, writerID, false)); err != nil {
				b.Error(err)
				return
			}
			i++
		}
	})
}

// BenchmarkExport benchmarks streaming export performance
func BenchmarkExport(b *testing.B) {
	svc, categoryID, writerID := newServices(b)
	ctx := context.Background()
	for i := 0; i < 1000; i++ {
		if _, err := svc.Article.Create(ctx, articleInput(i, categoryID, writerID, false)); err != nil {
			b.Fatal(err)
		}
	}

	for _, format := range []string{service.FormatNDJSON, service.FormatJSON, service.FormatCSV} {
		b.Run(format, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := svc.Export.WriteArticles(ctx, io.Discard, format); err != nil {
					b.Fatal(err)
				}
			}
			b.ReportMetric(float64(1000*b.N)/b.Elapsed().Seconds(), "rows/sec")
		})
	}
}

// BenchmarkValidation benchmarks article field validation
func BenchmarkValidation(b *testing.B) {
	article := &models.Article{
		Title:         "Budget passed",
		Excerpt:       "Parliament passed the budget",
		Content:       "<p>Full story</p>",
		CategoryID:    1,
		AuthorID:      1,
		Status:        models.ArticlePublished,
		PublishDate:   "2025-03-01",
		PublishTime:   "07:30:00",
		FeaturedImage: "/media/uploads/budget.png",
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		validation.ValidateArticle(article)
	}
}

// BenchmarkSanitizeFilename benchmarks upload name cleaning
func BenchmarkSanitizeFilename(b *testing.B) {
	names := []string{"../my photo (1).png", "बजेट २०८१.jpg", strings.Repeat("a", 300) + ".mp4"}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		media.SanitizeFilename(names[i%len(names)])
	}
}
