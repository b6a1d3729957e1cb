package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/newsdesk-api/internal/models"
	"github.com/newsdesk-api/internal/repository"
	"github.com/rs/zerolog"
)

// Export formats
const (
	FormatNDJSON = "ndjson"
	FormatJSON   = "json"
	FormatCSV    = "csv"
)

// flushEvery is how many records are written between flushes
const flushEvery = 100

var exportContentTypes = map[string]string{
	FormatNDJSON: "application/x-ndjson",
	FormatJSON:   "application/json",
	FormatCSV:    "text/csv",
}

var articleCSVHeader = []string{
	"id", "title", "excerpt", "category_id", "category", "subcategory", "author_id", "author",
	"status", "is_featured", "is_hot", "is_trending", "is_breaking", "tags",
	"publish_date", "publish_time", "read_time", "views", "created_at", "updated_at",
}

// exportService is the concrete implementation of ExportService
type exportService struct {
	repos *repository.Repositories
	log   zerolog.Logger
}

// newExportService creates a new ExportService
func newExportService(repos *repository.Repositories, log zerolog.Logger) *exportService {
	return &exportService{
		repos: repos,
		log:   log.With().Str("service", "export").Logger(),
	}
}

// StreamArticles sets download headers and streams every article in format
func (s *exportService) StreamArticles(ctx context.Context, w http.ResponseWriter, format string) error {
	contentType, ok := exportContentTypes[format]
	if !ok {
		return invalid(fmt.Sprintf("Unsupported format: %s.", format))
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename=articles."+format)

	_, err := s.WriteArticles(ctx, w, format)
	return err
}

// WriteArticles writes every article to w and returns how many were written
func (s *exportService) WriteArticles(ctx context.Context, w io.Writer, format string) (int, error) {
	s.log.Info().Str("format", format).Msg("Starting articles export")

	var (
		count int
		err   error
	)
	switch format {
	case FormatNDJSON:
		count, err = s.writeNDJSON(ctx, w)
	case FormatJSON:
		count, err = s.writeJSON(ctx, w)
	case FormatCSV:
		count, err = s.writeCSV(ctx, w)
	default:
		return 0, invalid(fmt.Sprintf("Unsupported format: %s.", format))
	}
	if err != nil {
		s.log.Error().Err(err).Int("count", count).Msg("Articles export failed")
		return count, err
	}

	s.log.Info().Int("count", count).Msg("Articles export completed")
	return count, nil
}

func (s *exportService) writeNDJSON(ctx context.Context, w io.Writer) (int, error) {
	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)
	count := 0

	err := s.repos.Article.StreamAll(ctx, func(article *models.Article) error {
		if err := enc.Encode(article); err != nil {
			return err
		}
		count++

		if count%flushEvery == 0 && flusher != nil {
			flusher.Flush()
		}
		return nil
	})
	return count, err
}

func (s *exportService) writeJSON(ctx context.Context, w io.Writer) (int, error) {
	if _, err := io.WriteString(w, "["); err != nil {
		return 0, err
	}
	count := 0

	err := s.repos.Article.StreamAll(ctx, func(article *models.Article) error {
		if count > 0 {
			if _, err := io.WriteString(w, ","); err != nil {
				return err
			}
		}
		data, err := json.Marshal(article)
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return count, err
	}

	_, err = io.WriteString(w, "]")
	return count, err
}

func (s *exportService) writeCSV(ctx context.Context, w io.Writer) (int, error) {
	writer := csv.NewWriter(w)
	if err := writer.Write(articleCSVHeader); err != nil {
		return 0, err
	}
	count := 0

	err := s.repos.Article.StreamAll(ctx, func(a *models.Article) error {
		if err := writer.Write(articleRecord(a)); err != nil {
			return err
		}
		count++

		if count%flushEvery == 0 {
			writer.Flush()
		}
		return writer.Error()
	})
	writer.Flush()
	if err != nil {
		return count, err
	}
	return count, writer.Error()
}

func articleRecord(a *models.Article) []string {
	var category, author string
	if a.Category != nil {
		category = a.Category.Name
	}
	if a.Author != nil {
		author = a.Author.Name
	}
	return []string{
		strconv.FormatInt(a.ID, 10),
		a.Title,
		a.Excerpt,
		strconv.FormatInt(a.CategoryID, 10),
		category,
		a.Subcategory,
		strconv.FormatInt(a.AuthorID, 10),
		author,
		string(a.Status),
		strconv.FormatBool(a.IsFeatured),
		strconv.FormatBool(a.IsHot),
		strconv.FormatBool(a.IsTrending),
		strconv.FormatBool(a.IsBreaking),
		strings.Join(a.Tags, "|"),
		a.PublishDate,
		a.PublishTime,
		strconv.Itoa(a.ReadTime),
		strconv.Itoa(a.Views),
		a.CreatedAt.UTC().Format(time.RFC3339),
		a.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
