package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/newsdesk-api/internal/models"
	"github.com/newsdesk-api/internal/service"
	"github.com/rs/zerolog"
)

// ArticleHandler handles article endpoints
type ArticleHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewArticleHandler creates a new ArticleHandler
func NewArticleHandler(services *service.Services, log zerolog.Logger) *ArticleHandler {
	return &ArticleHandler{
		services: services,
		log:      log.With().Str("handler", "article").Logger(),
	}
}

// List handles GET /articles?status=&category=&author=&featured=&search=
func (h *ArticleHandler) List(c *gin.Context) {
	filter := models.ArticleFilter{
		Status:     models.ArticleStatus(c.Query("status")),
		CategoryID: queryInt64(c, "category"),
		AuthorID:   queryInt64(c, "author"),
		Featured:   queryBool(c, "featured"),
		Search:     strings.TrimSpace(c.Query("search")),
		Page:       parsePage(c),
	}
	if filter.Status != "" && !models.ValidStatuses[filter.Status] {
		respondError(c, h.log, &service.ValidationError{
			Detail: "Invalid status filter.",
			Fields: map[string]string{"status": "Must be one of: draft, published, scheduled."},
		})
		return
	}

	result, err := h.services.Article.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Get handles GET /articles/:id
func (h *ArticleHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	article, err := h.services.Article.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

// Create handles POST /articles
func (h *ArticleHandler) Create(c *gin.Context) {
	var in models.ArticleInput
	if !bindJSON(c, &in) {
		return
	}
	article, err := h.services.Article.Create(c.Request.Context(), &in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, article)
}

// Update handles PUT and PATCH /articles/:id
func (h *ArticleHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var in models.ArticleInput
	if !bindJSON(c, &in) {
		return
	}
	article, err := h.services.Article.Update(c.Request.Context(), id, &in, isPartial(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

// Delete handles DELETE /articles/:id
func (h *ArticleHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.services.Article.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Stats handles GET /article-stats
func (h *ArticleHandler) Stats(c *gin.Context) {
	stats, err := h.services.Article.Stats(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Export handles GET /articles/export?format=ndjson|json|csv
// Streams every article directly to the response
func (h *ArticleHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", service.FormatNDJSON)

	h.log.Info().Str("format", format).Msg("Starting streaming export")

	err := h.services.Export.StreamArticles(c.Request.Context(), c.Writer, format)
	if err == nil {
		return
	}
	if !c.Writer.Written() {
		c.Writer.Header().Del("Content-Type")
		c.Writer.Header().Del("Content-Disposition")
		respondError(c, h.log, err)
		return
	}
	// Can't return error JSON after streaming has started
	h.log.Error().Err(err).Str("format", format).Msg("Export failed")
}
