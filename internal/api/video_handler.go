package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newsdesk-api/internal/models"
	"github.com/newsdesk-api/internal/service"
	"github.com/rs/zerolog"
)

// VideoHandler handles video and video category endpoints
type VideoHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewVideoHandler creates a new VideoHandler
func NewVideoHandler(services *service.Services, log zerolog.Logger) *VideoHandler {
	return &VideoHandler{
		services: services,
		log:      log.With().Str("handler", "video").Logger(),
	}
}

// ListCategories handles GET /video-categories
func (h *VideoHandler) ListCategories(c *gin.Context) {
	result, err := h.services.VideoCategory.List(c.Request.Context(), parsePage(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// CreateCategory handles POST /video-categories
func (h *VideoHandler) CreateCategory(c *gin.Context) {
	var in models.VideoCategoryInput
	if !bindJSON(c, &in) {
		return
	}
	category, err := h.services.VideoCategory.Create(c.Request.Context(), &in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

// List handles GET /videos?status=&category=&is_live=
func (h *VideoHandler) List(c *gin.Context) {
	filter := models.VideoFilter{
		Status:     models.VideoStatus(c.Query("status")),
		CategoryID: queryInt64(c, "category"),
		IsLive:     queryBool(c, "is_live"),
		Page:       parsePage(c),
	}
	result, err := h.services.Video.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Get handles GET /videos/:id
func (h *VideoHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	video, err := h.services.Video.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, video)
}

// Create handles POST /videos; the caller becomes the uploader
func (h *VideoHandler) Create(c *gin.Context) {
	var in models.VideoInput
	if !bindJSON(c, &in) {
		return
	}
	video, err := h.services.Video.Create(c.Request.Context(), currentClaims(c).UserID, &in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, video)
}

// Update handles PUT and PATCH /videos/:id
func (h *VideoHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var in models.VideoInput
	if !bindJSON(c, &in) {
		return
	}
	video, err := h.services.Video.Update(c.Request.Context(), id, &in, isPartial(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, video)
}

// Delete handles DELETE /videos/:id
func (h *VideoHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.services.Video.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetLive handles PATCH /videos/:id/live with {"is_live": true|false}.
// Any other payload is not an action.
func (h *VideoHandler) SetLive(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		body = nil
	}
	live, ok := body["is_live"].(bool)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "No valid action."})
		return
	}

	video, err := h.services.Video.SetLive(c.Request.Context(), id, live)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	detail := "Video live stream ended and archived."
	if live {
		detail = "Video is now live."
	}
	c.JSON(http.StatusOK, gin.H{"detail": detail, "video": video})
}
