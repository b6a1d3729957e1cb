package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newsdesk-api/internal/models"
	"github.com/newsdesk-api/internal/service"
	"github.com/rs/zerolog"
)

// WriterHandler handles writer endpoints
type WriterHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewWriterHandler creates a new WriterHandler
func NewWriterHandler(services *service.Services, log zerolog.Logger) *WriterHandler {
	return &WriterHandler{
		services: services,
		log:      log.With().Str("handler", "writer").Logger(),
	}
}

// List handles GET /writers
func (h *WriterHandler) List(c *gin.Context) {
	result, err := h.services.Writer.List(c.Request.Context(), parsePage(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Get handles GET /writers/:id
func (h *WriterHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	writer, err := h.services.Writer.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, writer)
}

// Create handles POST /writers
func (h *WriterHandler) Create(c *gin.Context) {
	var in models.WriterInput
	if !bindJSON(c, &in) {
		return
	}
	writer, err := h.services.Writer.Create(c.Request.Context(), &in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, writer)
}

// Update handles PUT and PATCH /writers/:id
func (h *WriterHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var in models.WriterInput
	if !bindJSON(c, &in) {
		return
	}
	writer, err := h.services.Writer.Update(c.Request.Context(), id, &in, isPartial(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, writer)
}

// Delete handles DELETE /writers/:id; the writer's articles go with it
func (h *WriterHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.services.Writer.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
