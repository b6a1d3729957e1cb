package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newsdesk-api/internal/media"
	"github.com/newsdesk-api/internal/service"
	"github.com/rs/zerolog"
)

// multipartOverhead is allowed on top of the file cap for boundaries and headers
const multipartOverhead = 1 << 20

// UploadHandler handles media upload endpoints
type UploadHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewUploadHandler creates a new UploadHandler
func NewUploadHandler(services *service.Services, log zerolog.Logger) *UploadHandler {
	return &UploadHandler{
		services: services,
		log:      log.With().Str("handler", "upload").Logger(),
	}
}

// Image handles POST /upload
func (h *UploadHandler) Image(c *gin.Context) {
	h.upload(c, media.KindImage)
}

// Video handles POST /upload/video
func (h *UploadHandler) Video(c *gin.Context) {
	h.upload(c, media.KindVideo)
}

func (h *UploadHandler) upload(c *gin.Context, kind media.Kind) {
	ctx := c.Request.Context()
	limit := h.services.Upload.MaxSize(kind)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)

	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, h.log, h.services.Upload.CheckSize(kind, tooLarge.Limit))
			return
		}
		if !errors.Is(err, http.ErrMissingFile) {
			h.log.Warn().Err(err).Msg("Failed to parse upload form")
		}
		file = nil
	}

	url, err := h.services.Upload.Upload(ctx, kind, file)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
