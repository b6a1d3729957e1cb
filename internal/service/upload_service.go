package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/newsdesk-api/internal/config"
	"github.com/newsdesk-api/internal/media"
	"github.com/rs/zerolog"
)

// sniffLen is how many leading bytes are inspected for content detection
const sniffLen = 512

// uploadService is the concrete implementation of UploadService
type uploadService struct {
	storage media.Storage
	cfg     *config.MediaConfig
	log     zerolog.Logger
}

// newUploadService creates a new UploadService
func newUploadService(storage media.Storage, cfg *config.MediaConfig, log zerolog.Logger) *uploadService {
	return &uploadService{
		storage: storage,
		cfg:     cfg,
		log:     log.With().Str("service", "upload").Logger(),
	}
}

// Upload checks the file against the kind's rules and stores it under a
// sanitized name. It returns the public URL of the stored file.
func (s *uploadService) Upload(ctx context.Context, kind media.Kind, file *multipart.FileHeader) (string, error) {
	if file == nil {
		return "", invalid("No file provided.")
	}
	if err := kind.CheckDeclared(file.Header.Get("Content-Type")); err != nil {
		return "", wrongType(kind)
	}
	if err := s.CheckSize(kind, file.Size); err != nil {
		return "", err
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	detected, err := kind.CheckContent(head[:n])
	if err != nil {
		s.log.Warn().Str("filename", file.Filename).Str("detected", detected).Msg("Upload content rejected")
		return "", wrongType(kind)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to rewind upload: %w", err)
	}

	name := media.SanitizeFilename(file.Filename)
	url, err := s.storage.Save(ctx, kind.Dir(), name, src, file.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("failed to store upload: %w", err)
	}

	s.log.Info().
		Str("kind", string(kind)).
		Str("url", url).
		Int64("size", file.Size).
		Msg("File uploaded")
	return url, nil
}

// CheckSize rejects uploads of kind larger than the configured cap
func (s *uploadService) CheckSize(kind media.Kind, size int64) error {
	limit := s.MaxSize(kind)
	if err := kind.CheckSize(size, limit); err != nil {
		return tooLarge(kind, limit)
	}
	return nil
}

// MaxSize is the size cap in bytes for uploads of kind
func (s *uploadService) MaxSize(kind media.Kind) int64 {
	if kind == media.KindVideo {
		return s.cfg.VideoMaxSize
	}
	return s.cfg.ImageMaxSize
}

func wrongType(kind media.Kind) error {
	return invalid(fmt.Sprintf("Only %s files are allowed.", string(kind)))
}

func tooLarge(kind media.Kind, limit int64) error {
	if kind == media.KindVideo {
		return invalid(fmt.Sprintf("%s file size exceeds %dMB limit.", kind.Label(), limit>>20))
	}
	return invalid(fmt.Sprintf("File size exceeds %dMB limit.", limit>>20))
}
