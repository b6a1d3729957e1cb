package service

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/newsdesk-api/internal/auth"
	"github.com/newsdesk-api/internal/config"
	"github.com/newsdesk-api/internal/media"
	"github.com/newsdesk-api/internal/models"
	"github.com/newsdesk-api/internal/repository"
	"github.com/rs/zerolog"
)

// AuthService defines login, token and account operations
type AuthService interface {
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	Authenticate(ctx context.Context, accessToken string) (*auth.Claims, error)
	Refresh(ctx context.Context, refreshToken string) (*LoginResult, error)
	Logout(ctx context.Context, claims *auth.Claims, refreshToken string) error
	CreateUser(ctx context.Context, username, password string, role models.Role) (*models.User, error)
}

// WriterService defines writer operations
type WriterService interface {
	List(ctx context.Context, page models.Page) (models.PageResult[*models.Writer], error)
	Get(ctx context.Context, id int64) (*models.Writer, error)
	Create(ctx context.Context, in *models.WriterInput) (*models.Writer, error)
	Update(ctx context.Context, id int64, in *models.WriterInput, partial bool) (*models.Writer, error)
	Delete(ctx context.Context, id int64) error
}

// CategoryService defines category operations
type CategoryService interface {
	List(ctx context.Context, page models.Page) (models.PageResult[*models.Category], error)
	Get(ctx context.Context, id int64) (*models.Category, error)
	Create(ctx context.Context, in *models.CategoryInput) (*models.Category, error)
	Update(ctx context.Context, id int64, in *models.CategoryInput, partial bool) (*models.Category, error)
	Delete(ctx context.Context, id int64) error
}

// ArticleService defines article operations; every write keeps the parent
// counters and the featured cap consistent
type ArticleService interface {
	List(ctx context.Context, filter models.ArticleFilter) (models.PageResult[*models.Article], error)
	Get(ctx context.Context, id int64) (*models.Article, error)
	Create(ctx context.Context, in *models.ArticleInput) (*models.Article, error)
	Update(ctx context.Context, id int64, in *models.ArticleInput, partial bool) (*models.Article, error)
	Delete(ctx context.Context, id int64) error
	Stats(ctx context.Context) (*models.ArticleStats, error)
	PublishDue(ctx context.Context) (int64, error)
	Recount(ctx context.Context) (*RecountResult, error)
}

// VideoCategoryService defines video category operations
type VideoCategoryService interface {
	List(ctx context.Context, page models.Page) (models.PageResult[*models.VideoCategory], error)
	Create(ctx context.Context, in *models.VideoCategoryInput) (*models.VideoCategory, error)
}

// VideoService defines video operations including the live lifecycle
type VideoService interface {
	List(ctx context.Context, filter models.VideoFilter) (models.PageResult[*models.Video], error)
	Get(ctx context.Context, id int64) (*models.Video, error)
	Create(ctx context.Context, uploaderID int64, in *models.VideoInput) (*models.Video, error)
	Update(ctx context.Context, id int64, in *models.VideoInput, partial bool) (*models.Video, error)
	Delete(ctx context.Context, id int64) error
	SetLive(ctx context.Context, id int64, live bool) (*models.Video, error)
	ArchiveExpired(ctx context.Context) (int64, error)
}

// UploadService defines media upload operations
type UploadService interface {
	Upload(ctx context.Context, kind media.Kind, file *multipart.FileHeader) (string, error)
	CheckSize(kind media.Kind, size int64) error
	MaxSize(kind media.Kind) int64
}

// ExportService defines the interface for export operations
type ExportService interface {
	StreamArticles(ctx context.Context, w http.ResponseWriter, format string) error
	WriteArticles(ctx context.Context, w io.Writer, format string) (int, error)
}

// Services holds all service interfaces
type Services struct {
	Auth          AuthService
	Writer        WriterService
	Category      CategoryService
	Article       ArticleService
	VideoCategory VideoCategoryService
	Video         VideoService
	Upload        UploadService
	Export        ExportService
}

// Deps carries the collaborators that are chosen at startup
type Deps struct {
	Storage media.Storage
	Revoker auth.Revoker
	// Clock defaults to time.Now
	Clock func() time.Time
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, cfg *config.Config, deps Deps, log zerolog.Logger) *Services {
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL).
		WithClock(now)

	return &Services{
		Auth:          newAuthService(repos, tokens, deps.Revoker, now, log),
		Writer:        newWriterService(repos, now, log),
		Category:      newCategoryService(repos, now, log),
		Article:       newArticleService(repos, now, log),
		VideoCategory: newVideoCategoryService(repos, now, log),
		Video:         newVideoService(repos, now, log),
		Upload:        newUploadService(deps.Storage, &cfg.Media, log),
		Export:        newExportService(repos, log),
	}
}
