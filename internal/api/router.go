package api

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/newsdesk-api/internal/config"
	"github.com/newsdesk-api/internal/models"
	"github.com/newsdesk-api/internal/service"
	"github.com/rs/zerolog"
)

const requestIDHeader = "X-Request-ID"

// HealthChecker reports whether a backing store is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// NewRouter creates and configures the Gin router. db may be nil.
func NewRouter(services *service.Services, cfg *config.Config, db HealthChecker, log zerolog.Logger) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	// every route is registered with and without a trailing slash
	router.RedirectTrailingSlash = false

	// Middleware
	router.Use(requestIDMiddleware())
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware(cfg.CORS))

	// Handlers
	authn := newAuthenticator(services, log)
	authHandler := NewAuthHandler(services, log)
	writerHandler := NewWriterHandler(services, log)
	categoryHandler := NewCategoryHandler(services, log)
	articleHandler := NewArticleHandler(services, log)
	videoHandler := NewVideoHandler(services, log)
	uploadHandler := NewUploadHandler(services, log)

	loginLimiter := newLoginLimiter(cfg.Auth.LoginRPS, cfg.Auth.LoginBurst, log)
	editors := requireRoles(models.RoleAdmin, models.RoleEditor)

	// Health check
	router.GET("/health", healthCheck(db, log))

	// Local media is served by the API itself
	if cfg.Media.Backend == config.MediaBackendLocal && cfg.Media.Root != "" {
		router.Static(cfg.Media.PublicPrefix, cfg.Media.Root)
	}

	r := routes{router}

	// Authentication
	r.handle(http.MethodPost, "/login", loginLimiter.middleware(), authHandler.Login)
	r.handle(http.MethodGet, "/check-auth", authHandler.CheckAuth)
	r.handle(http.MethodPost, "/logout", authn.required, authHandler.Logout)
	r.handle(http.MethodPost, "/token/refresh", authHandler.Refresh)

	// Writers
	r.handle(http.MethodGet, "/writers", authn.required, writerHandler.List)
	r.handle(http.MethodPost, "/writers", authn.required, editors, writerHandler.Create)
	r.handle(http.MethodGet, "/writers/:id", authn.required, writerHandler.Get)
	r.handle(http.MethodPut, "/writers/:id", authn.required, editors, writerHandler.Update)
	r.handle(http.MethodPatch, "/writers/:id", authn.required, editors, writerHandler.Update)
	r.handle(http.MethodDelete, "/writers/:id", authn.required, editors, writerHandler.Delete)

	// Categories
	r.handle(http.MethodGet, "/categories", categoryHandler.List)
	r.handle(http.MethodPost, "/categories", authn.required, editors, categoryHandler.Create)
	r.handle(http.MethodGet, "/categories/:id", categoryHandler.Get)
	r.handle(http.MethodPut, "/categories/:id", authn.required, editors, categoryHandler.Update)
	r.handle(http.MethodPatch, "/categories/:id", authn.required, editors, categoryHandler.Update)
	r.handle(http.MethodDelete, "/categories/:id", authn.required, editors, categoryHandler.Delete)

	// Articles
	r.handle(http.MethodGet, "/articles", articleHandler.List)
	r.handle(http.MethodPost, "/articles", authn.required, editors, articleHandler.Create)
	r.handle(http.MethodGet, "/articles/export", authn.required, editors, articleHandler.Export)
	r.handle(http.MethodGet, "/articles/:id", articleHandler.Get)
	r.handle(http.MethodPut, "/articles/:id", authn.required, editors, articleHandler.Update)
	r.handle(http.MethodPatch, "/articles/:id", authn.required, editors, articleHandler.Update)
	r.handle(http.MethodDelete, "/articles/:id", authn.required, editors, articleHandler.Delete)
	r.handle(http.MethodGet, "/article-stats", authn.required, articleHandler.Stats)

	// Uploads
	r.handle(http.MethodPost, "/upload", authn.required, editors, uploadHandler.Image)
	r.handle(http.MethodPost, "/upload/video", authn.required, editors, uploadHandler.Video)

	// Videos
	r.handle(http.MethodGet, "/video-categories", authn.required, videoHandler.ListCategories)
	r.handle(http.MethodPost, "/video-categories", authn.required, editors, videoHandler.CreateCategory)
	r.handle(http.MethodGet, "/videos", authn.required, videoHandler.List)
	r.handle(http.MethodPost, "/videos", authn.required, editors, videoHandler.Create)
	r.handle(http.MethodGet, "/videos/:id", authn.required, videoHandler.Get)
	r.handle(http.MethodPut, "/videos/:id", authn.required, editors, videoHandler.Update)
	r.handle(http.MethodPatch, "/videos/:id", authn.required, editors, videoHandler.Update)
	r.handle(http.MethodDelete, "/videos/:id", authn.required, editors, videoHandler.Delete)
	r.handle(http.MethodPatch, "/videos/:id/live", authn.required, editors, videoHandler.SetLive)

	return router
}

// routes registers each path with and without a trailing slash
type routes struct {
	engine *gin.Engine
}

func (r routes) handle(method, path string, handlers ...gin.HandlerFunc) {
	r.engine.Handle(method, path, handlers...)
	r.engine.Handle(method, path+"/", handlers...)
}

// healthCheck returns the health status
func healthCheck(db HealthChecker, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, code := "healthy", http.StatusOK
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := db.HealthCheck(ctx); err != nil {
				log.Error().Err(err).Msg("Database health check failed")
				status, code = "unhealthy", http.StatusServiceUnavailable
			}
		}
		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   "newsdesk-api",
		})
	}
}

// requestIDMiddleware tags each request with an id, reusing the client's when present
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(requestIDHeader, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().
					Interface("error", err).
					Str("request_id", c.GetString(requestIDHeader)).
					Msg("Panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"detail": "Internal server error",
				})
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Str("request_id", c.GetString(requestIDHeader)).
			Msg("Request completed")
	}
}

// corsMiddleware allows the configured browser origins. A "*" entry or an
// empty list allows every origin without credentials.
func corsMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition", requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	origins := slices.DeleteFunc(slices.Clone(cfg.AllowedOrigins), func(o string) bool {
		return strings.TrimSpace(o) == ""
	})
	if len(origins) == 0 || slices.Contains(origins, "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = origins
		corsCfg.AllowCredentials = true
	}
	return cors.New(corsCfg)
}
