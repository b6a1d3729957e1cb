package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/newsdesk-api/internal/api"
	"github.com/newsdesk-api/internal/auth"
	"github.com/newsdesk-api/internal/config"
	"github.com/newsdesk-api/internal/database"
	"github.com/newsdesk-api/internal/media"
	"github.com/newsdesk-api/internal/repository"
	"github.com/newsdesk-api/internal/scheduler"
	"github.com/newsdesk-api/internal/service"
	"github.com/newsdesk-api/pkg/logger"
	"github.com/rs/zerolog"
)

func main() {
	// A missing .env is fine; the environment may be set by the platform
	_ = godotenv.Load()

	// Initialize logger
	log := logger.New(logger.FromEnv())
	log.Info().Msg("Starting newsdesk API server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log = logger.New(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})

	// Initialize database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Run migrations
	if err := db.RunMigrations(cfg.Server.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize repositories
	repos := repository.New(db, log)

	// Token revocation store
	revoker, closeRevoker := newRevoker(cfg, log)
	defer closeRevoker()

	// Initialize services
	services := service.NewServices(repos, cfg, service.Deps{
		Storage: newStorage(cfg, log),
		Revoker: revoker,
	}, log)

	// Start background scheduler
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		var publisher scheduler.Publisher
		if cfg.Scheduler.PublishScheduled {
			publisher = services.Article
		}
		sched = scheduler.New(cfg.Scheduler.Spec, services.Video, publisher, log)
		if err := sched.Start(); err != nil {
			log.Fatal().Err(err).Str("spec", cfg.Scheduler.Spec).Msg("Failed to start scheduler")
		}
	}

	// Initialize router
	router := api.NewRouter(services, cfg, db, log)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Stop scheduler
	if sched != nil {
		sched.Stop()
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		return
	}

	log.Info().Msg("Server exited gracefully")
}

// newRevoker uses Redis when REDIS_URL is set so logouts are shared across
// instances, and falls back to process memory otherwise
func newRevoker(cfg *config.Config, log zerolog.Logger) (auth.Revoker, func()) {
	if cfg.Redis.URL == "" {
		log.Warn().Msg("REDIS_URL not set, token revocations are kept in memory")
		return auth.NewMemoryRevoker(), func() {}
	}

	revoker, err := auth.NewRedisRevoker(cfg.Redis.URL, cfg.Redis.Prefix)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	log.Info().Msg("Token revocations stored in Redis")
	return revoker, func() {
		if err := revoker.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close Redis connection")
		}
	}
}

func newStorage(cfg *config.Config, log zerolog.Logger) media.Storage {
	if cfg.Media.Backend == config.MediaBackendSupabase {
		log.Info().Str("bucket", cfg.Media.SupabaseBucket).Msg("Media stored in Supabase")
		return media.NewSupabaseStorage(cfg.Media.SupabaseURL, cfg.Media.SupabaseKey, cfg.Media.SupabaseBucket)
	}
	log.Info().Str("root", cfg.Media.Root).Msg("Media stored on local disk")
	return media.NewLocalStorage(cfg.Media.Root, cfg.Media.PublicPrefix)
}
