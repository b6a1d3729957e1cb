package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/newsdesk-api/internal/config"
	"github.com/newsdesk-api/internal/database"
	"github.com/newsdesk-api/internal/models"
	"github.com/newsdesk-api/internal/repository"
	"github.com/newsdesk-api/internal/service"
	"github.com/newsdesk-api/pkg/logger"
	"github.com/rs/zerolog"
)

const commandTimeout = 10 * time.Minute

var errUsage = errors.New("usage")

var commands = map[string]bool{
	"createuser": true, "recount": true, "publish-due": true, "export": true,
	"migrate-up": true, "migrate-down": true, "migrate-to": true,
}

func usage() {
	_, _ = fmt.Fprintf(os.Stderr, "newsdeskctl - newsdesk administration\n\n")
	_, _ = fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n\n", os.Args[0])
	_, _ = fmt.Fprintf(os.Stderr, "Commands:\n")
	_, _ = fmt.Fprintf(os.Stderr, "  createuser    Create a login (-username, -password, -role)\n")
	_, _ = fmt.Fprintf(os.Stderr, "  recount       Recompute writer and category article counters\n")
	_, _ = fmt.Fprintf(os.Stderr, "  publish-due   Publish scheduled articles whose time has come\n")
	_, _ = fmt.Fprintf(os.Stderr, "  export        Write every article to a file (-format, -out)\n")
	_, _ = fmt.Fprintf(os.Stderr, "  migrate-up    Apply pending migrations\n")
	_, _ = fmt.Fprintf(os.Stderr, "  migrate-down  Roll back the last migration\n")
	_, _ = fmt.Fprintf(os.Stderr, "  migrate-to    Migrate to a version (-version)\n")
	_, _ = fmt.Fprintf(os.Stderr, "\nConfiguration is read from the environment and .env, as for the server.\n")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	if err := run(os.Args[1], os.Args[2:]); err != nil {
		if errors.Is(err, errUsage) {
			usage()
			os.Exit(2)
		}
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app bundles what every command needs
type app struct {
	cfg      *config.Config
	db       *database.DB
	services *service.Services
	log      zerolog.Logger
}

func run(command string, args []string) error {
	if !commands[command] {
		return errUsage
	}
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	// stdout carries command output such as exports
	log := logger.New(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Out: os.Stderr})

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()

	a := &app{
		cfg: cfg,
		db:  db,
		// commands never upload, so no storage backend is wired
		services: service.NewServices(repository.New(db, log), cfg, service.Deps{}, log),
		log:      log,
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	switch command {
	case "createuser":
		return a.createUser(ctx, args)
	case "recount":
		return a.recount(ctx)
	case "publish-due":
		return a.publishDue(ctx)
	case "export":
		return a.export(ctx, args)
	case "migrate-up":
		return db.RunMigrations(cfg.Server.MigrationsPath)
	case "migrate-down":
		return db.MigrateDown(cfg.Server.MigrationsPath)
	case "migrate-to":
		return a.migrateTo(args)
	default:
		return errUsage
	}
}

func (a *app) createUser(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("createuser", flag.ContinueOnError)
	username := fs.String("username", "", "Login name")
	password := fs.String("password", "", "Password (min 8 characters)")
	role := fs.String("role", string(models.RoleEditor), "admin, editor or viewer")
	if err := fs.Parse(args); err != nil {
		return err
	}

	user, err := a.services.Auth.CreateUser(ctx, *username, *password, models.Role(*role))
	if err != nil {
		return err
	}
	fmt.Printf("Created user %q (id %d, role %s)\n", user.Username, user.ID, user.Role)
	return nil
}

func (a *app) recount(ctx context.Context) error {
	result, err := a.services.Article.Recount(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Corrected %d categories and %d writers\n", result.Categories, result.Writers)
	return nil
}

func (a *app) publishDue(ctx context.Context) error {
	n, err := a.services.Article.PublishDue(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Published %d scheduled articles\n", n)
	return nil
}

func (a *app) export(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	format := fs.String("format", service.FormatNDJSON, "ndjson, json or csv")
	out := fs.String("out", "-", "Output file, - for stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if *out != "-" {
		f, err := os.Create(*out)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", *out, err)
		}
		defer f.Close()
		w = f
	}

	count, err := a.services.Export.WriteArticles(ctx, w, *format)
	if err != nil {
		return err
	}
	a.log.Info().Int("count", count).Str("out", *out).Msg("Export written")
	return nil
}

func (a *app) migrateTo(args []string) error {
	fs := flag.NewFlagSet("migrate-to", flag.ContinueOnError)
	version := fs.Uint("version", 0, "Target schema version")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *version == 0 {
		return fmt.Errorf("-version is required")
	}
	return a.db.MigrateToVersion(a.cfg.Server.MigrationsPath, *version)
}
