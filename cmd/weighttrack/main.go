package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"weighttrack/internal/adapter/memory"
	"weighttrack/internal/adapter/postgres"
	"weighttrack/internal/app"
	"weighttrack/internal/config"
	"weighttrack/internal/domain"
	"weighttrack/internal/milestone"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "weighttrack",
		Short:         "Weight tracking service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("load .env: %w", err)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (defaults to $CONFIG_PATH)")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newSyncCmd(&configPath))
	root.AddCommand(newWeeklySummariesCmd(&configPath))
	root.AddCommand(newImportCmd(&configPath))
	root.AddCommand(newExportCmd(&configPath))
	return root
}

// store is everything the services need from a storage adapter.
type store interface {
	domain.UserRepository
	domain.ProfileRepository
	domain.ObservationRepository
	domain.AchievementRepository
	domain.SummaryRepository
	Close() error
}

// services is the wired application.
type services struct {
	cfg      *config.Config
	db       store
	progress *app.ProgressionService
	weight   *app.WeightService
	profile  *app.ProfileService
	insights *app.InsightsService
	summary  *app.SummaryService
	imports  *app.ImportService
}

func (s *services) Close() {
	if err := s.db.Close(); err != nil {
		log.Printf("close store: %v", err)
	}
}

func loadServices(configPath string) (*services, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	catalog, err := loadCatalog(cfg.Catalog.Path)
	if err != nil {
		return nil, err
	}
	log.Printf("milestone catalog v%d (%d milestones)", catalog.Version(), len(catalog.All()))

	db, err := openStore(cfg.Database)
	if err != nil {
		return nil, err
	}

	progress := app.NewProgressionService(db, db, db, catalog)
	weight := app.NewWeightService(db, db, progress)
	return &services{
		cfg:      cfg,
		db:       db,
		progress: progress,
		weight:   weight,
		profile:  app.NewProfileService(db, progress),
		insights: app.NewInsightsService(db, db, db, catalog),
		summary:  app.NewSummaryService(db, db, db, progress, cfg.Scheduler.Workers),
		imports:  app.NewImportService(db, weight),
	}, nil
}

func loadCatalog(path string) (*milestone.Catalog, error) {
	if path == "" {
		return milestone.Default()
	}
	return milestone.LoadFile(path)
}

func openStore(cfg config.DatabaseConfig) (store, error) {
	switch cfg.Driver {
	case "memory":
		log.Println("using in-memory store; data is lost on exit")
		return memory.New(), nil
	case "postgres":
		db, err := postgres.Open(cfg.URL, postgres.Pool{
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
		})
		if err != nil {
			return nil, fmt.Errorf("db open: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// resolveUser finds or provisions the named user, as the HTTP adapter does
// for forward-auth identities.
func resolveUser(ctx context.Context, users domain.UserRepository, username string) (*domain.User, error) {
	if username == "" {
		return nil, errors.New("--user is required")
	}
	u, err := users.GetByUsername(ctx, username)
	if err != nil || u != nil {
		return u, err
	}
	return users.Create(ctx, username)
}

func commandContext(cmd *cobra.Command, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}
