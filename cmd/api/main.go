package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bmex-dev/leveldensity/internal/api"
	"github.com/bmex-dev/leveldensity/internal/api/handlers"
	"github.com/bmex-dev/leveldensity/internal/dashboard"
	"github.com/bmex-dev/leveldensity/internal/metrics"
	"github.com/bmex-dev/leveldensity/internal/middleware/ratelimit"
	"github.com/bmex-dev/leveldensity/internal/resolver"
	"github.com/bmex-dev/leveldensity/internal/session"
	"github.com/bmex-dev/leveldensity/internal/storage/sqlite"
	"github.com/bmex-dev/leveldensity/internal/view"
	"github.com/bmex-dev/leveldensity/pkg/config"
	appLogger "github.com/bmex-dev/leveldensity/pkg/logger"
)

func main() {
	cmd := &cobra.Command{
		Use:           "leveldensity",
		Short:         "Nuclear level density dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
	cmd.Flags().Bool("debug", false, "enable debug logging and development headers")
	cmd.Flags().String("host", "127.0.0.1", "listen address")
	cmd.Flags().Int("port", 8050, "listen port")
	cmd.Flags().String("config", "", "path to a config file")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting level density dashboard", zap.String("data_root", cfg.Data.Root))

	metrics.Init()

	labels, err := resolver.LabelsFor(cfg.Data.Labels, cfg.Data.Columns)
	if err != nil {
		return err
	}
	dataFs := afero.NewReadOnlyFs(afero.NewBasePathFs(afero.NewOsFs(), cfg.Data.Root))
	res := resolver.NewResolver(dataFs, resolver.Config{IndexFile: cfg.Data.IndexFile, Labels: labels})

	ttl := time.Duration(cfg.Session.TTLMinutes) * time.Minute
	store, err := newSessionStore(cfg, ttl)
	if err != nil {
		return err
	}
	defer store.Close()

	deps := api.Dependencies{
		Sessions: handlers.NewSessions(store, cfg.Session.CookieName, ttl),
	}

	var history dashboard.HistoryRecorder
	if cfg.History.Enabled {
		db, err := sqlite.NewClient(cfg.History.Path)
		if err != nil {
			return fmt.Errorf("failed to create SQLite client: %w", err)
		}
		defer db.Close()
		if err := db.InitSchema(); err != nil {
			return err
		}
		history = db
		deps.History = db
	}
	deps.Service = dashboard.NewService(res, history)

	deps.Renderer, err = view.NewRenderer()
	if err != nil {
		return err
	}

	app := api.NewApp(api.Options{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		Debug:        cfg.Server.Debug,
		RequestLog:   cfg.Server.Debug,
		RateLimit: ratelimit.Config{
			RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
			Burst:             cfg.RateLimit.Burst,
		},
	}, deps)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(addr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	appLogger.Info("Server shutting down gracefully...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		appLogger.Warn("Shutdown incomplete", zap.Error(err))
	}
	appLogger.Info("Server stopped")
	return nil
}

func newSessionStore(cfg *config.Config, ttl time.Duration) (session.Store, error) {
	if cfg.Session.Backend != "redis" {
		return session.NewMemoryStore(ttl), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	store, err := session.NewRedisStore(ctx, cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB, ttl)
	if err != nil {
		return nil, err
	}
	return store, nil
}
