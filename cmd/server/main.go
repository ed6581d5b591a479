package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"exchange-backoffice-api/internal/cache"
	"exchange-backoffice-api/internal/config"
	"exchange-backoffice-api/internal/database"
	"exchange-backoffice-api/internal/logging"
	"exchange-backoffice-api/internal/realtime"
	"exchange-backoffice-api/internal/routes"
	"exchange-backoffice-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version is set via -ldflags "-X main.Version=<version>" during build.
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "backoffice",
		Short:         "Currency exchange back-office API",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (yaml, toml or json)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd.Context(), configPath)
		},
	}
	root.AddCommand(serveCmd)
	// Running the binary without a subcommand starts the server.
	root.RunE = serveCmd.RunE

	return root
}

func runServer(parent context.Context, configPath string) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	db, err := database.Open(cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database ready", zap.String("driver", db.Dialector.Name()))

	// One cache per process, shared by every consumer.
	appCache := cache.New(cache.Options{
		DefaultTTL:      cfg.Cache.DefaultTTL,
		MaxEntries:      cfg.Cache.MaxEntries,
		CleanupInterval: cfg.Cache.CleanupInterval,
		Logger:          logger,
	})
	go appCache.RunJanitor(ctx)

	hub := realtime.NewHub(logger)
	backoffice := service.NewBackoffice(service.NewGormStore(db), appCache, hub, cfg.Cache.DefaultTTL, logger)

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := routes.SetupRoutes(routes.Dependencies{
		Backoffice: backoffice,
		Cache:      appCache,
		Hub:        hub,
		Logger:     logger,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("addr", cfg.Server.Port),
			zap.Duration("cache_ttl", cfg.Cache.DefaultTTL),
			zap.Int("cache_max_entries", cfg.Cache.MaxEntries))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen %s: %w", cfg.Server.Port, err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
