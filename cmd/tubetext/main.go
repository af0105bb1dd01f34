package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tubetext/tubetext/internal/api"
	"github.com/tubetext/tubetext/internal/cache"
	"github.com/tubetext/tubetext/internal/catalog"
	"github.com/tubetext/tubetext/internal/config"
	"github.com/tubetext/tubetext/internal/db"
	"github.com/tubetext/tubetext/internal/logging"
	"github.com/tubetext/tubetext/internal/pages"
	"github.com/tubetext/tubetext/internal/youtube"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var port string

	rootCmd := &cobra.Command{
		Use:           "tubetext",
		Short:         "Serve YouTube transcripts as cached HTML pages",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cmd.Flags().Changed("port") {
				if err := cfg.SetPort(port); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}

	rootCmd.Flags().StringVarP(&port, "port", "p", "", fmt.Sprintf("HTTP port (default %d, env %s)", config.DefaultPort, config.EnvPort))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "tubetext %s (commit %s, built %s)\n", config.Version, config.GitCommit, config.BuildTime)
			return nil
		},
	}
}

func run(ctx context.Context, cfg config.Config) error {
	startTime := time.Now()

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting tubetext",
		"version", config.Version,
		"addr", cfg.Addr(),
		"cache_dir", logging.SanitizePath(cfg.CacheDir()),
		"data_dir", logging.SanitizePath(cfg.DataDir()),
	)

	store, err := cache.NewStore(cfg.CacheDir(), logging.WithComponent(logger, "cache"))
	if err != nil {
		return fmt.Errorf("failed to initialize page cache: %w", err)
	}

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := catalog.NewRepository(database.Conn())

	provider := youtube.NewClient(cfg.YouTubeBaseURL(), cfg.ProviderTimeout(), logging.WithComponent(logger, "youtube"))

	pageSvc := pages.NewService(pages.Config{
		Store:           store,
		Provider:        provider,
		Index:           repo,
		ProviderTimeout: cfg.ProviderTimeout(),
		Logger:          logging.WithComponent(logger, "pages"),
	})

	apiServer := api.NewServer(api.ServerConfig{
		Addr:            cfg.Addr(),
		ProviderTimeout: cfg.ProviderTimeout(),
		Pages:           pageSvc,
		Cache:           store,
		Catalog:         repo,
		Logger:          logger,
		StartTime:       startTime,
		Version:         config.Version,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- apiServer.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	}

	logger.Info("initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}
