// Package cmd wires the altdocs-server binary together with cobra,
// grounded in sam-saffron-jarvis-term-llm's cmd/root.go +cmd/serve.go
// (a root command with flags that override viper-resolved defaults,
// Execute() as the single package entry point).
package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rbitr/altdocs/internal/auth"
	"github.com/rbitr/altdocs/internal/httpapi"
	"github.com/rbitr/altdocs/internal/room"
	"github.com/rbitr/altdocs/internal/storage"
	"github.com/rbitr/altdocs/pkg/config"
	"github.com/rbitr/altdocs/pkg/logger"
)

var (
	flagListen     string
	flagSQLitePath string
	flagLogLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "altdocs-server",
	Short: "Run the real-time collaborative document server",
	Long: `altdocs-server hosts document rooms over WebSocket, applying
operational-transform edits from every connected client. Documents are
loaded from SQLite when a room is created; rooms do not write back.

Endpoints:
  GET  /api/socket/{documentId}   WebSocket session (spec §4.3/§4.4)
  GET  /api/export/{documentId}   Markdown export of a live document
  GET  /api/stats                 room/document counters`,
	RunE: runServe,
}

func init() {
	rootCmd.Flags().StringVar(&flagListen, "listen", "", "Bind address (overrides config)")
	rootCmd.Flags().StringVar(&flagSQLitePath, "sqlite-path", "", "SQLite database path (overrides config)")
	rootCmd.Flags().StringVar(&flagLogLevel, "log-level", "", "error, info, or debug (overrides config)")
}

// Execute runs the root command; it is the package's sole entry point.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyFlagOverrides(cfg)

	os.Setenv("LOG_LEVEL", cfg.LogLevel)
	logger.Init()
	logger.Info("starting altdocs-server")
	logger.Info("listen: %s", cfg.Listen)
	logger.Info("sqlite path: %s", cfg.SQLitePath)

	store, err := storage.New(cfg.SQLitePath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	authn := auth.NewInMemory()
	service := room.NewService(store, authn)
	srv := httpapi.New(service, store, authn)

	httpServer := &http.Server{Addr: cfg.Listen, Handler: srv}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			logger.Error("shutdown: %v", err)
		}
	}()

	logger.Info("server listening on %s", cfg.Listen)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen and serve: %w", err)
	}
	return nil
}

func applyFlagOverrides(cfg *config.Config) {
	if flagListen != "" {
		cfg.Listen = flagListen
	}
	if flagSQLitePath != "" {
		cfg.SQLitePath = flagSQLitePath
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
}
