package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"kanban/internal/access"
	"kanban/internal/config"
	"kanban/internal/events"
	"kanban/internal/kanban"
	"kanban/internal/server"
	"kanban/internal/storage"
)

const shutdownTimeout = 5 * time.Second

type serveOptions struct {
	addr   string
	static string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.load(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Addr = opts.addr
			}
			if cmd.Flags().Changed("static") {
				cfg.StaticDir = opts.static
			}
			if cfg.JWTSecret == "" {
				return errors.New("jwtSecret is required to serve (set KANBAN_JWT_SECRET)")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, cfg.Logger(cmd.ErrOrStderr()))
		},
	}

	defaults := config.Default()
	cmd.Flags().StringVar(&opts.addr, "addr", defaults.Addr, "HTTP listen address")
	cmd.Flags().StringVar(&opts.static, "static", defaults.StaticDir, "directory with the built frontend")

	return cmd
}

func runServe(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	store, err := storage.Open(cfg.DBDriver, cfg.DBDSN, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	bus := events.NewBus()
	svc := kanban.New(store, access.NewStorePolicy(store), logger, kanban.Options{
		CompactOnDelete: cfg.CompactOnDelete,
		Publisher:       bus,
	})
	srv := server.New(svc, bus, logger, server.Options{
		StaticDir:   cfg.StaticDir,
		JWTSecret:   []byte(cfg.JWTSecret),
		CORSOrigins: cfg.CORSOrigins,
	})

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	httpServer.RegisterOnShutdown(srv.CloseStreams)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			slog.String("addr", httpServer.Addr),
			slog.String("driver", cfg.DBDriver),
			slog.Bool("compact_on_delete", cfg.CompactOnDelete))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server stopped unexpectedly", slog.String("error", err.Error()))
			return err
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", slog.String("error", err.Error()))
		return err
	}

	logger.Info("server stopped")
	return nil
}
