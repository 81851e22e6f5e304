package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ravipanchani-tomtom/data-processing-demo/internal/middleware"
	"github.com/ravipanchani-tomtom/data-processing-demo/internal/server"
)

var (
	servePort int
	serveDemo bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API until SIGINT or SIGTERM.

Examples:
  textlab serve                      # Defaults plus TEXTLAB_* env
  textlab serve --config textlab.yaml --port 9000
  textlab serve --demo               # In-memory lexicon, vectors and datasets`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "override listen port")
	serveCmd.Flags().BoolVar(&serveDemo, "demo", false, "serve built-in demo data instead of configured stores")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if servePort > 0 {
		cfg.Port = servePort
	}

	var (
		a   *app
		err error
	)
	if serveDemo {
		a, err = buildDemoApp(cfg)
		slog.Info("mode: demo data enabled")
	} else {
		a, err = buildApp(cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to initialise services: %w", err)
	}
	defer a.Close()

	handler := server.SetupMux(a.deps(), middleware.Options{
		APIKey:      cfg.APIKey,
		RateLimiter: middleware.NewRateLimiter(cfg.RateLimit, cfg.RateWindow),
	})

	if cfg.APIKey != "" {
		slog.Info("auth: API key required (X-API-Key header)")
	} else {
		slog.Info("auth: disabled (no api_key configured)")
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmdContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("textlab api listening", "addr", addr, "datasets", a.samples.ListDatasets())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	slog.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

// cmdContext falls back to a background context when a command runs
// outside Execute, as in tests.
func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
