package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/twinoai/twino/pkg/ratelimit"
	"github.com/twinoai/twino/pkg/realtime"
	"github.com/twinoai/twino/pkg/server"
)

var (
	serveListen    string
	serveRateLimit int
	serveEnvFile   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the twino HTTP API: ephemeral realtime tokens, the interviewer
prompt, twin storage and profile extraction.

Variables from a .env file are loaded before the configuration is read.

Example:
  twino serve --listen :8080 --rate-limit 10`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address (default :8080)")
	serveCmd.Flags().IntVar(&serveRateLimit, "rate-limit", 0, "token requests per client per minute (default 10)")
	serveCmd.Flags().StringVar(&serveEnvFile, "env-file", ".env", "dotenv file to load")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(serveEnvFile); err != nil {
		slog.Info("no env file loaded, using environment variables", "file", serveEnvFile)
	}
	cctx, err := GetContext()
	if err != nil {
		return err
	}

	store, err := openStore(cctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Error("close twin store", "error", err)
		}
	}()

	limit := serveRateLimit
	if limit == 0 {
		limit = cctx.RateLimit
	}
	limiter, err := ratelimit.New(ratelimit.Config{Limit: limit})
	if err != nil {
		return err
	}
	defer limiter.Close()

	qs, err := loadQuestions(cctx)
	if err != nil {
		return err
	}

	opts := server.Options{
		Twins:     store,
		Limiter:   limiter,
		Questions: qs,
		Model:     cctx.Model,
		Voice:     cctx.Voice,
	}
	if key := cctx.OpenAIKey(); key != "" {
		opts.Tokens = realtime.NewClient(key, realtimeOptions(cctx)...)
	} else {
		slog.Warn("OPENAI_API_KEY not configured, token endpoint disabled")
	}
	if ext, err := newExtractor(cmd.Context(), cctx); err == nil {
		opts.Extractor = ext
	} else {
		slog.Warn("profile extraction disabled", "reason", err)
	}
	srv, err := server.New(opts)
	if err != nil {
		return err
	}

	addr := serveListen
	if addr == "" {
		addr = cctx.Listen
	}
	if addr == "" {
		addr = ":8080"
	}
	return listenAndServe(cmd.Context(), addr, srv.Handler())
}

// listenAndServe runs h until SIGINT or SIGTERM, then shuts down gracefully.
func listenAndServe(parent context.Context, addr string, h http.Handler) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}
