package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vidqa/internal/api"
	"vidqa/internal/app"
	"vidqa/internal/config"

	"github.com/joho/godotenv"
	tclient "go.temporal.io/sdk/client"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()
	logger := app.NewLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		log.Fatal(err)
	}
	defer a.Close()

	var proc api.Processor
	if cfg.ProcessMode == config.ProcessModeTemporal {
		tc, err := tclient.Dial(tclient.Options{HostPort: cfg.TemporalAddress})
		if err != nil {
			log.Fatal(err)
		}
		defer tc.Close()
		proc = app.NewTemporalProcessor(tc, a.Pipeline, cfg.TemporalTaskQueue, cfg.ActivityTimeoutSecs, logger)
	}

	h := api.NewServer(cfg, a.Pipeline, proc, a.Generators, logger)
	srv := &http.Server{
		Addr:              cfg.APIAddr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("vidqa api listening",
		slog.String("addr", cfg.APIAddr),
		slog.String("process_mode", cfg.ProcessMode),
		slog.String("llm_providers", cfg.LLMProviders),
		slog.String("embed_providers", cfg.EmbedProviders),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
