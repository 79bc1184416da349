package main

import (
	"context"
	"log"
	"log/slog"

	"vidqa/internal/activities"
	"vidqa/internal/app"
	"vidqa/internal/config"
	"vidqa/internal/workflows"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()
	cfg.ProcessMode = config.ProcessModeTemporal
	logger := app.NewLogger(cfg)
	slog.SetDefault(logger)

	c, err := client.Dial(client.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		log.Fatal(err)
	}
	defer c.Close()

	a, err := app.Build(context.Background(), cfg, logger)
	if err != nil {
		log.Fatal(err)
	}
	defer a.Close()

	w := worker.New(c, cfg.TemporalTaskQueue, worker.Options{})
	workflows.Register(w)
	activities.Register(w, activities.New(a.Pipeline))

	logger.Info("vidqa worker listening",
		slog.String("temporal", cfg.TemporalAddress),
		slog.String("queue", cfg.TemporalTaskQueue),
		slog.String("transcribe_provider", cfg.TranscribeProvider),
		slog.String("embed_providers", cfg.EmbedProviders),
	)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatal(err)
	}
}
