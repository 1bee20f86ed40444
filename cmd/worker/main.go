package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"vodworks/internal/adapter/repo"
	"vodworks/internal/domain"
	"vodworks/internal/infra"
	"vodworks/internal/media"
	"vodworks/internal/pipeline"
	"vodworks/internal/storage"
)

// pollBatchSize bounds how many queued asset ids one poll submits. The
// dispatcher drops duplicates, so overlapping polls are harmless.
const pollBatchSize = 16

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	fileStore, err := storage.NewFileStore(cfg.MediaRoot)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure storage")
	}

	ffprobe, err := media.NewRunner(cfg.FFprobeBin, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: ffprobe unavailable")
	}
	ffmpeg, err := media.NewRunner(cfg.FFmpegBin, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: ffmpeg unavailable")
	}

	assets := repo.NewAssetRepository(pool)

	pipe := pipeline.New(
		pipeline.Config{
			Tiers:       domain.DefaultTiers(),
			Thumbnails:  domain.DefaultThumbnailSpecs(),
			RetryBase:   cfg.RetryBase,
			MaxAttempts: cfg.MaxAttempts,
		},
		assets,
		repo.NewRenditionRepository(pool),
		repo.NewThumbnailRepository(pool),
		media.NewProber(ffprobe, cfg.ProbeTimeout),
		media.NewThumbnailer(ffmpeg, fileStore, cfg.ThumbnailTimeout),
		media.NewTranscoder(ffmpeg, fileStore, cfg.TranscodeTimeout),
		fileStore,
		logger,
	)

	dispatcher := pipeline.NewDispatcher(pipe, cfg.WorkerCount, cfg.WorkerQueueSize, logger)

	go pollQueued(ctx, assets, dispatcher, cfg.PollInterval, logger)

	logger.Info().Int("workers", cfg.WorkerCount).Msg("worker: started")
	if err := dispatcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

// pollQueued periodically submits queued asset ids to the dispatcher.
func pollQueued(ctx context.Context, assets domain.AssetRepository, dispatcher *pipeline.Dispatcher, interval time.Duration, logger zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		ids, err := assets.ListQueued(ctx, pollBatchSize)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			logger.Error().Err(err).Msg("worker: failed to poll queued assets")
			continue
		}
		for _, id := range ids {
			if dispatcher.Submit(id) {
				logger.Debug().Str("asset_id", id).Msg("worker: asset submitted")
			}
		}
	}
}
