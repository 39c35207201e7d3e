package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"scrap-pricer/internal/cfg"
	"scrap-pricer/internal/dataset"
	"scrap-pricer/internal/metrics"
	"scrap-pricer/internal/ml"
	"scrap-pricer/internal/server"
)

func main() {
	_ = godotenv.Load() // .env is optional
	setupLogging()

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()

	snap := initializeSnapshot(c)
	if snap != nil {
		defer snap.Close()
	}

	source := initializeSource(c)
	if closer, ok := source.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	loader := dataset.NewLoader(source, snap, m)
	trainer := &ml.Trainer{
		Loader:    loader,
		ModelPath: c.ModelPath,
		Trees:     c.Trees,
		Seed:      c.Seed,
		Holdout:   c.HoldoutFraction,
	}
	manager := ml.NewManager(trainer, m)

	// Trains on the spot when the artifact is missing or corrupt, so the
	// first request never finds an empty serving state.
	if err := manager.EnsureLoaded(ctx); err != nil {
		log.Fatal().Err(err).Msg("model load failed")
	}

	srv := server.New(c.ListenAddr, manager, m)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	waitForShutdown(ctx, srv, errCh)
}

func setupLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if level, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil && level != zerolog.NoLevel {
		zerolog.SetGlobalLevel(level)
	}
	if os.Getenv("ENV") == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

// initializeSnapshot opens the dataset snapshot cache if DATA_PATH is set.
func initializeSnapshot(c cfg.Settings) *dataset.Snapshot {
	if c.DataPath == "" {
		return nil
	}
	snap, err := dataset.NewSnapshot(c.DataPath)
	if err != nil {
		log.Warn().Err(err).Msg("snapshot cache initialization failed, continuing without it")
		return nil
	}
	return snap
}

// initializeSource picks the configured backing store. With neither a
// database URL nor a REST endpoint the loader serves snapshot or seed data.
func initializeSource(c cfg.Settings) dataset.Source {
	if c.DatabaseURL != "" {
		src, err := dataset.NewSQLSource(c.DatabaseURL)
		if err != nil {
			log.Warn().Err(err).Msg("postgres source initialization failed, continuing without a live store")
			return nil
		}
		return src
	}
	if c.SourceURL != "" {
		return dataset.NewRESTSource(c.SourceURL, c.SourceKey, c.FetchTimeout)
	}
	log.Warn().Msg("no backing store configured, training from snapshot or seed data")
	return nil
}

func waitForShutdown(ctx context.Context, srv *server.Server, errCh chan error) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("server stopped")
		}
		return
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
