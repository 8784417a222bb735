package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"scribe/internal/api"
	"scribe/internal/config"
	"scribe/internal/daemon"
	"scribe/internal/jobs"
	"scribe/internal/logging"
	"scribe/internal/media"
	"scribe/internal/store"
	"scribe/internal/subtitles"
	"scribe/internal/transcribe"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	st, err := store.Open(cfg)
	if err != nil {
		logger.Error("open store", logging.Error(err))
		return
	}

	limiter := media.NewLimiter(cfg.RateLimit)
	tool := media.NewYtDlp(cfg, media.WithLimiter(limiter))
	fetcher := subtitles.NewFetcher(cfg)
	engine, err := transcribe.ForConfig(cfg)
	if err != nil {
		logger.Error("select transcription engine", logging.Error(err))
		return
	}
	gate := transcribe.NewGate(cfg.Transcription.MaxConcurrent)

	strategy := jobs.NewStrategy(cfg, tool, fetcher, engine, gate, logger)
	processor := jobs.NewProcessor(cfg, st, strategy, logger)
	apiServer := api.NewServer(cfg, st, processor, tool, fetcher, engine, gate, logger)

	d, err := daemon.New(cfg, st, processor, apiServer, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("scribed shutting down")
}
