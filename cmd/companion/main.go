// Package main provides the prompt-companion worker entry point.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lukaszraczylo/prompt-companion/internal/config"
	"github.com/lukaszraczylo/prompt-companion/internal/library"
	"github.com/lukaszraczylo/prompt-companion/internal/watcher"
	"github.com/lukaszraczylo/prompt-companion/internal/worker"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	port := flag.Int("port", 0, "HTTP port (default: from settings)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})

	if err := config.EnsureAll(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure data directory")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load config, using defaults")
		cfg = config.Default()
	}
	if *port != 0 {
		cfg.WorkerPort = *port
	}
	if *debug {
		cfg.Debug = true
	}

	svc, err := worker.New(Version, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize worker")
	}

	// Archives dropped into the library directory get imported on the fly.
	w, err := watcher.New(cfg.LibraryDir, func(path string) {
		archive, err := library.Load(path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Ignoring unreadable archive")
			return
		}
		stats, err := svc.ImportArchive(context.Background(), archive, false)
		if err != nil {
			log.Error().Err(err).Str("path", path).Msg("Archive import failed")
			return
		}
		log.Info().
			Str("path", path).
			Int("created", stats.SubpromptsCreated).
			Int("skipped", stats.Skipped).
			Msg("Archive imported from library directory")
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create library watcher")
	}
	if err := w.Start(); err != nil {
		log.Warn().Err(err).Msg("Library watcher unavailable")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info().Msg("Shutting down worker")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		w.Stop()
		if err := svc.Stop(ctx); err != nil {
			log.Warn().Err(err).Msg("Shutdown finished with errors")
		}
	}()

	if err := svc.Start(); err != nil {
		log.Fatal().Err(err).Msg("Worker failed")
	}
}
