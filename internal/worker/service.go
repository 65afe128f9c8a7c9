// Package worker provides the HTTP worker service for prompt-companion.
package worker

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm/logger"

	"github.com/lukaszraczylo/prompt-companion/internal/compose"
	"github.com/lukaszraczylo/prompt-companion/internal/config"
	gormdb "github.com/lukaszraczylo/prompt-companion/internal/db/gorm"
	"github.com/lukaszraczylo/prompt-companion/internal/worker/sse"
)

// Service is the prompt-companion worker. It owns the database, the
// composer and the SSE broadcaster, and serves the HTTP API.
type Service struct {
	version string
	config  *config.Config

	store          *gormdb.Store
	subpromptStore *gormdb.SubpromptStore
	folderStore    *gormdb.FolderStore
	loader         *gormdb.SnapshotLoader

	composer *compose.Composer
	preview  *compose.PreviewSession

	sseBroadcaster *sse.Broadcaster
	metrics        *Metrics

	router     *chi.Mux
	httpServer *http.Server

	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
	ready     atomic.Bool
}

// New creates a Service backed by the configured SQLite database.
func New(version string, cfg *config.Config) (*Service, error) {
	if err := config.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}

	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Warn
	}

	store, err := gormdb.NewStore(gormdb.Config{
		Path:     config.DBPath(),
		MaxConns: cfg.MaxConns,
		LogLevel: logLevel,
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	tokens, err := compose.NewTokenCounter(cfg.Encoding)
	if err != nil {
		log.Warn().Err(err).Str("encoding", cfg.Encoding).Msg("Token counter unavailable, counts disabled")
		tokens = nil
	}

	metrics, err := NewMetrics()
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	loader := gormdb.NewSnapshotLoader(store)

	ctx, cancel := context.WithCancel(context.Background())
	svc := &Service{
		version:        version,
		config:         cfg,
		store:          store,
		subpromptStore: gormdb.NewSubpromptStore(store),
		folderStore:    gormdb.NewFolderStore(store),
		loader:         loader,
		composer:       compose.NewComposer(loader, tokens),
		preview:        &compose.PreviewSession{},
		sseBroadcaster: sse.NewBroadcaster(),
		metrics:        metrics,
		router:         chi.NewRouter(),
		ctx:            ctx,
		cancel:         cancel,
		startTime:      time.Now(),
	}

	svc.setupRoutes()
	return svc, nil
}

// Start begins serving HTTP on the configured port. Blocks until the
// server stops.
func (s *Service) Start() error {
	addr := fmt.Sprintf("127.0.0.1:%d", s.config.WorkerPort)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.ready.Store(true)
	log.Info().Str("addr", addr).Str("version", s.version).Msg("Worker listening")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop shuts the service down gracefully.
func (s *Service) Stop(ctx context.Context) error {
	s.ready.Store(false)
	s.cancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("HTTP shutdown did not complete cleanly")
		}
	}
	return s.store.Close()
}

// Broadcaster exposes the SSE broadcaster, mainly for the file watcher.
func (s *Service) Broadcaster() *sse.Broadcaster {
	return s.sseBroadcaster
}

func (s *Service) setupRoutes() {
	r := s.router
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/events", s.sseBroadcaster.HandleSSE)
		r.Get("/tree", s.handleTree)
		r.Get("/integrity", s.handleIntegrity)
		r.Get("/search", s.handleSearch)
		r.Get("/checkpoint/match", s.handleCheckpointMatch)

		r.Route("/subprompts", func(r chi.Router) {
			r.Get("/", s.handleListSubprompts)
			r.Post("/", s.handleCreateSubprompt)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSubprompt)
				r.Put("/", s.handleUpdateSubprompt)
				r.Delete("/", s.handleDeleteSubprompt)
				r.Post("/move", s.handleMoveSubprompt)
				r.Get("/resolve", s.handleResolveSubprompt)
			})
		})

		r.Post("/resolve/preview", s.handlePreview)

		r.Route("/folders", func(r chi.Router) {
			r.Get("/", s.handleListFolders)
			r.Post("/", s.handleCreateFolder)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetFolder)
				r.Put("/", s.handleRenameFolder)
				r.Delete("/", s.handleDeleteFolder)
				r.Post("/move", s.handleMoveFolder)
				r.Get("/path", s.handleFolderPath)
			})
		})

		r.Route("/library", func(r chi.Router) {
			r.Get("/export", s.handleExport)
			r.Post("/import", s.handleImport)
		})
	})
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if err := s.store.Ping(); err != nil {
		status = "degraded"
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         status,
		"version":        s.version,
		"ready":          s.ready.Load(),
		"uptime_seconds": int(time.Since(s.startTime).Seconds()),
		"sse_clients":    s.sseBroadcaster.ClientCount(),
	})
}

func (s *Service) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (s *Service) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Service) decode(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
