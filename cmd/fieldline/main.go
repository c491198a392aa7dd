package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	_ "gocloud.dev/blob/fileblob"

	"github.com/fieldline/engine"
	"github.com/fieldline/engine/internal/archive"
	"github.com/fieldline/engine/internal/config"
	"github.com/fieldline/engine/internal/metrics"
	"github.com/fieldline/engine/internal/server"
	"github.com/fieldline/engine/internal/session"
	"github.com/fieldline/engine/internal/store"
	"github.com/fieldline/engine/pkg/log"
)

type fieldline struct {
	cfg        *config.Config
	metrics    *metrics.Metrics
	store      store.Store
	archiver   archive.Archiver
	sessions   *session.Manager
	watcher    *store.Watcher
	watchStop  context.CancelFunc
	apiServer  *server.Server
	httpServer *http.Server
	quit       chan os.Signal
}

var (
	ErrCreateStore      = errors.New("failed to create definition store")
	ErrCreateArchive    = errors.New("failed to open revision archive")
	ErrCreateSessions   = errors.New("failed to create session manager")
	ErrLoadDefinitions  = errors.New("failed to load definitions")
	ErrWatchDefinitions = errors.New("failed to watch definitions")
)

func main() {
	cfg := config.NewDefaultConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		slog.Error("Invalid configuration", log.Error(err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", log.Error(err))
		os.Exit(1)
	}

	s := &fieldline{
		cfg:  cfg,
		quit: make(chan os.Signal, 1),
	}
	s.setupLogging()

	if err := s.run(); err != nil {
		slog.Error("Failed to start application", log.Error(err))
		os.Exit(1)
	}
}

func (s *fieldline) run() error {
	if err := s.initializeStore(); err != nil {
		return err
	}

	if err := s.initializeSessions(); err != nil {
		s.closeStores()
		return err
	}

	if err := s.loadDefinitions(); err != nil {
		_ = s.sessions.Close()
		s.closeStores()
		return err
	}
	s.startServer()

	signal.Notify(s.quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(s.quit)
	<-s.quit

	s.shutdown()
	return nil
}

func (s *fieldline) setupLogging() {
	level := log.Level(s.cfg.LogLevel)

	env := os.Getenv("ENV")
	logger := log.NewWithLevel(engine.Name, env, engine.Version, level)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level)

	slog.Info("Fieldline Engine starting",
		slog.String("log_level", s.cfg.LogLevel))

	slog.Info("Configuration loaded",
		slog.String("store_backend", s.cfg.StoreBackend),
		slog.String("api_host", s.cfg.APIHost),
		slog.Int("api_port", s.cfg.APIPort),
		slog.Duration("session_ttl", s.cfg.SessionTTL),
		slog.String("sweep_schedule", s.cfg.SweepSchedule))
}

func (s *fieldline) initializeStore() error {
	s.metrics = metrics.New(prometheus.NewRegistry())

	backend, err := s.newBackend()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCreateStore, err)
	}
	st := store.WithMetrics(backend, s.metrics, s.cfg.StoreBackend)
	s.store = store.WithCache(st, s.cfg.StoreCacheSize)

	s.archiver, err = s.newArchiver()
	if err != nil {
		_ = s.store.Close()
		return fmt.Errorf("%w: %w", ErrCreateArchive, err)
	}
	return nil
}

func (s *fieldline) newBackend() (store.Store, error) {
	switch s.cfg.StoreBackend {
	case config.BackendRedis:
		return store.NewRedis(context.Background(), s.cfg.Redis)
	case config.BackendSQLite:
		return store.NewSQLite(s.cfg.SQLitePath)
	case config.BackendMemory:
		return store.NewMemory(), nil
	default:
		return nil, fmt.Errorf(
			"%w: %s", config.ErrInvalidStoreBackend, s.cfg.StoreBackend,
		)
	}
}

func (s *fieldline) newArchiver() (archive.Archiver, error) {
	if s.cfg.ArchiveBucketURL == "" {
		slog.Info("Revision archiving disabled")
		return archive.Noop{}, nil
	}
	return archive.NewBlob(
		context.Background(), s.cfg.ArchiveBucketURL, s.cfg.ArchivePrefix,
	)
}

func (s *fieldline) initializeSessions() error {
	sessions, err := session.NewManager(
		s.cfg.SessionTTL, s.cfg.SweepSchedule, slog.Default(), s.metrics,
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCreateSessions, err)
	}
	s.sessions = sessions
	s.sessions.Start()
	return nil
}

// loadDefinitions seeds the store from the definitions directory and,
// when configured, keeps reloading it as files change
func (s *fieldline) loadDefinitions() error {
	dir := s.cfg.DefinitionsDir
	if dir == "" {
		return nil
	}

	ctx := context.Background()
	count, err := store.LoadDir(ctx, s.store, dir, slog.Default())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoadDefinitions, err)
	}
	slog.Info("Definitions loaded",
		slog.String("dir", dir),
		slog.Int("count", count))

	if !s.cfg.WatchDefinitions {
		return nil
	}

	watcher, err := store.NewWatcher(dir, slog.Default())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWatchDefinitions, err)
	}
	s.watcher = watcher

	watchCtx, cancel := context.WithCancel(ctx)
	s.watchStop = cancel
	go watcher.Run(watchCtx, func() {
		n, err := store.LoadDir(watchCtx, s.store, dir, slog.Default())
		if err != nil {
			slog.Error("Definitions reload failed", log.Error(err))
			return
		}
		slog.Info("Definitions reloaded", slog.Int("count", n))
	})
	return nil
}

func (s *fieldline) startServer() {
	s.apiServer = server.NewServer(
		s.store, s.archiver, s.sessions, s.metrics, slog.Default(),
	)
	router := s.apiServer.SetupRoutes()

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.cfg.APIHost, s.cfg.APIPort),
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server starting",
			slog.String("addr", s.httpServer.Addr))
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", log.Error(err))
		}
	}()
}

func (s *fieldline) shutdown() {
	slog.Info("Shutting down")

	ctx, cancel := context.WithTimeout(
		context.Background(), s.cfg.ShutdownTimeout,
	)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		slog.Error("Shutdown failed", log.Error(err))
	}
	s.apiServer.CloseWebSockets()

	if s.watcher != nil {
		s.watchStop()
		_ = s.watcher.Close()
	}

	if err := s.sessions.Close(); err != nil {
		slog.Error("Session manager shutdown failed", log.Error(err))
	}
	s.closeStores()

	slog.Info("Server exited")
}

func (s *fieldline) closeStores() {
	if s.archiver != nil {
		_ = s.archiver.Close()
	}
	_ = s.store.Close()
}
