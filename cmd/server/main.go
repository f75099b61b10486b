// Package main runs the HTTP server: it composes configuration from the
// process environment, picks a store, assembles the application and serves
// the REST API until interrupted.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	app "github.com/launchfoundry/appstack/internal/app"
	"github.com/launchfoundry/appstack/internal/app/storage/sqlite"
	"github.com/launchfoundry/appstack/internal/app/system"
	"github.com/launchfoundry/appstack/internal/config"
	"github.com/launchfoundry/appstack/internal/httpapi"
	"github.com/launchfoundry/appstack/internal/middleware"
	"github.com/launchfoundry/appstack/pkg/logger"
)

func main() {
	overridesPath := flag.String("overrides", "", "Optional YAML settings override file")
	flag.Parse()

	// Local setups keep secrets in a .env file; absence is fine.
	_ = godotenv.Load()

	log := logger.NewDefault("server")

	env, err := config.LoadEnvironment()
	if err != nil {
		log.WithError(err).Fatal("load environment")
	}

	overrides := config.Overrides{}
	if *overridesPath != "" {
		overrides, err = config.LoadOverrides(*overridesPath)
		if err != nil {
			log.WithError(err).Fatal("load overrides")
		}
	}

	cfg, err := config.ComposeWithOverrides(env, overrides, log)
	if err != nil {
		log.WithError(err).Fatal("compose config")
	}
	log = logger.New(cfg.App.Name, logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	stores := app.Stores{}
	if cfg.DatabaseURL != "" {
		store, err := sqlite.Open(cfg.DatabaseURL, cfg.Database)
		if err != nil {
			log.WithError(err).Fatal("open database")
		}
		defer store.Close()
		stores = app.Stores{
			Users:         store,
			Posts:         store,
			Notifications: store,
			DB:            store.DB(),
		}
		log.WithField("url", cfg.DatabaseURL).Info("using sqlite store")
	} else {
		log.Warn("DATABASE_URL not set; using in-memory store")
	}

	application, err := app.New(cfg, stores, log)
	if err != nil {
		log.WithError(err).Fatal("build application")
	}

	registry := prometheus.NewRegistry()
	limiter := middleware.NewRateLimiter(cfg.RateLimit, log.Named("ratelimit"))
	handler := httpapi.NewHandler(application, registry, limiter)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Perf.ReadTimeout,
		WriteTimeout: cfg.Perf.WriteTimeout,
		IdleTimeout:  cfg.Perf.IdleTimeout,
	}

	manager := system.NewManager()
	if err := manager.Register(limiter); err != nil {
		log.WithError(err).Fatal("register rate limiter")
	}
	if err := manager.Register(&httpService{server: server, log: log}); err != nil {
		log.WithError(err).Fatal("register http service")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := manager.Start(ctx); err != nil {
		log.WithError(err).Fatal("start services")
	}
	log.WithFields(map[string]any{
		"addr":        server.Addr,
		"environment": string(cfg.Tier()),
	}).Info("server started")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Perf.ShutdownTimeout)
	defer shutdownCancel()
	if err := manager.Stop(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown")
		os.Exit(1)
	}
	log.Info("server stopped")
}

// httpService adapts http.Server to the lifecycle manager.
type httpService struct {
	server *http.Server
	log    *logger.Logger
}

func (s *httpService) Name() string { return "http" }

func (s *httpService) Start(context.Context) error {
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.WithError(err).Fatal("http server")
		}
	}()
	return nil
}

func (s *httpService) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
