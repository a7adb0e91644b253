package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	goahttp "goa.design/goa/v3/http"

	"chengdumed/internal/config"
	"chengdumed/internal/database"
	"chengdumed/internal/export"
	"chengdumed/internal/logging"
	"chengdumed/internal/services"
	"chengdumed/internal/web"
)

const (
	shutdownTimeout = 30 * time.Second
	readTimeout     = 15 * time.Second
	writeTimeout    = 15 * time.Second
	idleTimeout     = 60 * time.Second
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(&cfg.Log, cfg.App.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func run(cfg *config.Config, log *zap.SugaredLogger) error {
	log.Infof("Starting %s v%s", cfg.App.Name, cfg.App.Version)
	log.Infof("Environment: debug=%v, port=%s, host=%s", cfg.App.Debug, cfg.App.Port, cfg.App.Host)

	// Initialize database
	db, err := database.Open(&cfg.Database, log.Named("db"))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		log.Info("Closing database connections...")
		if closeErr := database.Close(db); closeErr != nil {
			log.Errorf("Error closing database: %v", closeErr)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := database.NewInquiryStore(db)
	if err := store.Initialize(ctx); err != nil {
		return err
	}

	exportLog := export.NewLog(cfg.Export.Path)
	if err := exportLog.Initialize(); err != nil {
		return err
	}
	log.Infof("Export log ready at %s", exportLog.Path())

	renderer, err := web.NewRenderer()
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}
	if err := web.CheckTemplates(renderer); err != nil {
		return err
	}

	// Create service instances
	log.Info("Initializing services...")
	exporter := services.NewExporter(store, exportLog, log.Named("exporter"))
	inquirySvc := services.NewInquiryService(store, exporter, log.Named("inquiry"))
	healthSvc := services.NewHealthService(cfg.App.Name, db, store)

	// Create HTTP mux and mount handlers
	mux := goahttp.NewMuxer()
	site := web.NewServer(renderer, inquirySvc, healthSvc, services.AllowAll, log.Named("web"))
	site.Mount(mux, cfg.Web.StaticDir)
	mux.Handle(http.MethodGet, "/metrics", promhttp.Handler().ServeHTTP)

	httpServer := &http.Server{
		Addr:         cfg.App.Addr(),
		Handler:      web.Handler(mux, cfg, log.Named("http")),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar().Named("http")),
	}

	// Retry exports left pending by earlier failures
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		exporter.Run(ctx, cfg.Export.RetryInterval)
	}()

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		log.Infof("Server listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- fmt.Errorf("server error: %w", err)
		}
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		cancel()
		<-workerDone
		return err
	case sig := <-shutdown:
		log.Infof("Received signal: %v. Starting graceful shutdown...", sig)
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Error during graceful shutdown: %v", err)
		if errors.Is(err, context.DeadlineExceeded) {
			log.Warn("Shutdown timeout exceeded, forcing close...")
			_ = httpServer.Close()
		}
	}

	cancel()
	<-workerDone

	log.Info("Server shutdown complete")
	return nil
}
