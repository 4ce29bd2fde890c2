package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aDarkMaker/JoinUs/internal/config"
	"github.com/aDarkMaker/JoinUs/internal/db"
	"github.com/aDarkMaker/JoinUs/internal/gelf"
	"github.com/aDarkMaker/JoinUs/internal/handler"
	"github.com/aDarkMaker/JoinUs/internal/repository"
	"github.com/aDarkMaker/JoinUs/internal/router"
	"github.com/aDarkMaker/JoinUs/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// GELF UDP logging
	var out io.Writer = os.Stderr
	var gelfErr error
	if cfg.GelfAddr != "" {
		gelfWriter, err := gelf.New(cfg.GelfAddr, "joinus")
		if err != nil {
			gelfErr = err
		} else {
			defer gelfWriter.Close()
			out = io.MultiWriter(os.Stderr, gelfWriter)
		}
	}
	logger := slog.New(slog.NewJSONHandler(out, nil))
	slog.SetDefault(logger)
	switch {
	case gelfErr != nil:
		logger.Warn("GELF init failed", "error", gelfErr)
	case cfg.GelfAddr != "":
		logger.Info("GELF logging enabled", "addr", cfg.GelfAddr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Repositories
	var store repository.SubmissionStore
	switch cfg.Store {
	case config.StoreSQLite:
		sqlDB, err := db.Open(ctx, cfg.SQLiteFile())
		if err != nil {
			return err
		}
		store = repository.NewSQLiteSubmissionRepo(sqlDB)
		logger.Info("submission store", "kind", cfg.Store, "path", cfg.SQLiteFile())
	default:
		store = repository.NewSubmissionRepo(cfg.SubmissionsFile())
		logger.Info("submission store", "kind", cfg.Store, "path", cfg.SubmissionsFile())
	}
	defer store.Close()
	formRepo := repository.NewFormRepo(cfg.FormPaths...)
	uploadRepo := repository.NewUploadRepo(cfg.UploadsDir())

	// Services
	authSvc, err := service.NewAuthService(cfg.AdminPass, cfg.JWTSecret)
	if err != nil {
		return err
	}
	formSvc := service.NewFormService(formRepo, logger)
	subSvc := service.NewSubmissionService(store, uploadRepo, formSvc, logger)
	exportSvc := service.NewExportService(subSvc, uploadRepo, formSvc, logger)
	searchSvc := service.NewSearchService(subSvc, uploadRepo, formSvc)

	if form := formSvc.Lookup(); form == nil {
		logger.Warn("no form configuration found; submissions are accepted without validation", "paths", formRepo.Paths())
	}
	if !cfg.AuthEnabled() {
		logger.Warn("JOINUS_ADMIN_PASS not set; export and listing endpoints are open")
	}
	if cfg.InsecureJWTSecret() {
		logger.Warn("JOINUS_JWT_SECRET is the default; admin tokens can be forged until it is changed")
	}

	// Handlers
	authH := handler.NewAuthHandler(authSvc)
	formH := handler.NewFormHandler(formSvc, logger)
	subH := handler.NewSubmissionHandler(subSvc, cfg.MaxUploadMB<<20, logger)
	exportH := handler.NewExportHandler(exportSvc, logger)
	searchH := handler.NewSearchHandler(searchSvc)
	dashH := handler.NewDashboardHandler(searchSvc)
	healthH := handler.NewHealthHandler(cfg.Store)

	// Router
	opts := router.Options{Logger: logger, AllowedOrigins: cfg.AllowedOrigins}
	if cfg.AuthEnabled() {
		opts.JWTSecret = cfg.JWTSecret
	}
	r := router.New(opts, authH, formH, subH, exportH, searchH, dashH, healthH)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("JoinUs server starting", "addr", cfg.Addr())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
