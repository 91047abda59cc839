package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/packweigh/internal/config"
	"github.com/mamadbah2/packweigh/internal/repository/mongodb"
	"github.com/mamadbah2/packweigh/internal/repository/sheets"
	"github.com/mamadbah2/packweigh/internal/scheduler"
	"github.com/mamadbah2/packweigh/internal/server/handlers"
	"github.com/mamadbah2/packweigh/internal/server/router"
	"github.com/mamadbah2/packweigh/internal/service/entry"
	"github.com/mamadbah2/packweigh/internal/service/session"
	"github.com/mamadbah2/packweigh/pkg/clients/lookup"
	"github.com/mamadbah2/packweigh/pkg/logger"
	"github.com/mamadbah2/packweigh/pkg/metrics"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New("packweigh", cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	var opts []entry.Option

	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		opts = append(opts, entry.WithMirrors(sheets.NewEntryMirror(sheetsRepo, cfg.Sheets.Range, baseLogger.Named("mirror.sheets"))))
		baseLogger.Info("google sheets mirror enabled", zap.String("range", cfg.Sheets.Range))
	} else {
		baseLogger.Warn("google sheets credentials missing, sheet mirror disabled")
	}

	if cfg.MongoDB.Enabled() {
		connectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		mongoRepo, err := mongodb.NewMongoDBRepository(connectCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName, cfg.MongoDB.Collection)
		cancel()
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		opts = append(opts, entry.WithMirrors(mongoRepo), entry.WithArchive(mongoRepo))
		baseLogger.Info("mongodb archive enabled", zap.String("db", cfg.MongoDB.DBName))
	} else {
		baseLogger.Warn("mongodb uri missing, entry archive disabled")
	}

	if cfg.Lookup.Enabled() {
		opts = append(opts, entry.WithLookup(lookup.NewClient(cfg.Lookup.BaseURL, cfg.Lookup.APIKey, cfg.Lookup.Timeout)))
		baseLogger.Info("drug lookup enabled")
	}

	sessions := session.NewManager()
	appMetrics := metrics.New(sessions)
	opts = append(opts, entry.WithRecorder(appMetrics))
	entrySvc := entry.NewService(sessions, baseLogger.Named("svc.entry"), opts...)
	entryHandler := handlers.NewEntryHandler(entrySvc, cfg.Server.SessionCookie, int(cfg.Server.SessionTTL.Seconds()), baseLogger.Named("handlers.entry"))
	engine := router.New(entryHandler, appMetrics.Handler(), baseLogger.Named("router"))

	sched := scheduler.NewScheduler(cfg.Scheduler.SweepSchedule, cfg.Server.SessionTTL, sessions, baseLogger.Named("scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
