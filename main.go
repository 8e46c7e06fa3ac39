// entry point of the application
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"ytmp3d/internal/config"
	"ytmp3d/internal/depmanager"
	"ytmp3d/internal/engine"
	httprouter "ytmp3d/internal/infrastructure/delivery/http"
	"ytmp3d/internal/jobstore"
	"ytmp3d/internal/observability"
	"ytmp3d/internal/reclaimer"
	"ytmp3d/internal/service"
	httpserver "ytmp3d/pkg/http/server"
	"ytmp3d/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.New()
	if err != nil {
		slog.Error("config new", slog.Any("error", err))
		stop()
		os.Exit(1)
	}

	log, err := logger.New(&logger.Options{
		AddSource: true,
		Level:     cfg.App.LogLevel,
	})
	if err != nil {
		slog.WarnContext(ctx, "logger level invalid; defaulting to info", slog.Any("error", err))
	}

	metrics := observability.New(prometheus.DefaultRegisterer)

	depMgr := depmanager.New(log, cfg)

	log.InfoContext(ctx, "checking if yt-dlp and ffmpeg are installed. it may take some time...")

	depMgr.Start(ctx)

	eng := engine.NewYTdlp(log, cfg, depMgr)

	store := jobstore.New(log, metrics)
	rec := reclaimer.New(ctx, log, store, metrics)

	svc := service.New(cfg, log, eng, store, rec, metrics)

	router := httprouter.New(log, cfg, svc, store, metrics)

	httpSrv := httpserver.New(router, httpserver.Options{
		Addr:            cfg.HTTP.Port,
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
	})

	log.InfoContext(ctx, "ytmp3d started", slog.String("port", cfg.HTTP.Port))

	select {
	case <-ctx.Done():
	case err := <-httpSrv.Notify():
		log.ErrorContext(ctx, "http server stopped", slog.Any("error", err))
	}

	err = httpSrv.Shutdown()
	if err != nil {
		log.Error(err.Error())
	}

	// Let in-flight reclaims finish removing their directories.
	rec.Wait()

	log.InfoContext(ctx, "ytmp3d shut down gracefully")
}
