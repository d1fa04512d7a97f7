package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"acopio/internal/config"
	"acopio/internal/infra"
	"acopio/internal/router"
	"acopio/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger, dev: pretty, prod: JSON
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := infra.NewDatabase(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("failed to connect to database")
	}

	rdb, err := infra.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	if rdb == nil {
		log.Warn().Msg("REDIS_URL not set: identity cache and close reports disabled")
	}

	svc, err := router.NewServices(cfg, db, rdb)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build services")
	}

	// Close reports are rendered and mailed by the worker pool; the pool
	// only runs when there is a queue to consume.
	if rdb != nil {
		reportes := worker.NewReporteCierreWorker(svc.Caja, infra.NewMailer(cfg), cfg.NombreNegocio, cfg.VoucherStoragePath, cfg.ReporteEmailTo)
		archiver, err := infra.NewS3Archiver(ctx, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to configure report archive")
		}
		if archiver != nil {
			reportes.WithArchiver(archiver)
		}
		pool := worker.NewPool(rdb)
		pool.Register(worker.QueueReporteCierre, worker.JobReporteCierre, reportes)
		pool.Start(ctx, cfg.WorkerPoolSize)
	}

	// Sessions forgotten open are closed after midnight without waiting for
	// the next opening.
	if cfg.CierreAutomaticoCron != "" {
		loc, _ := cfg.Location()
		sched, err := worker.NewCierreScheduler(svc.Caja, rdb, cfg.CierreAutomaticoCron, loc)
		if err != nil {
			log.Fatal().Err(err).Str("cron", cfg.CierreAutomaticoCron).Msg("invalid CIERRE_AUTOMATICO_CRON")
		}
		sched.Start(ctx)
	}

	r := router.New(ctx, cfg, db, rdb, svc)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("acopio backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	log.Info().Msg("server exited")
}
