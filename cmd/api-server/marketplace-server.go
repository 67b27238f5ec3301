package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"marketplace/db"
	"marketplace/db/migrations"
	"marketplace/internal/config"
	"marketplace/internal/handlers"
	"marketplace/internal/logger"
	"marketplace/internal/router"
	"marketplace/internal/service"
)

var _ service.Storage = (*db.Storage)(nil)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := logger.New("info", true)
		l.Fatal().Err(err).Msg("cannot load config")
	}
	log := logger.New(cfg.LogLevel, cfg.LogPretty)

	dbConn, err := sqlx.Connect("postgres", cfg.PostgresConn)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot connect to DB")
	}
	defer dbConn.Close()
	if cfg.MaxOpenConns > 0 {
		dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := migrations.Run(ctx, dbConn.DB, log); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}

	srv := newServer(cfg, db.NewStorage(dbConn), log)

	go func() {
		log.Info().Str("addr", cfg.ServerAddress).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// newServer собирает сервис, обработчики и маршрутизатор поверх store.
func newServer(cfg *config.Config, store service.Storage, log zerolog.Logger) *http.Server {
	h := handlers.NewHandler(service.New(store, log))
	return &http.Server{
		Addr: cfg.ServerAddress,
		Handler: router.New(h, router.Options{
			Logger:             log,
			CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		}),
		ReadTimeout:  cfg.ReadTimeoutDuration(),
		WriteTimeout: cfg.WriteTimeoutDuration(),
	}
}
