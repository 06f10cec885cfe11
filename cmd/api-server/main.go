package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/carebook/clinic-booking/internal/api"
	"github.com/carebook/clinic-booking/internal/booking"
	"github.com/carebook/clinic-booking/internal/config"
	"github.com/carebook/clinic-booking/internal/db"
	"github.com/carebook/clinic-booking/internal/directory"
	"github.com/carebook/clinic-booking/internal/labtest"
	"github.com/carebook/clinic-booking/internal/logger"
	"github.com/carebook/clinic-booking/internal/notify"
	redisclient "github.com/carebook/clinic-booking/internal/redis"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("dev")
		bootLog.Fatal().Err(err).Msg("config load error")
	}

	log := logger.New(cfg.Env)
	log.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Msg("api-server starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	log.Info().Msg("connected to Postgres")

	schemaCtx, cancelSchema := context.WithTimeout(rootCtx, 10*time.Second)
	err = db.EnsureSchema(schemaCtx, pgPool)
	cancelSchema()
	if err != nil {
		log.Fatal().Err(err).Msg("schema bootstrap error")
	}

	// Connect Redis
	rdb, err := redisclient.NewClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("error closing redis")
		}
	}()
	log.Info().Msg("connected to Redis")

	locker := redisclient.NewRedisLocker(rdb, cfg.LockTTL)

	var transport notify.Transport
	if cfg.SMTPAddr != "" {
		transport = notify.NewSMTPTransport(cfg.SMTPAddr, cfg.SMTPFrom, cfg.SMTPUsername, cfg.SMTPPassword)
	} else {
		log.Warn().Msg("SMTP_ADDR not set, logging notifications instead of sending")
		transport = notify.NewLogTransport(log)
	}
	dispatcher := notify.NewDispatcher(transport, notify.NewPgLogStore(pgPool), cfg.NotifyWorkers, cfg.NotifyQueue, cfg.SendTimeout, log)

	bookingRepo := booking.NewPgRepository(pgPool)
	bookingSvc := booking.NewService(bookingRepo, locker, dispatcher, log)
	labtestSvc := labtest.NewService(labtest.NewPgRepository(pgPool), dispatcher, log)
	directorySvc := directory.NewService(bookingRepo)

	router := api.NewRouter(api.RouterConfig{
		Booking:   bookingSvc,
		LabTests:  labtestSvc,
		Directory: directorySvc,
		PgPool:    pgPool,
		Redis:     rdb,
		Logger:    log,
		Env:       cfg.Env,
		Version:   version,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-rootCtx.Done()
	log.Info().Msg("shutting down api-server")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown error")
	}

	// Let queued notifications drain before the pool closes.
	dispatcher.Close()

	log.Info().Msg("api-server stopped")
}
