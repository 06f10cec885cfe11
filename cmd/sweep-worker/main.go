package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/carebook/clinic-booking/internal/booking"
	"github.com/carebook/clinic-booking/internal/config"
	"github.com/carebook/clinic-booking/internal/db"
	"github.com/carebook/clinic-booking/internal/logger"
	"github.com/carebook/clinic-booking/internal/notify"
	redisclient "github.com/carebook/clinic-booking/internal/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("dev")
		bootLog.Fatal().Err(err).Msg("config load error")
	}

	log := logger.New(cfg.Env)
	log.Info().Str("env", cfg.Env).Str("schedule", cfg.SweepSpec).Msg("sweep-worker starting up")

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

	repo := booking.NewPgRepository(pgPool)
	locker := redisclient.NewRedisLocker(rdb, cfg.LockTTL)
	dispatcher := notify.NewDispatcher(notify.NewLogTransport(log), notify.NewPgLogStore(pgPool),
		cfg.NotifyWorkers, cfg.NotifyQueue, cfg.SendTimeout, log)
	defer dispatcher.Close()
	svc := booking.NewService(repo, locker, dispatcher, log)

	// Run once at startup
	runOnce(rootCtx, svc, log)

	c := cron.New()
	if _, err := c.AddFunc(cfg.SweepSpec, func() {
		runOnce(rootCtx, svc, log)
	}); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.SweepSpec).Msg("invalid sweep schedule")
	}
	c.Start()

	<-rootCtx.Done()
	log.Info().Msg("shutdown signal received, stopping sweep worker")

	<-c.Stop().Done()
}

func runOnce(ctx context.Context, svc *booking.Service, log zerolog.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	n, err := svc.SweepCompletions(runCtx, time.Now().UTC())
	if err != nil {
		log.Error().Err(err).Msg("sweep run error")
		return
	}
	log.Info().Int64("completed", n).Dur("duration", time.Since(start)).Msg("sweep run complete")
}
