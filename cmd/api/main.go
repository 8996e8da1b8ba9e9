package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/blazechat/chat-api/internal/api"
	"github.com/blazechat/chat-api/internal/infrastructure/config"
	"github.com/blazechat/chat-api/internal/infrastructure/db/postgres"
	redisstore "github.com/blazechat/chat-api/internal/infrastructure/db/redis"
	"github.com/blazechat/chat-api/internal/infrastructure/queue"
	"github.com/blazechat/chat-api/pkg/logger"
)

func main() {
	// Local development convenience; production sets real env vars.
	_ = godotenv.Load()

	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		fallback := logger.Init(logger.Options{})
		fallback.Fatal().Err(err).Msg("load config")
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: !cfg.IsProduction(),
	})

	db, err := postgres.Connect(ctx, cfg.Postgres.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	if err := postgres.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("run migrations")
	}

	rdb, err := redisstore.Connect(ctx, cfg.Redis.Addr, cfg.Redis.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("connect redis")
	}
	defer rdb.Close()

	publisher, err := queue.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Queue, logger.Component("queue"))
	if err != nil {
		log.Fatal().Err(err).Msg("connect amqp")
	}
	defer publisher.Close()

	e, err := api.NewRouter(cfg, db, rdb, publisher, log)
	if err != nil {
		log.Fatal().Err(err).Msg("build router")
	}

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("api listening")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	log.Info().Msg("api stopped")
}
