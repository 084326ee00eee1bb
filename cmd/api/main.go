package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"listkeeper/internal/config"
	httpx "listkeeper/internal/http"
	"listkeeper/internal/messaging"
	listsvc "listkeeper/internal/services/listparams"
	"listkeeper/internal/store/memory"
	"listkeeper/internal/store/postgres"
	"listkeeper/internal/store/redisstore"
	"listkeeper/internal/store/repositories"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.Load()
	config.SetupLogging(cfg.App)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo, closeRepo := openStore(ctx, cfg.Store)
	defer closeRepo()

	var publisher listsvc.EventPublisher
	if cfg.AMQP.URL != "" {
		p, err := messaging.Dial(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			log.Fatal().Err(err).Msg("amqp connect fail")
		}
		defer p.Close()
		publisher = p
	}

	resources, err := listsvc.ResourcesFromConfig(cfg.Lists.Resources)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid resources")
	}

	svc := listsvc.NewService(ctx, repo, publisher, listsvc.Config{
		Resources:  resources,
		BasePath:   cfg.App.BasePath,
		Debounce:   cfg.Lists.Debounce,
		IdleTTL:    cfg.Lists.IdleTTL,
		SweepEvery: cfg.Lists.SweepEvery,
	})
	go svc.Run(ctx)

	r := httpx.NewRouter(httpx.RouterDependencies{Config: cfg, ListService: svc})

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().
			Str("store", cfg.Store.Driver).
			Strs("resources", svc.Resources()).
			Msgf("listkeeper listening on :%s", cfg.App.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx2, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	// commit pending filter changes before the store goes away
	svc.Close()
	cancel()
	log.Info().Msg("server stopped")
}

func openStore(ctx context.Context, cfg config.StoreCfg) (repositories.ParamsRepository, func()) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pool := postgres.MustOpen(ctx, cfg.DSN)
		repo := postgres.NewParamsRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("db schema fail")
		}
		return repo, pool.Close
	case config.DriverRedis:
		client := redisstore.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := client.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Msg("redis ping fail")
		}
		repo := redisstore.NewParamsRepository(client, cfg.TTL)
		return repo, func() { _ = repo.Close() }
	default:
		return memory.NewParamsRepository(), func() {}
	}
}
