// Command ruleguard wires the Rule Engine to its surrounding process:
// configuration, logging, the Postgres-backed accessor, the etcd-backed
// hot reloader, the OpenFGA relation validator, and the HTTP transport.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	etcd "go.etcd.io/etcd/client/v3"

	"github.com/ruleguard/ruleguard/accessor/pg"
	"github.com/ruleguard/ruleguard/accessor/relation"
	"github.com/ruleguard/ruleguard/config"
	"github.com/ruleguard/ruleguard/engine"
	"github.com/ruleguard/ruleguard/store/rulecache"
	"github.com/ruleguard/ruleguard/store/rulewatch"
	"github.com/ruleguard/ruleguard/transport/httpapi"
)

func main() {
	log := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()
	cfg := config.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect to postgres")
	}
	defer pool.Close()

	store := pg.New(pool)
	eng := engine.NewEngine(store)

	if cfg.OpenFGAStoreID != "" {
		relClient, err := relation.NewClient(cfg.OpenFGAHost, cfg.OpenFGAStoreID)
		if err != nil {
			log.Fatal().Err(err).Msg("configure openfga client")
		}
		if err := eng.RegisterValidator("relation", relClient.Handler, engine.WithPreparer(relation.PrepareConfig)); err != nil {
			log.Fatal().Err(err).Msg("register relation validator")
		}
	}

	etcdClient, err := etcd.New(etcd.Config{
		Endpoints:   cfg.EtcdEndpoints,
		DialTimeout: cfg.EtcdDialTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect to etcd")
	}
	defer etcdClient.Close()

	cache, err := rulecache.New(ctx, cfg.CacheTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("start rule cache")
	}

	watcher := rulewatch.New(etcdClient, cfg.RulePrefix, eng, cache, log)
	if err := watcher.InitialLoad(ctx); err != nil {
		log.Fatal().Err(err).Msg("initial rule load")
	}
	go watcher.Run(ctx)

	router := httpapi.Router(eng, log)
	srv := &http.Server{Addr: cfg.Addr, Handler: router}
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
		close(shutdownDone)
	}()
	log.Info().Str("addr", cfg.Addr).Msg("ruleguard listening")
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server stopped")
	}
	<-shutdownDone
}
