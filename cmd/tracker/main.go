// Command tracker runs the private BitTorrent tracker core: the HTTP
// frontend, the in-memory swarm index, passkey authentication, and batched
// persistence to PostgreSQL, wired together from a single YAML config file.
package main

import (
	"context"
	"flag"
	"fmt"
	nethttp "net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/vaultseed/tracker/auth"
	"github.com/vaultseed/tracker/frontend/http"
	"github.com/vaultseed/tracker/persist"
	"github.com/vaultseed/tracker/pkg/log"
	"github.com/vaultseed/tracker/pkg/stop"
	"github.com/vaultseed/tracker/pkg/timecache"
	"github.com/vaultseed/tracker/stats"
	"github.com/vaultseed/tracker/swarm"
)

var logger = log.NewLogger("main")

func main() {
	configPath := flag.String("config", "tracker.yaml", "path to the tracker's YAML configuration file")
	debug := flag.Bool("debug", false, "enable debug logging, overriding the config file")
	flag.Parse()

	if err := run(*configPath, *debug); err != nil {
		logger.Fatal().Err(err).Msg("tracker exited with error")
	}
}

func run(configPath string, debugFlag bool) error {
	fc, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	log.SetDebug(fc.Debug || debugFlag)

	httpCfg, err := fc.httpConfig()
	if err != nil {
		return fmt.Errorf("http config: %w", err)
	}
	respCfg, err := fc.responseConfig()
	if err != nil {
		return fmt.Errorf("response config: %w", err)
	}
	swarmCfg, err := fc.swarmConfig()
	if err != nil {
		return fmt.Errorf("swarm config: %w", err)
	}
	authCfg, err := fc.authConfig()
	if err != nil {
		return fmt.Errorf("auth config: %w", err)
	}
	persistCfg, err := fc.persistConfig()
	if err != nil {
		return fmt.Errorf("persist config: %w", err)
	}

	ctx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	registry := prometheus.NewRegistry()
	sink := stats.NewPromSink(registry)
	clock := timecache.New()
	shutdown := stop.NewGroup()

	authenticator, denyStore, err := buildAuthenticator(ctx, authCfg)
	if err != nil {
		return fmt.Errorf("building authenticator: %w", err)
	}
	if denyStore != nil {
		shutdown.Add(stopperFunc(func() stop.Result {
			_ = denyStore.Close()
			return stop.AlreadyStopped()
		}))
	}

	pgSink, err := persist.NewPGSink(ctx, fc.Postgres)
	if err != nil {
		return fmt.Errorf("opening postgres sink: %w", err)
	}
	// Closed only after the shutdown group has drained, so the flusher's
	// final flush still has a connection pool to write through.
	defer pgSink.Close()

	flusher := persist.NewFlusher(persistCfg, pgSink, sink)
	go flusher.Run()
	shutdown.Add(flusher)

	swarms := swarm.NewIndex(swarmCfg)
	shutdown.Add(swarms.StartSweeper(swarmCfg, clock))

	frontend, err := http.NewFrontend(httpCfg, respCfg, swarms, authenticator, flusher, sink, clock)
	if err != nil {
		return fmt.Errorf("starting http frontend: %w", err)
	}
	shutdown.Add(frontend)

	var metricsSrv *nethttp.Server
	if fc.MetricsAddr != "" {
		metricsSrv = startMetricsServer(fc.MetricsAddr, registry)
	}

	logger.Info().Str("httpAddr", httpCfg.Addr).Str("metricsAddr", fc.MetricsAddr).Msg("tracker started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received, draining")

	if errs := shutdown.Stop().Wait(); len(errs) > 0 {
		for _, e := range errs {
			logger.Error().Err(e).Msg("component failed to stop cleanly")
		}
	}
	if metricsSrv != nil {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(sctx)
	}

	logger.Info().Msg("tracker stopped")
	return nil
}

func buildAuthenticator(ctx context.Context, cfg auth.Config) (*auth.Authenticator, *auth.DenyStore, error) {
	cfg = cfg.WithDefaults()
	resolver, err := auth.NewJWTResolver(ctx, cfg.JWKSURL, cfg.IdentityClaim)
	if err != nil {
		return nil, nil, err
	}

	cache := auth.NewCache(cfg.CacheTTL)
	if cfg.RedisAddr != "" {
		cache = cache.WithRedis(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}), cfg.RedisCacheTTL)
	}

	var denyStore *auth.DenyStore
	if cfg.DenyStorePath != "" {
		denyStore, err = auth.OpenDenyStore(cfg.DenyStorePath)
		if err != nil {
			return nil, nil, err
		}
	}

	return auth.New(resolver, cache, denyStore, cfg.RequirePasskey), denyStore, nil
}

type stopperFunc func() stop.Result

func (f stopperFunc) Stop() stop.Result { return f() }

func startMetricsServer(addr string, reg *prometheus.Registry) *nethttp.Server {
	mux := nethttp.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &nethttp.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != nethttp.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server exited")
		}
	}()
	return srv
}
