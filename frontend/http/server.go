// Package http implements the HTTP frontend (request handler composition,
// §4.6) and the Response Encoder (C4, §4.4): a fasthttp server and router
// that decode announce/scrape requests, drive the swarm index and
// persistence buffers, and bencode the result.
package http

import (
	"context"
	"net"

	"github.com/fasthttp/router"
	"github.com/libp2p/go-reuseport"
	"github.com/valyala/fasthttp"

	"github.com/vaultseed/tracker/auth"
	"github.com/vaultseed/tracker/pkg/log"
	"github.com/vaultseed/tracker/pkg/stop"
	"github.com/vaultseed/tracker/pkg/timecache"
	"github.com/vaultseed/tracker/persist"
	"github.com/vaultseed/tracker/stats"
	"github.com/vaultseed/tracker/swarm"
)

var logger = log.NewLogger("frontend.http")

// Frontend is the HTTP frontend's stop.Stopper: it owns the listener and
// fasthttp server for its lifetime.
type Frontend struct {
	cfg      Config
	respCfg  ResponseConfig
	srv      *fasthttp.Server
	listener net.Listener

	swarms  *swarm.Index
	auth    *auth.Authenticator
	flusher *persist.Flusher
	stats   stats.Sink
	clock   *timecache.Cache

	closed chan struct{}
}

// NewFrontend builds and starts listening on cfg.Addr. It does not block;
// the accept loop runs in its own goroutine.
func NewFrontend(
	cfg Config,
	respCfg ResponseConfig,
	swarms *swarm.Index,
	authenticator *auth.Authenticator,
	flusher *persist.Flusher,
	statsSink stats.Sink,
	clock *timecache.Cache,
) (*Frontend, error) {
	cfg = cfg.WithDefaults()
	respCfg = respCfg.WithDefaults()

	f := &Frontend{
		cfg:     cfg,
		respCfg: respCfg,
		swarms:  swarms,
		auth:    authenticator,
		flusher: flusher,
		stats:   statsSink,
		clock:   clock,
		closed:  make(chan struct{}),
	}

	r := router.New()
	r.GET("/announce", f.handleAnnounce)
	r.GET("/scrape", f.handleScrape)

	f.srv = &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	var ln net.Listener
	var err error
	if cfg.ReusePort {
		ln, err = reuseport.Listen("tcp", cfg.Addr)
	} else {
		ln, err = net.Listen("tcp", cfg.Addr)
	}
	if err != nil {
		return nil, err
	}
	f.listener = ln

	go func() {
		if serveErr := f.srv.Serve(ln); serveErr != nil {
			logger.Error().Err(serveErr).Msg("http frontend serve loop exited")
		}
		close(f.closed)
	}()

	logger.Info().Str("addr", cfg.Addr).Bool("reusePort", cfg.ReusePort).Msg("http frontend listening")
	return f, nil
}

// Stop implements stop.Stopper: it shuts the fasthttp server down
// gracefully, within the configured request timeout.
func (f *Frontend) Stop() stop.Result {
	c := make(stop.Channel)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), f.cfg.RequestTimeout)
		defer cancel()
		if err := f.srv.ShutdownWithContext(ctx); err != nil {
			c <- err
		}
		<-f.closed
		close(c)
	}()
	return c.Result()
}
