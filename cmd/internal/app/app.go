// Package app wires the ProfRank server runtime: config, logging, storage selection,
// tracing and HTTP routes.
package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	voteapi "github.com/MH469Arya/ProfRankSystem/cmd/internal/vote/api"
)

// App is the ProfRank server: it owns the HTTP server and the voting runtime.
type App struct {
	cfg Config
	log Logger
	rt  *Runtime

	mux *http.ServeMux
}

// New constructs a fully wired App instance from config and logger.
func New(ctx context.Context, cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}

	rt, err := OpenRuntime(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	admin, err := AdminVerifier(cfg)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	if admin == nil {
		log.Warn("admin.disabled", "hint", "set PROFRANK_ADMIN_KEY_HASH (see `profrankctl hash-admin-key`)")
	}

	apiCfg := voteapi.LoadConfigFromEnv()
	if EnvString("PROFRANK_PUBLIC_BASE_URL", "") == "" {
		apiCfg.PublicBaseURL = runtimeBaseURL(cfg.HTTPAddr)
	}
	votes, err := voteapi.NewHandler(log, apiCfg, voteapi.Services{
		Issuer:     rt.Issuer,
		Collector:  rt.Collector,
		Aggregator: rt.Aggregator,
		Rosters:    rt.Rosters,
	}, voteapi.WithAdminVerifier(admin))
	if err != nil {
		_ = rt.Close()
		return nil, err
	}

	mux := http.NewServeMux()
	registerHTTP(mux, log, cfg, rt, votes)

	return &App{cfg: cfg, log: log, rt: rt, mux: mux}, nil
}

// Handler returns the HTTP handler with middleware applied.
func (a *App) Handler() http.Handler {
	return handler(a.mux, a.cfg, a.log)
}

// Close releases storage without running the server.
func (a *App) Close() error {
	return a.rt.Close()
}

// Run starts the HTTP server and blocks until context cancellation or fatal server error.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "url", runtimeBaseURL(a.cfg.HTTPAddr), "backend", a.rt.Backend)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		_ = a.rt.Close()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}
	if err := a.rt.Close(); err != nil {
		a.log.Error("store.close.fail", "err", err)
	}

	a.log.Info("server.stopped")
	return nil
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// runtimeBaseURL turns a listen address into a URL a local browser can open.
// Wildcard binds map to loopback.
func runtimeBaseURL(addr string) string {
	host, port, err := net.SplitHostPort(strings.TrimSpace(addr))
	if err != nil {
		return "http://" + strings.TrimSpace(addr)
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}
