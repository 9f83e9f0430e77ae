// Package gateway is the long-running HTTP daemon: the scan trigger API, the
// websocket event stream, inbound push webhooks, and the cron-driven rescan
// sweep.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/codeguardian-ai/codeguardian/internal/config"
	"github.com/codeguardian-ai/codeguardian/internal/events"
	"github.com/codeguardian-ai/codeguardian/internal/scan"
	"github.com/codeguardian-ai/codeguardian/internal/store"
)

// Gateway combines:
//   - the scan Orchestrator (admission + pipelines)
//   - a websocket Hub (live scan events)
//   - a cron Scheduler (periodic rescans of stale repositories)
//   - the REST HTTP server
type Gateway struct {
	cfg       *config.Config
	store     *store.Store
	orch      *scan.Orchestrator
	hub       *events.Hub
	scheduler *Scheduler
	startedAt time.Time
}

// New creates a Gateway. Call Start() to begin serving.
func New(cfg *config.Config, st *store.Store, orch *scan.Orchestrator, hub *events.Hub) *Gateway {
	gw := &Gateway{
		cfg:       cfg,
		store:     st,
		orch:      orch,
		hub:       hub,
		startedAt: time.Now(),
	}
	gw.scheduler = newScheduler(st, orch, cfg.Scanner)
	return gw
}

// Start runs the gateway until ctx is cancelled. It starts the rescan
// scheduler, then binds the HTTP server (blocks until shutdown).
func (gw *Gateway) Start(ctx context.Context) error {
	port := gw.cfg.Gateway.Port
	if port == 0 {
		port = 8080
	}
	addr := fmt.Sprintf(":%d", port)

	if err := gw.scheduler.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}

	srv := &http.Server{
		Addr:    addr,
		Handler: gw.routes(),
	}

	go func() {
		<-ctx.Done()
		gw.scheduler.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("gateway: listening", "addr", addr)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
