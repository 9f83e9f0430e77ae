package gateway

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/codeguardian-ai/codeguardian/internal/config"
	"github.com/codeguardian-ai/codeguardian/internal/scan"
	"github.com/codeguardian-ai/codeguardian/internal/store"
	"github.com/codeguardian-ai/codeguardian/models"
	"github.com/robfig/cron/v3"
)

// Scheduler periodically sweeps for repositories whose last scan is stale and
// triggers SCHEDULED scans for them. Repositories that cannot be admitted
// (already scanning, slots full) are skipped and picked up on a later sweep.
type Scheduler struct {
	store *store.Store
	orch  *scan.Orchestrator
	cfg   config.ScannerConfig
	cron  *cron.Cron
}

func newScheduler(st *store.Store, orch *scan.Orchestrator, cfg config.ScannerConfig) *Scheduler {
	return &Scheduler{store: st, orch: orch, cfg: cfg, cron: cron.New()}
}

// Start registers the sweep with the cron runner. A zero rescan interval
// disables the sweep entirely.
func (s *Scheduler) Start() error {
	if s.cfg.RescanIntervalHours <= 0 {
		slog.Info("gateway: scheduled rescans disabled")
		return nil
	}
	expr := s.cfg.RescanCron
	if expr == "" {
		expr = "@every 1h"
	}
	if _, err := s.cron.AddFunc(expr, s.sweep); err != nil {
		return err
	}
	s.cron.Start()
	slog.Info("gateway: rescan scheduler started", "cron", expr, "stale_after_hours", s.cfg.RescanIntervalHours)
	return nil
}

// Stop halts the cron runner gracefully.
func (s *Scheduler) Stop() { s.cron.Stop() }

func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-time.Duration(s.cfg.RescanIntervalHours) * time.Hour)
	repos, err := s.store.ListStaleRepositories(ctx, cutoff)
	if err != nil {
		slog.Error("gateway: rescan sweep failed", "error", err)
		return
	}
	if len(repos) == 0 {
		return
	}
	slog.Info("gateway: rescan sweep", "stale_repositories", len(repos))

	for _, repo := range repos {
		_, err := s.orch.TriggerScan(ctx, repo.ID, repo.UserID, models.TriggerScheduled)
		switch {
		case err == nil:
			slog.Info("gateway: scheduled scan triggered", "repository", repo.FullName)
		case errors.Is(err, scan.ErrScanInProgress):
			// Already being scanned; nothing to do.
		case errors.Is(err, scan.ErrTooManyScans):
			// Slots exhausted; the rest of the sweep would be rejected too.
			slog.Info("gateway: rescan sweep paused, concurrency limit reached")
			return
		default:
			slog.Warn("gateway: scheduled scan failed to trigger", "repository", repo.FullName, "error", err)
		}
	}
}
