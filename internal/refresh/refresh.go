// Package refresh implements the scheduled snapshot refresher: it pulls the
// full symbol listing for every configured market from the upstream provider
// and publishes each one atomically through the catalog store. A failure on
// one market never aborts the run — each market is fetched independently and
// skipped on error.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/peakwatch/stock-gateway/internal/catalog"
	"github.com/peakwatch/stock-gateway/internal/metrics"
	"github.com/peakwatch/stock-gateway/internal/model"
)

// ErrAllMarketsFailed is returned when not a single market listing could be
// fetched during a run.
var ErrAllMarketsFailed = errors.New("refresh: all market fetches failed")

// Fetcher is the slice of the upstream client the refresher needs.
type Fetcher interface {
	FetchMarketSymbols(ctx context.Context, marketCode string) (*model.MarketCatalog, error)
}

// Notifier receives the manifest of a completed refresh run. Implemented by
// the gateway's WebSocket hub.
type Notifier interface {
	RefreshCompleted(manifest model.RefreshManifest)
}

// Refresher refreshes the market snapshots on demand or on a cron schedule.
type Refresher struct {
	fetcher  Fetcher
	store    catalog.Store
	markets  []string
	notifier Notifier
	cron     *cron.Cron
}

// New creates a refresher for the given market codes. notifier may be nil.
func New(fetcher Fetcher, store catalog.Store, markets []string, notifier Notifier) *Refresher {
	return &Refresher{
		fetcher:  fetcher,
		store:    store,
		markets:  markets,
		notifier: notifier,
	}
}

// RunOnce refreshes every configured market, skipping the ones that fail,
// then publishes the run manifest and notifies listeners. It fails only
// when no market could be refreshed at all.
func (r *Refresher) RunOnce(ctx context.Context) (*model.RefreshManifest, error) {
	runID := uuid.New().String()
	start := time.Now()

	slog.Info("snapshot refresh started", "run_id", runID, "markets", len(r.markets))

	var refreshed []string
	for _, code := range r.markets {
		cat, err := r.fetcher.FetchMarketSymbols(ctx, code)
		if err != nil {
			slog.Error("market fetch failed, skipping", "run_id", runID, "market", code, "err", err)
			continue
		}
		if err := r.store.SaveCatalog(ctx, cat); err != nil {
			slog.Error("catalog save failed, skipping", "run_id", runID, "market", code, "err", err)
			continue
		}
		slog.Info("catalog refreshed", "run_id", runID, "market", code, "symbols", len(cat.Stocks))
		refreshed = append(refreshed, code)
	}

	if len(refreshed) == 0 {
		metrics.RefreshRuns.WithLabelValues("failed").Inc()
		return nil, ErrAllMarketsFailed
	}

	manifest := &model.RefreshManifest{
		RunID:      runID,
		LastUpdate: time.Now().UTC(),
		Markets:    refreshed,
	}
	if err := r.store.SaveManifest(ctx, manifest); err != nil {
		return nil, fmt.Errorf("refresh: save manifest: %w", err)
	}

	metrics.RefreshRuns.WithLabelValues("ok").Inc()
	metrics.RefreshDuration.Observe(time.Since(start).Seconds())

	if r.notifier != nil {
		r.notifier.RefreshCompleted(*manifest)
	}

	slog.Info("snapshot refresh finished",
		"run_id", runID,
		"refreshed", len(refreshed),
		"skipped", len(r.markets)-len(refreshed),
		"took", time.Since(start).String(),
	)
	return manifest, nil
}

// Start schedules refresh runs with the given cron spec in the given
// timezone (markets update before the local trading session opens).
func (r *Refresher) Start(spec, timezone string) error {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return fmt.Errorf("refresh: load timezone %s: %w", timezone, err)
	}

	c := cron.New(cron.WithLocation(loc))
	_, err = c.AddFunc(spec, func() {
		if _, err := r.RunOnce(context.Background()); err != nil {
			slog.Error("scheduled refresh failed", "err", err)
		}
	})
	if err != nil {
		return fmt.Errorf("refresh: schedule %q: %w", spec, err)
	}

	c.Start()
	r.cron = c
	slog.Info("snapshot refresh scheduled", "spec", spec, "timezone", timezone)
	return nil
}

// Stop halts the schedule, waiting for an in-flight run to finish.
func (r *Refresher) Stop() {
	if r.cron != nil {
		<-r.cron.Stop().Done()
	}
}
