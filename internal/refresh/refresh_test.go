package refresh

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/peakwatch/stock-gateway/internal/catalog"
	"github.com/peakwatch/stock-gateway/internal/model"
)

// fakeFetcher serves canned catalogs and fails for markets in failing.
type fakeFetcher struct {
	catalogs map[string][]model.Symbol
	failing  map[string]bool
}

func (f *fakeFetcher) FetchMarketSymbols(_ context.Context, code string) (*model.MarketCatalog, error) {
	if f.failing[code] {
		return nil, fmt.Errorf("upstream unavailable for %s", code)
	}
	stocks, ok := f.catalogs[code]
	if !ok {
		return nil, fmt.Errorf("unknown market %s", code)
	}
	return &model.MarketCatalog{MarketCode: code, Stocks: stocks}, nil
}

type recordingNotifier struct {
	manifests []model.RefreshManifest
}

func (n *recordingNotifier) RefreshCompleted(m model.RefreshManifest) {
	n.manifests = append(n.manifests, m)
}

func TestRunOnce(t *testing.T) {
	fetcher := &fakeFetcher{
		catalogs: map[string][]model.Symbol{
			"KOSPI":  {{Symbol: "005930", Name: "Samsung Electronics", Market: "KOSPI"}},
			"NASDAQ": {{Symbol: "AAPL", Name: "Apple Inc.", Market: "NASDAQ"}},
		},
	}
	store := catalog.NewMemoryStore()
	notifier := &recordingNotifier{}
	r := New(fetcher, store, []string{"KOSPI", "NASDAQ"}, notifier)

	manifest, err := r.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if manifest.RunID == "" {
		t.Error("run ID not assigned")
	}
	if len(manifest.Markets) != 2 {
		t.Errorf("markets = %v, want both", manifest.Markets)
	}

	// Catalogs were saved.
	cat, err := store.LoadCatalog(context.Background(), "KOSPI")
	if err != nil || len(cat.Stocks) != 1 {
		t.Errorf("KOSPI catalog not saved: %v %+v", err, cat)
	}

	// Manifest was published and matches the returned one.
	saved, err := store.LoadManifest(context.Background())
	if err != nil || saved.RunID != manifest.RunID {
		t.Errorf("manifest not published: %v %+v", err, saved)
	}

	// Listeners were notified once.
	if len(notifier.manifests) != 1 || notifier.manifests[0].RunID != manifest.RunID {
		t.Errorf("notifier calls wrong: %+v", notifier.manifests)
	}
}

func TestRunOncePartialFailure(t *testing.T) {
	fetcher := &fakeFetcher{
		catalogs: map[string][]model.Symbol{
			"NASDAQ": {{Symbol: "AAPL", Name: "Apple Inc.", Market: "NASDAQ"}},
		},
		failing: map[string]bool{"KOSPI": true},
	}
	store := catalog.NewMemoryStore()
	r := New(fetcher, store, []string{"KOSPI", "NASDAQ"}, nil)

	manifest, err := r.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("partial failure should not fail the run: %v", err)
	}
	if len(manifest.Markets) != 1 || manifest.Markets[0] != "NASDAQ" {
		t.Errorf("manifest markets = %v, want [NASDAQ]", manifest.Markets)
	}
	if _, err := store.LoadCatalog(context.Background(), "KOSPI"); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("failed market should not be saved: %v", err)
	}
}

func TestRunOnceAllFail(t *testing.T) {
	fetcher := &fakeFetcher{failing: map[string]bool{"KOSPI": true, "NASDAQ": true}}
	store := catalog.NewMemoryStore()
	r := New(fetcher, store, []string{"KOSPI", "NASDAQ"}, nil)

	if _, err := r.RunOnce(context.Background()); !errors.Is(err, ErrAllMarketsFailed) {
		t.Fatalf("expected ErrAllMarketsFailed, got %v", err)
	}
	if _, err := store.LoadManifest(context.Background()); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("manifest should not be published on a failed run: %v", err)
	}
}

func TestStartRejectsBadSpec(t *testing.T) {
	r := New(&fakeFetcher{}, catalog.NewMemoryStore(), nil, nil)

	if err := r.Start("not a cron spec", "Asia/Seoul"); err == nil {
		t.Error("expected error for invalid cron spec")
	}
	if err := r.Start("0 5 * * *", "Not/AZone"); err == nil {
		t.Error("expected error for unknown timezone")
	}
}

func TestStartAndStop(t *testing.T) {
	r := New(&fakeFetcher{}, catalog.NewMemoryStore(), nil, nil)

	if err := r.Start("0 5 * * *", "Asia/Seoul"); err != nil {
		t.Fatalf("start: %v", err)
	}
	r.Stop()
	// Stop on a never-started refresher is a no-op.
	New(&fakeFetcher{}, catalog.NewMemoryStore(), nil, nil).Stop()
}
