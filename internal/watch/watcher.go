// Package watch runs the background order-log watcher: it periodically
// fetches each enabled account's open orders through the shared port
// registry and keeps the latest snapshot available for the dashboard.
package watch

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"hotdeck/internal/broker"
	"hotdeck/internal/domain"
	"hotdeck/internal/settings"
	"hotdeck/internal/util"
)

// Snapshot is the latest known open-order state of one account.
type Snapshot struct {
	AccountID   string         `json:"account_id"`
	AccountName string         `json:"account_name"`
	Orders      []domain.Order `json:"orders"`
	Error       string         `json:"error,omitempty"`
	FetchedAt   time.Time      `json:"fetched_at"`
}

// Watcher polls open orders per account. Reads share the registry bindings
// with in-flight dispatches, so they are rate limited and retried gently
// rather than hammered.
type Watcher struct {
	settings *settings.Store
	registry *broker.Registry
	interval time.Duration
	limiter  *util.RateLimiter
	log      *slog.Logger

	mu     sync.RWMutex
	latest map[string]Snapshot
}

// New creates a Watcher polling every interval, spending at most
// ratePerMinute broker requests per minute across all accounts.
func New(s *settings.Store, r *broker.Registry, interval time.Duration, ratePerMinute int, log *slog.Logger) *Watcher {
	if log == nil {
		log = slog.Default()
	}
	return &Watcher{
		settings: s,
		registry: r,
		interval: interval,
		limiter:  util.NewRateLimiter(ratePerMinute),
		log:      log.With("component", "order-watch"),
		latest:   make(map[string]Snapshot),
	}
}

// Run polls until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.PollOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.PollOnce(ctx)
		}
	}
}

// PollOnce fetches open orders for every enabled Alpaca account once.
// Accounts are visited serially under the shared rate limiter; a failing
// account records its error in the snapshot and does not stop the sweep.
func (w *Watcher) PollOnce(ctx context.Context) {
	for _, acct := range w.settings.Accounts() {
		if !acct.Enabled || acct.BrokerType != domain.BrokerAlpaca {
			continue
		}
		if err := w.limiter.Wait(ctx); err != nil {
			return
		}

		port := w.registry.PortFor(acct)
		var orders []domain.Order
		err := util.Retry(ctx, 2, 500*time.Millisecond, func() error {
			var ferr error
			orders, ferr = port.GetOrders(ctx, broker.OrdersFilter{Status: "open"})
			return ferr
		})

		snap := Snapshot{
			AccountID:   acct.ID,
			AccountName: acct.AccountName,
			Orders:      orders,
			FetchedAt:   time.Now(),
		}
		if err != nil {
			snap.Error = err.Error()
			w.log.Warn("fetching open orders", "account", acct.ID, "error", err)
		}

		w.mu.Lock()
		w.latest[acct.ID] = snap
		w.mu.Unlock()
	}
}

// Latest returns the most recent snapshot per known account, ordered by
// account id.
func (w *Watcher) Latest() []Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]Snapshot, 0, len(w.latest))
	for _, s := range w.latest {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })
	return out
}
