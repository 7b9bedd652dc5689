package watch

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotdeck/internal/broker"
	"hotdeck/internal/domain"
	"hotdeck/internal/settings"
)

func testSettings(t *testing.T, accounts ...domain.BrokerAccount) *settings.Store {
	t.Helper()
	s := settings.NewStore(filepath.Join(t.TempDir(), "settings.json"), slog.Default())
	for _, a := range accounts {
		require.NoError(t, s.SaveAccount(a))
	}
	return s
}

func testAccount(id string, enabled bool) domain.BrokerAccount {
	return domain.BrokerAccount{
		ID:          id,
		BrokerType:  domain.BrokerAlpaca,
		AccountName: "acct-" + id,
		Enabled:     enabled,
		APIKey:      "k",
		APISecret:   "s",
	}
}

func TestPollOnceSnapshotsEnabledAccounts(t *testing.T) {
	ctx := context.Background()
	sims := map[string]*broker.SimulatorPort{
		"a1": broker.NewSimulatorPort(),
		"a2": broker.NewSimulatorPort(),
	}
	registry := broker.NewRegistry(func(a domain.BrokerAccount) broker.TradingPort {
		return sims[a.ID]
	})
	st := testSettings(t, testAccount("a1", true), testAccount("a2", false))

	// Seed one open order in the enabled account.
	_, err := sims["a1"].SubmitOrder(ctx, &domain.OrderSpec{
		Symbol: "AAPL", Qty: 5, Side: domain.SideBuy, ClientOrderID: "co-1",
	})
	require.NoError(t, err)

	w := New(st, registry, time.Minute, 600, slog.Default())
	w.PollOnce(ctx)

	snaps := w.Latest()
	require.Len(t, snaps, 1, "disabled accounts are not polled")
	assert.Equal(t, "a1", snaps[0].AccountID)
	assert.Len(t, snaps[0].Orders, 1)
	assert.Empty(t, snaps[0].Error)
}

func TestPollOnceRecordsAccountError(t *testing.T) {
	sim := broker.NewSimulatorPort()
	registry := broker.NewRegistry(func(domain.BrokerAccount) broker.TradingPort { return sim })
	st := testSettings(t, testAccount("a1", true))

	w := New(st, registry, time.Minute, 600, slog.Default())

	// GetOrders on the simulator never fails, so poke the failure path via
	// a canceled context: the limiter aborts before any fetch.
	ctx, cancel := context.WithCancel(context.Background())
	w.PollOnce(ctx)
	require.Len(t, w.Latest(), 1)

	cancel()
	w.PollOnce(ctx)
	// A canceled sweep leaves the previous snapshot in place.
	assert.Len(t, w.Latest(), 1)
}

func TestRunStopsOnCancel(t *testing.T) {
	sim := broker.NewSimulatorPort()
	registry := broker.NewRegistry(func(domain.BrokerAccount) broker.TradingPort { return sim })
	st := testSettings(t, testAccount("a1", true))

	w := New(st, registry, 10*time.Millisecond, 6000, slog.Default())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := w.Run(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.NotEmpty(t, w.Latest())
}
