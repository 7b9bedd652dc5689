package hotkey

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotdeck/internal/broker"
	"hotdeck/internal/domain"
)

func newTestService(sims map[string]*broker.SimulatorPort, cooldown time.Duration) *Service {
	d := NewDispatcher(simRegistry(sims), slog.Default())
	return NewService(d, cooldown, slog.Default())
}

func TestExecuteHotkeyDoubleFireWithinCooldown(t *testing.T) {
	accounts, sims := threeAccounts()
	svc := newTestService(sims, 2000*time.Millisecond)
	base := time.Now()

	first, err := svc.ExecuteHotkey(context.Background(), testPreset(), domain.SideBuy, accounts, base)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, 3, first.TotalCount)

	// Re-fired 500ms later: rejected with no broker traffic at all.
	second, err := svc.ExecuteHotkey(context.Background(), testPreset(), domain.SideBuy, accounts, base.Add(500*time.Millisecond))
	assert.ErrorIs(t, err, ErrCoolingDown)
	assert.Nil(t, second)
	for id, sim := range sims {
		assert.Equal(t, 1, sim.SubmitCount(), "account %s must see only the first fire", id)
	}

	// After the window the same hotkey fires again.
	third, err := svc.ExecuteHotkey(context.Background(), testPreset(), domain.SideBuy, accounts, base.Add(2*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 3, third.TotalCount)
}

func TestExecuteHotkeyOppositeSideNotDebounced(t *testing.T) {
	accounts, sims := threeAccounts()
	svc := newTestService(sims, 2000*time.Millisecond)
	base := time.Now()

	_, err := svc.ExecuteHotkey(context.Background(), testPreset(), domain.SideBuy, accounts, base)
	require.NoError(t, err)

	// The (preset, side) key means an immediate sell is its own window.
	_, err = svc.ExecuteHotkey(context.Background(), testPreset(), domain.SideSell, accounts, base.Add(10*time.Millisecond))
	require.NoError(t, err)
}

func TestExecuteHotkeyNoEligibleAccounts(t *testing.T) {
	accounts := []domain.BrokerAccount{
		alpacaAccount("a1", false),
		{ID: "a2", BrokerType: "IBKR", Enabled: true},
	}
	sims := map[string]*broker.SimulatorPort{
		"a1": broker.NewSimulatorPort(),
		"a2": broker.NewSimulatorPort(),
	}
	svc := newTestService(sims, time.Second)

	result, err := svc.ExecuteHotkey(context.Background(), testPreset(), domain.SideBuy, accounts, time.Now())
	assert.ErrorIs(t, err, ErrNoEligibleAccounts)
	assert.Nil(t, result)
	for _, sim := range sims {
		assert.Zero(t, sim.SubmitCount())
	}
}

func TestExecuteHotkeyDisabledPreset(t *testing.T) {
	accounts, sims := threeAccounts()
	svc := newTestService(sims, time.Second)

	preset := testPreset()
	preset.Enabled = false

	_, err := svc.ExecuteHotkey(context.Background(), preset, domain.SideBuy, accounts, time.Now())
	assert.Error(t, err)
	for _, sim := range sims {
		assert.Zero(t, sim.SubmitCount())
	}
}

func TestExecuteHotkeyRestrictedSelection(t *testing.T) {
	accounts, sims := threeAccounts()
	svc := newTestService(sims, time.Second)

	preset := testPreset()
	preset.SelectedAccountIDs = []string{"a2"}

	result, err := svc.ExecuteHotkey(context.Background(), preset, domain.SideBuy, accounts, time.Now())
	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	assert.Equal(t, "a2", result.Results[0].AccountID)
	assert.Zero(t, sims["a1"].SubmitCount())
	assert.Zero(t, sims["a3"].SubmitCount())
}

func TestSummary(t *testing.T) {
	full := &domain.HotkeyExecutionResult{SessionID: "abc123", SuccessCount: 3, TotalCount: 3}
	assert.Equal(t, "All orders successful (3/3)", Summary(full))

	partial := &domain.HotkeyExecutionResult{SessionID: "abc123", SuccessCount: 1, TotalCount: 3}
	assert.Equal(t, "Partial success (1/3)", Summary(partial))

	failed := &domain.HotkeyExecutionResult{SessionID: "abc123", SuccessCount: 0, TotalCount: 3}
	assert.Equal(t, "All orders failed (0/3) [session abc123]", Summary(failed))
}
