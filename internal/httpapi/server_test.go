package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotdeck/internal/broker"
	"hotdeck/internal/domain"
	"hotdeck/internal/hotkey"
	"hotdeck/internal/settings"
	"hotdeck/internal/store"
)

type fixture struct {
	server *DashboardServer
	sims   map[string]*broker.SimulatorPort
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st := settings.NewStore(filepath.Join(t.TempDir(), "settings.json"), slog.Default())
	for i, id := range []string{"a1", "a2"} {
		require.NoError(t, st.SaveAccount(domain.BrokerAccount{
			ID:          id,
			BrokerType:  domain.BrokerAlpaca,
			AccountName: "acct-" + id,
			Enabled:     true,
			APIKey:      "key-" + id,
			APISecret:   "secret-" + id,
			Position:    i,
		}))
	}
	require.NoError(t, st.SavePreset(domain.HotkeyPreset{
		ID:          "p1",
		Name:        "AAPL x10",
		Symbol:      "AAPL",
		Quantity:    "10",
		OrderType:   domain.OrderTypeMarket,
		TimeInForce: domain.TimeInForceDay,
		Enabled:     true,
	}))

	sims := map[string]*broker.SimulatorPort{
		"a1": broker.NewSimulatorPort(),
		"a2": broker.NewSimulatorPort(),
	}
	registry := broker.NewRegistry(func(a domain.BrokerAccount) broker.TradingPort {
		return sims[a.ID]
	})

	history, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "hotdeck.db"))
	require.NoError(t, err)
	t.Cleanup(func() { history.Close() })

	svc := hotkey.NewService(hotkey.NewDispatcher(registry, slog.Default()), 2*time.Second, slog.Default())
	srv := NewDashboardServer(st, registry, svc, history, nil, slog.Default())

	f := &fixture{server: srv, sims: sims, now: time.Now()}
	srv.nowFn = func() time.Time { return f.now }
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestExecuteEndpoint(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/hotkeys/execute", ExecuteRequest{PresetID: "p1", Side: "buy"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp ExecuteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "All orders successful (2/2)", resp.Summary)
	require.NotNil(t, resp.Result)
	assert.Equal(t, 2, resp.Result.TotalCount)
	assert.Len(t, resp.Result.Results, 2)

	// The dispatch was recorded in history.
	saved, err := f.server.history.GetExecution(context.Background(), resp.Result.SessionID)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, 2, saved.SuccessCount)
}

func TestExecuteEndpointCooldown(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/hotkeys/execute", ExecuteRequest{PresetID: "p1", Side: "buy"})
	require.Equal(t, http.StatusOK, rec.Code)

	// Re-fired 500ms later: 429, and no extra broker traffic.
	f.now = f.now.Add(500 * time.Millisecond)
	rec = f.do(t, http.MethodPost, "/api/v1/hotkeys/execute", ExecuteRequest{PresetID: "p1", Side: "buy"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, 1, f.sims["a1"].SubmitCount())
	assert.Equal(t, 1, f.sims["a2"].SubmitCount())
}

func TestExecuteEndpointErrors(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/hotkeys/execute", ExecuteRequest{PresetID: "nope", Side: "buy"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/hotkeys/execute", ExecuteRequest{PresetID: "p1", Side: "hold"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExecuteEndpointNoEligibleAccounts(t *testing.T) {
	f := newFixture(t)

	// Restrict the preset to an account id that does not exist.
	require.NoError(t, f.server.settings.SavePreset(domain.HotkeyPreset{
		ID:                 "p2",
		Name:               "restricted",
		Symbol:             "TSLA",
		Quantity:           "1",
		OrderType:          domain.OrderTypeMarket,
		TimeInForce:        domain.TimeInForceDay,
		SelectedAccountIDs: []string{"ghost"},
		Enabled:            true,
	}))

	rec := f.do(t, http.MethodPost, "/api/v1/hotkeys/execute", ExecuteRequest{PresetID: "p2", Side: "sell"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Zero(t, f.sims["a1"].SubmitCount())
}

func TestAccountsEndpointRedactsCredentials(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/accounts", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.NotContains(t, body, "key-a1")
	assert.NotContains(t, body, "secret-a1")

	var accounts []AccountJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accounts))
	require.Len(t, accounts, 2)
	assert.Equal(t, "a1", accounts[0].ID)
}

func TestSavePresetEndpointValidates(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/presets", domain.HotkeyPreset{
		ID:       "bad",
		Symbol:   "AAPL",
		Quantity: "lots",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "quantity"))

	rec = f.do(t, http.MethodPost, "/api/v1/presets", domain.HotkeyPreset{
		ID:          "ok",
		Name:        "ok",
		Symbol:      "AAPL",
		Quantity:    "5",
		OrderType:   domain.OrderTypeMarket,
		TimeInForce: domain.TimeInForceDay,
		Enabled:     true,
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var saved domain.HotkeyPreset
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saved))
	assert.Equal(t, "ok", saved.ID)
}

func TestDeletePresetEndpoint(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodDelete, "/api/v1/presets/p1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/v1/presets/p1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOrdersEndpointGroupsByAccount(t *testing.T) {
	f := newFixture(t)

	// Seed one open order in a1 only.
	_, err := f.sims["a1"].SubmitOrder(context.Background(), &domain.OrderSpec{
		Symbol: "AAPL", Qty: 1, Side: domain.SideBuy, ClientOrderID: "co-1",
	})
	require.NoError(t, err)

	rec := f.do(t, http.MethodGet, "/api/v1/orders", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var out []AccountOrdersJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 2)
	assert.Len(t, out[0].Orders, 1)
	assert.Equal(t, "a1", out[0].Orders[0].AccountID)
	assert.Empty(t, out[1].Orders)

	// Filtering by account_id narrows the fan-out.
	rec = f.do(t, http.MethodGet, "/api/v1/orders?account_id=a2", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "a2", out[0].AccountID)
}

func TestHistoryEndpoint(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/hotkeys/execute", ExecuteRequest{PresetID: "p1", Side: "buy"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/history?limit=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list []domain.HotkeyExecutionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "p1", list[0].PresetID)
}

func TestHealthEndpoint(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
