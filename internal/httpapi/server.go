package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"hotdeck/internal/broker"
	"hotdeck/internal/domain"
	"hotdeck/internal/hotkey"
	"hotdeck/internal/settings"
	"hotdeck/internal/store"
	"hotdeck/internal/watch"
)

// DashboardServer serves the dashboard HTTP API.
type DashboardServer struct {
	settings *settings.Store
	registry *broker.Registry
	service  *hotkey.Service
	history  store.ExecutionStore // nil disables history endpoints
	watcher  *watch.Watcher       // nil disables the watch endpoint
	log      *slog.Logger
	nowFn    func() time.Time
}

// NewDashboardServer creates the dashboard API server. history and watcher
// may be nil.
func NewDashboardServer(
	st *settings.Store,
	registry *broker.Registry,
	service *hotkey.Service,
	history store.ExecutionStore,
	watcher *watch.Watcher,
	log *slog.Logger,
) *DashboardServer {
	if log == nil {
		log = slog.Default()
	}
	return &DashboardServer{
		settings: st,
		registry: registry,
		service:  service,
		history:  history,
		watcher:  watcher,
		log:      log,
		nowFn:    time.Now,
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *DashboardServer) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	mux.HandleFunc("GET /api/v1/accounts", s.handleAccounts)
	mux.HandleFunc("GET /api/v1/presets", s.handlePresets)
	mux.HandleFunc("POST /api/v1/presets", s.handleSavePreset)
	mux.HandleFunc("DELETE /api/v1/presets/{id}", s.handleDeletePreset)
	mux.HandleFunc("POST /api/v1/hotkeys/execute", s.handleExecute)
	mux.HandleFunc("GET /api/v1/orders", s.handleOrders)
	mux.HandleFunc("GET /api/v1/positions", s.handlePositions)
	mux.HandleFunc("GET /api/v1/history", s.handleHistory)
	mux.HandleFunc("GET /api/v1/watch", s.handleWatch)
}

// Handler returns the complete API handler with middleware applied.
func (s *DashboardServer) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

func (s *DashboardServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *DashboardServer) handleAccounts(w http.ResponseWriter, _ *http.Request) {
	accounts := s.settings.Accounts()
	out := make([]AccountJSON, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountJSON(a))
	}
	writeJSON(w, out)
}

func (s *DashboardServer) handlePresets(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.settings.Presets())
}

func (s *DashboardServer) handleSavePreset(w http.ResponseWriter, r *http.Request) {
	var p domain.HotkeyPreset
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.settings.SavePreset(p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	// Content-Type must be set before WriteHeader commits the headers.
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		s.log.Error("encoding preset response", "error", err)
	}
}

func (s *DashboardServer) handleDeletePreset(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := s.settings.Preset(id); !ok {
		writeError(w, http.StatusNotFound, "unknown preset")
		return
	}
	if err := s.settings.DeletePreset(id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *DashboardServer) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	preset, ok := s.settings.Preset(req.PresetID)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown preset")
		return
	}
	side, ok := domain.ParseSide(req.Side)
	if !ok {
		writeError(w, http.StatusBadRequest, "side must be \"buy\" or \"sell\"")
		return
	}

	result, err := s.service.ExecuteHotkey(r.Context(), preset, side, s.settings.Accounts(), s.nowFn())
	switch {
	case errors.Is(err, hotkey.ErrCoolingDown):
		writeError(w, http.StatusTooManyRequests, "hotkey is cooling down")
		return
	case errors.Is(err, hotkey.ErrNoEligibleAccounts):
		writeError(w, http.StatusUnprocessableEntity, "no eligible accounts for this preset")
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// History is best-effort: a write failure never fails the dispatch the
	// user already paid for.
	if s.history != nil {
		if err := s.history.SaveExecution(r.Context(), result); err != nil {
			s.log.Error("saving execution history", "session", result.SessionID, "error", err)
		}
	}

	writeJSON(w, ExecuteResponse{Summary: hotkey.Summary(result), Result: result})
}

func (s *DashboardServer) handleOrders(w http.ResponseWriter, r *http.Request) {
	filter := broker.OrdersFilter{
		Status: r.URL.Query().Get("status"),
		Limit:  parseIntParam(r, "limit", 0),
	}

	out := make([]AccountOrdersJSON, 0)
	for _, acct := range s.selectAccounts(r) {
		entry := AccountOrdersJSON{AccountID: acct.ID, AccountName: acct.AccountName}
		orders, err := s.registry.PortFor(acct).GetOrders(r.Context(), filter)
		if err != nil {
			entry.Error = hotkey.ClassifyBrokerError(err.Error())
		} else {
			for i := range orders {
				orders[i].AccountID = acct.ID
			}
			entry.Orders = orders
		}
		out = append(out, entry)
	}
	writeJSON(w, out)
}

func (s *DashboardServer) handlePositions(w http.ResponseWriter, r *http.Request) {
	out := make([]AccountPositionsJSON, 0)
	for _, acct := range s.selectAccounts(r) {
		entry := AccountPositionsJSON{AccountID: acct.ID, AccountName: acct.AccountName}
		positions, err := s.registry.PortFor(acct).GetPositions(r.Context())
		if err != nil {
			entry.Error = hotkey.ClassifyBrokerError(err.Error())
		} else {
			for i := range positions {
				positions[i].AccountID = acct.ID
			}
			entry.Positions = positions
		}
		out = append(out, entry)
	}
	writeJSON(w, out)
}

func (s *DashboardServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, "history store not configured")
		return
	}
	limit := parseIntParam(r, "limit", 50)
	list, err := s.history.ListExecutions(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if list == nil {
		list = []domain.HotkeyExecutionResult{}
	}
	writeJSON(w, list)
}

func (s *DashboardServer) handleWatch(w http.ResponseWriter, _ *http.Request) {
	if s.watcher == nil {
		writeError(w, http.StatusNotFound, "order watcher not running")
		return
	}
	writeJSON(w, s.watcher.Latest())
}

// selectAccounts returns the enabled Alpaca accounts targeted by the
// request: one when account_id is given, otherwise all of them.
func (s *DashboardServer) selectAccounts(r *http.Request) []domain.BrokerAccount {
	wantID := r.URL.Query().Get("account_id")
	var out []domain.BrokerAccount
	for _, a := range s.settings.Accounts() {
		if !a.Enabled || a.BrokerType != domain.BrokerAlpaca {
			continue
		}
		if wantID != "" && a.ID != wantID {
			continue
		}
		out = append(out, a)
	}
	return out
}

func parseIntParam(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
