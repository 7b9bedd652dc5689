// Package hotdeck provides a Go SDK for the hotdeck-server API.
package hotdeck

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client talks to a running hotdeck-server instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new hotdeck API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Account is a configured broker account as reported by the server.
// Credentials are never returned by the API.
type Account struct {
	ID          string `json:"id"`
	BrokerType  string `json:"broker_type"`
	AccountName string `json:"account_name"`
	Enabled     bool   `json:"enabled"`
	BaseURL     string `json:"base_url"`
	Paper       bool   `json:"paper"`
	Position    int    `json:"position"`
}

// Preset is a saved hotkey order template.
type Preset struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Symbol             string   `json:"symbol"`
	Quantity           string   `json:"quantity"`
	OrderType          string   `json:"order_type"`
	TimeInForce        string   `json:"time_in_force"`
	LimitPrice         string   `json:"limit_price,omitempty"`
	StopPrice          string   `json:"stop_price,omitempty"`
	SelectedAccountIDs []string `json:"selected_account_ids,omitempty"`
	Enabled            bool     `json:"enabled"`
	Position           int      `json:"position"`
}

// AccountOrderResult is the per-account outcome of one dispatch.
type AccountOrderResult struct {
	AccountID     string    `json:"account_id"`
	AccountName   string    `json:"account_name"`
	Success       bool      `json:"success"`
	BrokerOrderID string    `json:"broker_order_id,omitempty"`
	ClientOrderID string    `json:"client_order_id"`
	Error         string    `json:"error,omitempty"`
	CompletedAt   time.Time `json:"completed_at"`
}

// ExecutionResult aggregates the per-account outcomes of one dispatch
// session.
type ExecutionResult struct {
	SessionID    string               `json:"session_id"`
	PresetID     string               `json:"preset_id"`
	PresetName   string               `json:"preset_name"`
	Symbol       string               `json:"symbol"`
	Side         string               `json:"side"`
	Results      []AccountOrderResult `json:"results"`
	SuccessCount int                  `json:"success_count"`
	TotalCount   int                  `json:"total_count"`
	StartedAt    time.Time            `json:"started_at"`
}

// ExecuteResponse is returned by ExecuteHotkey.
type ExecuteResponse struct {
	Summary string           `json:"summary"`
	Result  *ExecutionResult `json:"result"`
}

// Order is an open or historical broker order.
type Order struct {
	ID            string    `json:"id"`
	ClientOrderID string    `json:"client_order_id"`
	AccountID     string    `json:"account_id,omitempty"`
	Symbol        string    `json:"symbol"`
	Side          string    `json:"side"`
	Type          string    `json:"type"`
	Qty           string    `json:"qty"`
	FilledQty     string    `json:"filled_qty"`
	LimitPrice    string    `json:"limit_price,omitempty"`
	StopPrice     string    `json:"stop_price,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// AccountOrders groups one account's orders, or the error that prevented
// fetching them.
type AccountOrders struct {
	AccountID   string  `json:"account_id"`
	AccountName string  `json:"account_name"`
	Orders      []Order `json:"orders,omitempty"`
	Error       string  `json:"error,omitempty"`
}

// Position is a broker-side position.
type Position struct {
	AccountID    string `json:"account_id,omitempty"`
	Symbol       string `json:"symbol"`
	Qty          string `json:"qty"`
	Side         string `json:"side"`
	AvgEntry     string `json:"avg_entry_price"`
	MarketValue  string `json:"market_value,omitempty"`
	UnrealizedPL string `json:"unrealized_pl,omitempty"`
	CurrentPrice string `json:"current_price,omitempty"`
}

// AccountPositions groups one account's positions, or the error that
// prevented fetching them.
type AccountPositions struct {
	AccountID   string     `json:"account_id"`
	AccountName string     `json:"account_name"`
	Positions   []Position `json:"positions,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("hotdeck API: %d: %s", e.StatusCode, e.Message)
}

// Accounts lists the configured broker accounts.
func (c *Client) Accounts(ctx context.Context) ([]Account, error) {
	var out []Account
	if err := c.get(ctx, "/api/v1/accounts", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Presets lists the saved hotkey presets.
func (c *Client) Presets(ctx context.Context) ([]Preset, error) {
	var out []Preset
	if err := c.get(ctx, "/api/v1/presets", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SavePreset creates or updates a hotkey preset.
func (c *Client) SavePreset(ctx context.Context, p Preset) error {
	return c.post(ctx, "/api/v1/presets", p, nil)
}

// DeletePreset removes a preset by id.
func (c *Client) DeletePreset(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+"/api/v1/presets/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

// ExecuteHotkey fires a preset across all eligible accounts and returns
// the aggregated result.
func (c *Client) ExecuteHotkey(ctx context.Context, presetID, side string) (*ExecuteResponse, error) {
	body := map[string]string{"preset_id": presetID, "side": side}
	var out ExecuteResponse
	if err := c.post(ctx, "/api/v1/hotkeys/execute", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Orders retrieves open orders grouped by account. accountID narrows the
// query to one account when non-empty.
func (c *Client) Orders(ctx context.Context, accountID string) ([]AccountOrders, error) {
	path := "/api/v1/orders"
	if accountID != "" {
		path += "?account_id=" + url.QueryEscape(accountID)
	}
	var out []AccountOrders
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Positions retrieves positions grouped by account.
func (c *Client) Positions(ctx context.Context, accountID string) ([]AccountPositions, error) {
	path := "/api/v1/positions"
	if accountID != "" {
		path += "?account_id=" + url.QueryEscape(accountID)
	}
	var out []AccountPositions
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// History retrieves past dispatch sessions, newest first.
func (c *Client) History(ctx context.Context, limit int) ([]ExecutionResult, error) {
	path := "/api/v1/history"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out []ExecutionResult
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Health checks server liveness.
func (c *Client) Health(ctx context.Context) error {
	return c.get(ctx, "/api/v1/health", nil)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	apiErr := &APIError{StatusCode: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		apiErr.Message = body.Error
	} else {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
