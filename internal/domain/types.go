// Package domain defines the core types shared across the hotdeck platform:
// broker accounts, hotkey presets, order specifications, and the per-dispatch
// execution results.
package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// BrokerType identifies the brokerage a BrokerAccount belongs to.
type BrokerType string

// BrokerAlpaca is the only broker type the dispatch core executes against.
const BrokerAlpaca BrokerType = "Alpaca"

// Side is the trade direction of an order.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// ParseSide converts a string to a Side, accepting any casing.
func ParseSide(s string) (Side, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy":
		return SideBuy, true
	case "sell":
		return SideSell, true
	}
	return "", false
}

// OrderType is the execution style of an order.
type OrderType string

const (
	OrderTypeMarket    OrderType = "market"
	OrderTypeLimit     OrderType = "limit"
	OrderTypeStop      OrderType = "stop"
	OrderTypeStopLimit OrderType = "stop_limit"
)

// TimeInForce controls how long an order remains active.
type TimeInForce string

const (
	TimeInForceDay TimeInForce = "day"
	TimeInForceGTC TimeInForce = "gtc"
	TimeInForceIOC TimeInForce = "ioc"
	TimeInForceFOK TimeInForce = "fok"
)

// BrokerAccount is one configured brokerage credential set. Multiple
// accounts may share the same underlying brokerage login; each is
// dispatched to independently and never merged.
type BrokerAccount struct {
	ID          string     `json:"id"`
	BrokerType  BrokerType `json:"broker_type"`
	AccountName string     `json:"account_name"`
	Enabled     bool       `json:"enabled"`
	APIKey      string     `json:"api_key"`
	APISecret   string     `json:"api_secret"`
	BaseURL     string     `json:"base_url"`
	Paper       bool       `json:"paper"`
	Position    int        `json:"position"` // display ordering
}

// HotkeyPreset is an immutable trading template triggerable with one user
// action. Quantity is kept as a string and parsed lazily; see ParseQuantity.
type HotkeyPreset struct {
	ID                 string      `json:"id"`
	Name               string      `json:"name"`
	Symbol             string      `json:"symbol"`
	Quantity           string      `json:"quantity"`
	OrderType          OrderType   `json:"order_type"`
	TimeInForce        TimeInForce `json:"time_in_force"`
	LimitPrice         string      `json:"limit_price,omitempty"`
	StopPrice          string      `json:"stop_price,omitempty"`
	SelectedAccountIDs []string    `json:"selected_account_ids,omitempty"`
	Enabled            bool        `json:"enabled"`
	Position           int         `json:"position"`
}

// ParseQuantity parses the preset quantity string. Blank or non-numeric
// values fall back to quantity 1; defaulted reports whether the fallback was
// taken so callers can surface it.
func (p *HotkeyPreset) ParseQuantity() (qty int, defaulted bool) {
	s := strings.TrimSpace(p.Quantity)
	if s == "" {
		return 1, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1, true
	}
	return n, false
}

// RestrictedTo reports whether the preset limits execution to an explicit
// set of account ids. An empty selection means "all enabled accounts".
func (p *HotkeyPreset) RestrictedTo(accountID string) bool {
	if len(p.SelectedAccountIDs) == 0 {
		return true
	}
	for _, id := range p.SelectedAccountIDs {
		if id == accountID {
			return true
		}
	}
	return false
}

// OrderSpec is the ephemeral, per-account order built for one dispatch.
// It is never persisted; a fresh spec is constructed for every submission.
type OrderSpec struct {
	Symbol            string
	Qty               int // always >= 1
	QuantityDefaulted bool
	Side              Side
	OrderType         OrderType
	TimeInForce       TimeInForce
	LimitPrice        *decimal.Decimal // nil = not set
	StopPrice         *decimal.Decimal // nil = not set
	ClientOrderID     string
}

// AccountOrderResult is the outcome of one account's submission within a
// dispatch session. Immutable once constructed.
type AccountOrderResult struct {
	AccountID     string    `json:"account_id"`
	AccountName   string    `json:"account_name"`
	Success       bool      `json:"success"`
	BrokerOrderID string    `json:"broker_order_id,omitempty"`
	ClientOrderID string    `json:"client_order_id"`
	Error         string    `json:"error,omitempty"`
	CompletedAt   time.Time `json:"completed_at"`
}

// HotkeyExecutionResult aggregates the per-account outcomes of one hotkey
// dispatch. SessionID identifies the fan-out for log correlation only.
type HotkeyExecutionResult struct {
	SessionID    string               `json:"session_id"`
	PresetID     string               `json:"preset_id"`
	PresetName   string               `json:"preset_name"`
	Symbol       string               `json:"symbol"`
	Side         Side                 `json:"side"`
	Results      []AccountOrderResult `json:"results"`
	SuccessCount int                  `json:"success_count"`
	TotalCount   int                  `json:"total_count"`
	StartedAt    time.Time            `json:"started_at"`
}

// IsFullSuccess reports whether every account accepted the order.
func (r *HotkeyExecutionResult) IsFullSuccess() bool {
	return r.TotalCount > 0 && r.SuccessCount == r.TotalCount
}

// HasPartialSuccess reports whether some but not all accounts accepted.
func (r *HotkeyExecutionResult) HasPartialSuccess() bool {
	return r.SuccessCount > 0 && r.SuccessCount < r.TotalCount
}

// IsCompleteFailure reports whether no account accepted the order.
func (r *HotkeyExecutionResult) IsCompleteFailure() bool {
	return r.SuccessCount == 0
}

// Order is the dashboard view of a broker-side order.
type Order struct {
	ID            string           `json:"id"`
	ClientOrderID string           `json:"client_order_id"`
	AccountID     string           `json:"account_id,omitempty"`
	Symbol        string           `json:"symbol"`
	Side          Side             `json:"side"`
	Type          OrderType        `json:"type"`
	Qty           decimal.Decimal  `json:"qty"`
	FilledQty     decimal.Decimal  `json:"filled_qty"`
	LimitPrice    *decimal.Decimal `json:"limit_price,omitempty"`
	StopPrice     *decimal.Decimal `json:"stop_price,omitempty"`
	Status        string           `json:"status"`
	CreatedAt     time.Time        `json:"created_at"`
}

// Position is the dashboard view of a broker-side position.
type Position struct {
	AccountID    string           `json:"account_id,omitempty"`
	Symbol       string           `json:"symbol"`
	Qty          decimal.Decimal  `json:"qty"`
	Side         string           `json:"side"`
	AvgEntry     decimal.Decimal  `json:"avg_entry_price"`
	MarketValue  *decimal.Decimal `json:"market_value,omitempty"`
	UnrealizedPL *decimal.Decimal `json:"unrealized_pl,omitempty"`
	CurrentPrice *decimal.Decimal `json:"current_price,omitempty"`
}

// AccountInfo is a snapshot of one account's financial metrics.
type AccountInfo struct {
	AccountID      string          `json:"account_id,omitempty"`
	BrokerID       string          `json:"broker_id"`
	AccountNumber  string          `json:"account_number"`
	Status         string          `json:"status"`
	Currency       string          `json:"currency"`
	Cash           decimal.Decimal `json:"cash"`
	Equity         decimal.Decimal `json:"equity"`
	BuyingPower    decimal.Decimal `json:"buying_power"`
	PortfolioValue decimal.Decimal `json:"portfolio_value"`
}
