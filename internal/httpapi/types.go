// Package httpapi provides the dashboard HTTP REST API: accounts, presets,
// hotkey execution, order/position views, and execution history in JSON.
package httpapi

import (
	"hotdeck/internal/domain"
)

// AccountJSON is the redacted wire form of a broker account. Credentials
// never leave the server.
type AccountJSON struct {
	ID          string `json:"id"`
	BrokerType  string `json:"broker_type"`
	AccountName string `json:"account_name"`
	Enabled     bool   `json:"enabled"`
	BaseURL     string `json:"base_url"`
	Paper       bool   `json:"paper"`
	Position    int    `json:"position"`
}

func toAccountJSON(a domain.BrokerAccount) AccountJSON {
	return AccountJSON{
		ID:          a.ID,
		BrokerType:  string(a.BrokerType),
		AccountName: a.AccountName,
		Enabled:     a.Enabled,
		BaseURL:     a.BaseURL,
		Paper:       a.Paper,
		Position:    a.Position,
	}
}

// ExecuteRequest triggers one hotkey dispatch.
type ExecuteRequest struct {
	PresetID string `json:"preset_id"`
	Side     string `json:"side"`
}

// ExecuteResponse carries the aggregate outcome plus its one-line summary.
type ExecuteResponse struct {
	Summary string                        `json:"summary"`
	Result  *domain.HotkeyExecutionResult `json:"result"`
}

// AccountOrdersJSON groups one account's orders for list endpoints.
type AccountOrdersJSON struct {
	AccountID   string         `json:"account_id"`
	AccountName string         `json:"account_name"`
	Orders      []domain.Order `json:"orders"`
	Error       string         `json:"error,omitempty"`
}

// AccountPositionsJSON groups one account's positions.
type AccountPositionsJSON struct {
	AccountID   string            `json:"account_id"`
	AccountName string            `json:"account_name"`
	Positions   []domain.Position `json:"positions"`
	Error       string            `json:"error,omitempty"`
}
