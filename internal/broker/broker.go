// Package broker defines the TradingPort interface to a brokerage's
// order/position/account REST API and provides the Alpaca implementation, an
// in-memory simulator, and a per-account client registry.
package broker

import (
	"context"

	"hotdeck/internal/domain"
)

// OrdersFilter narrows a GetOrders call.
type OrdersFilter struct {
	Status    string // "open", "closed", or "all" (default "open")
	Limit     int    // 0 = broker default
	Direction string // "asc" or "desc"
}

// TradingPort abstracts one account's brokerage operations. A port is bound
// to a single credential set; switching accounts means switching ports (see
// Registry). Implementations must be safe for concurrent use — dashboard
// reads share the binding with in-flight hotkey dispatches.
type TradingPort interface {
	// Name returns the port identifier (e.g. "alpaca", "simulator").
	Name() string

	// SubmitOrder sends an order to the brokerage for execution.
	SubmitOrder(ctx context.Context, spec *domain.OrderSpec) (*domain.Order, error)

	// CancelOrder requests cancellation of an open order by its broker ID.
	CancelOrder(ctx context.Context, orderID string) error

	// GetOrders lists orders matching the filter.
	GetOrders(ctx context.Context, f OrdersFilter) ([]domain.Order, error)

	// GetPositions returns all current positions held at the brokerage.
	GetPositions(ctx context.Context) ([]domain.Position, error)

	// GetAccount returns a snapshot of the account's financial metrics.
	GetAccount(ctx context.Context) (*domain.AccountInfo, error)
}
