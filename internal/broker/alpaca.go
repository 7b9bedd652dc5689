package broker

import (
	"context"
	"fmt"

	alpacaapi "github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/shopspring/decimal"

	"hotdeck/internal/domain"
)

// Compile-time interface check.
var _ TradingPort = (*AlpacaPort)(nil)

// AlpacaPort implements TradingPort using the Alpaca brokerage API. One port
// wraps one credential triple; the underlying SDK client pools connections
// and is safe for concurrent use.
type AlpacaPort struct {
	client *alpacaapi.Client
}

// NewAlpacaPort creates an AlpacaPort bound to the given credentials and API
// endpoint. An empty baseURL uses the SDK default (live trading).
func NewAlpacaPort(apiKey, apiSecret, baseURL string) *AlpacaPort {
	opts := alpacaapi.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if baseURL != "" {
		opts.BaseURL = baseURL
	}
	return &AlpacaPort{client: alpacaapi.NewClient(opts)}
}

// Name returns "alpaca".
func (p *AlpacaPort) Name() string { return "alpaca" }

// SubmitOrder sends an order to the Alpaca API for execution. The spec's
// ClientOrderID is passed through as the broker-side idempotency token.
// The SDK client does not take a context; its own HTTP timeouts bound the
// call.
func (p *AlpacaPort) SubmitOrder(_ context.Context, spec *domain.OrderSpec) (*domain.Order, error) {
	qty := decimal.NewFromInt(int64(spec.Qty))
	req := alpacaapi.PlaceOrderRequest{
		Symbol:        spec.Symbol,
		Qty:           &qty,
		Side:          toAlpacaSide(spec.Side),
		Type:          toAlpacaOrderType(spec.OrderType),
		TimeInForce:   toAlpacaTIF(spec.TimeInForce),
		LimitPrice:    spec.LimitPrice,
		StopPrice:     spec.StopPrice,
		ClientOrderID: spec.ClientOrderID,
	}

	order, err := p.client.PlaceOrder(req)
	if err != nil {
		return nil, fmt.Errorf("placing order for %s: %w", spec.Symbol, err)
	}
	return fromAlpacaOrder(order), nil
}

// CancelOrder requests cancellation of an open order via the Alpaca API.
func (p *AlpacaPort) CancelOrder(_ context.Context, orderID string) error {
	if err := p.client.CancelOrder(orderID); err != nil {
		return fmt.Errorf("cancelling order %s: %w", orderID, err)
	}
	return nil
}

// GetOrders lists orders from the Alpaca account matching the filter.
func (p *AlpacaPort) GetOrders(_ context.Context, f OrdersFilter) ([]domain.Order, error) {
	status := f.Status
	if status == "" {
		status = "open"
	}
	req := alpacaapi.GetOrdersRequest{
		Status:    status,
		Limit:     f.Limit,
		Direction: f.Direction,
	}

	orders, err := p.client.GetOrders(req)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}

	out := make([]domain.Order, 0, len(orders))
	for i := range orders {
		out = append(out, *fromAlpacaOrder(&orders[i]))
	}
	return out, nil
}

// GetPositions returns all current positions from the Alpaca account.
func (p *AlpacaPort) GetPositions(_ context.Context) ([]domain.Position, error) {
	positions, err := p.client.GetPositions()
	if err != nil {
		return nil, fmt.Errorf("listing positions: %w", err)
	}

	out := make([]domain.Position, 0, len(positions))
	for i := range positions {
		out = append(out, fromAlpacaPosition(&positions[i]))
	}
	return out, nil
}

// GetAccount returns the current account information from the Alpaca API.
func (p *AlpacaPort) GetAccount(_ context.Context) (*domain.AccountInfo, error) {
	acct, err := p.client.GetAccount()
	if err != nil {
		return nil, fmt.Errorf("fetching account: %w", err)
	}
	return &domain.AccountInfo{
		BrokerID:       acct.ID,
		AccountNumber:  acct.AccountNumber,
		Status:         string(acct.Status),
		Currency:       acct.Currency,
		Cash:           acct.Cash,
		Equity:         acct.Equity,
		BuyingPower:    acct.BuyingPower,
		PortfolioValue: acct.PortfolioValue,
	}, nil
}

// ---------------------------------------------------------------------------
// Type conversions
// ---------------------------------------------------------------------------

func toAlpacaSide(s domain.Side) alpacaapi.Side {
	if s == domain.SideSell {
		return alpacaapi.Sell
	}
	return alpacaapi.Buy
}

func toAlpacaOrderType(t domain.OrderType) alpacaapi.OrderType {
	switch t {
	case domain.OrderTypeLimit:
		return alpacaapi.Limit
	case domain.OrderTypeStop:
		return alpacaapi.Stop
	case domain.OrderTypeStopLimit:
		return alpacaapi.StopLimit
	default:
		return alpacaapi.Market
	}
}

func toAlpacaTIF(tif domain.TimeInForce) alpacaapi.TimeInForce {
	switch tif {
	case domain.TimeInForceGTC:
		return alpacaapi.GTC
	case domain.TimeInForceIOC:
		return alpacaapi.IOC
	case domain.TimeInForceFOK:
		return alpacaapi.FOK
	default:
		return alpacaapi.Day
	}
}

func fromAlpacaPosition(pos *alpacaapi.Position) domain.Position {
	return domain.Position{
		Symbol:       pos.Symbol,
		Qty:          pos.Qty,
		Side:         pos.Side,
		AvgEntry:     pos.AvgEntryPrice,
		MarketValue:  pos.MarketValue,
		UnrealizedPL: pos.UnrealizedPL,
		CurrentPrice: pos.CurrentPrice,
	}
}

func fromAlpacaOrder(o *alpacaapi.Order) *domain.Order {
	out := &domain.Order{
		ID:            o.ID,
		ClientOrderID: o.ClientOrderID,
		Symbol:        o.Symbol,
		Side:          domain.Side(o.Side),
		Type:          domain.OrderType(o.Type),
		FilledQty:     o.FilledQty,
		LimitPrice:    o.LimitPrice,
		StopPrice:     o.StopPrice,
		Status:        o.Status,
		CreatedAt:     o.CreatedAt,
	}
	if o.Qty != nil {
		out.Qty = *o.Qty
	}
	return out
}
