package broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"hotdeck/internal/domain"
)

// Compile-time interface check.
var _ TradingPort = (*SimulatorPort)(nil)

// SimulatorPort implements TradingPort in memory, without external API
// calls. Submissions are accepted immediately unless a failure has been
// scripted with FailSubmissionsWith; tests use it to exercise dispatch
// fan-out and partial-failure paths.
type SimulatorPort struct {
	mu        sync.Mutex
	orders    map[string]domain.Order
	submits   []domain.OrderSpec
	seq       int
	submitErr error
	delay     time.Duration
}

// NewSimulatorPort creates an empty simulator.
func NewSimulatorPort() *SimulatorPort {
	return &SimulatorPort{orders: make(map[string]domain.Order)}
}

// FailSubmissionsWith makes every subsequent SubmitOrder call fail with err.
// Passing nil restores normal acceptance.
func (s *SimulatorPort) FailSubmissionsWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitErr = err
}

// DelaySubmissions makes every subsequent SubmitOrder sleep for d first,
// simulating broker latency.
func (s *SimulatorPort) DelaySubmissions(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// SubmitCount returns how many SubmitOrder calls were received, including
// failed ones.
func (s *SimulatorPort) SubmitCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.submits)
}

// Submissions returns a copy of every received order spec in arrival order.
func (s *SimulatorPort) Submissions() []domain.OrderSpec {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.OrderSpec, len(s.submits))
	copy(out, s.submits)
	return out
}

// Name returns "simulator".
func (s *SimulatorPort) Name() string { return "simulator" }

// SubmitOrder records the spec and simulates immediate acceptance, or the
// scripted failure.
func (s *SimulatorPort) SubmitOrder(ctx context.Context, spec *domain.OrderSpec) (*domain.Order, error) {
	s.mu.Lock()
	s.submits = append(s.submits, *spec)
	s.seq++
	id := fmt.Sprintf("sim-%d", s.seq)
	failErr := s.submitErr
	delay := s.delay
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	if failErr != nil {
		return nil, failErr
	}

	order := domain.Order{
		ID:            id,
		ClientOrderID: spec.ClientOrderID,
		Symbol:        spec.Symbol,
		Side:          spec.Side,
		Type:          spec.OrderType,
		Qty:           decimal.NewFromInt(int64(spec.Qty)),
		LimitPrice:    spec.LimitPrice,
		StopPrice:     spec.StopPrice,
		Status:        "accepted",
		CreatedAt:     time.Now(),
	}

	s.mu.Lock()
	s.orders[order.ID] = order
	s.mu.Unlock()

	return &order, nil
}

// CancelOrder marks the specified order as canceled.
func (s *SimulatorPort) CancelOrder(_ context.Context, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return fmt.Errorf("order %s not found", orderID)
	}
	o.Status = "canceled"
	s.orders[orderID] = o
	return nil
}

// GetOrders returns simulated orders. The filter's Status narrows to
// accepted ("open") or canceled ("closed") orders.
func (s *SimulatorPort) GetOrders(_ context.Context, f OrdersFilter) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		switch f.Status {
		case "", "open":
			if o.Status != "accepted" {
				continue
			}
		case "closed":
			if o.Status != "canceled" {
				continue
			}
		}
		out = append(out, o)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

// GetPositions returns no positions; the simulator does not model fills.
func (s *SimulatorPort) GetPositions(_ context.Context) ([]domain.Position, error) {
	return nil, nil
}

// GetAccount returns a fixed paper account snapshot.
func (s *SimulatorPort) GetAccount(_ context.Context) (*domain.AccountInfo, error) {
	return &domain.AccountInfo{
		BrokerID:      "simulator",
		AccountNumber: "SIM000000",
		Status:        "ACTIVE",
		Currency:      "USD",
	}, nil
}
