package hotkey

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"hotdeck/internal/broker"
	"hotdeck/internal/domain"
)

// Dispatcher fans one hotkey trigger out to a set of pre-filtered eligible
// accounts, submitting all orders concurrently through each account's
// TradingPort binding and aggregating the per-account outcomes.
type Dispatcher struct {
	registry *broker.Registry
	log      *slog.Logger
	nowFn    func() time.Time
}

// NewDispatcher creates a Dispatcher submitting through the given registry.
func NewDispatcher(registry *broker.Registry, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		registry: registry,
		log:      log,
		nowFn:    time.Now,
	}
}

// Dispatch submits the preset's order to every account in the list,
// concurrently, and returns once every account has a terminal result. The
// accounts slice must already be eligibility-filtered (see EligibleAccounts);
// Dispatch never re-derives eligibility. One account's failure is recorded
// in its slot and never blocks or cancels sibling submissions.
func (d *Dispatcher) Dispatch(ctx context.Context, preset domain.HotkeyPreset, side domain.Side, accounts []domain.BrokerAccount) *domain.HotkeyExecutionResult {
	sessionID := newSessionID()
	started := d.nowFn()

	qty, defaulted := preset.ParseQuantity()
	if defaulted {
		d.log.Warn("preset quantity invalid, defaulting to 1",
			"session", sessionID, "preset", preset.ID, "quantity", preset.Quantity)
	}
	limit := d.parsePrice(sessionID, preset.ID, "limit_price", preset.LimitPrice)
	stop := d.parsePrice(sessionID, preset.ID, "stop_price", preset.StopPrice)

	d.log.Info("dispatching hotkey",
		"session", sessionID, "preset", preset.Name, "symbol", preset.Symbol,
		"side", side, "qty", qty, "accounts", len(accounts))

	// One goroutine per account, each writing its own pre-allocated slot.
	// No task returns an error: failures become failed results.
	results := make([]domain.AccountOrderResult, len(accounts))
	var g errgroup.Group
	for i, acct := range accounts {
		i, acct := i, acct
		spec := &domain.OrderSpec{
			Symbol:            preset.Symbol,
			Qty:               qty,
			QuantityDefaulted: defaulted,
			Side:              side,
			OrderType:         preset.OrderType,
			TimeInForce:       preset.TimeInForce,
			LimitPrice:        limit,
			StopPrice:         stop,
			ClientOrderID:     clientOrderID(sessionID, acct.ID, side, started, i),
		}
		g.Go(func() error {
			results[i] = d.submitOne(ctx, sessionID, acct, spec)
			return nil
		})
	}
	_ = g.Wait()

	successCount := 0
	for _, r := range results {
		if r.Success {
			successCount++
		}
	}

	result := &domain.HotkeyExecutionResult{
		SessionID:    sessionID,
		PresetID:     preset.ID,
		PresetName:   preset.Name,
		Symbol:       preset.Symbol,
		Side:         side,
		Results:      results,
		SuccessCount: successCount,
		TotalCount:   len(accounts),
		StartedAt:    started,
	}

	d.log.Info("dispatch complete",
		"session", sessionID, "success", successCount, "total", len(accounts))
	return result
}

// submitOne performs a single account's submission, converting any error
// into a failed result. It never panics the dispatch.
func (d *Dispatcher) submitOne(ctx context.Context, sessionID string, acct domain.BrokerAccount, spec *domain.OrderSpec) domain.AccountOrderResult {
	port := d.registry.PortFor(acct)

	order, err := port.SubmitOrder(ctx, spec)
	completed := d.nowFn()
	if err != nil {
		d.log.Warn("order submission failed",
			"session", sessionID, "account", acct.ID, "error", err)
		return domain.AccountOrderResult{
			AccountID:     acct.ID,
			AccountName:   acct.AccountName,
			Success:       false,
			ClientOrderID: spec.ClientOrderID,
			Error:         ClassifyBrokerError(err.Error()),
			CompletedAt:   completed,
		}
	}

	d.log.Info("order accepted",
		"session", sessionID, "account", acct.ID, "order", order.ID)
	return domain.AccountOrderResult{
		AccountID:     acct.ID,
		AccountName:   acct.AccountName,
		Success:       true,
		BrokerOrderID: order.ID,
		ClientOrderID: spec.ClientOrderID,
		CompletedAt:   completed,
	}
}

// parsePrice maps a preset price string to a decimal. Blank means "not set";
// an unparseable value is treated the same but logged, since save-time
// validation should have rejected it.
func (d *Dispatcher) parsePrice(sessionID, presetID, field, raw string) *decimal.Decimal {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		d.log.Warn("preset price unparseable, treating as unset",
			"session", sessionID, "preset", presetID, "field", field, "value", raw)
		return nil
	}
	return &v
}

// newSessionID returns a short random token identifying one dispatch
// fan-out. It is used for log correlation only, never as a dedup key.
func newSessionID() string {
	return uuid.NewString()[:8]
}

// clientOrderID builds the per-account idempotency token submitted to the
// broker. The account index keeps ids distinct across accounts even when
// every submission shares one millisecond.
func clientOrderID(sessionID, accountID string, side domain.Side, at time.Time, index int) string {
	return fmt.Sprintf("hk-%s-%s-%s-%d-%d", sessionID, accountID, side, at.UnixMilli(), index)
}
