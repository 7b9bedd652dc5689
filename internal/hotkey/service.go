package hotkey

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"hotdeck/internal/domain"
)

// Rejection reasons surfaced by ExecuteHotkey. Both guarantee that no
// network call was made and no execution result exists. The source mobile
// app dropped these silently; surfacing them lets callers tell the user why
// nothing happened.
var (
	// ErrCoolingDown means the (preset, side) pair fired within its
	// cooldown window.
	ErrCoolingDown = errors.New("hotkey is cooling down")

	// ErrNoEligibleAccounts means eligibility filtering selected zero
	// accounts for the preset.
	ErrNoEligibleAccounts = errors.New("no eligible accounts for preset")
)

// Service is the dispatch entry point exposed to the UI layer: debounce
// guard, then eligibility filter, then concurrent dispatch.
type Service struct {
	guard      *Guard
	dispatcher *Dispatcher
	cooldown   time.Duration
	log        *slog.Logger
}

// NewService creates a Service around the dispatcher. A non-positive
// cooldown falls back to DefaultCooldown.
func NewService(dispatcher *Dispatcher, cooldown time.Duration, log *slog.Logger) *Service {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		guard:      NewGuard(),
		dispatcher: dispatcher,
		cooldown:   cooldown,
		log:        log,
	}
}

// ExecuteHotkey runs one hotkey trigger end to end. It returns
// ErrCoolingDown or ErrNoEligibleAccounts without any network activity when
// the trigger is rejected; otherwise it blocks until every eligible account
// has a terminal result and returns the aggregate.
func (s *Service) ExecuteHotkey(ctx context.Context, preset domain.HotkeyPreset, side domain.Side, allAccounts []domain.BrokerAccount, now time.Time) (*domain.HotkeyExecutionResult, error) {
	if !preset.Enabled {
		return nil, fmt.Errorf("preset %q is disabled", preset.Name)
	}

	// Guard first: a rejected attempt must not touch the network and must
	// not re-arm the cooldown window.
	if !s.guard.TryAcquire(preset.ID, side, now, s.cooldown) {
		s.log.Debug("hotkey rejected by cooldown", "preset", preset.ID, "side", side)
		return nil, ErrCoolingDown
	}

	eligible := EligibleAccounts(preset, allAccounts)
	if len(eligible) == 0 {
		s.log.Debug("hotkey has no eligible accounts", "preset", preset.ID)
		return nil, ErrNoEligibleAccounts
	}

	return s.dispatcher.Dispatch(ctx, preset, side, eligible), nil
}

// Summary renders the one-line aggregate outcome for the UI. A complete
// failure carries the session id for correlation with the logs.
func Summary(r *domain.HotkeyExecutionResult) string {
	switch {
	case r.IsFullSuccess():
		return fmt.Sprintf("All orders successful (%d/%d)", r.SuccessCount, r.TotalCount)
	case r.HasPartialSuccess():
		return fmt.Sprintf("Partial success (%d/%d)", r.SuccessCount, r.TotalCount)
	default:
		return fmt.Sprintf("All orders failed (0/%d) [session %s]", r.TotalCount, r.SessionID)
	}
}
