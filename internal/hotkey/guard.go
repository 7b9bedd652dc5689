package hotkey

import (
	"sync"
	"time"

	"hotdeck/internal/domain"
)

// DefaultCooldown is the spacing enforced between two fires of the same
// (preset, side) pair.
const DefaultCooldown = 2000 * time.Millisecond

type guardKey struct {
	presetID string
	side     domain.Side
}

// Guard debounces hotkey triggers per (preset, side) pair. The UI trigger
// path may fire rapidly (double-tap, repeated key events); the guard makes
// sure overlapping callers cannot both observe "allowed" for the same key.
// State grows only with the number of distinct (preset, side) pairs used.
type Guard struct {
	mu       sync.Mutex
	lastFire map[guardKey]time.Time
}

// NewGuard creates an empty Guard.
func NewGuard() *Guard {
	return &Guard{lastFire: make(map[guardKey]time.Time)}
}

// TryAcquire reports whether a trigger for (presetID, side) at time now is
// allowed under the cooldown. An allowed trigger records now as the new
// last-fire time; a rejected one leaves the state untouched, so the window
// is measured from the last accepted fire.
func (g *Guard) TryAcquire(presetID string, side domain.Side, now time.Time, cooldown time.Duration) bool {
	key := guardKey{presetID: presetID, side: side}

	g.mu.Lock()
	defer g.mu.Unlock()

	if last, ok := g.lastFire[key]; ok && now.Sub(last) < cooldown {
		return false
	}
	g.lastFire[key] = now
	return true
}
