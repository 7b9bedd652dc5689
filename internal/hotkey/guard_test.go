package hotkey

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"hotdeck/internal/domain"
)

func TestGuardCooldownBoundary(t *testing.T) {
	g := NewGuard()
	base := time.Now()
	cooldown := 2 * time.Second

	assert.True(t, g.TryAcquire("p1", domain.SideBuy, base, cooldown))
	assert.False(t, g.TryAcquire("p1", domain.SideBuy, base.Add(500*time.Millisecond), cooldown))
	assert.False(t, g.TryAcquire("p1", domain.SideBuy, base.Add(cooldown-time.Millisecond), cooldown))
	assert.True(t, g.TryAcquire("p1", domain.SideBuy, base.Add(cooldown), cooldown))
}

func TestGuardRejectionLeavesStateUntouched(t *testing.T) {
	g := NewGuard()
	base := time.Now()
	cooldown := 2 * time.Second

	assert.True(t, g.TryAcquire("p1", domain.SideBuy, base, cooldown))
	// Rejected attempts must not slide the window forward.
	assert.False(t, g.TryAcquire("p1", domain.SideBuy, base.Add(1900*time.Millisecond), cooldown))
	assert.True(t, g.TryAcquire("p1", domain.SideBuy, base.Add(2100*time.Millisecond), cooldown))
}

func TestGuardKeysAreIndependent(t *testing.T) {
	g := NewGuard()
	base := time.Now()
	cooldown := 2 * time.Second

	assert.True(t, g.TryAcquire("p1", domain.SideBuy, base, cooldown))
	// Other side and other preset are unaffected.
	assert.True(t, g.TryAcquire("p1", domain.SideSell, base, cooldown))
	assert.True(t, g.TryAcquire("p2", domain.SideBuy, base, cooldown))
}

func TestGuardConcurrentSingleWinner(t *testing.T) {
	g := NewGuard()
	now := time.Now()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.TryAcquire("p1", domain.SideBuy, now, 2*time.Second) {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, allowed, "exactly one concurrent caller may pass the guard")
}
