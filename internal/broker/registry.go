package broker

import (
	"strings"
	"sync"

	"hotdeck/internal/domain"
)

// Factory builds a TradingPort for one account's credentials. The default
// factory builds AlpacaPorts; tests inject simulators.
type Factory func(account domain.BrokerAccount) TradingPort

// Registry caches one TradingPort binding per account id, building them
// lazily and rebuilding only when the account's credentials or base URL
// change. It is shared across concurrent dispatches and dashboard reads:
// access is read-mostly, writes happen only on first use or credential
// change. There is no global instance; whoever composes the dispatcher owns
// the registry.
type Registry struct {
	mu       sync.RWMutex
	factory  Factory
	bindings map[string]*binding
}

type binding struct {
	port        TradingPort
	fingerprint string
}

// NewRegistry creates a Registry using the given factory; a nil factory
// defaults to Alpaca ports.
func NewRegistry(factory Factory) *Registry {
	if factory == nil {
		factory = func(a domain.BrokerAccount) TradingPort {
			return NewAlpacaPort(a.APIKey, a.APISecret, a.BaseURL)
		}
	}
	return &Registry{
		factory:  factory,
		bindings: make(map[string]*binding),
	}
}

// PortFor returns the cached binding for the account, building or rebuilding
// it if the account is new or its credentials changed.
func (r *Registry) PortFor(account domain.BrokerAccount) TradingPort {
	fp := fingerprint(account)

	r.mu.RLock()
	b, ok := r.bindings[account.ID]
	r.mu.RUnlock()
	if ok && b.fingerprint == fp {
		return b.port
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Re-check: another caller may have built it while we waited.
	if b, ok := r.bindings[account.ID]; ok && b.fingerprint == fp {
		return b.port
	}
	port := r.factory(account)
	r.bindings[account.ID] = &binding{port: port, fingerprint: fp}
	return port
}

// Forget drops the cached binding for an account id, if any. Called when an
// account is deleted from settings.
func (r *Registry) Forget(accountID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.bindings, accountID)
}

// Len returns the number of cached bindings.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bindings)
}

func fingerprint(a domain.BrokerAccount) string {
	return strings.Join([]string{a.APIKey, a.APISecret, a.BaseURL}, "\x1f")
}
