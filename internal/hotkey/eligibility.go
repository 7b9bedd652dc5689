// Package hotkey implements the multi-account hotkey order dispatch core:
// account eligibility filtering, debounce guarding, concurrent per-account
// submission, and result aggregation.
package hotkey

import "hotdeck/internal/domain"

// EligibleAccounts returns the subset of accounts a preset may execute
// against: Alpaca accounts that are enabled and, when the preset restricts
// itself to selected account ids, appear in that selection. The result is a
// new slice in input order; an empty result means the trigger is a no-op and
// the caller must not contact any broker.
func EligibleAccounts(preset domain.HotkeyPreset, accounts []domain.BrokerAccount) []domain.BrokerAccount {
	eligible := make([]domain.BrokerAccount, 0, len(accounts))
	for _, a := range accounts {
		if a.BrokerType != domain.BrokerAlpaca {
			continue
		}
		if !a.Enabled {
			continue
		}
		if !preset.RestrictedTo(a.ID) {
			continue
		}
		eligible = append(eligible, a)
	}
	return eligible
}
