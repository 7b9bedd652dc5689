package hotkey

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"hotdeck/internal/domain"
)

func alpacaAccount(id string, enabled bool) domain.BrokerAccount {
	return domain.BrokerAccount{
		ID:          id,
		BrokerType:  domain.BrokerAlpaca,
		AccountName: "acct-" + id,
		Enabled:     enabled,
	}
}

func TestEligibleAccountsFilters(t *testing.T) {
	accounts := []domain.BrokerAccount{
		alpacaAccount("a1", true),
		alpacaAccount("a2", false), // disabled
		{ID: "a3", BrokerType: "IBKR", Enabled: true}, // wrong broker
		alpacaAccount("a4", true),
	}

	got := EligibleAccounts(domain.HotkeyPreset{}, accounts)

	assert.Len(t, got, 2)
	assert.Equal(t, "a1", got[0].ID)
	assert.Equal(t, "a4", got[1].ID)
}

func TestEligibleAccountsSelection(t *testing.T) {
	accounts := []domain.BrokerAccount{
		alpacaAccount("a1", true),
		alpacaAccount("a2", true),
		alpacaAccount("a3", true),
	}
	preset := domain.HotkeyPreset{SelectedAccountIDs: []string{"a2"}}

	got := EligibleAccounts(preset, accounts)

	assert.Len(t, got, 1)
	assert.Equal(t, "a2", got[0].ID)
}

func TestEligibleAccountsSelectionOfDisabledAccount(t *testing.T) {
	accounts := []domain.BrokerAccount{
		alpacaAccount("a1", false),
	}
	preset := domain.HotkeyPreset{SelectedAccountIDs: []string{"a1"}}

	// Selection does not override the enabled filter.
	assert.Empty(t, EligibleAccounts(preset, accounts))
}

func TestEligibleAccountsEmptyInput(t *testing.T) {
	got := EligibleAccounts(domain.HotkeyPreset{}, nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestEligibleAccountsPure(t *testing.T) {
	accounts := []domain.BrokerAccount{
		alpacaAccount("a1", true),
		alpacaAccount("a2", false),
	}
	preset := domain.HotkeyPreset{SelectedAccountIDs: []string{"a1", "a2"}}

	first := EligibleAccounts(preset, accounts)
	second := EligibleAccounts(preset, accounts)

	assert.Equal(t, first, second, "identical inputs must produce identical results")
}
