package settings

import (
	"fmt"
	"strconv"
	"strings"

	"hotdeck/internal/domain"
)

// ValidateAccount checks a broker account before it is persisted.
func ValidateAccount(a domain.BrokerAccount) error {
	if strings.TrimSpace(a.ID) == "" {
		return fmt.Errorf("account id is required")
	}
	if a.BrokerType != domain.BrokerAlpaca {
		return fmt.Errorf("unsupported broker type %q", a.BrokerType)
	}
	if strings.TrimSpace(a.APIKey) == "" || strings.TrimSpace(a.APISecret) == "" {
		return fmt.Errorf("account %q: API key and secret are required", a.ID)
	}
	return nil
}

// ValidatePreset checks a hotkey preset before it is persisted. Quantities
// are rejected here rather than silently defaulted at dispatch time.
func ValidatePreset(p domain.HotkeyPreset) error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("preset id is required")
	}
	if strings.TrimSpace(p.Symbol) == "" {
		return fmt.Errorf("preset %q: symbol is required", p.ID)
	}

	qty := strings.TrimSpace(p.Quantity)
	if qty == "" {
		return fmt.Errorf("preset %q: quantity is required", p.ID)
	}
	if n, err := strconv.Atoi(qty); err != nil || n < 1 {
		return fmt.Errorf("preset %q: quantity %q must be a positive integer", p.ID, p.Quantity)
	}

	switch p.OrderType {
	case domain.OrderTypeMarket:
	case domain.OrderTypeLimit:
		if err := requirePrice(p.LimitPrice, "limit_price", p.ID); err != nil {
			return err
		}
	case domain.OrderTypeStop:
		if err := requirePrice(p.StopPrice, "stop_price", p.ID); err != nil {
			return err
		}
	case domain.OrderTypeStopLimit:
		if err := requirePrice(p.LimitPrice, "limit_price", p.ID); err != nil {
			return err
		}
		if err := requirePrice(p.StopPrice, "stop_price", p.ID); err != nil {
			return err
		}
	default:
		return fmt.Errorf("preset %q: unknown order type %q", p.ID, p.OrderType)
	}

	return nil
}

func requirePrice(raw, field, presetID string) error {
	s := strings.TrimSpace(raw)
	if s == "" {
		return fmt.Errorf("preset %q: %s is required for this order type", presetID, field)
	}
	if v, err := strconv.ParseFloat(s, 64); err != nil || v <= 0 {
		return fmt.Errorf("preset %q: %s %q must be a positive number", presetID, field, raw)
	}
	return nil
}
