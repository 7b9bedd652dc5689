package hotkey

import "strings"

// errorRule maps a broker error substring to a user-facing message. Rules
// are evaluated in order; the first match wins.
type errorRule struct {
	substring string
	message   string
}

// Known Alpaca rejection patterns. Extend by appending rules; keep the more
// specific substrings above the generic ones.
var brokerErrorRules = []errorRule{
	{"wash trade", "Rejected as a potential wash trade. Cancel the opposite-side open order for this symbol and try again."},
	{"insufficient buying power", "Insufficient buying power for this order."},
	{"buying power", "Insufficient buying power for this order."},
	{"insufficient qty", "Insufficient position quantity to sell."},
	{"cannot open a short sell", "Short selling is not permitted on this account."},
	{"403", "Permission denied by the broker (403). Check the account's API key permissions."},
	{"forbidden", "Permission denied by the broker (403). Check the account's API key permissions."},
	{"401", "Broker authentication failed. Check the account's API key and secret."},
	{"unauthorized", "Broker authentication failed. Check the account's API key and secret."},
	{"market is closed", "The market is closed for this order type."},
	{"too many requests", "The broker is rate limiting this account. Wait a moment and try again."},
	{"429", "The broker is rate limiting this account. Wait a moment and try again."},
}

// rawErrorLimit bounds how much of an unrecognised broker error is echoed to
// the user.
const rawErrorLimit = 100

// ClassifyBrokerError translates a raw broker/network error string into a
// user-facing message. Unmatched errors fall back to the truncated raw text
// behind a generic marker; the function never fails.
func ClassifyBrokerError(raw string) string {
	lower := strings.ToLower(raw)
	for _, rule := range brokerErrorRules {
		if strings.Contains(lower, rule.substring) {
			return rule.message
		}
	}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "Order failed: unknown broker error."
	}
	if len(trimmed) > rawErrorLimit {
		trimmed = trimmed[:rawErrorLimit] + "..."
	}
	return "Order failed: " + trimmed
}
