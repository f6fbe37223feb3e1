package checkout

import "strings"

// NormalizeContact canonicalizes a phone number for the payment gateway
// prefill. Formatting is stripped to bare digits first, so "98765 43210"
// and "987-654-3210" normalize like "9876543210". A 10-digit number gets
// the country code; a 12-digit number already carrying it keeps its digits
// and gains the plus; any other over-long digit string just gains the plus.
func NormalizeContact(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	clean := b.String()
	switch {
	case len(clean) == 10:
		return "+91" + clean
	case len(clean) == 12 && strings.HasPrefix(clean, "91"):
		return "+" + clean
	case len(clean) > 10:
		return "+" + clean
	default:
		return clean
	}
}
