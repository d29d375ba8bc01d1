package sms

import "strings"

// NormalizePhone converts a locally formatted phone number into E.164.
// Korean mobile numbers ("010...") map to +82 with the leading zero dropped;
// numbers already carrying the 82 country code just gain a plus.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch {
	case strings.HasPrefix(digits, "010"):
		return "+82" + digits[1:]
	case strings.HasPrefix(digits, "82"):
		return "+" + digits
	default:
		return "+" + digits
	}
}
