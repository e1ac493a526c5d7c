package numbers

import "strings"

// NormalizeE164 converts user or provider input to E.164.
//
//	"+1 (555) 123-4567" -> "+15551234567"
//	"5551234567"        -> "+15551234567"  (10 digits are North American)
//	"15551234567"       -> "+15551234567"
//	"442071234567"      -> "+442071234567"
//	""                  -> ""
func NormalizeE164(n string) string {
	raw := strings.TrimSpace(n)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "+") {
		return strings.Map(func(r rune) rune {
			switch r {
			case ' ', '\t', '(', ')', '-':
				return -1
			}
			return r
		}, raw)
	}

	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
	switch {
	case len(digits) == 10:
		return "+1" + digits
	case len(digits) == 11 && digits[0] == '1':
		return "+" + digits
	default:
		return "+" + digits
	}
}

// looksDialable rejects normalizations that carry no digits at all.
func looksDialable(e164 string) bool {
	if len(e164) < 2 || e164[0] != '+' {
		return false
	}
	for _, r := range e164[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
