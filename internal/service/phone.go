package service

import (
	"fmt"
	"strings"
)

const (
	minSubscriberDigits = 9
	// E.164 caps a number at 15 digits including the country code.
	maxPhoneDigits = 15
)

// NormalizePhoneNumber turns local and formatted numbers into the international digits-only form,
// e.g. "0712 345-678" becomes "254712345678". Normalising an already normalised number is a no-op.
func NormalizePhoneNumber(raw, countryCode string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '.', '(', ')', '\t':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))
	cleaned = strings.TrimPrefix(cleaned, "+")

	if cleaned == "" || !isDigits(cleaned) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhoneNumber, raw)
	}

	switch {
	case strings.HasPrefix(cleaned, countryCode):
		// A trunk zero typed after the country code is dropped.
		if rest := cleaned[len(countryCode):]; strings.HasPrefix(rest, "0") {
			cleaned = countryCode + rest[1:]
		}
	case strings.HasPrefix(cleaned, "0"):
		cleaned = countryCode + cleaned[1:]
	default:
		cleaned = countryCode + cleaned
	}

	subscriber := len(cleaned) - len(countryCode)
	if subscriber < minSubscriberDigits || len(cleaned) > maxPhoneDigits {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhoneNumber, raw)
	}

	return cleaned, nil
}

// FormatPhoneNumber renders a normalised number for display, e.g. "254712345678" becomes
// "+254 712 345678". Numbers outside countryCode are returned as they are.
func FormatPhoneNumber(msisdn, countryCode string) string {
	if countryCode == "" || !strings.HasPrefix(msisdn, countryCode) || len(msisdn) <= len(countryCode)+3 {
		return msisdn
	}

	subscriber := msisdn[len(countryCode):]
	return "+" + countryCode + " " + subscriber[:3] + " " + subscriber[3:]
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
