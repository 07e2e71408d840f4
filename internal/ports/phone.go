package ports

import (
	"fmt"
	"regexp"
	"strings"
)

// e164 matches a normalized E.164 phone number: '+' followed by 8-15 digits,
// first digit 1-9.
var e164 = regexp.MustCompile(`^\+[1-9]\d{7,14}$`)

// defaultCountryCode maps the handful of default regions this deployment
// supports to their calling code. No phone-parsing library appears in the
// corpus this system was learned from, and the capability is explicitly
// named as an external, pluggable collaborator rather than core logic — so
// the default adapter is a minimal stdlib normalizer, not a full libphonenumber
// port. Deployments that need broader region coverage plug in their own
// PhoneNormalizer.
var defaultCountryCode = map[string]string{
	"US": "1",
	"CA": "1",
	"GB": "44",
	"DE": "49",
	"FR": "33",
}

// BasicPhoneNormalizer is the default PhoneNormalizer: it strips formatting
// punctuation, applies defaultRegion's calling code when the input has no
// leading '+', and validates the result against E.164.
type BasicPhoneNormalizer struct{}

func (BasicPhoneNormalizer) Normalize(raw, defaultRegion string) (string, error) {
	cleaned := stripPhoneFormatting(raw)
	if cleaned == "" {
		return "", fmt.Errorf("phone number is empty")
	}

	if !strings.HasPrefix(cleaned, "+") {
		code, ok := defaultCountryCode[strings.ToUpper(defaultRegion)]
		if !ok {
			return "", fmt.Errorf("unknown default region %q for number without country code", defaultRegion)
		}
		cleaned = "+" + code + strings.TrimPrefix(cleaned, "0")
	}

	if !e164.MatchString(cleaned) {
		return "", fmt.Errorf("%q does not normalize to a valid E.164 number", raw)
	}
	return cleaned, nil
}

func stripPhoneFormatting(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r == '+' && b.Len() == 0:
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}
	return b.String()
}
