package policy

import (
	"unicode"

	"github.com/iamcore/iamcore/pkg/domain"
)

// ComplexitySettings are the typed fields of a KindPasswordComplexity
// policy's Settings map.
type ComplexitySettings struct {
	MinLength      int
	RequiresUppercase bool
	RequiresLowercase bool
	RequiresNumber    bool
	RequiresSymbol    bool
}

// CheckPasswordComplexity is a pure helper (§4.7): no I/O, just length and
// character-class checks against a policy's settings.
func CheckPasswordComplexity(password string, s ComplexitySettings) error {
	if len(password) < s.MinLength {
		return domain.NewInvalidArgument("POLICY-COMPLEXITY-001", "password is shorter than the minimum required length")
	}
	var hasUpper, hasLower, hasNumber, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsNumber(r):
			hasNumber = true
		case unicode.IsPunct(r), unicode.IsSymbol(r):
			hasSymbol = true
		}
	}
	if s.RequiresUppercase && !hasUpper {
		return domain.NewInvalidArgument("POLICY-COMPLEXITY-002", "password must contain an uppercase letter")
	}
	if s.RequiresLowercase && !hasLower {
		return domain.NewInvalidArgument("POLICY-COMPLEXITY-003", "password must contain a lowercase letter")
	}
	if s.RequiresNumber && !hasNumber {
		return domain.NewInvalidArgument("POLICY-COMPLEXITY-004", "password must contain a number")
	}
	if s.RequiresSymbol && !hasSymbol {
		return domain.NewInvalidArgument("POLICY-COMPLEXITY-005", "password must contain a symbol")
	}
	return nil
}

// EvaluateLockout is a pure helper (§4.7): true means the account should be
// locked because failed attempts have reached the policy's threshold.
func EvaluateLockout(failedAttempts, maxAttempts int) bool {
	return failedAttempts >= maxAttempts
}
