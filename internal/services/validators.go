package services

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/deepedumate/loan-aggregator-sub000/internal/domain"
)

// Input validators for the flow. All of them are pure: they run on every
// keystroke for live feedback and again at submission as the authoritative
// gate, and they never panic.

// ValidatePhone checks a phone number against the rules for the selected
// country code. Spaces and dashes are stripped before checking.
func ValidatePhone(countryCode, input string) domain.Validation {
	digits := strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, strings.TrimSpace(input))

	if digits == "" {
		return domain.Validation{Valid: false, Error: "Phone number is required"}
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return domain.Validation{Valid: false, Error: "Phone number can contain digits only"}
		}
	}

	if rule, ok := phoneRuleFor(countryCode); ok {
		return validateAgainstRule(digits, rule)
	}

	min, max := reference.Default.MinDigits, reference.Default.MaxDigits
	if len(digits) < min {
		return domain.Validation{Valid: false, Error: remainingDigitsMessage(min - len(digits))}
	}
	if len(digits) > max {
		return domain.Validation{Valid: false, Error: fmt.Sprintf("Phone number is too long (maximum %d digits)", max)}
	}
	return domain.Validation{Valid: true}
}

func validateAgainstRule(digits string, rule countryRule) domain.Validation {
	want := rule.ExactDigits
	if want <= 0 {
		want = rule.MaxDigits
	}
	if len(digits) < want {
		return domain.Validation{Valid: false, Error: remainingDigitsMessage(want - len(digits))}
	}
	if len(digits) > want {
		return domain.Validation{Valid: false, Error: fmt.Sprintf("Phone number is too long (%s numbers have %d digits)", rule.Name, want)}
	}
	if rule.AllowedFirstDigits != "" && !strings.ContainsRune(rule.AllowedFirstDigits, rune(digits[0])) {
		return domain.Validation{Valid: false, Error: fmt.Sprintf("%s mobile numbers must start with %s", rule.Name, spellDigits(rule.AllowedFirstDigits))}
	}
	return domain.Validation{Valid: true}
}

func remainingDigitsMessage(missing int) string {
	if missing == 1 {
		return "1 more digit needed"
	}
	return fmt.Sprintf("%d more digits needed", missing)
}

// spellDigits renders "6789" as "6, 7, 8 or 9".
func spellDigits(digits string) string {
	if len(digits) == 0 {
		return ""
	}
	if len(digits) == 1 {
		return digits
	}
	parts := strings.Split(digits, "")
	return strings.Join(parts[:len(parts)-1], ", ") + " or " + parts[len(parts)-1]
}

// ValidateLoanAmount parses a loan amount. The parsed value is only
// meaningful when the validation passes.
func ValidateLoanAmount(input string) (float64, domain.Validation) {
	s := strings.TrimSpace(strings.ReplaceAll(input, ",", ""))
	if s == "" {
		return 0, domain.Validation{Valid: false, Error: "Enter a loan amount"}
	}
	amount, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, domain.Validation{Valid: false, Error: "Loan amount must be a number"}
	}
	if amount <= 0 {
		return 0, domain.Validation{Valid: false, Error: "Loan amount must be greater than zero"}
	}
	return amount, domain.Validation{Valid: true}
}

// ValidateOTP gates verification on a complete 6-character code.
func ValidateOTP(code string) domain.Validation {
	code = strings.TrimSpace(code)
	if len(code) != 6 {
		return domain.Validation{Valid: false, Error: "Enter the 6-digit code"}
	}
	return domain.Validation{Valid: true}
}
