package services

import (
	"strings"
	"testing"
)

func TestValidatePhone_IndiaAcceptsTenDigits(t *testing.T) {
	v := ValidatePhone("+91", "9876543210")
	if !v.Valid {
		t.Fatalf("expected valid, got error %q", v.Error)
	}
}

func TestValidatePhone_StripsSpacesAndDashes(t *testing.T) {
	v := ValidatePhone("+91", " 98765-432 10 ")
	if !v.Valid {
		t.Fatalf("expected valid after stripping separators, got error %q", v.Error)
	}
}

func TestValidatePhone_ReportsRemainingDigits(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"98765432", "2 more digits needed"},
		{"987654321", "1 more digit needed"},
	}
	for _, tc := range cases {
		v := ValidatePhone("+91", tc.input)
		if v.Valid {
			t.Fatalf("input %q: expected invalid", tc.input)
		}
		if v.Error != tc.want {
			t.Fatalf("input %q: want %q got %q", tc.input, tc.want, v.Error)
		}
	}
}

func TestValidatePhone_IndiaRejectsBadFirstDigit(t *testing.T) {
	v := ValidatePhone("+91", "5876543210")
	if v.Valid {
		t.Fatalf("expected invalid for leading 5")
	}
	if !strings.Contains(v.Error, "start with 6, 7, 8 or 9") {
		t.Fatalf("unexpected error %q", v.Error)
	}
}

func TestValidatePhone_IndiaRejectsElevenDigits(t *testing.T) {
	v := ValidatePhone("+91", "98765432100")
	if v.Valid {
		t.Fatalf("expected invalid for 11 digits")
	}
	if !strings.Contains(v.Error, "too long") {
		t.Fatalf("unexpected error %q", v.Error)
	}
}

func TestValidatePhone_RejectsNonDigits(t *testing.T) {
	v := ValidatePhone("+91", "98765abc10")
	if v.Valid || v.Error != "Phone number can contain digits only" {
		t.Fatalf("got valid=%v error=%q", v.Valid, v.Error)
	}
}

func TestValidatePhone_UnknownCountryUsesDefaultRule(t *testing.T) {
	if v := ValidatePhone("+999", "1234567"); !v.Valid {
		t.Fatalf("7 digits should satisfy the default rule, got %q", v.Error)
	}
	if v := ValidatePhone("+999", "123456"); v.Valid {
		t.Fatalf("6 digits should fail the default rule")
	}
}

func TestValidateLoanAmount(t *testing.T) {
	cases := []struct {
		name  string
		input string
		valid bool
		want  float64
	}{
		{"plain", "100000", true, 100000},
		{"with commas", "1,00,000", true, 100000},
		{"decimal", "99999.50", true, 99999.50},
		{"empty", "   ", false, 0},
		{"words", "one lakh", false, 0},
		{"zero", "0", false, 0},
		{"negative", "-5000", false, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			amount, v := ValidateLoanAmount(tc.input)
			if v.Valid != tc.valid {
				t.Fatalf("valid: want=%v got=%v (error %q)", tc.valid, v.Valid, v.Error)
			}
			if tc.valid && amount != tc.want {
				t.Fatalf("amount: want=%v got=%v", tc.want, amount)
			}
		})
	}
}

func TestValidateOTP(t *testing.T) {
	if v := ValidateOTP("123456"); !v.Valid {
		t.Fatalf("expected 6 characters to pass, got %q", v.Error)
	}
	if v := ValidateOTP(" 123456 "); !v.Valid {
		t.Fatalf("expected trimmed code to pass, got %q", v.Error)
	}
	for _, bad := range []string{"", "12345", "1234567"} {
		if v := ValidateOTP(bad); v.Valid {
			t.Fatalf("expected %q to fail", bad)
		}
	}
}
