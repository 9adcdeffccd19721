package services

import (
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/deepedumate/loan-aggregator-sub000/internal/domain"
)

// CurrencyMode selects how a cost is presented when a display currency other
// than the program's own currency is active.
type CurrencyMode string

const (
	ModeOriginal  CurrencyMode = "original"
	ModeConverted CurrencyMode = "converted"
	ModeBoth      CurrencyMode = "both"
)

func (m CurrencyMode) Valid() bool {
	switch m {
	case ModeOriginal, ModeConverted, ModeBoth:
		return true
	}
	return false
}

var groupedPrinter = message.NewPrinter(language.English)

func normalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// FormatCost renders an amount held in originCurrency for display. When the
// display currency equals the origin, or no rate is known for it, the origin
// rendering wins regardless of mode. Conversion rounds to the nearest whole
// unit; stored values are never mutated.
func FormatCost(amount float64, originCurrency, displayCurrency string, table *domain.RateTable, mode CurrencyMode) string {
	origin := strings.ToUpper(strings.TrimSpace(originCurrency))
	display := strings.ToUpper(strings.TrimSpace(displayCurrency))

	originText := formatAmount(amount, origin)
	if display == "" || display == origin {
		return originText
	}
	if table == nil || table.Base != origin {
		return originText
	}
	rate, ok := table.Rates[display]
	if !ok || rate <= 0 {
		return originText
	}

	convertedText := formatAmount(amount*rate, display)
	switch mode {
	case ModeConverted:
		return convertedText
	case ModeBoth:
		return originText + " (≈ " + convertedText + ")"
	default:
		return originText
	}
}

func formatAmount(amount float64, currency string) string {
	whole := int64(math.Round(amount))
	return currencySymbol(currency) + groupedPrinter.Sprintf("%d", whole)
}
