package services

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed reference.yaml
var referenceYAML []byte

type currencyInfo struct {
	Symbol string `yaml:"symbol"`
}

type countryRule struct {
	DialCode           string `yaml:"dial_code"`
	Name               string `yaml:"name"`
	ExactDigits        int    `yaml:"exact_digits"`
	MinDigits          int    `yaml:"min_digits"`
	MaxDigits          int    `yaml:"max_digits"`
	AllowedFirstDigits string `yaml:"allowed_first_digits"`
}

type defaultRule struct {
	MinDigits int `yaml:"min_digits"`
	MaxDigits int `yaml:"max_digits"`
}

type referenceData struct {
	Currencies map[string]currencyInfo `yaml:"currencies"`
	Countries  []countryRule           `yaml:"countries"`
	Default    defaultRule             `yaml:"default_rule"`
}

var reference = mustLoadReference()

func mustLoadReference() referenceData {
	var data referenceData
	if err := yaml.Unmarshal(referenceYAML, &data); err != nil {
		panic(fmt.Sprintf("parse embedded reference.yaml: %v", err))
	}
	if data.Default.MinDigits <= 0 || data.Default.MaxDigits < data.Default.MinDigits {
		panic("reference.yaml: invalid default phone rule")
	}
	return data
}

// currencySymbol resolves a currency code to its display symbol, falling back
// to the raw code followed by a space.
func currencySymbol(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if info, ok := reference.Currencies[code]; ok && info.Symbol != "" {
		return info.Symbol
	}
	return code + " "
}

// phoneRuleFor returns the dialing rule for a country code. The second return
// is false when the country has no specific rule and the default applies.
func phoneRuleFor(dialCode string) (countryRule, bool) {
	dialCode = strings.TrimSpace(dialCode)
	for _, rule := range reference.Countries {
		if rule.DialCode == dialCode {
			return rule, true
		}
	}
	return countryRule{}, false
}
