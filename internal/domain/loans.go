package domain

// LoanOffer is one illustrative eligible-loan result surfaced at the end of
// the flow. These are marketing figures, not originated terms.
type LoanOffer struct {
	Lender          string  `json:"lender"`
	LoanType        string  `json:"loan_type"`
	MinAmount       float64 `json:"min_amount"`
	MaxAmount       float64 `json:"max_amount"`
	InterestRateMin float64 `json:"interest_rate_min"`
	InterestRateMax float64 `json:"interest_rate_max"`
	Currency        string  `json:"currency"`
	CollateralFree  bool    `json:"collateral_free"`
}

const (
	LoanTypeSecured   = "Secured Loan"
	LoanTypeUnsecured = "Unsecured Loan"
)
