package services

import (
	"strings"

	"github.com/deepedumate/loan-aggregator-sub000/internal/domain"
	"github.com/deepedumate/loan-aggregator-sub000/internal/platform/logger"
)

// LoanMatchService surfaces illustrative eligible-loan offers for the final
// step of the flow. The catalog is marketing data, not originated terms.
type LoanMatchService interface {
	Match(loanType string, amount float64) []domain.LoanOffer
}

type loanMatchService struct {
	log     *logger.Logger
	catalog []domain.LoanOffer
}

func NewLoanMatchService(log *logger.Logger) LoanMatchService {
	return &loanMatchService{
		log:     log.With("service", "LoanMatchService"),
		catalog: defaultLoanCatalog,
	}
}

func (s *loanMatchService) Match(loanType string, amount float64) []domain.LoanOffer {
	wantType := strings.TrimSpace(loanType)
	out := make([]domain.LoanOffer, 0, len(s.catalog))
	for _, offer := range s.catalog {
		if wantType != "" && !strings.EqualFold(offer.LoanType, wantType) {
			continue
		}
		if amount > 0 && (amount < offer.MinAmount || amount > offer.MaxAmount) {
			continue
		}
		out = append(out, offer)
	}
	s.log.Debug("matched loan offers", "loan_type", wantType, "amount", amount, "count", len(out))
	return out
}

var defaultLoanCatalog = []domain.LoanOffer{
	{Lender: "Meridian Credit", LoanType: domain.LoanTypeUnsecured, MinAmount: 5000, MaxAmount: 100000, InterestRateMin: 9.5, InterestRateMax: 12.5, Currency: "USD", CollateralFree: true},
	{Lender: "Horizon Education Finance", LoanType: domain.LoanTypeUnsecured, MinAmount: 10000, MaxAmount: 150000, InterestRateMin: 10.0, InterestRateMax: 13.75, Currency: "USD", CollateralFree: true},
	{Lender: "First Collegiate Bank", LoanType: domain.LoanTypeSecured, MinAmount: 20000, MaxAmount: 400000, InterestRateMin: 8.25, InterestRateMax: 10.5, Currency: "USD", CollateralFree: false},
	{Lender: "Unity Trust", LoanType: domain.LoanTypeSecured, MinAmount: 10000, MaxAmount: 250000, InterestRateMin: 8.75, InterestRateMax: 11.0, Currency: "USD", CollateralFree: false},
	{Lender: "Stellar Lending Co.", LoanType: domain.LoanTypeUnsecured, MinAmount: 2500, MaxAmount: 75000, InterestRateMin: 11.0, InterestRateMax: 14.25, Currency: "USD", CollateralFree: true},
}
