// Package financing combines the member bond program and the commercial loan
// into a single financing plan.
package financing

import (
	"fmt"

	"github.com/daleview/pool-finance/pkg/constants"
	"github.com/daleview/pool-finance/pkg/loans"
	"github.com/daleview/pool-finance/pkg/mathutil"
)

// Summary is the combined view of both instruments.
type Summary struct {
	CombinedAnnualDebtService float64 `json:"combinedAnnualDebtService"`
	CombinedBorrowingCost     float64 `json:"combinedBorrowingCost"`
}

// Plan is the bond instrument and the commercial instrument together with
// their schedules.
type Plan struct {
	Bond               loans.LoanTerms       `json:"bond"`
	Commercial         loans.LoanTerms       `json:"commercial"`
	BondSchedule       loans.PaymentSchedule `json:"bondSchedule"`
	CommercialSchedule loans.PaymentSchedule `json:"commercialSchedule"`
	Summary
}

// Aggregate sums the annual debt service of both instruments and computes the
// borrowing cost as total payments minus principal borrowed. The instruments
// may have different terms; the cost is not normalised to a common horizon.
func Aggregate(bondSchedule loans.PaymentSchedule, bondPrincipal float64, loanSchedule loans.PaymentSchedule, loanPrincipal float64) Summary {
	return Summary{
		CombinedAnnualDebtService: bondSchedule.AnnualPayment + loanSchedule.AnnualPayment,
		CombinedBorrowingCost: (bondSchedule.TotalCost + loanSchedule.TotalCost) -
			(bondPrincipal + loanPrincipal),
	}
}

// NewPlan amortizes both instruments and aggregates them. An instrument with a
// principal of zero or less is unused and contributes nothing, including to
// the principal subtracted from the borrowing cost.
func NewPlan(bond, commercial loans.LoanTerms) (Plan, error) {
	bondSchedule, err := bond.Schedule()
	if err != nil {
		return Plan{}, fmt.Errorf("bond instrument: %w", err)
	}
	commercialSchedule, err := commercial.Schedule()
	if err != nil {
		return Plan{}, fmt.Errorf("commercial instrument: %w", err)
	}

	return Plan{
		Bond:               bond,
		Commercial:         commercial,
		BondSchedule:       bondSchedule,
		CommercialSchedule: commercialSchedule,
		Summary: Aggregate(
			bondSchedule, mathutil.Max(bond.Principal, 0),
			commercialSchedule, mathutil.Max(commercial.Principal, 0),
		),
	}, nil
}

// MonthlyDebtService is the combined annual debt service spread over twelve months.
func (p Plan) MonthlyDebtService() float64 {
	return p.CombinedAnnualDebtService / constants.MonthsPerYear
}
