// Package loans provides fixed-rate amortization for the financing instruments
// of a renovation plan.
package loans

import (
	"math"

	"github.com/daleview/pool-finance/pkg/constants"
	"github.com/daleview/pool-finance/pkg/validation"
)

// LoanTerms describes a single financing instrument.
type LoanTerms struct {
	Principal         float64 `json:"principal" yaml:"principal"`
	AnnualRatePercent float64 `json:"annualRatePercent" yaml:"annualRatePercent"`
	TermYears         int     `json:"termYears" yaml:"termYears"`
}

// PaymentSchedule holds the fixed payments of an amortized instrument.
//
// TotalCost is AnnualPayment × TermYears, a simple total rather than the sum
// of an exact amortization table.
type PaymentSchedule struct {
	MonthlyPayment float64 `json:"monthlyPayment"`
	AnnualPayment  float64 `json:"annualPayment"`
	TotalCost      float64 `json:"totalCost"`
}

// Schedule amortizes the terms. See ComputeSchedule.
func (t LoanTerms) Schedule() (PaymentSchedule, error) {
	return ComputeSchedule(t.Principal, t.AnnualRatePercent, t.TermYears)
}

// Interest returns the financing cost of a schedule over the instrument's
// life, i.e. total payments minus the amortized principal.
func (t LoanTerms) Interest(schedule PaymentSchedule) float64 {
	if t.Principal <= 0 {
		return 0
	}
	return schedule.TotalCost - t.Principal
}

// ComputeSchedule returns the monthly, annual and total payments for a
// fixed-rate amortizing instrument.
//
// A principal of zero or less is an unused instrument and yields an all-zero
// schedule without error. termYears must be positive and the rate must not be
// negative; violations return a validation.InvalidInputError.
func ComputeSchedule(principal, annualRatePercent float64, termYears int) (PaymentSchedule, error) {
	err := validation.FirstError(
		validation.Finite("principal", principal),
		validation.NonNegative("annualRatePercent", annualRatePercent),
		validation.PositiveInt("termYears", termYears),
	)
	if err != nil {
		return PaymentSchedule{}, err
	}

	if principal <= 0 {
		return PaymentSchedule{}, nil
	}

	monthly := CalculateMonthlyPayment(principal, annualRatePercent, termYears*constants.MonthsPerYear)
	annual := monthly * constants.MonthsPerYear
	return PaymentSchedule{
		MonthlyPayment: monthly,
		AnnualPayment:  annual,
		TotalCost:      annual * float64(termYears),
	}, nil
}

// CalculateMonthlyPayment calculates the monthly payment for a loan using the
// standard amortization formula. Callers are responsible for passing a
// positive term.
func CalculateMonthlyPayment(principal, annualInterestRate float64, termMonths int) float64 {
	if principal <= 0 {
		return 0
	}
	if annualInterestRate == 0 {
		// For zero interest, simply divide the principal by term
		return principal / float64(termMonths)
	}

	periodicInterestRate := annualInterestRate / (constants.PercentageMultiplier * constants.MonthsPerYear)
	power := math.Pow(1.00+periodicInterestRate, float64(termMonths))
	return principal * periodicInterestRate * power / (power - 1.00)
}
