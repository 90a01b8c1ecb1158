// Package projection computes inflation-adjusted operating results for a
// single year offset of a renovation financing scenario.
package projection

import (
	"fmt"
	"math"

	"github.com/daleview/pool-finance/pkg/mathutil"
	"github.com/daleview/pool-finance/pkg/validation"
)

// YearInput holds the year-0 figures and the fixed debt service of both
// financing instruments.
type YearInput struct {
	YearIndex            int     `json:"yearIndex"`
	BaseRevenue          float64 `json:"baseRevenue"`
	BaseExpenses         float64 `json:"baseExpenses"`
	InflationRatePercent float64 `json:"inflationRatePercent"`
	BondAnnualPayment    float64 `json:"bondAnnualPayment"`
	BondTermYears        int     `json:"bondTermYears"`
	LoanAnnualPayment    float64 `json:"loanAnnualPayment"`
	LoanTermYears        int     `json:"loanTermYears"`
}

// YearProjection is one row of a projection series.
type YearProjection struct {
	YearIndex                int     `json:"yearIndex"`
	ProjectedRevenue         float64 `json:"projectedRevenue"`
	ProjectedExpenses        float64 `json:"projectedExpenses"`
	DebtService              float64 `json:"debtService"`
	DebtServicePercentOfCost float64 `json:"debtServicePercentOfCost"`
	OperatingSurplus         float64 `json:"operatingSurplus"`
}

// TotalCosts is projected expenses plus debt service.
func (p YearProjection) TotalCosts() float64 {
	return p.ProjectedExpenses + p.DebtService
}

// InflationFactor compounds ratePercent over years. Year 0 yields 1.
func InflationFactor(ratePercent float64, years int) float64 {
	return math.Pow(1+mathutil.PercentToRate(ratePercent), float64(years))
}

// Validate checks the structural preconditions of the input.
func (in YearInput) Validate() error {
	if err := validation.Finite("inflationRatePercent", in.InflationRatePercent); err != nil {
		return err
	}
	if in.InflationRatePercent <= -100 {
		return validation.Invalid("inflationRatePercent", in.InflationRatePercent, "must be greater than -100")
	}
	return validation.FirstError(
		validation.NonNegativeInt("yearIndex", in.YearIndex),
		validation.NonNegative("baseRevenue", in.BaseRevenue),
		validation.NonNegative("baseExpenses", in.BaseExpenses),
		validation.NonNegative("bondAnnualPayment", in.BondAnnualPayment),
		validation.NonNegativeInt("bondTermYears", in.BondTermYears),
		validation.NonNegative("loanAnnualPayment", in.LoanAnnualPayment),
		validation.NonNegativeInt("loanTermYears", in.LoanTermYears),
	)
}

// ProjectYear inflates revenue and expenses to the requested year and adds
// the debt service of every instrument still inside its term. Debt service is
// a fixed nominal amount and is never inflated; an instrument is retired once
// the year index reaches its term.
func ProjectYear(in YearInput) (YearProjection, error) {
	if err := in.Validate(); err != nil {
		return YearProjection{}, err
	}

	factor := InflationFactor(in.InflationRatePercent, in.YearIndex)
	revenue := in.BaseRevenue * factor
	expenses := in.BaseExpenses * factor

	debtService := 0.0
	if in.YearIndex < in.BondTermYears {
		debtService += in.BondAnnualPayment
	}
	if in.YearIndex < in.LoanTermYears {
		debtService += in.LoanAnnualPayment
	}

	totalCosts := expenses + debtService
	return YearProjection{
		YearIndex:                in.YearIndex,
		ProjectedRevenue:         revenue,
		ProjectedExpenses:        expenses,
		DebtService:              debtService,
		DebtServicePercentOfCost: mathutil.CalculatePercentage(debtService, totalCosts),
		OperatingSurplus:         revenue - totalCosts,
	}, nil
}

// ProjectYears evaluates base at every year in years, in the order given.
// The series is sparse: only the requested checkpoints are produced.
func ProjectYears(base YearInput, years []int) ([]YearProjection, error) {
	rows := make([]YearProjection, 0, len(years))
	for _, year := range years {
		in := base
		in.YearIndex = year
		row, err := ProjectYear(in)
		if err != nil {
			return nil, fmt.Errorf("year %d: %w", year, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
