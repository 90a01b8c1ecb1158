// Package forecast assembles full renovation scenarios from the configuration
// and computes their financing plan and multi-year projection.
package forecast

import (
	"fmt"
	"math"

	"github.com/daleview/pool-finance/internal/config"
	"github.com/daleview/pool-finance/pkg/constants"
	"github.com/daleview/pool-finance/pkg/financing"
	"github.com/daleview/pool-finance/pkg/format"
	"github.com/daleview/pool-finance/pkg/loans"
	"github.com/daleview/pool-finance/pkg/mathutil"
	"github.com/daleview/pool-finance/pkg/optimization"
	"github.com/daleview/pool-finance/pkg/projection"
	"github.com/daleview/pool-finance/pkg/validation"
	"go.uber.org/zap"
)

// Health classifies the post-renovation operating surplus.
type Health string

const (
	HealthDeficit Health = "deficit"
	HealthCaution Health = "caution"
	HealthHealthy Health = "healthy"
)

// Funding is how the project cost is split across the funding sources.
type Funding struct {
	TotalAssessment       float64 `json:"totalAssessment"`
	AssessmentPerMember   float64 `json:"assessmentPerMember"`
	BondFunding           float64 `json:"bondFunding"`
	BondParticipants      int     `json:"bondParticipants"`
	RemainingToFinance    float64 `json:"remainingToFinance"`
	AssessmentPercent     float64 `json:"assessmentPercent"`
	BondPercent           float64 `json:"bondPercent"`
	CommercialLoanPercent float64 `json:"commercialLoanPercent"`
}

// Forecast holds all information related to a specific scenario evaluation.
type Forecast struct {
	Name               string                      `json:"name"`
	Inputs             config.Scenario             `json:"inputs"`
	FutureRevenue      float64                     `json:"futureRevenue"`
	Funding            Funding                     `json:"funding"`
	Plan               financing.Plan              `json:"plan"`
	CurrentSurplus     float64                     `json:"currentSurplus"`
	FutureSurplus      float64                     `json:"futureSurplus"`
	SurplusChange      float64                     `json:"surplusChange"`
	DebtServiceRatio   float64                     `json:"debtServiceRatio"`
	BorrowingRatio     float64                     `json:"borrowingRatio"`
	MonthlyDebtService float64                     `json:"monthlyDebtService"`
	FollowUpSurplus    float64                     `json:"followUpSurplus"`
	Projections        []projection.YearProjection `json:"projections"`
	Health             Health                      `json:"health"`
	Message            string                      `json:"message"`
	Warnings           []string                    `json:"warnings,omitempty"`
	Optimizations      []optimization.Summary      `json:"optimizations,omitempty"`
}

// GetForecast processes the Forecasts for all active Scenarios.
func GetForecast(logger *zap.Logger, conf config.Configuration) ([]Forecast, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var results []Forecast
	for _, scenario := range conf.Scenarios {
		if !scenario.Active {
			logger.Debug(fmt.Sprintf("skipping scenario %s because it is inactive", scenario.Name),
				zap.String("op", "forecast.GetForecast"),
			)
			continue
		}

		result, err := Evaluate(conf.Baseline, scenario, conf.KeyYears)
		if err != nil {
			return results, fmt.Errorf("scenario '%s': %w", scenario.Name, err)
		}
		result.Warnings = append(scenario.Warnings(conf.Ranges), result.Warnings...)

		logger.Debug(fmt.Sprintf("evaluated scenario %s", scenario.Name),
			zap.String("op", "forecast.GetForecast"),
			zap.Float64("futureSurplus", result.FutureSurplus),
			zap.Float64("annualDebtService", result.Plan.CombinedAnnualDebtService),
			zap.String("health", string(result.Health)),
		)
		results = append(results, result)
	}

	return results, nil
}

// Evaluate computes one scenario against the baseline at the given key years.
func Evaluate(baseline config.Baseline, scenario config.Scenario, keyYears []int) (Forecast, error) {
	if err := baseline.Validate(); err != nil {
		return Forecast{}, err
	}
	if err := scenario.Validate(); err != nil {
		return Forecast{}, err
	}

	futureRevenue := scenario.Revenue.Total()
	if futureRevenue <= 0 {
		return Forecast{}, validation.Invalid("revenue", futureRevenue, "total revenue must be positive")
	}

	if len(keyYears) == 0 {
		keyYears = constants.DefaultKeyYears
	}

	funding := computeFunding(baseline, scenario)
	plan, err := financing.NewPlan(
		loans.LoanTerms{
			Principal:         funding.BondFunding,
			AnnualRatePercent: scenario.Financing.BondRate,
			TermYears:         scenario.Financing.BondTerm,
		},
		loans.LoanTerms{
			Principal:         funding.RemainingToFinance,
			AnnualRatePercent: scenario.Financing.CommercialRate,
			TermYears:         scenario.Financing.CommercialTerm,
		},
	)
	if err != nil {
		return Forecast{}, err
	}

	base := projection.YearInput{
		BaseRevenue:          futureRevenue,
		BaseExpenses:         baseline.Expenses,
		InflationRatePercent: scenario.InflationRate,
		BondAnnualPayment:    plan.BondSchedule.AnnualPayment,
		BondTermYears:        scenario.Financing.BondTerm,
		LoanAnnualPayment:    plan.CommercialSchedule.AnnualPayment,
		LoanTermYears:        scenario.Financing.CommercialTerm,
	}
	rows, err := projection.ProjectYears(base, keyYears)
	if err != nil {
		return Forecast{}, err
	}
	followUp := base
	followUp.YearIndex = constants.WarningProjectionYear
	followUpRow, err := projection.ProjectYear(followUp)
	if err != nil {
		return Forecast{}, err
	}

	currentSurplus := baseline.CurrentSurplus()
	futureSurplus := futureRevenue - baseline.Expenses - plan.CombinedAnnualDebtService
	health := classify(futureSurplus)

	result := Forecast{
		Name:               scenario.Name,
		Inputs:             scenario,
		FutureRevenue:      futureRevenue,
		Funding:            funding,
		Plan:               plan,
		CurrentSurplus:     currentSurplus,
		FutureSurplus:      futureSurplus,
		SurplusChange:      futureSurplus - currentSurplus,
		DebtServiceRatio:   mathutil.CalculatePercentage(plan.CombinedAnnualDebtService, scenario.Project.TotalCost),
		BorrowingRatio:     mathutil.CalculatePercentage(plan.CombinedBorrowingCost, scenario.Project.TotalCost),
		MonthlyDebtService: plan.MonthlyDebtService(),
		FollowUpSurplus:    followUpRow.OperatingSurplus,
		Projections:        rows,
		Health:             health,
		Message:            healthMessage(futureSurplus, followUpRow.OperatingSurplus),
	}
	if funding.RemainingToFinance < 0 && !mathutil.IsZero(funding.RemainingToFinance) {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"assessments and bonds exceed the project cost by %s; no commercial loan is needed",
			dollars(funding.RemainingToFinance)))
	}
	return result, nil
}

// computeFunding splits the project cost. The assessment is levied on the
// current membership, not the projected one.
func computeFunding(baseline config.Baseline, scenario config.Scenario) Funding {
	totalCost := scenario.Project.TotalCost
	assessment := float64(baseline.Members) * scenario.Project.AssessmentPerMember
	bond := float64(scenario.Financing.BondParticipants) * scenario.Financing.AverageBondAmount
	remaining := totalCost - bond - assessment

	return Funding{
		TotalAssessment:       assessment,
		AssessmentPerMember:   scenario.Project.AssessmentPerMember,
		BondFunding:           bond,
		BondParticipants:      scenario.Financing.BondParticipants,
		RemainingToFinance:    remaining,
		AssessmentPercent:     mathutil.CalculatePercentage(assessment, totalCost),
		BondPercent:           mathutil.CalculatePercentage(bond, totalCost),
		CommercialLoanPercent: mathutil.CalculatePercentage(remaining, totalCost),
	}
}

func classify(surplus float64) Health {
	switch {
	case surplus < 0:
		return HealthDeficit
	case surplus < constants.HealthySurplusThreshold:
		return HealthCaution
	default:
		return HealthHealthy
	}
}

func healthMessage(initial, followUp float64) string {
	switch {
	case initial >= constants.HealthySurplusThreshold:
		return fmt.Sprintf("This scenario maintains a healthy initial surplus of %s", dollars(initial))
	case initial > 0:
		return fmt.Sprintf("Caution: This scenario leaves a very small initial surplus of %s", dollars(initial))
	}
	return fmt.Sprintf("This scenario results in an initial %s of %s. Year %d projection shows a %s of %s",
		surplusState(initial), dollars(initial),
		constants.WarningProjectionYear, surplusState(followUp), dollars(followUp))
}

func surplusState(value float64) string {
	if value < 0 {
		return "deficit"
	}
	return "surplus"
}

func dollars(value float64) string {
	return format.Currency(math.Abs(value))
}
