package config

import (
	"fmt"

	"github.com/daleview/pool-finance/pkg/validation"
	"go.uber.org/multierr"
)

// Validate reports every structural problem in the configuration. The
// returned error combines them and matches validation.ErrInvalidInput.
func (conf *Configuration) Validate() error {
	err := multierr.Combine(conf.Baseline.Validate(), conf.Optimizer.Validate())
	for _, year := range conf.KeyYears {
		err = multierr.Append(err, validation.NonNegativeInt("keyYears", year))
	}

	names := make(map[string]struct{}, len(conf.Scenarios))
	for i, scenario := range conf.Scenarios {
		if scenario.Name == "" {
			err = multierr.Append(err, validation.Invalid(fmt.Sprintf("scenarios[%d].name", i), scenario.Name, "must not be empty"))
		} else if _, seen := names[scenario.Name]; seen {
			err = multierr.Append(err, validation.Invalid(fmt.Sprintf("scenarios[%d].name", i), scenario.Name, "must be unique"))
		}
		names[scenario.Name] = struct{}{}

		if scenarioErr := scenario.Validate(); scenarioErr != nil {
			err = multierr.Append(err, fmt.Errorf("scenario '%s': %w", scenario.Name, scenarioErr))
		}
	}
	return err
}

// Validate checks the break-even search limits.
func (o OptimizerConfig) Validate() error {
	err := multierr.Combine(
		validation.Finite("optimizer.floor", o.Floor),
		validation.PositiveInt("optimizer.maxIterations", o.MaxIterations),
		validation.Finite("optimizer.tolerance", o.Tolerance),
	)
	if o.Tolerance <= 0 {
		err = multierr.Append(err, validation.Invalid("optimizer.tolerance", o.Tolerance, "must be positive"))
	}
	return err
}

// Validate checks the baseline operating figures.
func (b Baseline) Validate() error {
	return multierr.Combine(
		validation.NonNegativeInt("baseline.members", b.Members),
		validation.NonNegative("baseline.duesRevenue", b.DuesRevenue),
		validation.NonNegative("baseline.swimTeamRevenue", b.SwimTeamRevenue),
		validation.NonNegative("baseline.winterSwimRevenue", b.WinterSwimRevenue),
		validation.NonNegative("baseline.totalRevenue", b.TotalRevenue),
		validation.NonNegative("baseline.expenses", b.Expenses),
	)
}

// Validate checks the structural preconditions of a scenario.
func (s Scenario) Validate() error {
	err := multierr.Combine(
		validation.Finite("inflationRate", s.InflationRate),
		validation.NonNegativeInt("revenue.members", s.Revenue.Members),
		validation.NonNegative("revenue.averageDues", s.Revenue.AverageDues),
		validation.NonNegative("revenue.swimTeam", s.Revenue.SwimTeam),
		validation.NonNegative("revenue.winterSwim", s.Revenue.WinterSwim),
		validation.NonNegative("revenue.other", s.Revenue.Other),
		validation.NonNegative("project.totalCost", s.Project.TotalCost),
		validation.NonNegative("project.assessmentPerMember", s.Project.AssessmentPerMember),
		validation.NonNegativeInt("financing.bondParticipants", s.Financing.BondParticipants),
		validation.NonNegative("financing.averageBondAmount", s.Financing.AverageBondAmount),
		validation.NonNegative("financing.bondRate", s.Financing.BondRate),
		validation.PositiveInt("financing.bondTerm", s.Financing.BondTerm),
		validation.NonNegative("financing.commercialRate", s.Financing.CommercialRate),
		validation.PositiveInt("financing.commercialTerm", s.Financing.CommercialTerm),
	)
	if s.InflationRate <= -100 {
		err = multierr.Append(err, validation.Invalid("inflationRate", s.InflationRate, "must be greater than -100"))
	}
	return err
}

// ValidateConfiguration performs general validation of the configuration and
// returns warnings for values outside the configured control ranges or that
// look inconsistent. Warnings never stop a forecast.
func (conf *Configuration) ValidateConfiguration() []string {
	var warnings []string
	for _, scenario := range conf.Scenarios {
		if !scenario.Active {
			continue
		}
		warnings = append(warnings, scenario.Warnings(conf.Ranges)...)
	}
	return warnings
}

// Warnings returns the soft problems of a single scenario.
func (s Scenario) Warnings(ranges Ranges) []string {
	warnings := validation.ValidateRanges(s.Name, []validation.RangeCheck{
		{Label: "members", Value: float64(s.Revenue.Members), Range: ranges.Members},
		{Label: "average dues", Value: s.Revenue.AverageDues, Range: ranges.Dues},
		{Label: "swim team revenue", Value: s.Revenue.SwimTeam, Range: ranges.SwimTeam},
		{Label: "winter swim revenue", Value: s.Revenue.WinterSwim, Range: ranges.WinterSwim},
		{Label: "other revenue", Value: s.Revenue.Other, Range: ranges.Other},
		{Label: "project cost", Value: s.Project.TotalCost, Range: ranges.ProjectCost},
		{Label: "assessment per member", Value: s.Project.AssessmentPerMember, Range: ranges.Assessment},
		{Label: "average bond amount", Value: s.Financing.AverageBondAmount, Range: ranges.Bond},
		{Label: "inflation rate", Value: s.InflationRate, Range: ranges.Inflation},
		{Label: "bond rate", Value: s.Financing.BondRate, Range: ranges.BondRate},
		{Label: "bond term", Value: float64(s.Financing.BondTerm), Range: ranges.BondTerm},
		{Label: "commercial rate", Value: s.Financing.CommercialRate, Range: ranges.CommercialRate},
		{Label: "commercial term", Value: float64(s.Financing.CommercialTerm), Range: ranges.CommercialTerm},
	})

	if s.Revenue.MembershipRevenue() < s.Revenue.SwimTeam {
		warnings = append(warnings, fmt.Sprintf("Scenario '%s': swim team revenue exceeds membership revenue - please verify", s.Name))
	}
	if s.Financing.BondParticipants > s.Revenue.Members {
		warnings = append(warnings, fmt.Sprintf("Scenario '%s': %d bond participants exceed %d members",
			s.Name, s.Financing.BondParticipants, s.Revenue.Members))
	}
	return warnings
}
