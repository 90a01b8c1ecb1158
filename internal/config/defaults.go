package config

import (
	"math"

	"github.com/spf13/viper"
)

// Current operating figures of the facility.
const (
	defaultMembers           = 325
	defaultDuesRevenue       = 226760.0
	defaultSwimTeamRevenue   = 45000.0
	defaultWinterSwimRevenue = 71000.0
	defaultTotalRevenue      = 398000.0
	defaultExpenses          = 347000.0
)

// Starting values of the scenario controls.
const (
	defaultScenarioName        = "default"
	defaultInflationRate       = 2.5
	defaultProjectCost         = 2000000.0
	defaultAssessmentPerMember = 2000.0
	defaultBondParticipants    = 100
	defaultAverageBondAmount   = 5000.0
	defaultBondRate            = 5.5
	defaultBondTerm            = 10
	defaultCommercialRate      = 8.5
	defaultCommercialTerm      = 20
)

// Break-even search limits.
const (
	defaultOptimizerMaxIterations = 60
	defaultOptimizerTolerance     = 0.01
)

var defaultRanges = map[string][2]float64{
	"members":        {250, 400},
	"dues":           {500, 1500},
	"swimTeam":       {0, 100000},
	"winterSwim":     {0, 200000},
	"other":          {0, 200000},
	"projectCost":    {1000000, 3000000},
	"assessment":     {0, 5000},
	"bond":           {1000, 10000},
	"inflation":      {0, 5},
	"bondRate":       {3, 8},
	"bondTerm":       {5, 15},
	"commercialRate": {5, 12},
	"commercialTerm": {10, 30},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("baseline.members", defaultMembers)
	v.SetDefault("baseline.duesRevenue", defaultDuesRevenue)
	v.SetDefault("baseline.swimTeamRevenue", defaultSwimTeamRevenue)
	v.SetDefault("baseline.winterSwimRevenue", defaultWinterSwimRevenue)
	v.SetDefault("baseline.totalRevenue", defaultTotalRevenue)
	v.SetDefault("baseline.expenses", defaultExpenses)

	v.SetDefault("optimizer.floor", 0.0)
	v.SetDefault("optimizer.maxIterations", defaultOptimizerMaxIterations)
	v.SetDefault("optimizer.tolerance", defaultOptimizerTolerance)

	for name, bounds := range defaultRanges {
		v.SetDefault("ranges."+name+".min", bounds[0])
		v.SetDefault("ranges."+name+".max", bounds[1])
	}
}

// DefaultScenario returns the calculator's starting scenario for a baseline:
// today's membership and revenue mix, a $2M project with a $2,000 assessment,
// 100 bond participants and a 20-year commercial loan for the remainder.
func DefaultScenario(baseline Baseline) Scenario {
	participants := defaultBondParticipants
	if baseline.Members < participants {
		participants = baseline.Members
	}

	return Scenario{
		Name:          defaultScenarioName,
		Active:        true,
		InflationRate: defaultInflationRate,
		Revenue: RevenueModel{
			Members:     baseline.Members,
			AverageDues: math.Trunc(baseline.AverageDues()),
			SwimTeam:    baseline.SwimTeamRevenue,
			WinterSwim:  baseline.WinterSwimRevenue,
			Other:       baseline.OtherRevenue(),
		},
		Project: ProjectCost{
			TotalCost:           defaultProjectCost,
			AssessmentPerMember: defaultAssessmentPerMember,
		},
		Financing: FinancingOptions{
			BondParticipants:  participants,
			AverageBondAmount: defaultAverageBondAmount,
			BondRate:          defaultBondRate,
			BondTerm:          defaultBondTerm,
			CommercialRate:    defaultCommercialRate,
			CommercialTerm:    defaultCommercialTerm,
		},
	}
}
