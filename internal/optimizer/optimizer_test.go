package optimizer

import (
	"testing"

	"github.com/daleview/pool-finance/internal/config"
	"github.com/daleview/pool-finance/internal/forecast"
	"github.com/daleview/pool-finance/pkg/optimization"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func summaryFor(t *testing.T, result *Result, scenario, field string) optimization.Summary {
	t.Helper()
	for _, summary := range result.Summaries[scenario] {
		if summary.Field == field {
			return summary
		}
	}
	t.Fatalf("no summary for %s/%s", scenario, field)
	return optimization.Summary{}
}

func TestRunBreakEvenDues(t *testing.T) {
	conf := config.Defaults()

	runner, err := NewRunner(zap.NewNop(), conf)
	require.NoError(t, err)
	result, err := runner.Run()
	require.NoError(t, err)
	require.False(t, result.Empty())

	dues := summaryFor(t, result, "default", FieldAverageDues)
	assert.True(t, dues.Converged)
	assert.Equal(t, 697.0, dues.Original)
	assert.Equal(t, 1014.0, dues.Value)
	assert.Equal(t, "$1,014", dues.ValueDisplay)
	assert.InDelta(t, 156.26, dues.MinimumSurplus, 0.01)
	assert.InDelta(t, dues.MinimumSurplus, dues.Headroom, 1e-9)
	assert.Equal(t, 17, dues.Iterations)
	assert.Empty(t, dues.Notes)

	// The configuration is left untouched.
	assert.Equal(t, 697.0, conf.Scenarios[0].Revenue.AverageDues)
}

func TestRunUnreachableFloor(t *testing.T) {
	runner, err := NewRunner(nil, config.Defaults())
	require.NoError(t, err)
	result, err := runner.Run()
	require.NoError(t, err)

	// Even a $5,000 assessment leaves the bond payments uncovered.
	assessment := summaryFor(t, result, "default", FieldAssessmentPerMember)
	assert.False(t, assessment.Converged)
	assert.Equal(t, 5000.0, assessment.Value)
	assert.InDelta(t, -14350.77, assessment.MinimumSurplus, 0.01)
	require.Len(t, assessment.Notes, 1)
	assert.Contains(t, assessment.Notes[0], "within bounds $0 to $5,000")
}

func TestRunCustomFloor(t *testing.T) {
	conf := config.Defaults()
	conf.Optimizer.Floor = 10000

	runner, err := NewRunner(zap.NewNop(), conf)
	require.NoError(t, err)
	result, err := runner.Run()
	require.NoError(t, err)

	dues := summaryFor(t, result, "default", FieldAverageDues)
	assert.True(t, dues.Converged)
	assert.Equal(t, 1045.0, dues.Value)
	assert.InDelta(t, 231.26, dues.Headroom, 0.01)
}

func TestRunAlreadyFeasibleAtLowerBound(t *testing.T) {
	conf := config.Defaults()
	conf.Scenarios[0].Project.TotalCost = 0
	conf.Scenarios[0].Financing.BondParticipants = 0

	runner, err := NewRunner(zap.NewNop(), conf)
	require.NoError(t, err)
	result, err := runner.Run()
	require.NoError(t, err)

	// With nothing to finance, the lowest assessment already works.
	assessment := summaryFor(t, result, "default", FieldAssessmentPerMember)
	assert.True(t, assessment.Converged)
	assert.Equal(t, 0.0, assessment.Value)
	assert.Zero(t, assessment.Iterations)
}

func TestRunSkipsInactiveScenarios(t *testing.T) {
	conf := config.Defaults()
	conf.Scenarios[0].Active = false

	runner, err := NewRunner(zap.NewNop(), conf)
	require.NoError(t, err)
	result, err := runner.Run()
	require.NoError(t, err)
	assert.True(t, result.Empty())
}

func TestRunPropagatesInvalidScenario(t *testing.T) {
	conf := config.Defaults()
	conf.Scenarios[0].Financing.BondTerm = 0

	runner, err := NewRunner(zap.NewNop(), conf)
	require.NoError(t, err)
	_, err = runner.Run()
	assert.Error(t, err)
}

func TestNewRunnerValidation(t *testing.T) {
	_, err := NewRunner(zap.NewNop(), nil)
	assert.Error(t, err)

	conf := config.Defaults()
	conf.Optimizer.MaxIterations = 0
	_, err = NewRunner(zap.NewNop(), conf)
	assert.Error(t, err)
}

func TestResultApply(t *testing.T) {
	result := Result{Summaries: map[string][]optimization.Summary{
		"a": {{TargetName: "a", Field: FieldAverageDues}},
	}}
	forecasts := []forecast.Forecast{{Name: "a"}, {Name: "b"}}

	result.Apply(forecasts)

	assert.Len(t, forecasts[0].Optimizations, 1)
	assert.Empty(t, forecasts[1].Optimizations)

	Result{}.Apply(forecasts)
	assert.Len(t, forecasts[0].Optimizations, 1)
}
