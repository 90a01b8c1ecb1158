// Package optimizer searches each active scenario for the smallest dues or
// assessment that keeps every key-year operating surplus above a floor.
package optimizer

import (
	"fmt"
	"math"

	"github.com/daleview/pool-finance/internal/config"
	"github.com/daleview/pool-finance/internal/forecast"
	"github.com/daleview/pool-finance/pkg/format"
	"github.com/daleview/pool-finance/pkg/mathutil"
	"github.com/daleview/pool-finance/pkg/optimization"
	"go.uber.org/zap"
)

// Levers the runner can move.
const (
	FieldAverageDues         = "averageDues"
	FieldAssessmentPerMember = "assessmentPerMember"
)

// Fields lists every lever in the order they are searched.
var Fields = []string{FieldAverageDues, FieldAssessmentPerMember}

type Runner struct {
	logger *zap.Logger
	conf   *config.Configuration
}

type lever struct {
	field  string
	bounds func(config.Ranges) (float64, float64)
	get    func(config.Scenario) float64
	set    func(*config.Scenario, float64)
}

var levers = map[string]lever{
	FieldAverageDues: {
		field:  FieldAverageDues,
		bounds: func(r config.Ranges) (float64, float64) { return r.Dues.Min, r.Dues.Max },
		get:    func(s config.Scenario) float64 { return s.Revenue.AverageDues },
		set:    func(s *config.Scenario, v float64) { s.Revenue.AverageDues = v },
	},
	FieldAssessmentPerMember: {
		field:  FieldAssessmentPerMember,
		bounds: func(r config.Ranges) (float64, float64) { return r.Assessment.Min, r.Assessment.Max },
		get:    func(s config.Scenario) float64 { return s.Project.AssessmentPerMember },
		set:    func(s *config.Scenario, v float64) { s.Project.AssessmentPerMember = v },
	},
}

type evaluation struct {
	value      float64
	minSurplus float64
	floor      float64
}

func (e evaluation) feasible() bool {
	return e.minSurplus >= e.floor
}

func (e evaluation) headroom() float64 {
	return e.minSurplus - e.floor
}

// Result summarizes optimizer searches keyed by scenario name.
type Result struct {
	Summaries map[string][]optimization.Summary
}

// Empty indicates whether any optimizer searches were produced.
func (r Result) Empty() bool {
	return len(r.Summaries) == 0
}

// Apply attaches optimizer summaries to the provided forecast results.
func (r Result) Apply(forecasts []forecast.Forecast) {
	if len(r.Summaries) == 0 {
		return
	}
	for i := range forecasts {
		summaries, ok := r.Summaries[forecasts[i].Name]
		if !ok {
			continue
		}
		forecasts[i].Optimizations = append(forecasts[i].Optimizations, summaries...)
	}
}

// NewRunner constructs a Runner for the provided configuration.
func NewRunner(logger *zap.Logger, conf *config.Configuration) (*Runner, error) {
	if conf == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if err := conf.Optimizer.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{logger: logger, conf: conf}, nil
}

// Run searches every lever of every active scenario. The configuration is
// never modified.
func (r *Runner) Run() (*Result, error) {
	summaries := make(map[string][]optimization.Summary)

	for _, scenario := range r.conf.ActiveScenarios() {
		for _, field := range Fields {
			summary, err := r.optimize(scenario, levers[field])
			if err != nil {
				return nil, fmt.Errorf("scenario '%s' %s: %w", scenario.Name, field, err)
			}
			summaries[scenario.Name] = append(summaries[scenario.Name], summary)

			r.logger.Debug("optimizer searched scenario lever",
				zap.String("op", "optimizer.Run"),
				zap.String("scenario", scenario.Name),
				zap.String("field", field),
				zap.Float64("original", summary.Original),
				zap.Float64("value", summary.Value),
				zap.Float64("floor", summary.Floor),
				zap.Float64("minSurplus", summary.MinimumSurplus),
				zap.Int("iterations", summary.Iterations),
				zap.Bool("converged", summary.Converged),
			)
		}
	}

	return &Result{Summaries: summaries}, nil
}

// optimize bisects between the lever's range bounds for the smallest value
// whose worst key-year surplus reaches the floor. Surplus never decreases as
// either lever grows.
func (r *Runner) optimize(scenario config.Scenario, l lever) (optimization.Summary, error) {
	floor := r.conf.Optimizer.Floor
	minVal, maxVal := l.bounds(r.conf.Ranges)
	original := l.get(scenario)
	if minVal > maxVal {
		minVal, maxVal = maxVal, minVal
	}

	lowerEval, err := r.evaluate(scenario, l, minVal)
	if err != nil {
		return optimization.Summary{}, err
	}
	upperEval, err := r.evaluate(scenario, l, maxVal)
	if err != nil {
		return optimization.Summary{}, err
	}

	summary := optimization.Summary{
		TargetName:      scenario.Name,
		Field:           l.field,
		Original:        original,
		OriginalDisplay: format.Currency(original),
		Floor:           floor,
	}

	if !upperEval.feasible() {
		fill(&summary, upperEval)
		summary.Notes = []string{fmt.Sprintf(
			"unable to reach minimum surplus %s within bounds %s to %s",
			format.Currency(floor), format.Currency(minVal), format.Currency(maxVal),
		)}
		return summary, nil
	}
	if lowerEval.feasible() {
		fill(&summary, lowerEval)
		summary.Converged = true
		return summary, nil
	}

	iterations := 0
	lower, upper := lowerEval.value, upperEval.value
	best := upperEval
	for iterations < r.conf.Optimizer.MaxIterations && !mathutil.WithinTolerance(lower, upper, r.conf.Optimizer.Tolerance) {
		mid := lower + (upper-lower)/2
		evalMid, err := r.evaluate(scenario, l, mid)
		if err != nil {
			return optimization.Summary{}, err
		}
		iterations++
		if evalMid.feasible() {
			best = evalMid
			upper = mid
		} else {
			lower = mid
		}
	}

	// Whole dollars are easier to act on; rounding up keeps feasibility.
	if snapped := math.Min(math.Ceil(best.value), maxVal); snapped != best.value {
		snappedEval, err := r.evaluate(scenario, l, snapped)
		if err != nil {
			return optimization.Summary{}, err
		}
		if snappedEval.feasible() {
			best = snappedEval
		}
	}

	fill(&summary, best)
	summary.Iterations = iterations
	summary.Converged = true
	return summary, nil
}

func fill(summary *optimization.Summary, eval evaluation) {
	summary.Value = eval.value
	summary.ValueDisplay = format.Currency(eval.value)
	summary.MinimumSurplus = eval.minSurplus
	summary.Headroom = eval.headroom()
}

func (r *Runner) evaluate(scenario config.Scenario, l lever, value float64) (evaluation, error) {
	l.set(&scenario, value)
	result, err := forecast.Evaluate(r.conf.Baseline, scenario, r.conf.KeyYears)
	if err != nil {
		return evaluation{}, err
	}

	minSurplus := result.FutureSurplus
	for _, row := range result.Projections {
		minSurplus = math.Min(minSurplus, row.OperatingSurplus)
	}
	return evaluation{value: value, minSurplus: minSurplus, floor: r.conf.Optimizer.Floor}, nil
}
