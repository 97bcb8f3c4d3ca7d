package optim

import (
	"context"
	"errors"
	"maps"
	"math"

	"github.com/san-kum/takosim/internal/experiment"
	"github.com/san-kum/takosim/internal/sim"
)

var ErrNoTrials = errors.New("optim: no trial completed")

// Objective rates a finished run; lower is better.
type Objective func(*sim.Result) float64

// ScoreObjective prefers higher served scores. Unserved runs rate worst.
func ScoreObjective(r *sim.Result) float64 {
	if r.Score == nil {
		return 0
	}
	return -float64(r.Score.Final)
}

func MetricObjective(name string) Objective {
	return func(r *sim.Result) float64 { return r.Metrics[name] }
}

type Trial struct {
	Params map[string]float64
	Value  float64
	Err    error
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Search runs every combination of the grid and returns the best parameters,
// their objective value and every trial in visiting order.
func (g *GridSearch) Search(
	ctx context.Context,
	buildExperiment func(params map[string]float64) (*experiment.Experiment, error),
	objective Objective,
) (map[string]float64, float64, []Trial, error) {

	best := math.Inf(1)
	var bestParams map[string]float64
	trials := make([]Trial, 0)

	g.searchRecursive(ctx, 0, make(map[string]float64), buildExperiment, objective, &best, &bestParams, &trials)

	if err := ctx.Err(); err != nil {
		return bestParams, best, trials, err
	}
	if bestParams == nil {
		return nil, best, trials, ErrNoTrials
	}
	return bestParams, best, trials, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	buildExperiment func(map[string]float64) (*experiment.Experiment, error),
	objective Objective,
	best *float64,
	bestParams *map[string]float64,
	trials *[]Trial,
) {
	if ctx.Err() != nil {
		return
	}
	if depth == len(g.paramNames) {
		trial := Trial{Params: maps.Clone(current)}
		defer func() { *trials = append(*trials, trial) }()

		exp, err := buildExperiment(current)
		if err != nil {
			trial.Err = err
			return
		}

		result, err := exp.Run(ctx)
		if err != nil {
			trial.Err = err
			return
		}

		trial.Value = objective(result)
		if trial.Value < *best {
			*best = trial.Value
			*bestParams = maps.Clone(current)
		}
		return
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := maps.Clone(current)
		newParams[paramName] = val

		g.searchRecursive(ctx, depth+1, newParams, buildExperiment, objective, best, bestParams, trials)
	}
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}
