package optim

import (
	"context"
	"math"
	"sort"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Objective scores one parameter set. Lower is better.
type Objective func(ctx context.Context, params map[string]float64) (float64, error)

type Trial struct {
	Params map[string]float64
	Score  float64
	Err    error
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	logger     *zap.SugaredLogger
}

func NewGridSearch(params []string, ranges [][]float64, logger *zap.SugaredLogger) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, errors.Errorf("optim: %d params but %d ranges", len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, errors.Errorf("optim: empty range for %s", params[i])
		}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &GridSearch{paramNames: params, ranges: ranges, logger: logger}, nil
}

// Size is the number of parameter combinations.
func (g *GridSearch) Size() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Search evaluates every combination and returns the best parameters with
// every trial sorted by score. Failed trials are kept with their error and
// an infinite score.
func (g *GridSearch) Search(ctx context.Context, objective Objective) (map[string]float64, float64, []Trial, error) {
	trials := make([]Trial, 0, g.Size())
	if err := g.searchRecursive(ctx, 0, make(map[string]float64), objective, &trials); err != nil {
		return nil, math.Inf(1), trials, err
	}

	sort.SliceStable(trials, func(i, j int) bool { return trials[i].Score < trials[j].Score })
	if len(trials) == 0 || trials[0].Err != nil {
		return nil, math.Inf(1), trials, errors.New("optim: every trial failed")
	}
	return trials[0].Params, trials[0].Score, trials, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	objective Objective,
	trials *[]Trial,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.paramNames) {
		score, err := objective(ctx, current)
		if errors.Cause(err) == context.Canceled || errors.Cause(err) == context.DeadlineExceeded {
			return err
		}
		if err != nil || math.IsNaN(score) {
			score = math.Inf(1)
		}
		*trials = append(*trials, Trial{Params: current, Score: score, Err: err})
		g.logger.Debugw("trial", "params", current, "score", score, "error", err)
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, objective, trials); err != nil {
			return err
		}
	}
	return nil
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
