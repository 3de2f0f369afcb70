package robot

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/san-kum/actuate/internal/config"
	"github.com/san-kum/actuate/internal/scenario"
)

// Ensemble runs one scenario many times in parallel, each run with its own
// random link dropouts.
type Ensemble struct {
	cfg       *config.Config
	sc        *scenario.Scenario
	numRuns   int
	seedStart int64
	logger    *zap.SugaredLogger

	// Dropouts is the number of random outages added to each run.
	Dropouts  int
	MinOutage time.Duration
	MaxOutage time.Duration
}

func NewEnsemble(cfg *config.Config, sc *scenario.Scenario, numRuns int, seedStart int64, logger *zap.SugaredLogger) *Ensemble {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Ensemble{
		cfg:       cfg,
		sc:        sc,
		numRuns:   numRuns,
		seedStart: seedStart,
		logger:    logger,
		MinOutage: 20 * time.Millisecond,
		MaxOutage: 200 * time.Millisecond,
	}
}

// Run executes every run and returns the results in seed order. Run i uses
// seed seedStart+i.
func (e *Ensemble) Run(ctx context.Context, cfg RunConfig) ([]*Result, error) {
	if e.numRuns < 1 {
		return nil, errors.New("robot: ensemble needs at least one run")
	}
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx], errs[idx] = e.runOne(ctx, cfg, e.seedStart+int64(idx))
		}(i)
	}

	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, errors.Wrapf(err, "ensemble run %d", i)
		}
	}
	return results, nil
}

func (e *Ensemble) runOne(ctx context.Context, rc RunConfig, seed int64) (*Result, error) {
	robotCfg := *e.cfg
	runner, err := NewRunner(&robotCfg, e.logger.With("seed", seed))
	if err != nil {
		return nil, err
	}

	var sc *scenario.Scenario
	if e.sc != nil {
		sc = e.sc.Clone()
	} else {
		sc = &scenario.Scenario{Name: "ensemble"}
	}
	if rc.Duration > 0 {
		sc.Truncate(rc.Duration)
	} else if sc.Duration <= 0 {
		sc.Duration = robotCfg.Duration
	}
	if e.Dropouts > 0 {
		// zero means wall clock to Dropouts, so keep seeds reproducible
		s := seed
		if s == 0 {
			s = -1
		}
		if err := sc.Dropouts(s, e.Dropouts, runner.Robot().MotorNames(), e.MinOutage, e.MaxOutage); err != nil {
			return nil, err
		}
	}
	return runner.Run(ctx, rc, sc)
}
