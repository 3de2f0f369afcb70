package robot

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/san-kum/actuate/internal/config"
	"github.com/san-kum/actuate/internal/scenario"
)

func TestEnsemble_RunsEverySeed(t *testing.T) {
	e := NewEnsemble(config.GetPreset("agitator-only"), nil, 3, 1, nil)
	e.Dropouts = 2

	results, err := e.Run(context.Background(), RunConfig{Duration: 500 * time.Millisecond, Decimate: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results", len(results))
	}
	for i, res := range results {
		if res.StepsTaken != 250 {
			t.Errorf("run %d took %d steps, want 250", i, res.StepsTaken)
		}
		if res.Metrics["recalibrations"] < 1 {
			t.Errorf("run %d never calibrated", i)
		}
	}
}

func TestEnsemble_SeedsAreReproducible(t *testing.T) {
	sc, _ := scenario.Builtin("index")
	before := len(sc.Events)
	run := func() []*Result {
		e := NewEnsemble(config.GetPreset("tank"), sc, 2, 42, nil)
		e.Dropouts = 3
		res, err := e.Run(context.Background(), RunConfig{Duration: 400 * time.Millisecond})
		if err != nil {
			t.Fatal(err)
		}
		return res
	}

	a, b := run(), run()
	for i := range a {
		if !reflect.DeepEqual(a[i].Metrics, b[i].Metrics) {
			t.Errorf("run %d differs: %v vs %v", i, a[i].Metrics, b[i].Metrics)
		}
	}

	if len(sc.Events) != before {
		t.Error("ensemble mutated the shared scenario")
	}
}

func TestEnsemble_RejectsEmpty(t *testing.T) {
	e := NewEnsemble(config.DefaultConfig(), nil, 0, 0, nil)
	if _, err := e.Run(context.Background(), RunConfig{}); err == nil {
		t.Error("expected error for zero runs")
	}
}

func TestEnsemble_WindowShorterThanScenario(t *testing.T) {
	sc, _ := scenario.Builtin("square")
	e := NewEnsemble(config.GetPreset("tank"), sc, 2, 3, nil)
	e.Dropouts = 1

	results, err := e.Run(context.Background(), RunConfig{Duration: time.Second, Decimate: 50})
	if err != nil {
		t.Fatal(err)
	}
	for i, res := range results {
		if res.StepsTaken != 500 {
			t.Errorf("run %d took %d steps, want 500", i, res.StepsTaken)
		}
	}
	if sc.Duration != 4*time.Second || len(sc.Events) != 4 {
		t.Error("ensemble changed the caller's scenario")
	}
}
