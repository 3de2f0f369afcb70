package scenario

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestBuiltinsValid(t *testing.T) {
	for _, name := range BuiltinNames() {
		sc, ok := Builtin(name)
		if !ok {
			t.Fatalf("builtin %s missing", name)
		}
		if sc.Name != name {
			t.Errorf("builtin %s named %s", name, sc.Name)
		}
		if err := sc.Validate(); err != nil {
			t.Errorf("builtin %s invalid: %v", name, err)
		}
	}
	if _, ok := Builtin("nope"); ok {
		t.Error("unexpected builtin")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		sc   Scenario
		ok   bool
	}{
		{"empty", Scenario{}, true},
		{"ordered", Scenario{Events: []Event{{At: 0}, {At: time.Second}, {At: time.Second}}}, true},
		{"negative", Scenario{Events: []Event{{At: -time.Second}}}, false},
		{"out of order", Scenario{Events: []Event{{At: 2 * time.Second}, {At: time.Second}}}, false},
		{"past end", Scenario{Duration: time.Second, Events: []Event{{At: 2 * time.Second}}}, false},
	}
	for _, tt := range tests {
		err := tt.sc.Validate()
		if (err == nil) != tt.ok {
			t.Errorf("%s: Validate() = %v", tt.name, err)
		}
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dropout.yaml")
	sc, _ := Builtin("dropout")
	if err := Save(path, sc); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Events) != len(sc.Events) || got.Duration != sc.Duration {
		t.Fatalf("got %+v", got)
	}
	if got.Events[3].At != 550*time.Millisecond || got.Events[3].Disconnect[1] != "RB" {
		t.Errorf("event 3 = %+v", got.Events[3])
	}
	if got.Events[0].Input == nil || got.Events[0].Input.Forward != 0.3 {
		t.Errorf("event 0 input = %+v", got.Events[0].Input)
	}
	if got.Events[0].Trigger != nil {
		t.Error("unset trigger should stay nil")
	}
}

func TestLoadRejectsUnordered(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	data := "name: bad\nevents:\n  - at: 2s\n  - at: 1s\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected validation error")
	}
}

func TestScriptDue(t *testing.T) {
	sc := &Scenario{Events: []Event{{At: 0}, {At: 10 * time.Millisecond}, {At: 10 * time.Millisecond}, {At: 30 * time.Millisecond}}}
	s := NewScript(sc)

	steps := []struct {
		t    time.Duration
		want int
	}{
		{0, 1},
		{5 * time.Millisecond, 0},
		{10 * time.Millisecond, 2},
		{20 * time.Millisecond, 0},
		{time.Second, 1},
		{2 * time.Second, 0},
	}
	for _, st := range steps {
		if got := len(s.Due(st.t)); got != st.want {
			t.Errorf("Due(%s) returned %d events, want %d", st.t, got, st.want)
		}
	}
	if !s.Done() {
		t.Error("script should be done")
	}
	if !NewScript(nil).Done() {
		t.Error("nil scenario should be done")
	}
}

func TestDropouts(t *testing.T) {
	sc := &Scenario{Name: "chaos", Duration: 5 * time.Second}
	if err := sc.Dropouts(7, 4, []string{"LF", "agitator"}, 100*time.Millisecond, 500*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if len(sc.Events) != 8 {
		t.Fatalf("expected 8 events, got %d", len(sc.Events))
	}
	if err := sc.Validate(); err != nil {
		t.Errorf("generated scenario invalid: %v", err)
	}
	for _, m := range sc.Motors() {
		if m != "LF" && m != "agitator" {
			t.Errorf("unexpected motor %s", m)
		}
	}

	again := &Scenario{Duration: 5 * time.Second}
	_ = again.Dropouts(7, 4, []string{"LF", "agitator"}, 100*time.Millisecond, 500*time.Millisecond)
	for i := range sc.Events {
		if sc.Events[i].At != again.Events[i].At {
			t.Fatalf("same seed produced different schedules")
		}
	}

	if err := (&Scenario{}).Dropouts(1, 1, []string{"LF"}, 0, time.Second); err == nil {
		t.Error("expected error without duration")
	}
}

func TestTruncateKeepsCloneSource(t *testing.T) {
	sc, _ := Builtin("square")
	short := sc.Clone()
	short.Truncate(time.Second)

	if short.Duration != time.Second {
		t.Errorf("duration %s, want 1s", short.Duration)
	}
	if len(short.Events) != 2 {
		t.Errorf("kept %d events, want 2", len(short.Events))
	}
	if err := short.Validate(); err != nil {
		t.Errorf("truncated scenario invalid: %v", err)
	}
	if len(sc.Events) != 4 || sc.Duration != 4*time.Second {
		t.Errorf("source changed: %d events, %s", len(sc.Events), sc.Duration)
	}
	if err := short.Dropouts(7, 2, []string{"LF"}, 10*time.Millisecond, 100*time.Millisecond); err != nil {
		t.Errorf("dropouts in truncated window: %v", err)
	}
}
