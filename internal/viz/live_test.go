package viz

import (
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap/zaptest"

	"github.com/san-kum/actuate/internal/chassis"
	"github.com/san-kum/actuate/internal/config"
	"github.com/san-kum/actuate/internal/operator"
)

func newTestModel(t *testing.T, preset string) Model {
	t.Helper()
	kb := operator.NewKeyboard(clock.NewMock(), 0)
	m, err := NewModel(config.GetPreset(preset), kb, 20*time.Millisecond, zaptest.NewLogger(t).Sugar())
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return nm, cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_FrameAdvancesTicks(t *testing.T) {
	m := newTestModel(t, "tank")
	if m.perFrame != 10 {
		t.Fatalf("perFrame = %d, want 10", m.perFrame)
	}

	m, cmd := update(t, m, TickMsg(time.Now()))
	if cmd == nil {
		t.Error("tick should schedule the next frame")
	}
	if got := m.Sample().Time; got < 0.0199 || got > 0.0201 {
		t.Errorf("sample time %v after one frame, want 0.02", got)
	}
	if len(m.history) != 1 {
		t.Errorf("history length %d", len(m.history))
	}
}

func TestModel_KeyDrivesWheels(t *testing.T) {
	m := newTestModel(t, "tank")
	m, _ = update(t, m, runes("w"))
	for i := 0; i < 5; i++ {
		m, _ = update(t, m, TickMsg(time.Now()))
	}

	for _, c := range chassis.Corners() {
		w := m.Sample().Wheels[c]
		if w.Setpoint <= 0 {
			t.Errorf("%s setpoint %v, want forward", c, w.Setpoint)
		}
		if w.Measured <= 0 {
			t.Errorf("%s measured %v, want forward", c, w.Measured)
		}
	}
}

func TestModel_PauseStopsTime(t *testing.T) {
	m := newTestModel(t, "tank")
	m, _ = update(t, m, runes("p"))
	m, _ = update(t, m, TickMsg(time.Now()))
	if m.Sample().Time != 0 {
		t.Errorf("paused model advanced to %v", m.Sample().Time)
	}
	if !strings.Contains(m.View(), "PAUSED") {
		t.Error("view should show PAUSED")
	}
}

func TestModel_LinkToggle(t *testing.T) {
	m := newTestModel(t, "tank")
	m, _ = update(t, m, runes("1"))
	m, _ = update(t, m, TickMsg(time.Now()))
	if m.Sample().Wheels[chassis.FrontLeft].Online {
		t.Error("LF should be offline")
	}

	m, _ = update(t, m, runes("5"))
	m, _ = update(t, m, TickMsg(time.Now()))
	if m.Sample().Agitator.Online || m.Sample().Agitator.Calibrated {
		t.Errorf("agitator should be offline and uncalibrated: %+v", m.Sample().Agitator)
	}

	m, _ = update(t, m, runes("5"))
	m, _ = update(t, m, TickMsg(time.Now()))
	if !m.Sample().Agitator.Calibrated {
		t.Error("agitator should recalibrate once back online")
	}
	if m.Err() != nil {
		t.Errorf("unexpected error %v", m.Err())
	}
}

func TestModel_SpaceIndexesAgitator(t *testing.T) {
	m := newTestModel(t, "agitator-only")
	m, _ = update(t, m, TickMsg(time.Now()))
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeySpace})
	m, _ = update(t, m, TickMsg(time.Now()))

	if m.Sample().Agitator.Setpoint <= 0 {
		t.Errorf("setpoint %v, want positive while indexing", m.Sample().Agitator.Setpoint)
	}
	view := m.View()
	if !strings.Contains(view, "agitator") {
		t.Error("view missing agitator panel")
	}
	if strings.Contains(view, "chassis") {
		t.Error("agitator-only view should not draw the chassis")
	}
}

func TestModel_Quit(t *testing.T) {
	m := newTestModel(t, "tank")
	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("esc should quit")
	}

	// q rotates rather than quitting
	_, cmd = update(t, m, runes("q"))
	if cmd != nil {
		t.Error("q should not quit")
	}
}

func TestModel_ThemeCycles(t *testing.T) {
	m := newTestModel(t, "mecanum")
	first := m.theme.Name
	m, _ = update(t, m, runes("t"))
	if m.theme.Name == first {
		t.Error("theme did not change")
	}
	for range ThemeNames() {
		m, _ = update(t, m, runes("t"))
	}
	if len(ThemeNames()) != len(Themes) || GetTheme("nope").Name != Themes[0].Name {
		t.Error("theme lookup broken")
	}
	view := m.View()
	for _, c := range chassis.Corners() {
		if !strings.Contains(view, c.String()) {
			t.Errorf("view missing %s", c)
		}
	}
}

func TestSignedBar(t *testing.T) {
	st := NewStyles(ThemeMinimal)
	for _, v := range []float64{-2, -1, 0, 0.5, 1, 3} {
		bar := st.SignedBar(v, 1, 10)
		if !strings.Contains(bar, "│") {
			t.Errorf("SignedBar(%v) missing centre mark: %q", v, bar)
		}
	}
	if got := st.SignedBar(0, 1, 10); got != "░░░░░│░░░░░" {
		t.Errorf("zero bar = %q", got)
	}
}

func TestCanvas_DrawChassis(t *testing.T) {
	c := NewCanvas(chassisCols, chassisRows)
	c.DrawChassis([chassis.NumCorners]float64{1, 1, 1, 1}, 1)
	out := c.String()
	if strings.Count(out, "\n") != chassisRows {
		t.Errorf("rows = %d", strings.Count(out, "\n"))
	}
	if strings.Trim(out, "⠀\n") == "" {
		t.Error("nothing drawn")
	}
}
