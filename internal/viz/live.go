package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/san-kum/actuate/internal/chassis"
	"github.com/san-kum/actuate/internal/config"
	"github.com/san-kum/actuate/internal/metrics"
	"github.com/san-kum/actuate/internal/operator"
	"github.com/san-kum/actuate/internal/robot"
)

const (
	DefaultFrameRate = 30
	historyCapacity  = 120
	barWidth         = 20
)

// linkKeys toggles bus links; the agitator motor is resolved from config.
var linkKeys = map[string]chassis.Corner{
	"1": chassis.FrontLeft,
	"2": chassis.BackLeft,
	"3": chassis.FrontRight,
	"4": chassis.BackRight,
}

type TickMsg time.Time

// Model is the Bubble Tea model of the live view.
type Model struct {
	robot    *robot.Robot
	keyboard *operator.Keyboard
	frame    time.Duration
	perFrame int

	sample  metrics.Sample
	history []float64
	links   map[string]bool
	running bool
	theme   Theme
	styles  Styles
	canvas  *Canvas
	err     error
}

// NewModel brings up a robot from cfg driven by kb. Each frame advances the
// robot by frame worth of ticks.
func NewModel(cfg *config.Config, kb *operator.Keyboard, frame time.Duration, logger *zap.SugaredLogger) (Model, error) {
	if frame <= 0 {
		frame = time.Second / DefaultFrameRate
	}
	r, err := robot.New(cfg, kb, logger)
	if err != nil {
		return Model{}, err
	}
	if err := r.Initialize(); err != nil {
		return Model{}, errors.Wrap(err, "viz")
	}

	perFrame := int(frame / r.TickPeriod())
	if perFrame < 1 {
		perFrame = 1
	}
	links := make(map[string]bool)
	for _, name := range r.MotorNames() {
		links[name] = true
	}
	theme := Themes[0]
	return Model{
		robot:    r,
		keyboard: kb,
		frame:    frame,
		perFrame: perFrame,
		sample:   r.Sample(),
		history:  make([]float64, 0, historyCapacity),
		links:    links,
		running:  true,
		theme:    theme,
		styles:   NewStyles(theme),
		canvas:   NewCanvas(chassisCols, chassisRows),
	}, nil
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.frame, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Update handles input events and steps the robot.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case TickMsg:
		if m.running {
			m.step()
		}
		return m, m.tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "esc", "ctrl+c":
		return m, tea.Quit
	case "p":
		m.running = !m.running
		return m, nil
	case "t":
		m.theme = m.theme.next()
		m.styles = NewStyles(m.theme)
		return m, nil
	case "5":
		m.toggleLink(m.robot.Config().AgitatorMotor.Name)
		return m, nil
	}
	if c, ok := linkKeys[key]; ok {
		if m.robot.Config().HasChassis() {
			m.toggleLink(m.robot.Config().Wheels[c].Name)
		}
		return m, nil
	}
	m.keyboard.Press(key)
	return m, nil
}

func (m *Model) toggleLink(name string) {
	up := !m.links[name]
	if err := m.robot.SetConnected(name, up); err != nil {
		m.err = err
		return
	}
	m.links[name] = up
}

func (m *Model) step() {
	for i := 0; i < m.perFrame; i++ {
		s, err := m.robot.Step()
		if err != nil {
			m.err = err
			m.running = false
			break
		}
		m.sample = s
	}
	m.history = append(m.history, trackingError(m.sample))
	if len(m.history) > historyCapacity {
		m.history = m.history[len(m.history)-historyCapacity:]
	}
}

// trackingError is the mean absolute wheel error of one sample in RPM.
func trackingError(s metrics.Sample) float64 {
	var sum float64
	n := 0
	for _, w := range s.Wheels {
		if !w.Online {
			continue
		}
		sum += math.Abs(w.Setpoint - w.Measured)
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Sample returns the telemetry shown in the current frame.
func (m Model) Sample() metrics.Sample { return m.sample }

// Err returns the error that stopped the simulation, if any.
func (m Model) Err() error { return m.err }

// View renders the TUI interface.
func (m Model) View() string {
	st := m.styles
	cfg := m.robot.Config()

	status := st.Running.Render("RUNNING")
	if !m.running {
		status = st.Paused.Render("PAUSED")
	}
	header := st.Title.Render(strings.ToUpper(cfg.Name)) + "  " + status + "  " +
		st.Value.Render(fmt.Sprintf("t=%.2fs", m.sample.Time))

	panels := []string{}
	if cfg.HasChassis() {
		panels = append(panels, m.viewChassis())
	}
	panels = append(panels, m.viewAgitator())

	var b strings.Builder
	b.WriteString(header + "\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, panels...) + "\n")
	if m.err != nil {
		b.WriteString(st.Offline.Render("error: "+m.err.Error()) + "\n")
	}
	b.WriteString(st.KeyHint.Render("WASD:Drive Q/E:Rotate Space:Index 1-5:Link P:Pause T:Theme Esc:Quit"))
	return b.String()
}

func (m Model) viewChassis() string {
	st := m.styles
	cfg := m.robot.Config()
	limit := cfg.Chassis.MaxWheelSpeedRPM

	var speeds [chassis.NumCorners]float64
	var b strings.Builder
	for _, c := range chassis.Corners() {
		w := m.sample.Wheels[c]
		speeds[c] = w.Measured
		name := c.String()
		if !w.Online {
			name = st.Offline.Render(name + " off")
		}
		b.WriteString(st.Label.Render(name) + "\n")
		fmt.Fprintf(&b, "  sp  %s %7.0f\n", st.SignedBar(w.Setpoint, limit, barWidth), w.Setpoint)
		fmt.Fprintf(&b, "  rpm %s %7.0f\n", st.SignedBar(w.Measured, limit, barWidth), w.Measured)
		fmt.Fprintf(&b, "  out %s %7.0f\n", st.SignedBar(w.Output, cfg.Chassis.WheelPID.MaxOutput, barWidth), w.Output)
	}
	b.WriteString(st.Label.Render("error") + st.SparklineChart(m.history, barWidth) + "\n")

	m.canvas.Clear()
	m.canvas.DrawChassis(speeds, limit)
	body := lipgloss.JoinHorizontal(lipgloss.Top, b.String(), "  "+m.canvas.String())
	return st.Box(fmt.Sprintf("chassis (%s)", cfg.Drive), body, 62)
}

func (m Model) viewAgitator() string {
	st := m.styles
	a := m.sample.Agitator

	cal := st.Paused.Render("uncalibrated")
	if a.Calibrated {
		cal = st.Running.Render("calibrated")
	}
	link := st.Running.Render("online")
	if !a.Online {
		link = st.Offline.Render("offline")
	}
	moving := "idle"
	if m.robot.Moving() {
		moving = "indexing"
	}

	rows := []struct{ label, value string }{
		{"link", link},
		{"state", cal},
		{"command", moving},
		{"setpoint", fmt.Sprintf("%.2f rad/s", a.Setpoint)},
		{"velocity", fmt.Sprintf("%.2f rad/s", a.Velocity)},
		{"angle", fmt.Sprintf("%.3f rad", a.Integral)},
		{"output", fmt.Sprintf("%.0f", a.Output)},
	}
	var b strings.Builder
	for _, r := range rows {
		b.WriteString(st.Label.Render(r.label) + st.Value.Render(r.value) + "\n")
	}
	return st.Box("agitator", strings.TrimRight(b.String(), "\n"), 30)
}
