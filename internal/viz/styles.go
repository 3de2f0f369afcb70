package viz

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles holds the lipgloss styles derived from a Theme.
type Styles struct {
	Panel       lipgloss.Style
	Title       lipgloss.Style
	Label       lipgloss.Style
	Value       lipgloss.Style
	KeyHint     lipgloss.Style
	Running     lipgloss.Style
	Paused      lipgloss.Style
	Offline     lipgloss.Style
	SparkHigh   lipgloss.Style
	SparkMid    lipgloss.Style
	SparkLow    lipgloss.Style
	BarPositive lipgloss.Style
	BarNegative lipgloss.Style
}

func NewStyles(t Theme) Styles {
	return Styles{
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Muted).
			Padding(0, 1),
		Title:       lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Label:       lipgloss.NewStyle().Foreground(t.Muted).Width(10),
		Value:       lipgloss.NewStyle().Bold(true).Foreground(t.Text),
		KeyHint:     lipgloss.NewStyle().Foreground(t.Muted).Italic(true),
		Running:     lipgloss.NewStyle().Bold(true).Foreground(t.Success),
		Paused:      lipgloss.NewStyle().Bold(true).Foreground(t.Warning),
		Offline:     lipgloss.NewStyle().Bold(true).Foreground(t.Error),
		SparkHigh:   lipgloss.NewStyle().Foreground(t.Error),
		SparkMid:    lipgloss.NewStyle().Foreground(t.Warning),
		SparkLow:    lipgloss.NewStyle().Foreground(t.Success),
		BarPositive: lipgloss.NewStyle().Foreground(t.Primary),
		BarNegative: lipgloss.NewStyle().Foreground(t.Accent),
	}
}

// SignedBar renders v in [-limit, limit] as a bar growing left or right
// from a centre mark. The result is always width+1 cells wide.
func (s Styles) SignedBar(v, limit float64, width int) string {
	half := width / 2
	n := 0
	if limit > 0 {
		n = int(math.Round(math.Min(math.Abs(v)/limit, 1) * float64(half)))
	}
	left := strings.Repeat("░", half)
	right := strings.Repeat("░", width-half)
	switch {
	case n == 0:
	case v < 0:
		left = strings.Repeat("░", half-n) + s.BarNegative.Render(strings.Repeat("█", n))
	default:
		right = s.BarPositive.Render(strings.Repeat("█", n)) + strings.Repeat("░", width-half-n)
	}
	return left + "│" + right
}

// SparklineChart renders a mini sparkline of the last width values.
func (s Styles) SparklineChart(values []float64, width int) string {
	if len(values) == 0 {
		return strings.Repeat("─", width)
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	var b strings.Builder
	for _, v := range values {
		norm := (v - lo) / rng
		idx := int(norm * float64(len(chars)-1))
		c := string(chars[idx])
		switch {
		case norm > 0.7:
			b.WriteString(s.SparkHigh.Render(c))
		case norm > 0.3:
			b.WriteString(s.SparkMid.Render(c))
		default:
			b.WriteString(s.SparkLow.Render(c))
		}
	}
	return b.String()
}

// Box renders content in a rounded panel with a bold title line.
func (s Styles) Box(title, content string, width int) string {
	return s.Panel.Width(width).Render(s.Title.Render(title) + "\n" + content)
}
