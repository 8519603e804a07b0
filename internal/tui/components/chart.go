package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/ngodash/internal/tui/theme"
)

// Bar is one row of a horizontal bar chart.
type Bar struct {
	Label string
	Value float64
	// Color overrides the default accent color when set.
	Color lipgloss.Color
}

// HBarChart renders bars scaled to the largest value, one per line, with
// the value printed after each bar.
func HBarChart(bars []Bar, labelW, width int) string {
	if len(bars) == 0 {
		return ""
	}
	t := theme.Active

	peak := 0.0
	for _, b := range bars {
		peak = math.Max(peak, b.Value)
	}
	if peak == 0 {
		peak = 1
	}

	valueW := 0
	for _, b := range bars {
		valueW = max(valueW, len(formatChartLabel(b.Value)))
	}
	barMax := width - labelW - valueW - 3
	if barMax < 5 {
		barMax = 5
	}

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	lines := make([]string, 0, len(bars))
	for _, b := range bars {
		color := b.Color
		if color == "" {
			color = t.Accent
		}
		n := int(math.Round(math.Max(0, b.Value) / peak * float64(barMax)))
		if n == 0 && b.Value > 0 {
			n = 1
		}
		barStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface)

		lines = append(lines,
			labelStyle.Render(fmt.Sprintf("%-*s", labelW, truncate(b.Label, labelW)))+
				spaceStyle.Render(" ")+
				barStyle.Render(strings.Repeat("█", n))+
				spaceStyle.Render(strings.Repeat(" ", barMax-n+1))+
				valueStyle.Render(fmt.Sprintf("%*s", valueW, formatChartLabel(b.Value))))
	}
	return strings.Join(lines, "\n")
}

func formatChartLabel(v float64) string {
	switch {
	case v >= 1e9:
		if v == math.Trunc(v/1e9)*1e9 {
			return fmt.Sprintf("%.0fB", v/1e9)
		}
		return fmt.Sprintf("%.1fB", v/1e9)
	case v >= 1e6:
		if v == math.Trunc(v/1e6)*1e6 {
			return fmt.Sprintf("%.0fM", v/1e6)
		}
		return fmt.Sprintf("%.1fM", v/1e6)
	case v >= 1e3:
		if v == math.Trunc(v/1e3)*1e3 {
			return fmt.Sprintf("%.0fk", v/1e3)
		}
		return fmt.Sprintf("%.1fk", v/1e3)
	case v >= 1:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}
