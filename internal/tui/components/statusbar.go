package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/ngodash/internal/tui/theme"
)

// Status is the information shown in the bottom bar.
type Status struct {
	User        string
	Role        string
	Expires     string // e.g. "expires in 3 hours"; empty hides it
	Refreshing  bool
	AutoRefresh bool
	Notice      string
	NoticeErr   bool
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, st Status) string {
	t := theme.Active

	base := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	user := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Bold(true)
	accent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)

	left := base.Render(" [?]help  [r]efresh  [l]ogout  [q]uit")
	if st.Notice != "" {
		noticeStyle := lipgloss.NewStyle().Foreground(t.GreenBright).Background(t.Surface)
		if st.NoticeErr {
			noticeStyle = noticeStyle.Foreground(t.Orange)
		}
		left += base.Render("  ") + noticeStyle.Render(st.Notice)
	}

	var right []string
	switch {
	case st.Refreshing:
		right = append(right, accent.Render("refreshing…"))
	case st.AutoRefresh:
		right = append(right, dim.Render("auto"))
	}
	if st.User != "" {
		who := user.Render(st.User)
		if st.Role != "" {
			who += dim.Render(" (" + st.Role + ")")
		}
		right = append(right, who)
	}
	if st.Expires != "" {
		right = append(right, dim.Render(st.Expires))
	}
	rightStr := strings.Join(right, dim.Render(" · ")) + base.Render(" ")

	// Pad middle
	padding := width - lipgloss.Width(left) - lipgloss.Width(rightStr)
	if padding < 1 {
		// Drop the notice before the session info.
		left = base.Render(" [?]help  [q]uit")
		padding = max(0, width-lipgloss.Width(left)-lipgloss.Width(rightStr))
	}

	return left + base.Render(strings.Repeat(" ", padding)) + rightStr
}
