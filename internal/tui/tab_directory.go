package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/ngodash/internal/cli"
	"github.com/theirongolddev/ngodash/internal/model"
	"github.com/theirongolddev/ngodash/internal/tui/components"
	"github.com/theirongolddev/ngodash/internal/tui/theme"
)

// directoryOverhead is the header, status bar, card borders and titles.
const directoryOverhead = 7

func (a App) renderDirectoryTab(cw int) string {
	if a.summary == nil {
		return a.renderPlaceholder(cw)
	}
	s := a.summary
	rows := max(a.height-directoryOverhead, 3)

	halves := components.LayoutRow(cw, 2)
	if cw < compactWidth {
		halves = []int{cw, cw}
		rows = max(rows/2-2, 3)
	}

	donorCard := components.ContentCard(
		fmt.Sprintf("Donors (%d)", len(s.DonorList)),
		donorList(s.DonorList, components.CardInnerWidth(halves[0]), rows),
		halves[0])
	ngoCard := components.ContentCard(
		fmt.Sprintf("NGOs (%d)", len(s.NGOList)),
		ngoList(s.NGOList, components.CardInnerWidth(halves[1]), rows),
		halves[1])

	if cw < compactWidth {
		return donorCard + "\n" + ngoCard
	}
	return components.CardRow([]string{donorCard, ngoCard})
}

func donorList(donors []model.Donor, width, rows int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	value := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	accent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)

	if len(donors) == 0 {
		return muted.Render("No donors yet.")
	}

	typeW := 14
	amountW := 10
	nameW := max(width-typeW-amountW-2, 10)

	var out []string
	for i, d := range donors {
		if i == rows-1 && len(donors) > rows {
			out = append(out, muted.Render(fmt.Sprintf("… and %d more", len(donors)-i)))
			break
		}
		amount := "-"
		if d.Amount > 0 {
			amount = cli.FormatCompact(d.Amount)
		}
		out = append(out,
			value.Render(fmt.Sprintf("%-*s ", nameW, cli.Truncate(d.Name, nameW)))+
				muted.Render(fmt.Sprintf("%-*s ", typeW, cli.Truncate(cli.OrDash(d.DonorType), typeW)))+
				accent.Render(fmt.Sprintf("%*s", amountW, amount)))
	}
	return strings.Join(out, "\n")
}

func ngoList(ngos []model.NGO, width, rows int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	value := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	if len(ngos) == 0 {
		return muted.Render("No NGOs yet.")
	}

	nameW := max(width/2, 10)
	contactW := max(width-nameW-1, 8)

	var out []string
	for i, n := range ngos {
		if i == rows-1 && len(ngos) > rows {
			out = append(out, muted.Render(fmt.Sprintf("… and %d more", len(ngos)-i)))
			break
		}
		contact := n.Email
		if contact == "" {
			contact = n.Contact
		}
		out = append(out,
			value.Render(fmt.Sprintf("%-*s ", nameW, cli.Truncate(n.Name, nameW)))+
				muted.Render(cli.Truncate(cli.OrDash(contact), contactW)))
	}
	return strings.Join(out, "\n")
}
