package cli

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func TestRenderTableAlignsColumns(t *testing.T) {
	out := RenderTable(Table{
		Headers: []string{"Name", "Code", "Amount"},
		Rows: [][]string{
			{"Café", "BL-1", "$1.00"},
			{"Water pumps", "BL-22", "$1,000.00"},
		},
		Numeric: []bool{false, false, true},
	})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 6)

	width := lipgloss.Width(lines[0])
	for _, l := range lines {
		assert.Equal(t, width, lipgloss.Width(l), "ragged line %q", l)
	}
	assert.Contains(t, lines[3], "│ Café        │ BL-1  │     $1.00 │")
}

func TestRenderTableDefaultAlignment(t *testing.T) {
	out := RenderTable(Table{
		Headers: []string{"Metric", "Value"},
		Rows:    [][]string{{"Projects", "3"}, {"---"}, {"Donors", "12"}},
	})
	assert.Contains(t, out, "│ Projects │     3 │")
	assert.Contains(t, out, "├──────────┼───────┤")
}

func TestRenderTableEmpty(t *testing.T) {
	assert.Empty(t, RenderTable(Table{}))
}

func TestRenderUtilizationBar(t *testing.T) {
	assert.Equal(t, "[█████░░░░░] 50.0%", RenderUtilizationBar(0.5, 10))
	assert.Equal(t, "[██████████] 120.0%", RenderUtilizationBar(1.2, 10))
	assert.Empty(t, RenderUtilizationBar(0.5, 0))
}
