package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestByNameFallsBackToDefault(t *testing.T) {
	assert.Equal(t, "tokyo-night", ByName("tokyo-night").Name)
	assert.Equal(t, FlexokiDark.Name, ByName("no-such-theme").Name)
}

func TestNamesMatchesAll(t *testing.T) {
	names := Names()
	assert.Len(t, names, len(All))
	assert.Equal(t, "flexoki-dark", names[0])
}

func TestUtilizationColors(t *testing.T) {
	th := FlexokiDark
	assert.Equal(t, th.Green, th.Utilization(0.5))
	assert.Equal(t, th.Green, th.Utilization(0.8))
	assert.Equal(t, th.Orange, th.Utilization(0.95))
	assert.Equal(t, th.Orange, th.Utilization(1))
	assert.Equal(t, th.Red, th.Utilization(1.01))
}

func TestStatusColors(t *testing.T) {
	th := Terminal
	assert.Equal(t, th.Green, th.Status(" Active "))
	assert.Equal(t, th.Blue, th.Status("completed"))
	assert.Equal(t, th.TextMuted, th.Status(""))
}
