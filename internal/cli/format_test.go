package cli

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		amount   float64
		currency string
		want     string
	}{
		{1234.5, "USD", "$1,234.50"},
		{0, "", "$0.00"},
		{1000000, "eur", "€1,000,000.00"},
		{-250, "GBP", "-£250.00"},
		{10, "CHF", "CHF 10.00"},
		{99.999, "KES", "KSh 100.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatMoney(tt.amount, tt.currency), "%v %s", tt.amount, tt.currency)
	}
}

func TestFormatMoneyDecimal(t *testing.T) {
	assert.Equal(t, "$0.30", FormatMoneyDecimal(decimal.RequireFromString("0.30"), "USD"))
	assert.Equal(t, "-$1,200.10", FormatMoneyDecimal(decimal.RequireFromString("-1200.1"), "USD"))
}

func TestFormatCompact(t *testing.T) {
	assert.Equal(t, "1.2K", FormatCompact(1234))
	assert.Equal(t, "1.2M", FormatCompact(1_234_567))
	assert.Equal(t, "2.0B", FormatCompact(2e9))
	assert.Equal(t, "12.5", FormatCompact(12.5))
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "1,234,567", FormatNumber(1234567))
	assert.Equal(t, "-1,000", FormatNumber(-1000))
	assert.Equal(t, "12", FormatNumber(12))
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "N/A", FormatDate(""))
	assert.Equal(t, "March 5, 2024", FormatDate("2024-03-05"))
	assert.Equal(t, "March 5, 2024", FormatDate("2024-03-05T10:00:00.000Z"))
	assert.Equal(t, "soon", FormatDate("soon"))
	assert.Equal(t, "-", FormatShortDate(""))
	assert.Equal(t, "2024-03-05", FormatShortDate("2024-03-05T10:00:00Z"))
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Active", Capitalize("active"))
	assert.Equal(t, "Élan", Capitalize("élan"))
	assert.Equal(t, "", Capitalize(""))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "Clean wa…", Truncate("Clean water for all", 9))
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "***", MaskToken("abc"))
	assert.Equal(t, "eyJhbGci...wxyz", MaskToken("eyJhbGciOiJIUzI1NiJ9.payload.wxyz"))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "1h 2m", FormatDuration(3725))
	assert.Equal(t, "2m", FormatDuration(125))
	assert.Equal(t, "0s", FormatDuration(-5))
}
