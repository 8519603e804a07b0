package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/ngodash/internal/cli"
	"github.com/theirongolddev/ngodash/internal/model"
)

func parsePositive(s string) (float64, error) {
	v, err := parseAmount(s)
	if err != nil {
		return 0, err
	}
	return v.InexactFloat64(), nil
}

// parseAmount parses a positive monetary amount exactly.
func parseAmount(s string) (decimal.Decimal, error) {
	v, err := model.ParseDecimal(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%q is not a number", s)
	}
	if !v.IsPositive() {
		return decimal.Zero, errors.New("must be greater than zero")
	}
	return v, nil
}

func validPositive(s string) error {
	_, err := parsePositive(s)
	return err
}

func validDate(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if _, ok := cli.ParseDate(s); !ok {
		return errors.New("use YYYY-MM-DD")
	}
	return nil
}

// confirm asks a yes/no question unless assumeYes is set.
func confirm(title string, assumeYes bool) (bool, error) {
	if assumeYes {
		return true, nil
	}
	ok := false
	err := huh.NewConfirm().Title(title).Affirmative("Yes").Negative("No").Value(&ok).Run()
	return ok, err
}
