package cmd

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/ngodash/internal/model"
)

var errNoChanges = errors.New("nothing to update: pass at least one field flag")

// changedStrings copies each changed string flag onto its field. Flags
// left unset keep the field's current value.
func changedStrings(cmd *cobra.Command, fields map[string]*string) (int, error) {
	n := 0
	for name, dst := range fields {
		if !cmd.Flags().Changed(name) {
			continue
		}
		v, err := cmd.Flags().GetString(name)
		if err != nil {
			return n, err
		}
		*dst = strings.TrimSpace(v)
		n++
	}
	return n, nil
}

// changedNumbers parses each changed numeric flag onto its field. Amounts
// that must be positive are listed in positive.
func changedNumbers(cmd *cobra.Command, fields map[string]*float64, positive ...string) (int, error) {
	n := 0
	for name, dst := range fields {
		if !cmd.Flags().Changed(name) {
			continue
		}
		raw, err := cmd.Flags().GetString(name)
		if err != nil {
			return n, err
		}
		v, err := model.ParseDecimal(strings.TrimSpace(raw))
		if err != nil {
			return n, fmt.Errorf("--%s: %q is not a number", name, raw)
		}
		if !v.IsPositive() && slices.Contains(positive, name) {
			return n, fmt.Errorf("--%s: must be greater than zero", name)
		}
		*dst = v.InexactFloat64()
		n++
	}
	return n, nil
}

// checkDates validates the non-empty dates among values.
func checkDates(values ...string) error {
	for _, d := range values {
		if err := validDate(d); err != nil {
			return fmt.Errorf("date %q: %w", d, err)
		}
	}
	return nil
}
