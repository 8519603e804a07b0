// Package model defines the entities exchanged with the NGO platform API.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// ID is a server-assigned identifier. The API emits both string and
// numeric identifiers depending on the collection, so both are accepted.
type ID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("model: id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// String returns the identifier as a plain string.
func (id ID) String() string { return string(id) }

// Ref is a reference to another entity. The API returns references either
// as a bare ID or as a populated object with at least an _id and a name.
type Ref struct {
	ID   ID
	Name string
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = Ref{}
		return nil
	}
	if data[0] != '{' {
		return r.ID.UnmarshalJSON(data)
	}
	var obj struct {
		MongoID ID     `json:"_id"`
		ID      ID     `json:"id"`
		Name    string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	r.ID = obj.MongoID
	if r.ID == "" {
		r.ID = obj.ID
	}
	r.Name = obj.Name
	return nil
}

// MarshalJSON sends references back as bare IDs.
func (r Ref) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(r.ID))
}

// Label returns the referenced entity's name, falling back to its ID.
func (r *Ref) Label() string {
	if r == nil {
		return ""
	}
	if r.Name != "" {
		return r.Name
	}
	return string(r.ID)
}

// ParseAmount decodes a monetary amount that the API may send as a JSON
// number or as a numeric string. The value is kept as an exact decimal.
// Missing, null, empty, and non-decimal values are errors rather than zero.
func ParseAmount(raw json.RawMessage) (decimal.Decimal, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return decimal.Zero, fmt.Errorf("model: amount is missing")
	}

	var s string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Zero, fmt.Errorf("model: amount %s is not numeric", raw)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return decimal.Zero, fmt.Errorf("model: amount is empty")
		}
	} else {
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return decimal.Zero, fmt.Errorf("model: amount %s is not numeric", raw)
		}
		s = n.String()
	}
	return ParseDecimal(s)
}

var decimalNumeral = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// ParseDecimal parses a plain base-10 numeral such as "1200", "0.30" or
// "1.5e3". Hex, NaN, infinities, and digit separators are rejected.
func ParseDecimal(s string) (decimal.Decimal, error) {
	if !decimalNumeral.MatchString(s) {
		return decimal.Zero, fmt.Errorf("model: amount %q is not a decimal number", s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("model: amount %q is not numeric: %w", s, err)
	}
	return d, nil
}
