package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// NumericID accepts a positive integer given either as a JSON number or a numeric string.
type NumericID struct {
	Value int64
	Set   bool
	Valid bool
}

// UnmarshalJSON records whether the value was present and numeric without failing decoding,
// so the service can report a domain validation error.
func (n *NumericID) UnmarshalJSON(data []byte) error {
	n.Set = true
	raw := bytes.TrimSpace(data)
	if bytes.Equal(raw, []byte("null")) {
		n.Set = false
		return nil
	}
	var text string
	if len(raw) > 0 && raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil
		}
	} else {
		text = string(raw)
	}
	v, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil || v <= 0 {
		return nil
	}
	n.Value, n.Valid = v, true
	return nil
}

// MarshalJSON renders the numeric value or null.
func (n NumericID) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf("%d", n.Value)), nil
}

// ID builds a valid NumericID.
func ID(v int64) NumericID {
	return NumericID{Value: v, Set: true, Valid: v > 0}
}
