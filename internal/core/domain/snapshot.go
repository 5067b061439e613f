package domain

import (
	"encoding/json"
	"fmt"
)

// EncodeSnapshot serializes the full cart sequence.
func EncodeSnapshot(c Cart) (string, error) {
	data, err := json.Marshal(c.Clone())
	if err != nil {
		return "", fmt.Errorf("marshal cart: %w", err)
	}
	return string(data), nil
}

// DecodeSnapshot parses a stored snapshot. A payload that is not a valid
// product sequence is an error; callers fall back to an empty cart.
func DecodeSnapshot(raw string) (Cart, error) {
	var c Cart
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid cart snapshot: %w", err)
	}
	return c.Clone(), nil
}
