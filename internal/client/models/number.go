package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ToFloat coerces the loosely typed numbers found in form input and older
// stored documents. Strings are trimmed and parsed; the result must be
// finite. Empty strings, nil, booleans and anything else are rejected.
func ToFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case json.Number:
		x, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = x
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		x, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = x
	case Coordinate:
		return n.Float()
	case *float64:
		if n == nil {
			return 0, false
		}
		f = *n
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Coordinate is a latitude or longitude as typed by a user or found in an
// older document: a number, a numeric string, or nothing at all.
type Coordinate struct {
	raw any
}

// CoordinateOf wraps v, which may be a number, a string or nil.
func CoordinateOf(v any) Coordinate { return Coordinate{raw: v} }

// Float returns the coerced value and whether it is a finite number.
func (c Coordinate) Float() (float64, bool) {
	if c.raw == nil {
		return 0, false
	}
	return ToFloat(c.raw)
}

func (c Coordinate) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.raw)
}

func (c *Coordinate) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		c.raw = nil
		return nil
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	c.raw = v
	return nil
}

func floatPtr(f float64) *float64 { return &f }
