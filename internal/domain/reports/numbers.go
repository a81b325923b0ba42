// Package reports turns Portraits survey contents and directory records into
// report structures.
package reports

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ToInt parses a survey count. Thousands separators are ignored; blank or
// unparsable input yields 0. A fractional value is truncated.
func ToInt(s string) int {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}

// ToFloat parses a survey measurement with the same rules as ToInt.
func ToFloat(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// Count is a survey count that arrives either as a JSON number or as a
// string such as "1,234". Null and unparsable values decode to 0.
type Count int

func (c *Count) UnmarshalJSON(data []byte) error {
	*c = Count(ToInt(scalarText(data)))
	return nil
}

// Amount is the float counterpart of Count, used for areas.
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	*a = Amount(ToFloat(scalarText(data)))
	return nil
}

// scalarText unquotes a JSON string or returns a number literal as is.
// Objects, arrays and null yield "".
func scalarText(data []byte) string {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ""
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return ""
		}
		return s
	case '{', '[', 'n', 't', 'f':
		return ""
	default:
		return string(data)
	}
}

var hundred = decimal.NewFromInt(100)

// Percent is part/whole as a percentage rounded to one decimal place. A zero
// whole yields zero.
func Percent(part, whole int) decimal.Decimal {
	if whole == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(part)).Mul(hundred).
		DivRound(decimal.NewFromInt(int64(whole)), 1)
}

// Ratio is a/b rounded to one decimal place. A zero divisor yields zero.
func Ratio(a, b int) decimal.Decimal {
	if b == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(a)).DivRound(decimal.NewFromInt(int64(b)), 1)
}
