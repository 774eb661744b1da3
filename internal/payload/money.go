package payload

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Money is carried as int64 minor units (cents) end to end so every output
// format derives totals from the same integers.

// ParseAmount canonicalizes a raw numeric value into minor units.
func ParseAmount(raw any) (int64, error) {
	f, err := toFloat(raw)
	if err != nil {
		return 0, err
	}
	return roundHalfAway(f * 100), nil
}

// ParseQuantity canonicalizes a raw quantity value.
func ParseQuantity(raw any) (float64, error) {
	return toFloat(raw)
}

// MulQuantity computes quantity × unit price in minor units.
func MulQuantity(quantity float64, unitPrice int64) int64 {
	return roundHalfAway(quantity * float64(unitPrice))
}

// ApplyRate computes amount × rate in minor units.
func ApplyRate(amount int64, rate float64) int64 {
	return roundHalfAway(float64(amount) * rate)
}

// FormatAmount renders minor units as a plain decimal with two places.
func FormatAmount(amount int64) string {
	return strconv.FormatFloat(AmountToFloat(amount), 'f', 2, 64)
}

// AmountToFloat converts minor units to major units for cell values.
func AmountToFloat(amount int64) float64 {
	return float64(amount) / 100.0
}

// FormatQuantity trims trailing zeros from a quantity.
func FormatQuantity(value float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", value), "0"), ".")
}

func toFloat(raw any) (float64, error) {
	switch v := raw.(type) {
	case nil:
		return 0, fmt.Errorf("missing numeric value")
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, fmt.Errorf("missing numeric value")
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, fmt.Errorf("non-numeric value %q", v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("non-numeric value of type %T", raw)
	}
}

func roundHalfAway(v float64) int64 {
	if v >= 0 {
		return int64(v + 0.5)
	}
	return int64(v - 0.5)
}
