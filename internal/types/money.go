// README: Common money value object used across modules.
package types

import "math"

// Currency is the only currency quotes are issued in.
const Currency = "MXN"

type Money struct {
	Amount   float64
	Currency string
}

// MXN returns amount rounded to centavos.
func MXN(amount float64) Money {
	return Money{Amount: Round2(amount), Currency: Currency}
}

// Round2 rounds half away from zero to 2 decimal places. Values too large
// to scale have no fractional part and are returned unchanged.
func Round2(v float64) float64 {
	scaled := v * 100
	if math.IsInf(scaled, 0) {
		return v
	}
	return math.Round(scaled) / 100
}
