package utils

import "math"

// Round2 rounds a money amount to 2 decimal places. Every amount headed for
// a numeric(12,2) column (line prices, invoice totals, payment and salary
// amounts) passes through here so float noise never reaches the database.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}
