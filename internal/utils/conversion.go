/*
This file contains conversion helpers between the holding contract's
fixed-point state representation and the float values used everywhere else.
Prices are stored in milli units, capital amounts in cents.
*/

package utils

import (
	"errors"
	"fmt"
	"math"
)

// Error definitions for zero-tolerance error handling
var (
	ErrValueNegative = errors.New("value is negative")
	ErrNotFinite     = errors.New("value is not finite")
	ErrOutOfRange    = errors.New("value out of range")
)

const (
	milliPerUnit  = 1000
	centsPerUnit  = 100
	maxSafeUint64 = float64(math.MaxUint64 / 2)
)

// MilliToPrice converts a milli-unit chain value to a float price.
func MilliToPrice(milli uint64) float64 {
	return float64(milli) / milliPerUnit
}

// PriceToMilli converts a float price to the contract's milli representation.
func PriceToMilli(price float64) (uint64, error) {
	return toFixed(price, milliPerUnit)
}

// CentsToCapital converts a cent-unit chain value to a float USD amount.
func CentsToCapital(cents uint64) float64 {
	return float64(cents) / centsPerUnit
}

// CapitalToCents converts a float USD amount to the contract's cent
// representation.
func CapitalToCents(capital float64) (uint64, error) {
	return toFixed(capital, centsPerUnit)
}

func toFixed(value float64, scale float64) (uint64, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%w: %f", ErrNotFinite, value)
	}
	if value < 0 {
		return 0, fmt.Errorf("%w: %f", ErrValueNegative, value)
	}
	scaled := math.Round(value * scale)
	if scaled > maxSafeUint64 {
		return 0, fmt.Errorf("%w: %f", ErrOutOfRange, value)
	}
	return uint64(scaled), nil
}
