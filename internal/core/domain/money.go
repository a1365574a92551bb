package domain

import (
	"fmt"
	"math"
	"strings"
)

// MinorUnits is an amount in the smallest currency unit (paise, cents).
// The gateway only accepts this type, so a major-unit float can never reach
// it unconverted.
type MinorUnits int64

// currencyExponents lists ISO 4217 exponents that differ from 2.
var currencyExponents = map[string]int{
	"JPY": 0,
	"KRW": 0,
	"VND": 0,
	"CLP": 0,
	"BHD": 3,
	"KWD": 3,
	"OMR": 3,
	"JOD": 3,
	"TND": 3,
}

// CurrencyExponent returns the number of minor-unit digits for currency.
func CurrencyExponent(currency string) int {
	if exp, ok := currencyExponents[strings.ToUpper(currency)]; ok {
		return exp
	}
	return 2
}

// ToMinorUnits converts a major-unit amount to minor units, rounding to the
// nearest minor unit.
func ToMinorUnits(amount float64, currency string) (MinorUnits, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return 0, fmt.Errorf("%w: amount must be positive", ErrInvalidOrder)
	}
	scaled := math.Round(amount * math.Pow10(CurrencyExponent(currency)))
	if scaled >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: amount out of range", ErrInvalidOrder)
	}
	return MinorUnits(scaled), nil
}

// Major returns the amount in major units, for display only.
func (m MinorUnits) Major(currency string) float64 {
	return float64(m) / math.Pow10(CurrencyExponent(currency))
}
