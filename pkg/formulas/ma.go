package formulas

import (
	"github.com/markcheno/go-talib"
)

// CalculateSMA calculates the Simple Moving Average over the last
// 'length' closes.
//
// Returns:
//
//	Current SMA value or nil if insufficient data
func CalculateSMA(closes []float64, length int) *float64 {
	if length < 1 || len(closes) < length {
		return nil
	}

	// talib needs at least a 2-period window; a 1-period SMA is the
	// last close itself.
	if length == 1 {
		last := closes[len(closes)-1]
		return &last
	}

	sma := talib.Sma(closes, length)
	if len(sma) > 0 && !isNaN(sma[len(sma)-1]) {
		result := sma[len(sma)-1]
		return &result
	}

	return nil
}

// isNaN checks if a float64 is NaN
func isNaN(f float64) bool {
	return f != f
}
