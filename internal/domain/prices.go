package domain

import (
	"fmt"
	"time"
)

// PricePoint represents a single daily OHLCV observation.
type PricePoint struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// PriceSeries is an ordered sequence of daily prices, strictly increasing
// by date with no duplicates. Gaps (non-trading days) are permitted and
// never imputed.
type PriceSeries []PricePoint

// Validate checks the date ordering invariant.
func (s PriceSeries) Validate() error {
	for i := 1; i < len(s); i++ {
		if !s[i].Date.After(s[i-1].Date) {
			return fmt.Errorf("price series not strictly increasing at index %d (%s >= %s)",
				i, s[i-1].Date.Format("2006-01-02"), s[i].Date.Format("2006-01-02"))
		}
	}
	return nil
}

// Closes returns the closing prices in date order.
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, p := range s {
		closes[i] = p.Close
	}
	return closes
}

// Tail returns the last n points, or the whole series when it is shorter.
func (s PriceSeries) Tail(n int) PriceSeries {
	if n >= len(s) {
		return s
	}
	return s[len(s)-n:]
}
