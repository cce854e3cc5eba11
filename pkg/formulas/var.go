package formulas

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// HistoricalVaR calculates Value at Risk as an empirical percentile of
// the return distribution (not parametric). For 95% confidence the
// result is the 5th percentile of returns, typically negative.
func HistoricalVaR(returns []float64, confidence float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	p := 1 - confidence
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}

	return stat.Quantile(p, stat.LinInterp, sorted, nil)
}
