package formulas

import "math/rand"

// Beta calculates covariance(returns, market)/variance(market). The two
// series are truncated to the shorter length. Returns 1.0 when the market
// variance is zero.
func Beta(returns, marketReturns []float64) float64 {
	n := len(returns)
	if len(marketReturns) < n {
		n = len(marketReturns)
	}
	if n < 2 {
		return 1.0
	}

	r := returns[:n]
	m := marketReturns[:n]

	marketVariance := Variance(m)
	if marketVariance == 0 {
		return 1.0
	}

	return Covariance(r, m) / marketVariance
}

// SyntheticMarketReturns generates a seeded placeholder market return
// series (drift 0.01% daily, deviation 1%). It exists only as a
// documented approximation for beta when no real market series is
// supplied; callers must opt in via configuration.
func SyntheticMarketReturns(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	returns := make([]float64, n)
	for i := range returns {
		returns[i] = rng.NormFloat64()*0.01 + 0.0001
	}
	return returns
}
