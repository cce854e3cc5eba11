package formulas

// MaxDrawdown calculates the maximum drawdown of the cumulative return
// path implied by a sequence of periodic returns.
//
// Drawdown formula:
//
//	Cumulative(t) = product of (1 + return) up to t
//	Drawdown(t)   = (Cumulative(t) - RunningMax(t)) / RunningMax(t)
//	Max Drawdown  = minimum of all drawdowns
//
// The result is <= 0, and exactly 0 when the path never declines.
func MaxDrawdown(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	cumulative := 1.0
	runningMax := 1.0
	maxDrawdown := 0.0

	for _, r := range returns {
		cumulative *= 1 + r
		if cumulative > runningMax {
			runningMax = cumulative
		}
		if runningMax > 0 {
			drawdown := (cumulative - runningMax) / runningMax
			if drawdown < maxDrawdown {
				maxDrawdown = drawdown
			}
		}
	}

	return maxDrawdown
}

// MaxDrawdownFromPrices converts prices to returns and calculates the
// maximum drawdown of the resulting cumulative return path.
func MaxDrawdownFromPrices(prices []float64) float64 {
	return MaxDrawdown(CalculateReturns(prices))
}
