// Package formulas provides the statistical building blocks for the risk
// and trend engines: return conversion, annualized volatility, drawdown,
// historical VaR, and beta.
package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear is the annualization base for daily observations.
const TradingDaysPerYear = 252

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Variance calculates the sample variance of a slice of float64 values
func Variance(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.Variance(data, nil)
}

// Covariance calculates the covariance between two equal-length datasets
func Covariance(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return 0
	}
	return stat.Covariance(x, y, nil)
}

// CalculateReturns converts prices to percentage returns
// Returns[i] = (Price[i] - Price[i-1]) / Price[i-1]
func CalculateReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			returns[i-1] = (prices[i] - prices[i-1]) / prices[i-1]
		}
	}

	return returns
}

// AnnualizedVolatility calculates annualized volatility from daily returns.
// Formula: std dev of daily returns x sqrt(252 trading days).
func AnnualizedVolatility(dailyReturns []float64) float64 {
	if len(dailyReturns) == 0 {
		return 0
	}
	return StdDev(dailyReturns) * math.Sqrt(TradingDaysPerYear)
}

// AnnualizedSharpe calculates mean(returns)/std(returns) x sqrt(252).
// No risk-free rate is subtracted. Returns 0 when the deviation is 0.
func AnnualizedSharpe(dailyReturns []float64) float64 {
	sd := StdDev(dailyReturns)
	if sd == 0 {
		return 0
	}
	return Mean(dailyReturns) / sd * math.Sqrt(TradingDaysPerYear)
}
