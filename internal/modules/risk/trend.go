package risk

import (
	"fmt"
	"math"

	"github.com/aristath/finsight/pkg/formulas"
)

// Trends analyzes price behavior over each horizon, keyed "7d", "30d",
// and so on. Horizons longer than the available history are omitted
// rather than padded; an empty map means no horizon had enough rows.
func (e *Engine) Trends(symbol string, horizons []int) (map[string]Trend, error) {
	if len(horizons) == 0 {
		horizons = DefaultTrendHorizons
	}

	series, err := e.store.LoadPrices(symbol)
	if err != nil {
		return nil, err
	}
	closes := series.Closes()

	trends := make(map[string]Trend)
	for _, horizon := range horizons {
		if horizon < 2 || len(closes) < horizon {
			continue
		}

		window := closes[len(closes)-horizon:]
		startPrice, endPrice := window[0], window[len(window)-1]
		if startPrice == 0 {
			continue
		}
		ret := (endPrice - startPrice) / startPrice

		returns := formulas.CalculateReturns(window)
		volatility := formulas.AnnualizedVolatility(returns)

		direction := "Bearish"
		if ret > 0 {
			direction = "Bullish"
		}

		strength := 0.0
		if volatility > 0 {
			strength = math.Abs(ret) / volatility
		}

		trends[fmt.Sprintf("%dd", horizon)] = Trend{
			Return:         ret,
			Volatility:     volatility,
			TrendDirection: direction,
			TrendStrength:  strength,
			MASignal:       maSignal(window, horizon),
		}
	}

	return trends, nil
}

// maSignal compares short and long simple moving averages over the
// horizon window. The short window is min(5, horizon/4) and the long
// min(20, horizon/2); when either average cannot be computed the signal
// is Neutral.
func maSignal(window []float64, horizon int) string {
	shortLen := min(5, horizon/4)
	longLen := min(20, horizon/2)

	smaShort := formulas.CalculateSMA(window, shortLen)
	smaLong := formulas.CalculateSMA(window, longLen)
	if smaShort == nil || smaLong == nil {
		return "Neutral"
	}
	if *smaShort > *smaLong {
		return "Buy"
	}
	return "Sell"
}
