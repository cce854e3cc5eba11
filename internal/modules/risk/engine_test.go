package risk

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/finsight/internal/config"
	"github.com/aristath/finsight/internal/domain"
	"github.com/aristath/finsight/internal/modules/marketdata"
)

func testConfig() *config.Config {
	return &config.Config{
		Risk: config.RiskThresholds{
			LowVolatility:  0.02,
			HighVolatility: 0.05,
		},
		MarketProxySymbol: "SPY",
	}
}

// writePriceFile writes a market data file whose closes follow the given
// sequence, one row per weekday-agnostic calendar day.
func writePriceFile(t *testing.T, dir, symbol string, closes []float64) {
	t.Helper()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]map[string]any, len(closes))
	for i, c := range closes {
		rows[i] = map[string]any{
			"Date":   start.AddDate(0, 0, i).Format("2006-01-02"),
			"Open":   c,
			"High":   c * 1.01,
			"Low":    c * 0.99,
			"Close":  c,
			"Volume": 1000000,
		}
	}
	doc := map[string]any{"historical_data": rows}
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, fmt.Sprintf("market_data_%s.json", symbol)), raw, 0644))
}

// steadyCloses compounds a constant daily return from a base price.
func steadyCloses(base, dailyReturn float64, n int) []float64 {
	closes := make([]float64, n)
	price := base
	for i := range closes {
		closes[i] = price
		price *= 1 + dailyReturn
	}
	return closes
}

func newEngine(t *testing.T, dir string, cfg *config.Config) *Engine {
	t.Helper()
	store := marketdata.NewStore(dir, zerolog.Nop())
	return NewEngine(store, cfg, zerolog.Nop())
}

func TestMetricsLowRiskSteadySeries(t *testing.T) {
	dir := t.TempDir()
	writePriceFile(t, dir, "AAPL", steadyCloses(100, 0.0005, 40))
	writePriceFile(t, dir, "SPY", steadyCloses(400, 0.0005, 40))

	engine := newEngine(t, dir, testConfig())
	metrics, err := engine.Metrics("AAPL", 30)
	require.NoError(t, err)

	// Constant daily returns: zero dispersion, no drawdown.
	assert.InDelta(t, 0.0, metrics.Volatility, 1e-9)
	assert.InDelta(t, 0.0, metrics.MaxDrawdown, 1e-9)
	assert.Equal(t, "Low", metrics.RiskLevel)
	assert.InDelta(t, 0.0005, metrics.VaR95, 1e-9) // all returns equal, the quantile is that return
}

func TestMetricsHighRiskVolatileSeries(t *testing.T) {
	dir := t.TempDir()

	// Alternating +8%/-8% days: annualized volatility far above the
	// high threshold and deep drawdowns.
	closes := make([]float64, 40)
	price := 100.0
	for i := range closes {
		closes[i] = price
		if i%2 == 0 {
			price *= 1.08
		} else {
			price *= 0.92
		}
	}
	writePriceFile(t, dir, "TSLA", closes)
	writePriceFile(t, dir, "SPY", steadyCloses(400, 0.0005, 40))

	engine := newEngine(t, dir, testConfig())
	metrics, err := engine.Metrics("TSLA", 30)
	require.NoError(t, err)

	assert.Equal(t, "High", metrics.RiskLevel)
	assert.Greater(t, metrics.Volatility, 0.05)
	assert.Less(t, metrics.MaxDrawdown, 0.0)
	assert.Less(t, metrics.VaR95, 0.0)
	assert.LessOrEqual(t, metrics.VaR99, metrics.VaR95)
}

func TestMetricsInsufficientHistory(t *testing.T) {
	dir := t.TempDir()
	writePriceFile(t, dir, "AAPL", []float64{100, 101, 102, 103})

	engine := newEngine(t, dir, testConfig())
	_, err := engine.Metrics("AAPL", 30)
	assert.ErrorIs(t, err, domain.ErrInsufficientHistory)
}

func TestMetricsDataUnavailable(t *testing.T) {
	engine := newEngine(t, t.TempDir(), testConfig())
	_, err := engine.Metrics("MISSING", 30)
	assert.ErrorIs(t, err, domain.ErrDataUnavailable)
}

func TestBetaAgainstRealProxy(t *testing.T) {
	dir := t.TempDir()

	// The symbol's returns are exactly twice the proxy's.
	proxy := make([]float64, 40)
	symbol := make([]float64, 40)
	pp, sp := 400.0, 100.0
	for i := range proxy {
		proxy[i], symbol[i] = pp, sp
		r := 0.01
		if i%3 == 0 {
			r = -0.02
		}
		pp *= 1 + r
		sp *= 1 + 2*r
	}
	writePriceFile(t, dir, "SPY", proxy)
	writePriceFile(t, dir, "AAPL", symbol)

	engine := newEngine(t, dir, testConfig())
	metrics, err := engine.Metrics("AAPL", 40)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, metrics.Beta, 0.15)
}

func TestBetaFallsBackToNeutralWithoutProxy(t *testing.T) {
	dir := t.TempDir()
	writePriceFile(t, dir, "AAPL", steadyCloses(100, 0.002, 40))

	cfg := testConfig()
	cfg.UseSyntheticMarketProxy = false
	engine := newEngine(t, dir, cfg)

	metrics, err := engine.Metrics("AAPL", 30)
	require.NoError(t, err)
	assert.Equal(t, 1.0, metrics.Beta)
}

func TestBetaSyntheticProxyIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	closes := make([]float64, 40)
	price := 100.0
	for i := range closes {
		closes[i] = price
		price *= 1 + 0.01*math.Sin(float64(i))
	}
	writePriceFile(t, dir, "AAPL", closes)

	cfg := testConfig()
	cfg.MarketProxySymbol = "" // no real proxy
	cfg.UseSyntheticMarketProxy = true
	engine := newEngine(t, dir, cfg)

	first, err := engine.Metrics("AAPL", 30)
	require.NoError(t, err)
	second, err := engine.Metrics("AAPL", 30)
	require.NoError(t, err)
	assert.Equal(t, first.Beta, second.Beta)
}

func TestTrendsUptrend(t *testing.T) {
	dir := t.TempDir()
	writePriceFile(t, dir, "AAPL", steadyCloses(100, 0.003, 120))

	engine := newEngine(t, dir, testConfig())
	trends, err := engine.Trends("AAPL", nil)
	require.NoError(t, err)
	require.Len(t, trends, 3)

	for _, key := range []string{"7d", "30d", "90d"} {
		trend, ok := trends[key]
		require.True(t, ok, "missing horizon %s", key)
		assert.Equal(t, "Bullish", trend.TrendDirection)
		assert.Equal(t, "Buy", trend.MASignal)
		assert.Greater(t, trend.Return, 0.0)
	}

	// Longer horizons compound more return.
	assert.Greater(t, trends["90d"].Return, trends["30d"].Return)
	assert.Greater(t, trends["30d"].Return, trends["7d"].Return)
}

func TestTrendsDowntrendSignalsSell(t *testing.T) {
	dir := t.TempDir()
	writePriceFile(t, dir, "AAPL", steadyCloses(100, -0.003, 120))

	engine := newEngine(t, dir, testConfig())
	trends, err := engine.Trends("AAPL", []int{30})
	require.NoError(t, err)

	trend := trends["30d"]
	assert.Equal(t, "Bearish", trend.TrendDirection)
	assert.Equal(t, "Sell", trend.MASignal)
	assert.Less(t, trend.Return, 0.0)
}

func TestTrendsOmitsHorizonsBeyondHistory(t *testing.T) {
	dir := t.TempDir()
	writePriceFile(t, dir, "AAPL", steadyCloses(100, 0.001, 50))

	engine := newEngine(t, dir, testConfig())
	trends, err := engine.Trends("AAPL", nil)
	require.NoError(t, err)

	assert.Contains(t, trends, "7d")
	assert.Contains(t, trends, "30d")
	assert.NotContains(t, trends, "90d")
}

func TestTrendsDataUnavailable(t *testing.T) {
	engine := newEngine(t, t.TempDir(), testConfig())
	_, err := engine.Trends("MISSING", nil)
	assert.ErrorIs(t, err, domain.ErrDataUnavailable)
}
