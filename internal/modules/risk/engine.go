// Package risk computes per-symbol risk metrics and multi-horizon trend
// analysis over daily price series.
package risk

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/finsight/internal/config"
	"github.com/aristath/finsight/internal/domain"
	"github.com/aristath/finsight/internal/modules/marketdata"
	"github.com/aristath/finsight/pkg/formulas"
)

const (
	// DefaultLookbackDays bounds the window of recent rows risk metrics
	// are computed over.
	DefaultLookbackDays = 30

	// minLookbackRows is the floor below which risk metrics are not
	// statistically meaningful.
	minLookbackRows = 5

	// syntheticProxySeed fixes the synthetic market series so repeated
	// runs over the same data produce the same beta.
	syntheticProxySeed = 42
)

// Drawdown cutoffs used alongside the volatility thresholds when
// classifying risk. Drawdowns are negative, so "shallower than" means
// greater than.
const (
	shallowDrawdown  = -0.05
	moderateDrawdown = -0.15
)

// Metrics is the full risk profile of one symbol over the lookback
// window. Drawdown and VaR figures are negative in loss scenarios.
type Metrics struct {
	Volatility  float64 `json:"volatility"`
	MaxDrawdown float64 `json:"max_drawdown"`
	SharpeRatio float64 `json:"sharpe_ratio"`
	VaR95       float64 `json:"var_95"`
	VaR99       float64 `json:"var_99"`
	Beta        float64 `json:"beta"`
	RiskLevel   string  `json:"risk_level"`
}

// Trend describes price behavior over one horizon.
type Trend struct {
	Return         float64 `json:"return"`
	Volatility     float64 `json:"volatility"`
	TrendDirection string  `json:"trend_direction"`
	TrendStrength  float64 `json:"trend_strength"`
	MASignal       string  `json:"ma_signal"`
}

// DefaultTrendHorizons are the analysis windows, in trading rows.
var DefaultTrendHorizons = []int{7, 30, 90}

// Engine computes risk metrics and trends from the raw data store.
type Engine struct {
	store *marketdata.Store
	cfg   *config.Config
	log   zerolog.Logger
}

// NewEngine creates a risk engine over the given data store.
func NewEngine(store *marketdata.Store, cfg *config.Config, log zerolog.Logger) *Engine {
	return &Engine{
		store: store,
		cfg:   cfg,
		log:   log.With().Str("component", "risk_engine").Logger(),
	}
}

// Metrics computes the risk profile of a symbol over the trailing
// lookbackDays rows. Fewer than five rows in the window is
// ErrInsufficientHistory; a missing or corrupt data file propagates
// ErrDataUnavailable from the store.
func (e *Engine) Metrics(symbol string, lookbackDays int) (Metrics, error) {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}

	series, err := e.store.LoadPrices(symbol)
	if err != nil {
		return Metrics{}, err
	}

	recent := series.Tail(lookbackDays)
	if len(recent) < minLookbackRows {
		return Metrics{}, fmt.Errorf("%w: %d rows for %s, need %d",
			domain.ErrInsufficientHistory, len(recent), symbol, minLookbackRows)
	}

	closes := recent.Closes()
	returns := formulas.CalculateReturns(closes)
	volatility := formulas.AnnualizedVolatility(returns)
	maxDrawdown := formulas.MaxDrawdownFromPrices(closes)

	return Metrics{
		Volatility:  volatility,
		MaxDrawdown: maxDrawdown,
		SharpeRatio: formulas.AnnualizedSharpe(returns),
		VaR95:       formulas.HistoricalVaR(returns, 0.95),
		VaR99:       formulas.HistoricalVaR(returns, 0.99),
		Beta:        e.beta(symbol, returns),
		RiskLevel:   e.assessRiskLevel(volatility, maxDrawdown),
	}, nil
}

// beta computes beta against the configured market proxy symbol. When
// that series is unavailable, the synthetic proxy is used only if
// explicitly enabled; otherwise beta degrades to the neutral 1.0.
func (e *Engine) beta(symbol string, returns []float64) float64 {
	proxy := e.cfg.MarketProxySymbol
	if proxy != "" && proxy != symbol {
		if proxySeries, err := e.store.LoadPrices(proxy); err == nil {
			proxyReturns := formulas.CalculateReturns(proxySeries.Closes())
			if len(proxyReturns) >= 2 {
				return formulas.Beta(returns, proxyReturns)
			}
		}
	}

	if e.cfg.UseSyntheticMarketProxy {
		e.log.Warn().Str("symbol", symbol).Msg("Market proxy unavailable, using synthetic market series for beta")
		return formulas.Beta(returns, formulas.SyntheticMarketReturns(len(returns), syntheticProxySeed))
	}

	e.log.Warn().Str("symbol", symbol).Msg("Market proxy unavailable and synthetic proxy disabled, beta defaults to 1.0")
	return 1.0
}

// assessRiskLevel maps volatility and drawdown onto Low, Medium or High.
func (e *Engine) assessRiskLevel(volatility, maxDrawdown float64) string {
	switch {
	case volatility < e.cfg.Risk.LowVolatility && maxDrawdown > shallowDrawdown:
		return "Low"
	case volatility < e.cfg.Risk.HighVolatility && maxDrawdown > moderateDrawdown:
		return "Medium"
	default:
		return "High"
	}
}
