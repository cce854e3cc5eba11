package insights

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/finsight/internal/domain"
	"github.com/aristath/finsight/internal/modules/risk"
	"github.com/aristath/finsight/internal/modules/vectorindex"
)

const (
	// DefaultContextDaysBack bounds how far back retrieval looks when the
	// caller does not say.
	DefaultContextDaysBack = 30

	// DefaultContextResults is the retrieval result budget.
	DefaultContextResults = 10
)

// Context is retrieved evidence grouped by source collection, together
// with the query and date range that produced it.
type Context struct {
	MarketData []vectorindex.Result `json:"market_data"`
	News       []vectorindex.Result `json:"news"`
	SECFilings []vectorindex.Result `json:"sec_filings"`
	Query      string               `json:"query"`
	DateRange  DateRange            `json:"date_range"`
}

// DateRange is the closed retrieval interval, RFC 3339 formatted.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Insights is the full analysis bundle for one symbol. RiskAssessment
// is nil and TrendAnalysis empty when the underlying data could not
// support them; the recommendation is composed from whatever remains.
type Insights struct {
	Symbol         string                `json:"symbol"`
	Timestamp      time.Time             `json:"timestamp"`
	RiskAssessment *risk.Metrics         `json:"risk_assessment"`
	TrendAnalysis  map[string]risk.Trend `json:"trend_analysis"`
	Context        Context               `json:"context"`
	Recommendation Recommendation        `json:"recommendation"`
}

// SymbolSummary is the per-symbol row of a comparison.
type SymbolSummary struct {
	RiskLevel   string                `json:"risk_level"`
	Volatility  float64               `json:"volatility"`
	SharpeRatio float64               `json:"sharpe_ratio"`
	Trends      map[string]risk.Trend `json:"trends"`
}

// Comparison ranks multiple symbols side by side.
type Comparison struct {
	Symbols    []string                 `json:"symbols"`
	Timestamp  time.Time                `json:"timestamp"`
	Comparison map[string]SymbolSummary `json:"comparison"`
}

// Service orchestrates the risk engine and the vector index.
type Service struct {
	engine *risk.Engine
	index  *vectorindex.Index
	log    zerolog.Logger
	now    func() time.Time
}

// NewService creates the insights service.
func NewService(engine *risk.Engine, index *vectorindex.Index, log zerolog.Logger) *Service {
	return &Service{
		engine: engine,
		index:  index,
		log:    log.With().Str("component", "insights").Logger(),
		now:    time.Now,
	}
}

// RetrieveContext queries the index over the trailing daysBack window
// and groups the hits by collection. Index infrastructure failures
// (embedding service, store) propagate as errors; an index with no
// matching content yields an empty, well-formed context.
func (s *Service) RetrieveContext(ctx context.Context, query string, symbols []string, daysBack, n int) (Context, error) {
	if daysBack <= 0 {
		daysBack = DefaultContextDaysBack
	}
	if n <= 0 {
		n = DefaultContextResults
	}

	end := s.now()
	start := end.AddDate(0, 0, -daysBack)

	result := Context{
		MarketData: []vectorindex.Result{},
		News:       []vectorindex.Result{},
		SECFilings: []vectorindex.Result{},
		Query:      query,
		DateRange: DateRange{
			Start: start.Format(time.RFC3339),
			End:   end.Format(time.RFC3339),
		},
	}

	hits, err := s.index.QueryWithTemporalFilter(ctx, query, result.DateRange.Start, result.DateRange.End, symbols, n)
	if err != nil {
		return Context{}, fmt.Errorf("retrieving context for %q: %w", query, err)
	}

	for _, hit := range hits {
		switch domain.ChunkType(hit.Collection) {
		case domain.ChunkMarketData:
			result.MarketData = append(result.MarketData, hit)
		case domain.ChunkNews:
			result.News = append(result.News, hit)
		case domain.ChunkSECFiling:
			result.SECFilings = append(result.SECFilings, hit)
		}
	}

	return result, nil
}

// GenerateInsights assembles the full analysis for a symbol. Missing
// raw data degrades the affected sections instead of failing the whole
// request: unavailable prices leave RiskAssessment nil and
// TrendAnalysis empty. Only infrastructure failures (the index stack)
// surface as errors.
func (s *Service) GenerateInsights(ctx context.Context, symbol, query string) (Insights, error) {
	if query == "" {
		query = fmt.Sprintf("%s investment analysis", symbol)
	}

	var metricsPtr *risk.Metrics
	metrics, err := s.engine.Metrics(symbol, risk.DefaultLookbackDays)
	switch {
	case err == nil:
		metricsPtr = &metrics
	case errors.Is(err, domain.ErrDataUnavailable):
		s.log.Warn().Str("symbol", symbol).Msg("No market data for risk assessment")
	case errors.Is(err, domain.ErrInsufficientHistory):
		s.log.Warn().Str("symbol", symbol).Msg("Insufficient history for risk assessment")
	default:
		return Insights{}, err
	}

	trends, err := s.engine.Trends(symbol, nil)
	if err != nil {
		if !errors.Is(err, domain.ErrDataUnavailable) {
			return Insights{}, err
		}
		trends = map[string]risk.Trend{}
	}

	retrieved, err := s.RetrieveContext(ctx, query, []string{symbol}, DefaultContextDaysBack, DefaultContextResults)
	if err != nil {
		return Insights{}, err
	}

	return Insights{
		Symbol:         symbol,
		Timestamp:      s.now(),
		RiskAssessment: metricsPtr,
		TrendAnalysis:  trends,
		Context:        retrieved,
		Recommendation: Compose(metricsPtr, trends, retrieved.News),
	}, nil
}

// Compare generates insights for each symbol and reduces them to a
// side-by-side summary. Symbols with no usable data appear with risk
// level Unknown rather than dropping out of the comparison.
func (s *Service) Compare(ctx context.Context, symbols []string) (Comparison, error) {
	comparison := Comparison{
		Symbols:    symbols,
		Timestamp:  s.now(),
		Comparison: make(map[string]SymbolSummary, len(symbols)),
	}

	for _, symbol := range symbols {
		ins, err := s.GenerateInsights(ctx, symbol, "")
		if err != nil {
			return Comparison{}, fmt.Errorf("comparing %s: %w", symbol, err)
		}

		summary := SymbolSummary{
			RiskLevel: "Unknown",
			Trends:    ins.TrendAnalysis,
		}
		if ins.RiskAssessment != nil {
			summary.RiskLevel = ins.RiskAssessment.RiskLevel
			summary.Volatility = ins.RiskAssessment.Volatility
			summary.SharpeRatio = ins.RiskAssessment.SharpeRatio
		}
		comparison.Comparison[symbol] = summary
	}

	return comparison, nil
}
