// Package chunker splits raw price series, news, and filing records into
// overlapping temporal or topical chunks with derived metadata.
package chunker

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aristath/finsight/internal/domain"
	"github.com/aristath/finsight/pkg/formulas"
)

// Service produces embedding-ready chunks from raw source records.
type Service struct {
	log zerolog.Logger
}

// New creates a chunker service
func New(log zerolog.Logger) *Service {
	return &Service{
		log: log.With().Str("component", "chunker").Logger(),
	}
}

// Temporal splits a price series into overlapping windows of chunkSize
// rows advancing by chunkSize-overlap. The final window may be shorter
// than chunkSize; it is kept without padding. Each window carries the
// mean close, the sample deviation of daily percentage changes, and a
// binary trend tag.
func (s *Service) Temporal(symbol string, series domain.PriceSeries, chunkSize, overlap int) ([]domain.Chunk, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size %d", domain.ErrInvalidWindow, chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("%w: overlap %d, chunk size %d", domain.ErrInvalidWindow, overlap, chunkSize)
	}
	if len(series) == 0 {
		return nil, nil
	}

	step := chunkSize - overlap
	var chunks []domain.Chunk

	for start := 0; start < len(series); start += step {
		end := start + chunkSize
		if end > len(series) {
			end = len(series)
		}
		window := series[start:end]

		closes := window.Closes()
		avgClose := formulas.Mean(closes)
		volatility := formulas.StdDev(formulas.CalculateReturns(closes))

		trend := "down"
		if closes[len(closes)-1] > closes[0] {
			trend = "up"
		}

		text := fmt.Sprintf(
			"Market data for %s: Period %s to %s. Average price $%.2f. Trend: %s. Volatility: %.4f",
			strings.ToUpper(symbol),
			window[0].Date.Format("2006-01-02"),
			window[len(window)-1].Date.Format("2006-01-02"),
			avgClose, trend, volatility,
		)

		chunk, err := domain.NewMarketDataChunk(
			symbol, text,
			window[0].Date, window[len(window)-1].Date,
			len(window), avgClose, volatility, trend,
		)
		if err != nil {
			return nil, fmt.Errorf("building market data chunk for %s: %w", symbol, err)
		}
		chunks = append(chunks, chunk)

		if end == len(series) {
			break
		}
	}

	return chunks, nil
}

// Lexical polarity keyword sets for news sentiment tagging.
var (
	positiveKeywords = []string{"growth", "profit", "gain", "rise", "surge", "bullish", "positive"}
	negativeKeywords = []string{"loss", "decline", "drop", "fall", "bearish", "negative", "risk"}
)

// News tags each article with a lexical polarity score and splits long
// text into fixed-size word groups (no sentence-boundary awareness) to
// bound chunk length.
func (s *Service) News(articles []domain.NewsArticle, maxWords int) []domain.Chunk {
	if maxWords <= 0 {
		maxWords = 500
	}

	var chunks []domain.Chunk
	for _, article := range articles {
		text := strings.TrimSpace(article.Title + " " + article.Summary)
		if text == "" {
			continue
		}

		sentiment, score := ScoreSentiment(text)

		words := strings.Fields(text)
		for i := 0; i < len(words); i += maxWords {
			end := i + maxWords
			if end > len(words) {
				end = len(words)
			}

			chunk, err := domain.NewNewsChunk(
				strings.Join(words[i:end], " "),
				article.Source, article.Published,
				sentiment, score,
			)
			if err != nil {
				s.log.Warn().Err(err).Str("source", article.Source).Msg("Skipping invalid news chunk")
				continue
			}
			chunks = append(chunks, chunk)
		}
	}

	return chunks
}

// ScoreSentiment computes the lexical polarity of text: the number of
// positive keywords present minus the number of negative keywords
// present. The sign maps to the sentiment label; zero is neutral.
func ScoreSentiment(text string) (domain.Sentiment, int) {
	lower := strings.ToLower(text)

	score := 0
	for _, kw := range positiveKeywords {
		if strings.Contains(lower, kw) {
			score++
		}
	}
	for _, kw := range negativeKeywords {
		if strings.Contains(lower, kw) {
			score--
		}
	}

	switch {
	case score > 0:
		return domain.SentimentPositive, score
	case score < 0:
		return domain.SentimentNegative, score
	}
	return domain.SentimentNeutral, 0
}

// FilingSections are the fixed section names emitted per filing.
var FilingSections = []string{
	"business_overview",
	"financial_highlights",
	"risk_factors",
	"management_discussion",
	"financial_statements",
}

// maxFilingContent bounds the content prefix carried by each section chunk.
const maxFilingContent = 1000

// Filings emits one chunk per fixed section name per filing. Sections are
// not content-segmented: every section of a filing carries the same
// truncated content prefix. This mirrors the upstream pipeline and is a
// known limitation; the per-section metadata fields are the contract.
func (s *Service) Filings(filings []domain.Filing) []domain.Chunk {
	var chunks []domain.Chunk
	for _, filing := range filings {
		content := strings.TrimSpace(filing.Content)
		if content == "" {
			s.log.Warn().Str("symbol", filing.Symbol).Msg("Skipping filing with empty content")
			continue
		}
		if len(content) > maxFilingContent {
			content = content[:maxFilingContent]
		}

		fundamentals := map[string]float64{
			"revenue":    filing.Revenue,
			"net_income": filing.NetIncome,
			"market_cap": filing.MarketCap,
			"pe_ratio":   filing.PERatio,
		}

		for _, section := range FilingSections {
			chunk, err := domain.NewFilingChunk(
				filing.Symbol, filing.CompanyName, filing.FilingType,
				section, content, filing.FilingDate, fundamentals,
			)
			if err != nil {
				s.log.Warn().Err(err).Str("symbol", filing.Symbol).Msg("Skipping invalid filing chunk")
				continue
			}
			chunks = append(chunks, chunk)
		}
	}

	return chunks
}
