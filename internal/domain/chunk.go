// Package domain contains the core types shared across modules: price
// series, raw source records, and the chunk variants prepared for
// embedding and retrieval. The domain layer is pure - no infrastructure
// dependencies.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// ChunkType discriminates the chunk variants. Exactly one type classifies
// each chunk, and each type maps to its own vector index collection.
type ChunkType string

const (
	ChunkMarketData ChunkType = "market_data"
	ChunkNews       ChunkType = "news"
	ChunkSECFiling  ChunkType = "sec_filing"
)

// Valid reports whether t is one of the known chunk types.
func (t ChunkType) Valid() bool {
	switch t {
	case ChunkMarketData, ChunkNews, ChunkSECFiling:
		return true
	}
	return false
}

// Sentiment is the lexical polarity label assigned to news chunks.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// Chunk is a unit of text plus metadata prepared for embedding and
// retrieval. It is a tagged variant: Type selects which of the per-type
// fields are meaningful. Chunks are validated at construction and
// immutable once embedded; re-ingestion supersedes rather than mutates.
type Chunk struct {
	Type   ChunkType `json:"type"`
	Symbol string    `json:"symbol,omitempty"`
	Text   string    `json:"text"`

	// market_data: window bounds and derived window statistics.
	StartDate  time.Time `json:"start_date,omitempty"`
	EndDate    time.Time `json:"end_date,omitempty"`
	Days       int       `json:"days,omitempty"`
	AvgClose   float64   `json:"avg_close,omitempty"`
	Volatility float64   `json:"volatility,omitempty"`
	TrendTag   string    `json:"trend,omitempty"` // "up" or "down"

	// news: publication info and lexical sentiment.
	Source         string    `json:"source,omitempty"`
	Published      time.Time `json:"published,omitempty"`
	Sentiment      Sentiment `json:"sentiment,omitempty"`
	SentimentScore int       `json:"sentiment_score,omitempty"`

	// sec_filing: filing identity and headline figures.
	CompanyName  string             `json:"company_name,omitempty"`
	FilingType   string             `json:"filing_type,omitempty"`
	FilingDate   time.Time          `json:"filing_date,omitempty"`
	Section      string             `json:"section,omitempty"`
	Fundamentals map[string]float64 `json:"fundamentals,omitempty"`
}

// PrimaryDate derives the single timestamp used for temporal filtering.
func (c Chunk) PrimaryDate() time.Time {
	switch c.Type {
	case ChunkMarketData:
		return c.StartDate
	case ChunkNews:
		return c.Published
	case ChunkSECFiling:
		return c.FilingDate
	}
	return time.Time{}
}

// NewMarketDataChunk builds a temporal window chunk over a price series.
func NewMarketDataChunk(symbol, text string, start, end time.Time, days int, avgClose, volatility float64, trend string) (Chunk, error) {
	if start.IsZero() || end.IsZero() {
		return Chunk{}, fmt.Errorf("market data chunk requires window bounds")
	}
	if end.Before(start) {
		return Chunk{}, fmt.Errorf("market data chunk window ends before it starts (%s > %s)",
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	c := Chunk{
		Type:       ChunkMarketData,
		Symbol:     strings.ToUpper(strings.TrimSpace(symbol)),
		Text:       text,
		StartDate:  start,
		EndDate:    end,
		Days:       days,
		AvgClose:   avgClose,
		Volatility: volatility,
		TrendTag:   trend,
	}
	return c, validate(c)
}

// NewNewsChunk builds a sentiment-tagged news text chunk.
func NewNewsChunk(text, source string, published time.Time, sentiment Sentiment, score int) (Chunk, error) {
	c := Chunk{
		Type:           ChunkNews,
		Text:           text,
		Source:         source,
		Published:      published,
		Sentiment:      sentiment,
		SentimentScore: score,
	}
	return c, validate(c)
}

// NewFilingChunk builds one section chunk of a filing.
func NewFilingChunk(symbol, companyName, filingType, section, content string, filingDate time.Time, fundamentals map[string]float64) (Chunk, error) {
	c := Chunk{
		Type:         ChunkSECFiling,
		Symbol:       strings.ToUpper(strings.TrimSpace(symbol)),
		Text:         content,
		CompanyName:  companyName,
		FilingType:   filingType,
		FilingDate:   filingDate,
		Section:      section,
		Fundamentals: fundamentals,
	}
	return c, validate(c)
}

func validate(c Chunk) error {
	if !c.Type.Valid() {
		return fmt.Errorf("unknown chunk type %q", c.Type)
	}
	if strings.TrimSpace(c.Text) == "" {
		return fmt.Errorf("%s chunk has empty text", c.Type)
	}
	if c.PrimaryDate().IsZero() {
		return fmt.Errorf("%s chunk has no derivable primary date", c.Type)
	}
	return nil
}
