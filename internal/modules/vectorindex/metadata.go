package vectorindex

import (
	"fmt"
	"strings"
	"time"

	"github.com/aristath/finsight/internal/domain"
)

// Metadata is the flat, scalar row metadata each record carries. Dates
// are stored as Unix seconds so every temporal comparison happens in a
// single numeric representation regardless of how the source expressed
// the date. Symbols are canonicalized to uppercase at write time.
type Metadata struct {
	Type       string  `json:"type" msgpack:"type"`
	Symbol     string  `json:"symbol,omitempty" msgpack:"symbol"`
	Date       float64 `json:"date" msgpack:"date"`
	Sentiment  string  `json:"sentiment,omitempty" msgpack:"sentiment"`
	Trend      string  `json:"trend,omitempty" msgpack:"trend"`
	Section    string  `json:"section,omitempty" msgpack:"section"`
	Source     string  `json:"source,omitempty" msgpack:"source"`
	Volatility float64 `json:"volatility,omitempty" msgpack:"volatility"`
}

// MetadataFromChunk projects a chunk onto its index row metadata.
func MetadataFromChunk(c domain.Chunk) Metadata {
	return Metadata{
		Type:       string(c.Type),
		Symbol:     strings.ToUpper(c.Symbol),
		Date:       float64(c.PrimaryDate().Unix()),
		Sentiment:  string(c.Sentiment),
		Trend:      c.TrendTag,
		Section:    c.Section,
		Source:     c.Source,
		Volatility: c.Volatility,
	}
}

// Filter restricts a query to rows satisfying a compound predicate:
// date within the closed interval [Start, End] and symbol within the
// Symbols set (an OR across the set; omitted when empty). A nil bound
// leaves that side unconstrained.
type Filter struct {
	Start   *float64
	End     *float64
	Symbols []string
}

// Matches reports whether the row metadata satisfies the predicate.
func (f Filter) Matches(m Metadata) bool {
	if f.Start != nil && m.Date < *f.Start {
		return false
	}
	if f.End != nil && m.Date > *f.End {
		return false
	}
	if len(f.Symbols) > 0 {
		found := false
		for _, sym := range f.Symbols {
			if m.Symbol == strings.ToUpper(sym) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// dateLayouts are the accepted textual date representations for filter
// bounds, tried in order.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDateBound normalizes a textual date to Unix seconds. Callers drop
// the corresponding filter bound on ErrMalformedDate instead of failing
// the whole query.
func ParseDateBound(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("%w: empty date", domain.ErrMalformedDate)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return float64(t.Unix()), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", domain.ErrMalformedDate, value)
}
