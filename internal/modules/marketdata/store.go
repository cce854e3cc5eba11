// Package marketdata reads the raw data lake produced by the
// acquisition collaborator: per-symbol market data JSON files and the
// shared news and filings CSVs. Missing or corrupt inputs surface as
// ErrDataUnavailable so callers can degrade to empty results.
package marketdata

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/finsight/internal/domain"
)

// Store reads raw data files from a single data directory.
type Store struct {
	dataDir string
	log     zerolog.Logger
}

// NewStore creates a reader over the given data directory.
func NewStore(dataDir string, log zerolog.Logger) *Store {
	return &Store{
		dataDir: dataDir,
		log:     log.With().Str("component", "market_data").Logger(),
	}
}

// marketDataFile mirrors the on-disk per-symbol JSON document. Only the
// sections the pipeline consumes are decoded.
type marketDataFile struct {
	HistoricalData []map[string]any `json:"historical_data"`
	CompanyInfo    map[string]any   `json:"company_info"`
	LastUpdated    string           `json:"last_updated"`
}

// priceDateLayouts covers the date representations seen in acquisition
// output, tried in order.
var priceDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// LoadPrices reads the historical price series for a symbol from
// data_dir/market_data_<SYMBOL>.json, sorted ascending by date with
// duplicate dates rejected.
func (s *Store) LoadPrices(symbol string) (domain.PriceSeries, error) {
	doc, err := s.readMarketDataFile(symbol)
	if err != nil {
		return nil, err
	}
	if len(doc.HistoricalData) == 0 {
		return nil, fmt.Errorf("%w: no historical data for %s", domain.ErrDataUnavailable, symbol)
	}

	series := make(domain.PriceSeries, 0, len(doc.HistoricalData))
	for i, row := range doc.HistoricalData {
		point, err := parsePriceRow(row)
		if err != nil {
			return nil, fmt.Errorf("%w: %s row %d: %v", domain.ErrDataUnavailable, symbol, i, err)
		}
		series = append(series, point)
	}

	sort.Slice(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrDataUnavailable, symbol, err)
	}
	return series, nil
}

// LoadCompanyInfo reads the descriptive company block for a symbol.
func (s *Store) LoadCompanyInfo(symbol string) (domain.CompanyInfo, error) {
	doc, err := s.readMarketDataFile(symbol)
	if err != nil {
		return domain.CompanyInfo{}, err
	}
	info := doc.CompanyInfo
	return domain.CompanyInfo{
		Name:        stringField(info, "longName"),
		Sector:      stringField(info, "sector"),
		Industry:    stringField(info, "industry"),
		MarketCap:   floatField(info, "marketCap"),
		PERatio:     floatField(info, "trailingPE"),
		Description: stringField(info, "longBusinessSummary"),
	}, nil
}

func (s *Store) readMarketDataFile(symbol string) (marketDataFile, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	path := filepath.Join(s.dataDir, fmt.Sprintf("market_data_%s.json", symbol))

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return marketDataFile{}, fmt.Errorf("%w: market data file for %s not found", domain.ErrDataUnavailable, symbol)
		}
		return marketDataFile{}, fmt.Errorf("%w: reading market data for %s: %v", domain.ErrDataUnavailable, symbol, err)
	}
	if len(raw) == 0 {
		return marketDataFile{}, fmt.Errorf("%w: market data file for %s is empty", domain.ErrDataUnavailable, symbol)
	}

	var doc marketDataFile
	if err := json.Unmarshal(raw, &doc); err != nil {
		return marketDataFile{}, fmt.Errorf("%w: parsing market data for %s: %v", domain.ErrDataUnavailable, symbol, err)
	}
	return doc, nil
}

func parsePriceRow(row map[string]any) (domain.PricePoint, error) {
	dateStr := stringField(row, "Date")
	if dateStr == "" {
		return domain.PricePoint{}, fmt.Errorf("missing Date")
	}
	date, err := parsePriceDate(dateStr)
	if err != nil {
		return domain.PricePoint{}, err
	}
	return domain.PricePoint{
		Date:   date,
		Open:   floatField(row, "Open"),
		High:   floatField(row, "High"),
		Low:    floatField(row, "Low"),
		Close:  floatField(row, "Close"),
		Volume: int64(floatField(row, "Volume")),
	}, nil
}

func parsePriceDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range priceDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", value)
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func floatField(m map[string]any, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return 0
}

// LoadNews reads data_dir/financial_news.csv. Rows with unparseable
// published dates keep a zero time; the chunker skips those.
func (s *Store) LoadNews() ([]domain.NewsArticle, error) {
	rows, header, err := s.readCSV("financial_news.csv")
	if err != nil {
		return nil, err
	}

	articles := make([]domain.NewsArticle, 0, len(rows))
	for _, row := range rows {
		published, _ := parsePriceDate(header.get(row, "published"))
		articles = append(articles, domain.NewsArticle{
			Title:     header.get(row, "title"),
			Summary:   header.get(row, "summary"),
			Link:      header.get(row, "link"),
			Published: published,
			Source:    header.get(row, "source"),
		})
	}
	return articles, nil
}

// LoadFilings reads data_dir/sec_filings.csv.
func (s *Store) LoadFilings() ([]domain.Filing, error) {
	rows, header, err := s.readCSV("sec_filings.csv")
	if err != nil {
		return nil, err
	}

	filings := make([]domain.Filing, 0, len(rows))
	for _, row := range rows {
		filingDate, _ := parsePriceDate(header.get(row, "filing_date"))
		filings = append(filings, domain.Filing{
			Symbol:      strings.ToUpper(header.get(row, "symbol")),
			CompanyName: header.get(row, "company_name"),
			FilingType:  header.get(row, "filing_type"),
			FilingDate:  filingDate,
			Content:     header.get(row, "content"),
			Revenue:     parseFloat(header.get(row, "revenue")),
			NetIncome:   parseFloat(header.get(row, "net_income")),
			MarketCap:   parseFloat(header.get(row, "market_cap")),
			PERatio:     parseFloat(header.get(row, "pe_ratio")),
		})
	}
	return filings, nil
}

// columnIndex maps CSV header names to column positions.
type columnIndex map[string]int

func (c columnIndex) get(row []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (s *Store) readCSV(name string) ([][]string, columnIndex, error) {
	path := filepath.Join(s.dataDir, name)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("%w: %s not found", domain.ErrDataUnavailable, name)
		}
		return nil, nil, fmt.Errorf("%w: opening %s: %v", domain.ErrDataUnavailable, name, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // ragged rows tolerated, missing cells read as empty

	headerRow, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil, fmt.Errorf("%w: %s is empty", domain.ErrDataUnavailable, name)
		}
		return nil, nil, fmt.Errorf("%w: reading %s header: %v", domain.ErrDataUnavailable, name, err)
	}

	header := make(columnIndex, len(headerRow))
	for i, col := range headerRow {
		header[strings.ToLower(strings.TrimSpace(col))] = i
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: parsing %s: %v", domain.ErrDataUnavailable, name, err)
	}
	return rows, header, nil
}

func parseFloat(value string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return f
}
