package marketdata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/finsight/internal/domain"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

const sampleMarketData = `{
  "historical_data": [
    {"Date": "2024-01-03 00:00:00-05:00", "Open": 101.0, "High": 103.0, "Low": 100.5, "Close": 102.0, "Volume": 1200000},
    {"Date": "2024-01-02 00:00:00-05:00", "Open": 100.0, "High": 102.0, "Low": 99.0, "Close": 101.0, "Volume": 1000000},
    {"Date": "2024-01-04 00:00:00-05:00", "Open": 102.0, "High": 104.0, "Low": 101.0, "Close": 103.5, "Volume": 900000}
  ],
  "company_info": {
    "longName": "Apple Inc.",
    "sector": "Technology",
    "industry": "Consumer Electronics",
    "marketCap": 3000000000000,
    "trailingPE": 29.5,
    "longBusinessSummary": "Designs and sells consumer electronics."
  },
  "last_updated": "2024-01-05T10:00:00"
}`

func TestLoadPricesSortsByDate(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "market_data_AAPL.json", sampleMarketData)

	store := NewStore(dir, zerolog.Nop())
	series, err := store.LoadPrices("aapl")
	require.NoError(t, err)
	require.Len(t, series, 3)

	assert.Equal(t, []float64{101.0, 102.0, 103.5}, series.Closes())
	assert.True(t, series[0].Date.Before(series[1].Date))
	assert.Equal(t, int64(1000000), series[0].Volume)
}

func TestLoadPricesUnavailable(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, zerolog.Nop())

	tests := []struct {
		name  string
		setup func()
	}{
		{name: "missing file", setup: func() {}},
		{name: "empty file", setup: func() {
			writeFile(t, dir, "market_data_AAPL.json", "")
		}},
		{name: "corrupt json", setup: func() {
			writeFile(t, dir, "market_data_AAPL.json", "{not json")
		}},
		{name: "no historical data", setup: func() {
			writeFile(t, dir, "market_data_AAPL.json", `{"company_info": {}}`)
		}},
		{name: "duplicate dates", setup: func() {
			writeFile(t, dir, "market_data_AAPL.json", `{"historical_data": [
				{"Date": "2024-01-02", "Close": 100},
				{"Date": "2024-01-02", "Close": 101}
			]}`)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			_, err := store.LoadPrices("AAPL")
			assert.ErrorIs(t, err, domain.ErrDataUnavailable)
		})
	}
}

func TestLoadCompanyInfo(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "market_data_AAPL.json", sampleMarketData)

	store := NewStore(dir, zerolog.Nop())
	info, err := store.LoadCompanyInfo("AAPL")
	require.NoError(t, err)

	assert.Equal(t, "Apple Inc.", info.Name)
	assert.Equal(t, "Technology", info.Sector)
	assert.InDelta(t, 29.5, info.PERatio, 1e-9)
	assert.InDelta(t, 3e12, info.MarketCap, 1)
}

func TestLoadNews(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "financial_news.csv",
		"title,summary,link,published,source\n"+
			"Markets surge on earnings,Strong profit growth lifts indexes,https://example.com/1,2024-01-15,wire\n"+
			"Chipmaker warns of decline,Guidance cut on weak demand,https://example.com/2,2024-01-16,wire\n")

	store := NewStore(dir, zerolog.Nop())
	articles, err := store.LoadNews()
	require.NoError(t, err)
	require.Len(t, articles, 2)

	assert.Equal(t, "Markets surge on earnings", articles[0].Title)
	assert.Equal(t, "wire", articles[0].Source)
	assert.Equal(t, 2024, articles[0].Published.Year())
}

func TestLoadNewsMissingFile(t *testing.T) {
	store := NewStore(t.TempDir(), zerolog.Nop())
	_, err := store.LoadNews()
	assert.ErrorIs(t, err, domain.ErrDataUnavailable)
}

func TestLoadFilings(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sec_filings.csv",
		"symbol,company_name,filing_type,filing_date,revenue,net_income,market_cap,pe_ratio,content\n"+
			"aapl,Apple Inc.,10-K,2024-01-10,383000000000,97000000000,3000000000000,29.5,Annual report content\n")

	store := NewStore(dir, zerolog.Nop())
	filings, err := store.LoadFilings()
	require.NoError(t, err)
	require.Len(t, filings, 1)

	f := filings[0]
	assert.Equal(t, "AAPL", f.Symbol)
	assert.Equal(t, "10-K", f.FilingType)
	assert.InDelta(t, 3.83e11, f.Revenue, 1)
	assert.Equal(t, "Annual report content", f.Content)
	assert.Equal(t, 2024, f.FilingDate.Year())
}
