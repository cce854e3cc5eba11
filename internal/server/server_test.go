package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/finsight/internal/config"
	"github.com/aristath/finsight/internal/modules/chunker"
	"github.com/aristath/finsight/internal/modules/embedding"
	"github.com/aristath/finsight/internal/modules/ingest"
	ingesthandlers "github.com/aristath/finsight/internal/modules/ingest/handlers"
	"github.com/aristath/finsight/internal/modules/insights"
	insightshandlers "github.com/aristath/finsight/internal/modules/insights/handlers"
	"github.com/aristath/finsight/internal/modules/marketdata"
	"github.com/aristath/finsight/internal/modules/risk"
	riskhandlers "github.com/aristath/finsight/internal/modules/risk/handlers"
	"github.com/aristath/finsight/internal/modules/vectorindex"
)

func writeMarketData(t *testing.T, dir, symbol string, days int) {
	t.Helper()
	start := time.Now().AddDate(0, 0, -days)
	rows := make([]map[string]any, days)
	price := 100.0
	for i := range rows {
		rows[i] = map[string]any{
			"Date":   start.AddDate(0, 0, i).Format("2006-01-02"),
			"Close":  price,
			"Volume": 1000000,
		}
		price *= 1.002
	}
	raw, err := json.Marshal(map[string]any{"historical_data": rows})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, fmt.Sprintf("market_data_%s.json", symbol)), raw, 0644))
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	dir := t.TempDir()
	writeMarketData(t, dir, "AAPL", 100)
	writeMarketData(t, dir, "MSFT", 100)
	writeMarketData(t, dir, "SPY", 100)

	cfg := &config.Config{
		DataDir:      dir,
		Port:         0,
		DevMode:      true,
		Symbols:      []string{"AAPL", "MSFT"},
		ChunkSize:    30,
		ChunkOverlap: 7,
		Risk: config.RiskThresholds{
			LowVolatility:  0.02,
			HighVolatility: 0.05,
		},
		MarketProxySymbol: "SPY",
	}

	index, err := vectorindex.New(embedding.NewLocal(64), nil, zerolog.Nop())
	require.NoError(t, err)

	dataStore := marketdata.NewStore(dir, zerolog.Nop())
	engine := risk.NewEngine(dataStore, cfg, zerolog.Nop())
	insightService := insights.NewService(engine, index, zerolog.Nop())
	ingestService := ingest.NewService(dataStore, chunker.New(zerolog.Nop()), index, cfg, zerolog.Nop())

	return New(Config{
		Log:              zerolog.Nop(),
		Config:           cfg,
		RiskHandlers:     riskhandlers.NewHandler(engine, zerolog.Nop()),
		InsightsHandlers: insightshandlers.NewHandler(insightService, zerolog.Nop()),
		IngestHandlers:   ingesthandlers.NewHandler(ingestService, cfg, zerolog.Nop()),
	})
}

func doRequest(t *testing.T, srv *Server, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Contains(t, payload, "data")
	require.Contains(t, payload, "metadata")
	data, ok := payload["data"].(map[string]any)
	require.True(t, ok)
	return data
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "ok", payload["status"])
	assert.Equal(t, "volatile", payload["index_store"])
}

func TestRiskEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/risk/AAPL", "")
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeData(t, rec)
	assert.Equal(t, "AAPL", data["symbol"])
	metrics, ok := data["metrics"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, metrics, "volatility")
	assert.Contains(t, metrics, "risk_level")
}

func TestRiskEndpointUnknownSymbol(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/risk/GHOST", "")
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeData(t, rec)
	assert.Nil(t, data["metrics"])
	assert.Equal(t, "no market data available", data["note"])
}

func TestTrendsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/trends/AAPL?horizons=7,30", "")
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeData(t, rec)
	trends, ok := data["trends"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, trends, "7d")
	assert.Contains(t, trends, "30d")
	assert.NotContains(t, trends, "90d")
}

func TestTrendsEndpointRejectsBadHorizons(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/trends/AAPL?horizons=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIngestThenQueryFlow(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/ingest", `{"symbols":["AAPL"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeData(t, rec)
	assert.NotEmpty(t, data["batch_id"])
	assert.Greater(t, data["total"].(float64), 0.0)

	rec = doRequest(t, srv, http.MethodGet, "/api/index/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decodeData(t, rec)["collections"].(map[string]any)
	assert.Greater(t, stats["market_data"].(float64), 0.0)

	rec = doRequest(t, srv, http.MethodGet, "/api/context?query=AAPL+market+data", "")
	require.Equal(t, http.StatusOK, rec.Code)
	contextData := decodeData(t, rec)
	assert.Contains(t, contextData, "market_data")
	assert.Contains(t, contextData, "date_range")
}

func TestInsightsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/insights/AAPL", "")
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeData(t, rec)
	assert.Equal(t, "AAPL", data["symbol"])
	rec2, ok := data["recommendation"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, []string{"BUY", "SELL", "HOLD"}, rec2["action"])
}

func TestCompareEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/compare?symbols=AAPL,MSFT", "")
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeData(t, rec)
	comparison, ok := data["comparison"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, comparison, "AAPL")
	assert.Contains(t, comparison, "MSFT")
}

func TestCompareEndpointRequiresTwoSymbols(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/compare?symbols=AAPL", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChunkStatsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/chunks/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeData(t, rec)
	assert.Equal(t, 0.0, data["total"].(float64))
}
