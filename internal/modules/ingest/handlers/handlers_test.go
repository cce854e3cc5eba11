package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/finsight/internal/config"
	"github.com/aristath/finsight/internal/modules/chunker"
	"github.com/aristath/finsight/internal/modules/embedding"
	"github.com/aristath/finsight/internal/modules/ingest"
	"github.com/aristath/finsight/internal/modules/marketdata"
	"github.com/aristath/finsight/internal/modules/vectorindex"
)

func writePrices(t *testing.T, dir, symbol string, days int) {
	t.Helper()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]map[string]any, days)
	for i := range rows {
		rows[i] = map[string]any{
			"Date":   start.AddDate(0, 0, i).Format("2006-01-02"),
			"Close":  100.0 + float64(i),
			"Volume": 1000000,
		}
	}
	raw, err := json.Marshal(map[string]any{"historical_data": rows})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, fmt.Sprintf("market_data_%s.json", symbol)), raw, 0644))
}

func newIngestRouter(t *testing.T, dir string, provider embedding.Provider) *chi.Mux {
	t.Helper()

	cfg := &config.Config{
		DataDir:      dir,
		Symbols:      []string{"AAPL"},
		ChunkSize:    30,
		ChunkOverlap: 7,
	}
	index, err := vectorindex.New(provider, nil, zerolog.Nop())
	require.NoError(t, err)

	store := marketdata.NewStore(dir, zerolog.Nop())
	svc := ingest.NewService(store, chunker.New(zerolog.Nop()), index, cfg, zerolog.Nop())

	r := chi.NewRouter()
	NewHandler(svc, cfg, zerolog.Nop()).RegisterRoutes(r)
	return r
}

func TestIngestEmbeddingBackendDown(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer backend.Close()

	dir := t.TempDir()
	writePrices(t, dir, "AAPL", 40)

	client := embedding.NewClient(config.EmbeddingConfig{
		ServiceURL:     backend.URL,
		Dimension:      8,
		TimeoutSeconds: 2,
	}, zerolog.Nop())
	router := newIngestRouter(t, dir, client)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ingest", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestIngestSucceedsWithLocalEmbedder(t *testing.T) {
	dir := t.TempDir()
	writePrices(t, dir, "AAPL", 40)

	router := newIngestRouter(t, dir, embedding.NewLocal(16))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ingest", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
