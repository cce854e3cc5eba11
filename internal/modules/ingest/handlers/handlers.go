// Package handlers provides HTTP handlers for ingestion and index
// statistics endpoints.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/finsight/internal/config"
	"github.com/aristath/finsight/internal/domain"
	"github.com/aristath/finsight/internal/modules/ingest"
)

// Handler handles ingestion HTTP requests
type Handler struct {
	service *ingest.Service
	cfg     *config.Config
	log     zerolog.Logger
}

// NewHandler creates a new ingest handler
func NewHandler(service *ingest.Service, cfg *config.Config, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		cfg:     cfg,
		log:     log.With().Str("handler", "ingest").Logger(),
	}
}

// RegisterRoutes registers ingestion routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/ingest", h.HandleIngest)
	r.Get("/index/stats", h.HandleIndexStats)
	r.Get("/chunks/stats", h.HandleChunkStats)
}

// IngestRequest optionally narrows the run to specific symbols.
type IngestRequest struct {
	Symbols []string `json:"symbols"`
}

// HandleIngest handles POST /api/ingest
func (h *Handler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	symbols := req.Symbols
	if len(symbols) == 0 {
		symbols = h.cfg.Symbols
	}
	if len(symbols) == 0 {
		http.Error(w, "no symbols configured or provided", http.StatusBadRequest)
		return
	}

	report, err := h.service.Run(r.Context(), symbols)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidWindow) {
			http.Error(w, "invalid chunking configuration", http.StatusUnprocessableEntity)
			return
		}
		h.log.Error().Err(err).Strs("symbols", symbols).Msg("Ingestion run failed")

		var extErr *domain.ExternalServiceError
		if errors.As(err, &extErr) {
			http.Error(w, "Upstream service unavailable", http.StatusBadGateway)
			return
		}
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(report))
}

// HandleIndexStats handles GET /api/index/stats
func (h *Handler) HandleIndexStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"collections": h.service.ChunkStats(),
	}))
}

// HandleChunkStats handles GET /api/chunks/stats
func (h *Handler) HandleChunkStats(w http.ResponseWriter, r *http.Request) {
	stats := h.service.ChunkStats()
	total := 0
	for _, n := range stats {
		total += n
	}

	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"by_type": stats,
		"total":   total,
	}))
}

func envelope(data interface{}) map[string]interface{} {
	return map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
