// Package handlers provides HTTP handlers for context retrieval,
// insight generation and symbol comparison.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/finsight/internal/domain"
	"github.com/aristath/finsight/internal/modules/insights"
)

// Handler handles insights HTTP requests
type Handler struct {
	service *insights.Service
	log     zerolog.Logger
}

// NewHandler creates a new insights handler
func NewHandler(service *insights.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "insights").Logger(),
	}
}

// RegisterRoutes registers insights routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/context", h.HandleContext)
	r.Get("/insights/{symbol}", h.HandleInsights)
	r.Get("/compare", h.HandleCompare)
}

// HandleContext handles GET /api/context?query=...&symbols=A,B&days_back=30&limit=10
func (h *Handler) HandleContext(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		http.Error(w, "query parameter is required", http.StatusBadRequest)
		return
	}

	symbols := splitSymbols(r.URL.Query().Get("symbols"))

	daysBack, ok := positiveIntParam(r, "days_back", insights.DefaultContextDaysBack)
	if !ok {
		http.Error(w, "days_back must be a positive integer", http.StatusBadRequest)
		return
	}
	limit, ok := positiveIntParam(r, "limit", insights.DefaultContextResults)
	if !ok {
		http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
		return
	}

	retrieved, err := h.service.RetrieveContext(r.Context(), query, symbols, daysBack, limit)
	if err != nil {
		h.log.Error().Err(err).Str("query", query).Msg("Context retrieval failed")
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(retrieved))
}

// HandleInsights handles GET /api/insights/{symbol}?query=...
func (h *Handler) HandleInsights(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))
	if symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}

	ins, err := h.service.GenerateInsights(r.Context(), symbol, strings.TrimSpace(r.URL.Query().Get("query")))
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Insight generation failed")
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(ins))
}

// HandleCompare handles GET /api/compare?symbols=A,B,C
func (h *Handler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	symbols := splitSymbols(r.URL.Query().Get("symbols"))
	if len(symbols) < 2 {
		http.Error(w, "at least two symbols are required", http.StatusBadRequest)
		return
	}

	comparison, err := h.service.Compare(r.Context(), symbols)
	if err != nil {
		h.log.Error().Err(err).Strs("symbols", symbols).Msg("Comparison failed")
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(comparison))
}

func splitSymbols(raw string) []string {
	var symbols []string
	for _, part := range strings.Split(raw, ",") {
		if s := strings.ToUpper(strings.TrimSpace(part)); s != "" {
			symbols = append(symbols, s)
		}
	}
	return symbols
}

func positiveIntParam(r *http.Request, name string, fallback int) (int, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback, true
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed <= 0 {
		return 0, false
	}
	return parsed, true
}

// writeServiceError maps failures of external dependencies (embedding
// backend, index store) to 502; everything else is a 500.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var extErr *domain.ExternalServiceError
	if errors.As(err, &extErr) {
		http.Error(w, "Upstream service unavailable", http.StatusBadGateway)
		return
	}
	http.Error(w, "Internal server error", http.StatusInternalServerError)
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
