// Package handlers provides HTTP handlers for risk and trend endpoints.
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
	"github.com/aristath/finsight/internal/modules/risk"
)

// Handler handles risk HTTP requests
type Handler struct {
	engine *risk.Engine
	log    zerolog.Logger
}

// NewHandler creates a new risk handler
func NewHandler(engine *risk.Engine, log zerolog.Logger) *Handler {
	return &Handler{
		engine: engine,
		log:    log.With().Str("handler", "risk").Logger(),
	}
}

// RegisterRoutes registers risk and trend routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/risk/{symbol}", h.HandleRiskMetrics)
	r.Get("/trends/{symbol}", h.HandleTrends)
}

// HandleRiskMetrics handles GET /api/risk/{symbol}?lookback=30
func (h *Handler) HandleRiskMetrics(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))
	if symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}

	lookback := risk.DefaultLookbackDays
	if v := r.URL.Query().Get("lookback"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			http.Error(w, "lookback must be a positive integer", http.StatusBadRequest)
			return
		}
		lookback = parsed
	}

	metrics, err := h.engine.Metrics(symbol, lookback)
	switch {
	case err == nil:
		h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
			"symbol":  symbol,
			"metrics": metrics,
		}))
	case errors.Is(err, domain.ErrDataUnavailable):
		h.log.Warn().Str("symbol", symbol).Msg("No market data for risk metrics")
		h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
			"symbol":  symbol,
			"metrics": nil,
			"note":    "no market data available",
		}))
	case errors.Is(err, domain.ErrInsufficientHistory):
		h.log.Warn().Str("symbol", symbol).Int("lookback", lookback).Msg("Insufficient history for risk metrics")
		h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
			"symbol":  symbol,
			"metrics": nil,
			"note":    "insufficient price history",
		}))
	default:
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Risk metrics computation failed")
		h.writeServiceError(w, err)
	}
}

// HandleTrends handles GET /api/trends/{symbol}?horizons=7,30,90
func (h *Handler) HandleTrends(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))
	if symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}

	var horizons []int
	if v := r.URL.Query().Get("horizons"); v != "" {
		for _, part := range strings.Split(v, ",") {
			horizon, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil || horizon <= 0 {
				http.Error(w, "horizons must be positive integers", http.StatusBadRequest)
				return
			}
			horizons = append(horizons, horizon)
		}
	}

	trends, err := h.engine.Trends(symbol, horizons)
	switch {
	case err == nil:
		h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
			"symbol": symbol,
			"trends": trends,
		}))
	case errors.Is(err, domain.ErrDataUnavailable):
		h.log.Warn().Str("symbol", symbol).Msg("No market data for trend analysis")
		h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
			"symbol": symbol,
			"trends": map[string]risk.Trend{},
			"note":   "no market data available",
		}))
	default:
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Trend analysis failed")
		h.writeServiceError(w, err)
	}
}

// writeServiceError maps failures of external dependencies to 502;
// everything else is a 500.
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
