package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/finsight/internal/database"
)

// SystemHandlers handles health and system monitoring endpoints
type SystemHandlers struct {
	log         zerolog.Logger
	dataDir     string
	indexDB     *database.DB
	startupTime time.Time
}

// NewSystemHandlers creates system handlers
func NewSystemHandlers(log zerolog.Logger, dataDir string, indexDB *database.DB) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("handler", "system").Logger(),
		dataDir:     dataDir,
		indexDB:     indexDB,
		startupTime: time.Now(),
	}
}

// HandleHealth handles GET /health and GET /api/health
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	indexStore := "ok"

	if h.indexDB != nil {
		if err := h.indexDB.HealthCheck(r.Context()); err != nil {
			h.log.Error().Err(err).Msg("Index store health check failed")
			status = "degraded"
			indexStore = err.Error()
		}
	} else {
		indexStore = "volatile"
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      status,
		"index_store": indexStore,
		"uptime":      time.Since(h.startupTime).String(),
		"timestamp":   time.Now().Format(time.RFC3339),
	})
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuAvg, ramPercent := h.systemMetrics()

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"cpu_percent":    cpuAvg,
			"ram_percent":    ramPercent,
			"goroutines":     runtime.NumGoroutine(),
			"heap_alloc_mb":  float64(memStats.HeapAlloc) / 1024 / 1024,
			"uptime_seconds": int64(time.Since(h.startupTime).Seconds()),
			"data_dir":       h.dataDir,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// systemMetrics samples CPU and RAM usage. The short CPU sampling
// window keeps the endpoint responsive.
func (h *SystemHandlers) systemMetrics() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		for _, p := range cpuPercent {
			cpuAvg += p
		}
		cpuAvg /= float64(len(cpuPercent))
	}

	return cpuAvg, memStat.UsedPercent
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
