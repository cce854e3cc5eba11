// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// RiskThresholds holds the tunable bounds used to classify volatility
// into risk levels.
type RiskThresholds struct {
	LowVolatility  float64 // below this and shallow drawdown -> Low
	HighVolatility float64 // below this and moderate drawdown -> Medium
}

// EmbeddingConfig selects and parameterizes the embedding provider.
type EmbeddingConfig struct {
	Provider       string // "local" or "http"
	Dimension      int    // vector dimension of the local provider
	ServiceURL     string // endpoint of the external embedding service
	TimeoutSeconds int    // bound on embedding calls
}

// Config holds application configuration
type Config struct {
	DataDir      string // Base directory for raw data files and the index store
	IndexPath    string // SQLite file backing the vector index
	Port         int
	LogLevel     string
	DevMode      bool
	Symbols      []string // Default ingest universe
	ChunkSize    int      // Temporal chunk window in rows
	ChunkOverlap int      // Temporal chunk overlap in rows

	Risk      RiskThresholds
	Embedding EmbeddingConfig

	// UseSyntheticMarketProxy substitutes a seeded synthetic market
	// return series for beta when no real market series is available.
	// This fabricates data and is therefore an explicit opt-in, never a
	// hidden default.
	UseSyntheticMarketProxy bool
	MarketProxySymbol       string // symbol whose returns serve as the market series

	// RefreshSchedule is a cron expression for periodic re-ingestion.
	// Empty disables the scheduler.
	RefreshSchedule string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("FINSIGHT_DATA_DIR", "data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:      absDataDir,
		IndexPath:    getEnv("FINSIGHT_INDEX_PATH", filepath.Join(absDataDir, "index.db")),
		Port:         getEnvAsInt("PORT", 8080),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		DevMode:      getEnvAsBool("DEV_MODE", false),
		Symbols:      splitList(getEnv("FINSIGHT_SYMBOLS", "AAPL,GOOGL,MSFT,TSLA,AMZN")),
		ChunkSize:    getEnvAsInt("CHUNK_SIZE", 30),
		ChunkOverlap: getEnvAsInt("CHUNK_OVERLAP", 7),
		Risk: RiskThresholds{
			LowVolatility:  getEnvAsFloat("RISK_LOW_VOLATILITY", 0.02),
			HighVolatility: getEnvAsFloat("RISK_HIGH_VOLATILITY", 0.05),
		},
		Embedding: EmbeddingConfig{
			Provider:       getEnv("EMBEDDING_PROVIDER", "local"),
			Dimension:      getEnvAsInt("EMBEDDING_DIMENSION", 384),
			ServiceURL:     getEnv("EMBEDDING_SERVICE_URL", ""),
			TimeoutSeconds: getEnvAsInt("EMBEDDING_TIMEOUT_SECONDS", 10),
		},
		UseSyntheticMarketProxy: getEnvAsBool("USE_SYNTHETIC_MARKET_PROXY", false),
		MarketProxySymbol:       getEnv("MARKET_PROXY_SYMBOL", "SPY"),
		RefreshSchedule:         getEnv("REFRESH_SCHEDULE", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP (%d) must be smaller than CHUNK_SIZE (%d)", c.ChunkOverlap, c.ChunkSize)
	}
	if c.Risk.LowVolatility <= 0 || c.Risk.HighVolatility <= c.Risk.LowVolatility {
		return fmt.Errorf("risk thresholds must satisfy 0 < low (%.4f) < high (%.4f)",
			c.Risk.LowVolatility, c.Risk.HighVolatility)
	}
	switch c.Embedding.Provider {
	case "local":
		if c.Embedding.Dimension <= 0 {
			return fmt.Errorf("EMBEDDING_DIMENSION must be positive, got %d", c.Embedding.Dimension)
		}
	case "http":
		if c.Embedding.ServiceURL == "" {
			return fmt.Errorf("EMBEDDING_SERVICE_URL is required when EMBEDDING_PROVIDER=http")
		}
	default:
		return fmt.Errorf("unknown EMBEDDING_PROVIDER %q", c.Embedding.Provider)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, strings.ToUpper(trimmed))
		}
	}
	return out
}
