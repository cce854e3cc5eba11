package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FINSIGHT_DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "local", cfg.Embedding.Provider)
	assert.Equal(t, 384, cfg.Embedding.Dimension)
	assert.Equal(t, 30, cfg.ChunkSize)
	assert.Equal(t, 7, cfg.ChunkOverlap)
	assert.InDelta(t, 0.02, cfg.Risk.LowVolatility, 1e-9)
	assert.InDelta(t, 0.05, cfg.Risk.HighVolatility, 1e-9)
	assert.False(t, cfg.UseSyntheticMarketProxy)
	assert.Equal(t, []string{"AAPL", "GOOGL", "MSFT", "TSLA", "AMZN"}, cfg.Symbols)
	assert.Equal(t, filepath.Join(cfg.DataDir, "index.db"), cfg.IndexPath)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("FINSIGHT_DATA_DIR", t.TempDir())
	t.Setenv("FINSIGHT_SYMBOLS", "nvda, amd")
	t.Setenv("RISK_LOW_VOLATILITY", "0.01")
	t.Setenv("RISK_HIGH_VOLATILITY", "0.03")
	t.Setenv("USE_SYNTHETIC_MARKET_PROXY", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"NVDA", "AMD"}, cfg.Symbols)
	assert.InDelta(t, 0.01, cfg.Risk.LowVolatility, 1e-9)
	assert.InDelta(t, 0.03, cfg.Risk.HighVolatility, 1e-9)
	assert.True(t, cfg.UseSyntheticMarketProxy)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "overlap not smaller than chunk size",
			mutate:  func(c *Config) { c.ChunkOverlap = c.ChunkSize },
			wantErr: "CHUNK_OVERLAP",
		},
		{
			name:    "inverted risk thresholds",
			mutate:  func(c *Config) { c.Risk.HighVolatility = c.Risk.LowVolatility },
			wantErr: "risk thresholds",
		},
		{
			name:    "http provider without url",
			mutate:  func(c *Config) { c.Embedding.Provider = "http"; c.Embedding.ServiceURL = "" },
			wantErr: "EMBEDDING_SERVICE_URL",
		},
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.Embedding.Provider = "quantum" },
			wantErr: "unknown EMBEDDING_PROVIDER",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("FINSIGHT_DATA_DIR", t.TempDir())
			cfg, err := Load()
			require.NoError(t, err)

			tt.mutate(cfg)
			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
