// Package embedding maps chunk text to fixed-dimension vectors. The
// provider is an external capability: any embedding model satisfying the
// contract is acceptable, and the rest of the system never inspects
// vectors beyond dimensionality and distance.
package embedding

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/finsight/internal/config"
)

// Provider converts text into fixed-length numeric vectors. Embed must
// be deterministic for a fixed model, and every vector has exactly
// Dimension() components.
type Provider interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
	Dimension() int
}

// New constructs the provider selected by configuration.
func New(cfg config.EmbeddingConfig, log zerolog.Logger) (Provider, error) {
	switch cfg.Provider {
	case "local":
		return NewLocal(cfg.Dimension), nil
	case "http":
		return NewClient(cfg, log), nil
	}
	return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
}
