package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/finsight/internal/config"
	"github.com/aristath/finsight/internal/domain"
)

// Client calls an external embedding service over HTTP. Calls carry a
// bounded timeout; failures surface as ExternalServiceError rather than
// empty results, since an unreachable embedding backend is an outage,
// not an absence of data.
type Client struct {
	url        string
	dimension  int
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates an embedding service client from configuration.
func NewClient(cfg config.EmbeddingConfig, log zerolog.Logger) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		url:       cfg.ServiceURL,
		dimension: cfg.Dimension,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log.With().Str("component", "embedding_client").Logger(),
	}
}

// Dimension returns the vector length the service is configured for.
func (c *Client) Dimension() int { return c.dimension }

type embedRequest struct {
	Texts []string `json:"texts"`
}

type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// Embed posts the texts to the embedding service and returns its vectors.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(embedRequest{Texts: texts})
	if err != nil {
		return nil, fmt.Errorf("failed to encode embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewExternalServiceError("embedding", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, domain.NewExternalServiceError("embedding",
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(snippet)))
	}

	var decoded embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, domain.NewExternalServiceError("embedding", fmt.Errorf("invalid response body: %w", err))
	}

	if len(decoded.Embeddings) != len(texts) {
		return nil, domain.NewExternalServiceError("embedding",
			fmt.Errorf("got %d vectors for %d texts", len(decoded.Embeddings), len(texts)))
	}
	for i, v := range decoded.Embeddings {
		if len(v) != c.dimension {
			return nil, domain.NewExternalServiceError("embedding",
				fmt.Errorf("vector %d has dimension %d, want %d", i, len(v), c.dimension))
		}
	}

	return decoded.Embeddings, nil
}
