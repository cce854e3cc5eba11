// Package ingest runs the end-to-end pipeline: raw data files are
// chunked, embedded and appended to the vector index, and each run is
// recorded as a batch document under the processed directory.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/finsight/internal/config"
	"github.com/aristath/finsight/internal/domain"
	"github.com/aristath/finsight/internal/modules/chunker"
	"github.com/aristath/finsight/internal/modules/marketdata"
	"github.com/aristath/finsight/internal/modules/vectorindex"
)

// Report summarizes one ingestion run.
type Report struct {
	BatchID    string         `json:"batch_id"`
	StartedAt  time.Time      `json:"started_at"`
	DurationMS int64          `json:"duration_ms"`
	Symbols    []string       `json:"symbols"`
	Skipped    []string       `json:"skipped,omitempty"`
	Chunks     map[string]int `json:"chunks"`
	Total      int            `json:"total"`
}

// Service wires the stores, the chunker and the index into one pipeline.
type Service struct {
	store   *marketdata.Store
	chunker *chunker.Service
	index   *vectorindex.Index
	cfg     *config.Config
	log     zerolog.Logger
}

// NewService creates the ingestion pipeline.
func NewService(store *marketdata.Store, ch *chunker.Service, index *vectorindex.Index, cfg *config.Config, log zerolog.Logger) *Service {
	return &Service{
		store:   store,
		chunker: ch,
		index:   index,
		cfg:     cfg,
		log:     log.With().Str("component", "ingest").Logger(),
	}
}

// Run ingests the given symbols plus the shared news and filings files.
// Symbols whose market data is unavailable are skipped with a warning;
// the run fails only on infrastructure errors (embedding, index store)
// or invalid chunking configuration.
func (s *Service) Run(ctx context.Context, symbols []string) (Report, error) {
	started := time.Now()
	report := Report{
		BatchID:   uuid.New().String(),
		StartedAt: started,
		Symbols:   symbols,
		Chunks:    make(map[string]int),
	}

	var chunks []domain.Chunk

	for _, symbol := range symbols {
		series, err := s.store.LoadPrices(symbol)
		if err != nil {
			if errors.Is(err, domain.ErrDataUnavailable) {
				s.log.Warn().Str("symbol", symbol).Err(err).Msg("Skipping symbol with no market data")
				report.Skipped = append(report.Skipped, symbol)
				continue
			}
			return Report{}, err
		}

		temporal, err := s.chunker.Temporal(symbol, series, s.cfg.ChunkSize, s.cfg.ChunkOverlap)
		if err != nil {
			return Report{}, fmt.Errorf("chunking %s: %w", symbol, err)
		}
		chunks = append(chunks, temporal...)
	}

	if articles, err := s.store.LoadNews(); err == nil {
		chunks = append(chunks, s.chunker.News(articles, 0)...)
	} else if errors.Is(err, domain.ErrDataUnavailable) {
		s.log.Warn().Err(err).Msg("No news data to ingest")
	} else {
		return Report{}, err
	}

	if filings, err := s.store.LoadFilings(); err == nil {
		chunks = append(chunks, s.chunker.Filings(filings)...)
	} else if errors.Is(err, domain.ErrDataUnavailable) {
		s.log.Warn().Err(err).Msg("No filings data to ingest")
	} else {
		return Report{}, err
	}

	if err := s.index.Add(ctx, chunks); err != nil {
		return Report{}, fmt.Errorf("indexing batch %s: %w", report.BatchID, err)
	}

	for _, chunk := range chunks {
		report.Chunks[string(chunk.Type)]++
	}
	report.Total = len(chunks)
	report.DurationMS = time.Since(started).Milliseconds()

	if err := s.writeBatchDocument(report); err != nil {
		// The index already holds the chunks; a failed audit record is
		// worth a warning, not a failed run.
		s.log.Warn().Err(err).Str("batch_id", report.BatchID).Msg("Failed to write batch document")
	}

	s.log.Info().
		Str("batch_id", report.BatchID).
		Int("total", report.Total).
		Int("skipped", len(report.Skipped)).
		Msg("Ingestion run complete")

	return report, nil
}

// writeBatchDocument records the run under data_dir/processed/.
func (s *Service) writeBatchDocument(report Report) error {
	dir := filepath.Join(s.cfg.DataDir, "processed")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating processed directory: %w", err)
	}

	raw, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding batch document: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("chunks_%s.json", report.BatchID))
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return fmt.Errorf("writing batch document: %w", err)
	}
	return nil
}

// ChunkStats reports the current index population per collection.
func (s *Service) ChunkStats() map[string]int {
	return s.index.Stats()
}
