// Package vectorindex stores embedded chunks in per-type collections and
// answers nearest-neighbor queries under compound metadata predicates
// (date range, symbol set). This is the temporal-filtered retrieval core.
package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/aristath/finsight/internal/domain"
	"github.com/aristath/finsight/internal/modules/embedding"
)

// collectionTypes fixes the set of collections, one per chunk type.
var collectionTypes = []domain.ChunkType{
	domain.ChunkMarketData,
	domain.ChunkNews,
	domain.ChunkSECFiling,
}

// Index is the temporal-filtered similarity retrieval layer. It owns one
// collection per chunk type, shares a single embedding provider, and
// optionally persists appends through a Store.
type Index struct {
	embedder    embedding.Provider
	store       *Store // nil means volatile, in-memory only
	collections map[domain.ChunkType]*Collection
	log         zerolog.Logger
}

// New creates the index and restores any persisted records. Persisted
// rows with a stale dimension (embedding model changed) fail the load:
// the store must be rebuilt rather than silently mixed.
func New(embedder embedding.Provider, store *Store, log zerolog.Logger) (*Index, error) {
	ix := &Index{
		embedder:    embedder,
		store:       store,
		collections: make(map[domain.ChunkType]*Collection, len(collectionTypes)),
		log:         log.With().Str("component", "vector_index").Logger(),
	}
	for _, ct := range collectionTypes {
		ix.collections[ct] = newCollection(string(ct), embedder.Dimension())
	}

	if store != nil {
		persisted, err := store.Load()
		if err != nil {
			return nil, domain.NewExternalServiceError("index store", err)
		}
		for name, records := range persisted {
			collection, ok := ix.collections[domain.ChunkType(name)]
			if !ok {
				ix.log.Warn().Str("collection", name).Int("records", len(records)).Msg("Skipping unknown persisted collection")
				continue
			}
			for _, record := range records {
				if err := collection.restore(record); err != nil {
					return nil, fmt.Errorf("failed to restore collection %s: %w", name, err)
				}
			}
		}
	}

	return ix, nil
}

// Add embeds the chunks and appends them to their type's collection.
// Appends from concurrent callers must be serialized by the caller;
// reads remain consistent throughout via the collection locks.
func (ix *Index) Add(ctx context.Context, chunks []domain.Chunk) error {
	grouped := make(map[domain.ChunkType][]domain.Chunk)
	for _, chunk := range chunks {
		if !chunk.Type.Valid() {
			return fmt.Errorf("cannot index chunk of unknown type %q", chunk.Type)
		}
		grouped[chunk.Type] = append(grouped[chunk.Type], chunk)
	}

	for _, ct := range collectionTypes {
		batch := grouped[ct]
		if len(batch) == 0 {
			continue
		}

		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.Text
		}

		vectors, err := ix.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embedding %d %s chunks: %w", len(batch), ct, err)
		}

		collection := ix.collections[ct]
		records := make([]Record, 0, len(batch))
		for i, chunk := range batch {
			record, err := collection.add(chunk.Text, MetadataFromChunk(chunk), vectors[i])
			if err != nil {
				return err
			}
			records = append(records, record)
		}

		if ix.store != nil {
			if err := ix.store.Append(string(ct), records); err != nil {
				return domain.NewExternalServiceError("index store", err)
			}
		}

		ix.log.Debug().Str("collection", string(ct)).Int("added", len(records)).Msg("Indexed chunks")
	}

	return nil
}

// Query embeds the query text and searches a single collection.
func (ix *Index) Query(ctx context.Context, queryText string, chunkType domain.ChunkType, k int, filter Filter) ([]Result, error) {
	collection, ok := ix.collections[chunkType]
	if !ok {
		return nil, fmt.Errorf("unknown collection %q", chunkType)
	}

	vectors, err := ix.embedder.Embed(ctx, []string{queryText})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	return collection.search(vectors[0], k, filter), nil
}

// QueryWithTemporalFilter builds the compound predicate
// date in [start, end] AND symbol in symbols, embeds the query once,
// queries every collection independently, and merges the hits into a
// single ascending-distance ranking truncated to k.
//
// Date bounds arrive as text; a malformed bound is dropped (that side of
// the interval is left open) rather than failing the query. Collections
// that cannot contribute (empty, no matching rows) contribute nothing.
func (ix *Index) QueryWithTemporalFilter(ctx context.Context, queryText, start, end string, symbols []string, k int) ([]Result, error) {
	filter := Filter{Symbols: symbols}

	if start != "" {
		if ts, err := ParseDateBound(start); err == nil {
			filter.Start = &ts
		} else if errors.Is(err, domain.ErrMalformedDate) {
			ix.log.Warn().Str("start", start).Msg("Dropping malformed start date from temporal filter")
		}
	}
	if end != "" {
		if ts, err := ParseDateBound(end); err == nil {
			filter.End = &ts
		} else if errors.Is(err, domain.ErrMalformedDate) {
			ix.log.Warn().Str("end", end).Msg("Dropping malformed end date from temporal filter")
		}
	}

	vectors, err := ix.embedder.Embed(ctx, []string{queryText})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	queryVector := vectors[0]

	var merged []Result
	for _, ct := range collectionTypes {
		merged = append(merged, ix.collections[ct].search(queryVector, k, filter)...)
	}

	sort.Slice(merged, func(i, j int) bool { return merged[i].Distance < merged[j].Distance })
	if len(merged) > k {
		merged = merged[:k]
	}
	return merged, nil
}

// Stats returns the record count per collection.
func (ix *Index) Stats() map[string]int {
	stats := make(map[string]int, len(ix.collections))
	for ct, collection := range ix.collections {
		stats[string(ct)] = collection.count()
	}
	return stats
}
