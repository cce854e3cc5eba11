package vectorindex

import (
	"fmt"
	"math"
	"sort"
	"sync"
)

// Record is an embedded chunk owned by exactly one collection: the
// document text, its row metadata, and its vector. Records are
// append-only; there is no partial delete or update path - a collection
// is superseded only by a full rebuild.
type Record struct {
	ID       int64     `json:"id" msgpack:"id"`
	Document string    `json:"document" msgpack:"document"`
	Metadata Metadata  `json:"metadata" msgpack:"metadata"`
	Vector   []float64 `json:"-" msgpack:"vector"`
}

// Result is one ranked query hit.
type Result struct {
	Collection string   `json:"collection"`
	ID         int64    `json:"id"`
	Document   string   `json:"document"`
	Metadata   Metadata `json:"metadata"`
	Distance   float64  `json:"distance"`
}

// Collection is a named, append-only set of records sharing a chunk
// type and a uniform vector dimension. A collection-level RWMutex makes
// appends atomic with respect to concurrent reads; concurrent writers
// must still be serialized by the caller (single-writer discipline).
type Collection struct {
	name      string
	dimension int

	mu      sync.RWMutex
	records []Record
	nextID  int64
}

func newCollection(name string, dimension int) *Collection {
	return &Collection{
		name:      name,
		dimension: dimension,
		nextID:    1,
	}
}

// add appends a record and assigns the next monotonically increasing
// identifier. There is no dedup: re-adding identical content creates
// duplicates, which is documented behavior.
func (c *Collection) add(document string, meta Metadata, vector []float64) (Record, error) {
	if len(vector) != c.dimension {
		return Record{}, fmt.Errorf("collection %s: vector dimension %d, want %d", c.name, len(vector), c.dimension)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	record := Record{
		ID:       c.nextID,
		Document: document,
		Metadata: meta,
		Vector:   vector,
	}
	c.records = append(c.records, record)
	c.nextID++

	return record, nil
}

// restore re-inserts a persisted record, keeping the id counter ahead of
// every restored id.
func (c *Collection) restore(record Record) error {
	if len(record.Vector) != c.dimension {
		return fmt.Errorf("collection %s: persisted vector dimension %d, want %d", c.name, len(record.Vector), c.dimension)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.records = append(c.records, record)
	if record.ID >= c.nextID {
		c.nextID = record.ID + 1
	}
	return nil
}

// search scans the collection for the k nearest neighbors by cosine
// distance among rows satisfying the filter, ascending by distance.
func (c *Collection) search(vector []float64, k int, filter Filter) []Result {
	if k <= 0 {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var results []Result
	for _, record := range c.records {
		if !filter.Matches(record.Metadata) {
			continue
		}
		results = append(results, Result{
			Collection: c.name,
			ID:         record.ID,
			Document:   record.Document,
			Metadata:   record.Metadata,
			Distance:   CosineDistance(vector, record.Vector),
		})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Distance < results[j].Distance })
	if len(results) > k {
		results = results[:k]
	}
	return results
}

// count returns the number of records in the collection.
func (c *Collection) count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// CosineDistance is the fixed distance metric of the index:
// 1 - cos(a, b). Identical directions give 0, orthogonal vectors 1.
// A zero vector has no direction and is treated as maximally distant.
func CosineDistance(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	dot, normA, normB := 0.0, 0.0, 0.0
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
