package vectorindex

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/finsight/internal/database"
)

// Store persists index records in an embedded SQLite database keyed by
// collection name. Vectors and metadata are msgpack-encoded blobs; the
// index depends only on append and load, never on the storage layout.
type Store struct {
	db  *database.DB
	log zerolog.Logger
}

const storeSchema = `
CREATE TABLE IF NOT EXISTS vectors (
	collection TEXT NOT NULL,
	id         INTEGER NOT NULL,
	document   TEXT NOT NULL,
	metadata   BLOB NOT NULL,
	vector     BLOB NOT NULL,
	PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS idx_vectors_collection ON vectors(collection);
`

// NewStore opens the backing table, creating it when absent.
func NewStore(db *database.DB, log zerolog.Logger) (*Store, error) {
	if _, err := db.Exec(storeSchema); err != nil {
		return nil, fmt.Errorf("failed to create vector store schema: %w", err)
	}
	return &Store{
		db:  db,
		log: log.With().Str("component", "vector_store").Logger(),
	}, nil
}

// Append persists a batch of records for one collection in a single
// transaction.
func (s *Store) Append(collection string, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	return database.WithTransaction(s.db.Conn(), func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT INTO vectors (collection, id, document, metadata, vector) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, record := range records {
			metaBlob, err := msgpack.Marshal(record.Metadata)
			if err != nil {
				return fmt.Errorf("failed to encode metadata for record %d: %w", record.ID, err)
			}
			vectorBlob, err := msgpack.Marshal(record.Vector)
			if err != nil {
				return fmt.Errorf("failed to encode vector for record %d: %w", record.ID, err)
			}
			if _, err := stmt.Exec(collection, record.ID, record.Document, metaBlob, vectorBlob); err != nil {
				return fmt.Errorf("failed to insert record %d into %s: %w", record.ID, collection, err)
			}
		}
		return nil
	})
}

// Load reads every persisted record grouped by collection name.
func (s *Store) Load() (map[string][]Record, error) {
	rows, err := s.db.Query(`SELECT collection, id, document, metadata, vector FROM vectors ORDER BY collection, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query vector store: %w", err)
	}
	defer rows.Close()

	loaded := make(map[string][]Record)
	for rows.Next() {
		var (
			collection string
			record     Record
			metaBlob   []byte
			vectorBlob []byte
		)
		if err := rows.Scan(&collection, &record.ID, &record.Document, &metaBlob, &vectorBlob); err != nil {
			return nil, fmt.Errorf("failed to scan vector row: %w", err)
		}
		if err := msgpack.Unmarshal(metaBlob, &record.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata for %s/%d: %w", collection, record.ID, err)
		}
		if err := msgpack.Unmarshal(vectorBlob, &record.Vector); err != nil {
			return nil, fmt.Errorf("failed to decode vector for %s/%d: %w", collection, record.ID, err)
		}
		loaded[collection] = append(loaded[collection], record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating vector rows: %w", err)
	}

	return loaded, nil
}
