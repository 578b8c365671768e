// Package seed loads catalog documents from a JSON file into one of the supported document stores.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/abgdnv/shopcart/internal/catalog"
	"github.com/jackc/pgx/v5/pgconn"
)

const upsertDocument = `INSERT INTO catalog_documents (collection, id, doc) VALUES ($1, $2, $3::jsonb)
ON CONFLICT (collection, id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()`

// Read parses a JSON object mapping document keys to document bodies. Bodies are kept verbatim,
// so documents the catalog would decode with defaults can be seeded too. Documents are sorted by key.
func Read(r io.Reader) ([]catalog.Document, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	docs := make([]catalog.Document, 0, len(raw))
	for key, body := range raw {
		if key == "" {
			return nil, fmt.Errorf("seed file contains an empty document key")
		}
		docs = append(docs, catalog.Document{Key: key, Data: body})
	}
	slices.SortFunc(docs, func(a, b catalog.Document) int {
		return strings.Compare(a.Key, b.Key)
	})
	return docs, nil
}

// KeyValue is the part of a JetStream bucket used for seeding.
type KeyValue interface {
	Put(ctx context.Context, key string, value []byte) (uint64, error)
}

// ToKeyValue puts every document into the bucket under its key.
func ToKeyValue(ctx context.Context, kv KeyValue, docs []catalog.Document) error {
	for _, doc := range docs {
		if _, err := kv.Put(ctx, doc.Key, doc.Data); err != nil {
			return fmt.Errorf("failed to put document %s: %w", doc.Key, err)
		}
	}
	return nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ToTable upserts every document into catalog_documents under collection.
func ToTable(ctx context.Context, db execer, collection string, docs []catalog.Document) error {
	for _, doc := range docs {
		if _, err := db.Exec(ctx, upsertDocument, collection, doc.Key, doc.Data); err != nil {
			return fmt.Errorf("failed to upsert document %s: %w", doc.Key, err)
		}
	}
	return nil
}
