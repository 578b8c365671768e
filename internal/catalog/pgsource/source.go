// Package pgsource serves the catalog from a PostgreSQL table of JSON documents. Changes are
// pushed with LISTEN/NOTIFY and every notification reloads the whole collection.
package pgsource

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/abgdnv/shopcart/internal/catalog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Channel is the notification channel the catalog_documents trigger publishes on.
// The payload is the name of the collection that changed.
const Channel = "catalog_changed"

const selectDocuments = `SELECT id, doc FROM catalog_documents WHERE collection = $1 ORDER BY id`

var _ catalog.Source = (*Source)(nil)

// querier is the subset of pgx used to read a collection.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Source watches one collection of the catalog_documents table.
type Source struct {
	pool       *pgxpool.Pool
	collection string
	logger     *slog.Logger
}

// NewSource creates a Source for collection.
func NewSource(pool *pgxpool.Pool, collection string, logger *slog.Logger) *Source {
	return &Source{
		pool:       pool,
		collection: collection,
		logger:     logger.With("component", "pgsource", "collection", collection),
	}
}

// Watch dedicates one pooled connection to listening for changes. The current contents of the
// collection are read after LISTEN so no change between the two is missed.
func (s *Source) Watch(ctx context.Context) (<-chan catalog.Snapshot, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire listen connection: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+Channel); err != nil {
		conn.Release()
		return nil, fmt.Errorf("failed to listen on %s: %w", Channel, err)
	}
	initial, err := load(ctx, conn, s.collection)
	if err != nil {
		s.release(conn)
		return nil, err
	}
	out := make(chan catalog.Snapshot)
	go s.run(ctx, conn, initial, out)
	return out, nil
}

func (s *Source) run(ctx context.Context, conn *pgxpool.Conn, initial catalog.Snapshot, out chan<- catalog.Snapshot) {
	defer close(out)
	defer s.release(conn)

	if !send(ctx, out, initial) {
		return
	}
	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Error("Waiting for catalog notification failed", "error", err)
				send(ctx, out, catalog.Snapshot{Err: fmt.Errorf("failed to wait for notification: %w", err)})
			}
			return
		}
		if n.Payload != s.collection {
			continue
		}
		s.logger.Debug("Catalog change notified", "pid", n.PID)
		snapshot, err := load(ctx, conn, s.collection)
		if err != nil {
			snapshot = catalog.Snapshot{Err: err}
		}
		if !send(ctx, out, snapshot) {
			return
		}
	}
}

// release stops listening before the connection goes back to the pool.
func (s *Source) release(conn *pgxpool.Conn) {
	if _, err := conn.Exec(context.Background(), "UNLISTEN *"); err != nil {
		s.logger.Debug("Failed to unlisten", "error", err)
	}
	conn.Release()
}

// load reads every document of collection, ordered by id.
func load(ctx context.Context, q querier, collection string) (catalog.Snapshot, error) {
	rows, err := q.Query(ctx, selectDocuments, collection)
	if err != nil {
		return catalog.Snapshot{}, fmt.Errorf("failed to query collection %s: %w", collection, err)
	}
	docs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.Document, error) {
		var doc catalog.Document
		err := row.Scan(&doc.Key, &doc.Data)
		return doc, err
	})
	if err != nil {
		return catalog.Snapshot{}, fmt.Errorf("failed to read collection %s: %w", collection, err)
	}
	return catalog.Snapshot{Documents: docs}, nil
}

func send(ctx context.Context, out chan<- catalog.Snapshot, snapshot catalog.Snapshot) bool {
	select {
	case out <- snapshot:
		return true
	case <-ctx.Done():
		return false
	}
}
