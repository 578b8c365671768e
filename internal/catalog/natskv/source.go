// Package natskv serves the catalog from a NATS JetStream key-value bucket: one key per document,
// the bucket named after the collection.
package natskv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/abgdnv/shopcart/internal/catalog"
	"github.com/nats-io/nats.go/jetstream"
)

// ErrWatchClosed is reported when the bucket watcher stops delivering updates on its own.
var ErrWatchClosed = errors.New("kv watcher closed")

var _ catalog.Source = (*Source)(nil)

// Source watches every key of one bucket.
type Source struct {
	js     jetstream.JetStream
	bucket string
	logger *slog.Logger
}

// NewSource creates a Source for the bucket holding the collection.
func NewSource(js jetstream.JetStream, bucket string, logger *slog.Logger) *Source {
	return &Source{
		js:     js,
		bucket: bucket,
		logger: logger.With("component", "natskv", "bucket", bucket),
	}
}

// Watch opens the bucket and starts watching all keys. The first snapshot is delivered once the
// bucket's current contents have been replayed; every later put, delete or purge produces another.
func (s *Source) Watch(ctx context.Context) (<-chan catalog.Snapshot, error) {
	kv, err := s.js.KeyValue(ctx, s.bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to open kv bucket %s: %w", s.bucket, err)
	}
	watcher, err := kv.WatchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to watch kv bucket %s: %w", s.bucket, err)
	}
	out := make(chan catalog.Snapshot)
	go s.run(ctx, watcher, out)
	return out, nil
}

func (s *Source) run(ctx context.Context, watcher jetstream.KeyWatcher, out chan<- catalog.Snapshot) {
	defer close(out)
	defer func() {
		if err := watcher.Stop(); err != nil {
			s.logger.Debug("Failed to stop kv watcher", "error", err)
		}
	}()

	docs := make(map[string][]byte)
	replayed := false
	for {
		select {
		case <-ctx.Done():
			return
		case entry, ok := <-watcher.Updates():
			if !ok {
				if ctx.Err() == nil {
					s.logger.Error("KV watcher closed unexpectedly")
					send(ctx, out, catalog.Snapshot{Err: ErrWatchClosed})
				}
				return
			}
			// nil entry marks the end of the initial replay
			if entry == nil {
				replayed = true
				s.logger.Debug("Initial replay complete", "documents", len(docs))
				if !send(ctx, out, snapshotOf(docs)) {
					return
				}
				continue
			}
			switch entry.Operation() {
			case jetstream.KeyValuePut:
				docs[entry.Key()] = slices.Clone(entry.Value())
			case jetstream.KeyValueDelete, jetstream.KeyValuePurge:
				delete(docs, entry.Key())
			}
			if replayed && !send(ctx, out, snapshotOf(docs)) {
				return
			}
		}
	}
}

// snapshotOf lists the documents sorted by key.
func snapshotOf(docs map[string][]byte) catalog.Snapshot {
	list := make([]catalog.Document, 0, len(docs))
	for key, data := range docs {
		list = append(list, catalog.Document{Key: key, Data: data})
	}
	slices.SortFunc(list, func(a, b catalog.Document) int {
		return strings.Compare(a.Key, b.Key)
	})
	return catalog.Snapshot{Documents: list}
}

func send(ctx context.Context, out chan<- catalog.Snapshot, snapshot catalog.Snapshot) bool {
	select {
	case out <- snapshot:
		return true
	case <-ctx.Done():
		return false
	}
}
