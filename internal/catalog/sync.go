package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Source is a live subscription to a remote collection. Watch delivers a full Snapshot
// every time the collection changes, until ctx is cancelled or the subscription ends,
// at which point the channel is closed.
type Source interface {
	Watch(ctx context.Context) (<-chan Snapshot, error)
}

// Syncer applies snapshots from a Source to a Catalog.
type Syncer struct {
	catalog *Catalog
	logger  *slog.Logger

	appliedCounter   metric.Int64Counter
	failedCounter    metric.Int64Counter
	malformedCounter metric.Int64Counter
	productsGauge    metric.Int64Gauge
}

// NewSyncer creates a Syncer writing into catalog.
func NewSyncer(catalog *Catalog, logger *slog.Logger) *Syncer {
	meter := otel.Meter("shopcart/catalog")
	appliedCounter, err := meter.Int64Counter("catalog_snapshots_applied", metric.WithDescription("Snapshots that replaced the catalog"))
	if err != nil {
		panic(fmt.Sprintf("failed to create catalog_snapshots_applied counter: %v", err))
	}
	failedCounter, err := meter.Int64Counter("catalog_snapshots_failed", metric.WithDescription("Snapshots that carried a source error"))
	if err != nil {
		panic(fmt.Sprintf("failed to create catalog_snapshots_failed counter: %v", err))
	}
	malformedCounter, err := meter.Int64Counter("catalog_records_malformed", metric.WithDescription("Documents decoded with at least one defaulted field"))
	if err != nil {
		panic(fmt.Sprintf("failed to create catalog_records_malformed counter: %v", err))
	}
	productsGauge, err := meter.Int64Gauge("catalog_products", metric.WithDescription("Products in the current catalog"))
	if err != nil {
		panic(fmt.Sprintf("failed to create catalog_products gauge: %v", err))
	}
	return &Syncer{
		catalog:          catalog,
		logger:           logger.With("component", "catalog-sync"),
		appliedCounter:   appliedCounter,
		failedCounter:    failedCounter,
		malformedCounter: malformedCounter,
		productsGauge:    productsGauge,
	}
}

// Run subscribes to source and applies snapshots until ctx is cancelled or the source closes.
// Both endings return nil; only a failed subscription is an error.
func (s *Syncer) Run(ctx context.Context, source Source) error {
	snapshots, err := source.Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to watch catalog source: %w", err)
	}
	s.logger.InfoContext(ctx, "Catalog subscription started")
	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "Catalog sync stopped")
			return nil
		case snapshot, ok := <-snapshots:
			if !ok {
				s.logger.WarnContext(ctx, "Catalog subscription ended")
				return nil
			}
			s.Apply(ctx, snapshot)
		}
	}
}

// Apply replaces the catalog with the decoded snapshot. A snapshot with an error is logged
// and leaves the catalog unchanged.
func (s *Syncer) Apply(ctx context.Context, snapshot Snapshot) {
	if snapshot.Err != nil {
		s.failedCounter.Add(ctx, 1)
		s.logger.ErrorContext(ctx, "Catalog snapshot failed, keeping current catalog", "error", snapshot.Err, "products", s.catalog.Len())
		return
	}
	if len(snapshot.Documents) == 0 {
		s.logger.InfoContext(ctx, "No documents found.")
	}

	products, malformed := DecodeAll(snapshot.Documents)
	for _, report := range malformed {
		s.logger.DebugContext(ctx, "Document decoded with defaults", "report", report.String())
	}
	if len(malformed) > 0 {
		s.malformedCounter.Add(ctx, int64(len(malformed)))
		s.logger.WarnContext(ctx, "Malformed catalog documents", "malformed", len(malformed), "documents", len(snapshot.Documents))
	}

	s.catalog.Replace(products)
	s.appliedCounter.Add(ctx, 1)
	s.productsGauge.Record(ctx, int64(len(products)))
	s.logger.InfoContext(ctx, "Catalog replaced", "products", len(products))
}
