// Package app wires the catalog, the cart and the HTTP surface of the shopcart service.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/shopcart/internal/cart"
	"github.com/abgdnv/shopcart/internal/catalog"
	"github.com/abgdnv/shopcart/internal/catalog/natskv"
	"github.com/abgdnv/shopcart/internal/catalog/pgsource"
	"github.com/abgdnv/shopcart/internal/config"
	"github.com/abgdnv/shopcart/internal/transport/rest"
	"github.com/abgdnv/shopcart/pkg/bootstrap"
	pkgconfig "github.com/abgdnv/shopcart/pkg/config"
	natsclient "github.com/abgdnv/shopcart/pkg/nats"
	"github.com/abgdnv/shopcart/pkg/server"
	"github.com/go-chi/chi/v5"
)

type Dependencies struct {
	Catalog        *catalog.Catalog
	Cart           *cart.Cart
	Syncer         *catalog.Syncer
	Logger         *slog.Logger
	MetricsHandler http.Handler
}

// SetupDependencies creates an empty catalog and cart. metricsHandler may be nil.
func SetupDependencies(logger *slog.Logger, metricsHandler http.Handler) *Dependencies {
	c := catalog.New()
	return &Dependencies{
		Catalog:        c,
		Cart:           cart.New(),
		Syncer:         catalog.NewSyncer(c, logger),
		Logger:         logger,
		MetricsHandler: metricsHandler,
	}
}

// SetupHttpHandler builds the router with the catalog and cart routes.
// Used by tests to exercise the full middleware chain.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return mux
}

func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	rest.NewHandler(deps.Catalog, deps.Cart, deps.Logger).RegisterRoutes(mux)
	if deps.MetricsHandler != nil {
		mux.Handle("/metrics", deps.MetricsHandler)
	}
}

// SetupHttpServer creates the HTTP server for the service.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	mux := SetupHttpHandler(deps)

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}

	return server.NewHTTPServer(httpCfg, "shopcart-http", mux)
}

// NewCatalogSource connects to the configured document store. The returned func releases the connection.
func NewCatalogSource(ctx context.Context, cfg *config.Config, logger *slog.Logger) (catalog.Source, func(), error) {
	switch cfg.Catalog.Source {
	case pkgconfig.CatalogSourceNATS:
		nc, err := natsclient.NewClient(cfg.NATS.Url, cfg.NATS.Name, cfg.NATS.Timeout)
		if err != nil {
			return nil, nil, err
		}
		js, err := natsclient.NewJetStreamContext(nc)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Successfully connected to NATS!", "url", nc.ConnectedUrlRedacted())
		return natskv.NewSource(js, cfg.Catalog.Collection, logger), nc.Close, nil

	case pkgconfig.CatalogSourcePostgres:
		if cfg.Catalog.Migrate {
			if err := pgsource.Migrate(cfg.Database.URL, logger); err != nil {
				return nil, nil, err
			}
		}
		dbPool, err := bootstrap.NewDbPool(ctx, cfg.Database.URL, cfg.Database.Timeout)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create database connection pool: %w", err)
		}
		logger.Info("Successfully connected to the database!")
		return pgsource.NewSource(dbPool, cfg.Catalog.Collection, logger), dbPool.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown catalog source: %q", cfg.Catalog.Source)
}

// LogCartChanges logs every cart state until ctx is cancelled.
func LogCartChanges(ctx context.Context, c *cart.Cart, logger *slog.Logger) error {
	logger = logger.With("component", "cart")
	changes, unsubscribe := c.Subscribe()
	defer unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return nil
		case state, ok := <-changes:
			if !ok {
				return nil
			}
			logger.InfoContext(ctx, "Cart changed", "count", state.Count(), "total", rest.FormatPrice(state.Total))
			for i, e := range state.Entries {
				logger.DebugContext(ctx, "Cart entry", "index", i, "name", e.Name, "price", e.Price)
			}
		}
	}
}
