package config

import (
	"fmt"
	"strings"
)

const (
	CatalogSourceNATS     = "nats"
	CatalogSourcePostgres = "postgres"

	defaultCollection = "Items"
)

// CatalogConfig selects the remote document store the catalog is mirrored from.
type CatalogConfig struct {
	Source     string `koanf:"source"`
	Collection string `koanf:"collection"`
	Migrate    bool   `koanf:"migrate"`
}

// String returns a string representation of the catalog configuration.
func (c *CatalogConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Catalog ---\n")
	b.WriteString(fmt.Sprintf("  source: %s\n", c.Source))
	b.WriteString(fmt.Sprintf("  collection: %s\n", c.Collection))
	b.WriteString(fmt.Sprintf("  migrate: %t\n", c.Migrate))
	return b.String()
}

func (c *CatalogConfig) Validate() error {
	if c.Source == "" {
		c.Source = CatalogSourceNATS
	}
	if c.Collection == "" {
		c.Collection = defaultCollection
	}
	switch c.Source {
	case CatalogSourceNATS, CatalogSourcePostgres:
		return nil
	default:
		return fmt.Errorf("unknown catalog source: %q", c.Source)
	}
}
