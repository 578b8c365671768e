// Package config holds the shopcart service configuration.
package config

import (
	"strings"

	"github.com/abgdnv/shopcart/pkg/config"
	"github.com/abgdnv/shopcart/pkg/config/configloader"
)

var _ configloader.Validator = (*Config)(nil)

type Config struct {
	HTTPServer config.HTTPConfig      `koanf:"server"`
	Log        config.LogConfig       `koanf:"log"`
	PProf      config.PProfConfig     `koanf:"pprof"`
	Shutdown   config.ShutdownConfig  `koanf:"shutdown"`
	Telemetry  config.TelemetryConfig `koanf:"telemetry"`
	Catalog    config.CatalogConfig   `koanf:"catalog"`
	NATS       config.NATSConfig      `koanf:"nats"`
	Database   config.DatabaseConfig  `koanf:"database"`
}

func (c *Config) String() string {
	var b strings.Builder
	b.WriteString(c.HTTPServer.String())
	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Shutdown.String())
	b.WriteString(c.Telemetry.String())
	b.WriteString(c.Catalog.String())
	switch c.Catalog.Source {
	case config.CatalogSourceNATS:
		b.WriteString(c.NATS.String())
	case config.CatalogSourcePostgres:
		b.WriteString(c.Database.String())
	}
	return b.String()
}

// Validate checks every section. Connection settings are only required for the selected catalog source.
func (c *Config) Validate() error {
	if err := c.HTTPServer.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if err := c.PProf.Validate(); err != nil {
		return err
	}
	if err := c.Shutdown.Validate(); err != nil {
		return err
	}
	if err := c.Telemetry.Validate(); err != nil {
		return err
	}
	if err := c.Catalog.Validate(); err != nil {
		return err
	}
	switch c.Catalog.Source {
	case config.CatalogSourceNATS:
		return c.NATS.Validate()
	case config.CatalogSourcePostgres:
		return c.Database.Validate()
	}
	return nil
}
