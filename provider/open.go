package provider

import (
	"context"

	"github.com/airagroup/dobee/config"
	"github.com/airagroup/dobee/dialect"
	"github.com/airagroup/dobee/dialect/sql"
	"github.com/airagroup/dobee/schema"
)

// Open loads the model named by cfg, connects to its MySQL database and
// returns a provider over the connection. opts apply after the settings of
// cfg. The provider owns the connection; Close releases it.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*Provider, error) {
	model, err := schema.LoadFile(cfg.Model)
	if err != nil {
		return nil, err
	}
	drv, err := sql.Connect(ctx, dialect.MySQL, cfg.Database.FormatDSN())
	if err != nil {
		return nil, err
	}
	return open(drv, model, cfg, opts...)
}

func open(drv dialect.Driver, model *schema.Model, cfg *config.Config, opts ...Option) (*Provider, error) {
	settings := []Option{WithPrefix(cfg.TablePrefix), WithLogTable(cfg.LogTable)}
	if cfg.Debug {
		settings = append(settings, WithDebug())
	}
	if cfg.SlowQueryThreshold > 0 {
		settings = append(settings, WithSlowQueryThreshold(cfg.SlowQueryThreshold))
	}
	p, err := New(drv, model, append(settings, opts...)...)
	if err != nil {
		_ = drv.Close()
		return nil, err
	}
	return p, nil
}
