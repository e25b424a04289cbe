package cli

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/rowstream/internal/config"
	"github.com/JonMunkholm/rowstream/internal/core"
	"github.com/JonMunkholm/rowstream/internal/logging"
	"github.com/JonMunkholm/rowstream/internal/seed"
	"github.com/JonMunkholm/rowstream/internal/source/csvsource"
	"github.com/JonMunkholm/rowstream/internal/source/pgsource"
	"github.com/JonMunkholm/rowstream/internal/source/sqlsource"
)

// store is an opened row store. sink is nil for stores that cannot be
// written.
type store struct {
	provider core.Provider
	sink     seed.Sink
	close    func()
}

func openStore(ctx context.Context, cfg config.DatabaseConfig) (*store, error) {
	logger := logging.WithFields(ctx, "driver", cfg.Driver)

	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := pgsource.NewPool(ctx, cfg)
		if err != nil {
			return nil, &core.ConnectionError{Err: err}
		}
		p := pgsource.New(pool)
		return &store{provider: p, sink: p, close: pool.Close}, nil

	case config.DriverSQLite:
		p, err := sqlsource.Open(cfg.URL)
		if err != nil {
			return nil, err
		}
		p.DB().SetMaxOpenConns(cfg.MaxConns)
		p.DB().SetConnMaxLifetime(cfg.MaxConnLifetime)
		p.DB().SetConnMaxIdleTime(cfg.MaxConnIdleTime)
		return &store{
			provider: p,
			sink:     p,
			close: func() {
				if err := p.Close(); err != nil {
					logger.Warn("close database", "error", err)
				}
			},
		}, nil

	case config.DriverCSV:
		return &store{provider: csvsource.New(cfg.URL), close: func() {}}, nil

	default:
		return nil, fmt.Errorf("%w: unknown driver %q", core.ErrInvalidArgument, cfg.Driver)
	}
}
