package storage

import (
	"context"
	"fmt"
)

type OpenOptions struct {
	Driver   string
	DSN      string
	Database string
	// Migrate applies schema migrations (SQL) or creates indexes (mongo).
	Migrate bool
}

// Open returns the repository for opts.Driver.
func Open(ctx context.Context, opts OpenOptions) (Repository, error) {
	switch opts.Driver {
	case DriverMongo:
		repo, err := OpenMongo(ctx, opts.DSN, opts.Database)
		if err != nil {
			return nil, err
		}
		if opts.Migrate {
			if err := repo.EnsureIndexes(ctx); err != nil {
				_ = repo.Close()
				return nil, err
			}
		}
		return repo, nil
	case DriverSQLite3, DriverSQLite, DriverPostgres:
		repo, err := OpenSQL(ctx, opts.Driver, opts.DSN)
		if err != nil {
			return nil, err
		}
		if opts.Migrate {
			if err := repo.Migrate(ctx); err != nil {
				_ = repo.Close()
				return nil, err
			}
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("storage: unsupported driver %q", opts.Driver)
	}
}
