package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
)

// Options tune the backend chosen by Open.
type Options struct {
	// Database is the MongoDB database name.
	Database string
	// Prefix is the Postgres table prefix or the Redis key prefix.
	Prefix string
}

// Open returns the Store for dsn. Recognised forms:
//
//	memory:                 in-process, lost on exit
//	sqlite:<path>           SQLite file
//	bolt:<path>             bbolt file
//	postgres://...          PostgreSQL (postgresql:// also accepted)
//	mongodb://...           MongoDB (mongodb+srv:// also accepted)
//	redis://...             Redis (rediss:// also accepted)
func Open(ctx context.Context, dsn string, opts Options) (Store, error) {
	switch {
	case dsn == "" || dsn == "memory" || strings.HasPrefix(dsn, "memory:"):
		return NewMemory(), nil

	case strings.HasPrefix(dsn, "sqlite:"):
		return NewSQLite(strings.TrimPrefix(strings.TrimPrefix(dsn, "sqlite:"), "//"))

	case strings.HasPrefix(dsn, "bolt:"):
		return NewBolt(strings.TrimPrefix(strings.TrimPrefix(dsn, "bolt:"), "//"))

	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("ledger/postgres: pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ledger/postgres: ping: %w", err)
		}
		var pgOpts []PostgresOption
		if opts.Prefix != "" {
			pgOpts = append(pgOpts, WithTablePrefix(opts.Prefix))
		}
		s := NewPostgres(pool, pgOpts...)
		if err := s.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return s, nil

	case strings.HasPrefix(dsn, "mongodb://"), strings.HasPrefix(dsn, "mongodb+srv://"):
		db := opts.Database
		if db == "" {
			db = "aigateway"
		}
		return NewMongo(ctx, dsn, db)

	case strings.HasPrefix(dsn, "redis://"), strings.HasPrefix(dsn, "rediss://"):
		ropts, err := goredis.ParseURL(dsn)
		if err != nil {
			return nil, fmt.Errorf("ledger/redis: %w", err)
		}
		client := goredis.NewClient(ropts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("ledger/redis: ping: %w", err)
		}
		var rOpts []RedisOption
		if opts.Prefix != "" {
			rOpts = append(rOpts, WithKeyPrefix(opts.Prefix))
		}
		return NewRedis(client, rOpts...), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedDSN, dsn)
}
