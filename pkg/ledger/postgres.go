package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pario-ai/aigateway/pkg/models"
)

// PostgresStore implements Store on a PostgreSQL table.
type PostgresStore struct {
	pool        *pgxpool.Pool
	tablePrefix string
}

var _ Store = (*PostgresStore)(nil)

// PostgresOption configures PostgresStore.
type PostgresOption func(*PostgresStore)

// WithTablePrefix sets the table name prefix (default "aigateway_").
func WithTablePrefix(prefix string) PostgresOption {
	return func(s *PostgresStore) { s.tablePrefix = prefix }
}

// NewPostgres creates a PostgresStore on an existing pool.
func NewPostgres(pool *pgxpool.Pool, opts ...PostgresOption) *PostgresStore {
	s := &PostgresStore{pool: pool, tablePrefix: "aigateway_"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *PostgresStore) table() string { return s.tablePrefix + "quotas" }

// EnsureSchema creates the quota table if it doesn't exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	q := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %[1]s (
			id TEXT PRIMARY KEY,
			unit TEXT NOT NULL DEFAULT 'tokens',
			quota_limit BIGINT NOT NULL,
			balance BIGINT NOT NULL,
			use_case_id TEXT NOT NULL,
			use_case_name TEXT NOT NULL DEFAULT '',
			provider_name TEXT NOT NULL,
			model_name TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			enabled BOOLEAN NOT NULL DEFAULT true
		);
		CREATE INDEX IF NOT EXISTS %[1]s_tuple_idx ON %[1]s (use_case_id, provider_name, model_name, enabled);
	`, s.table())
	if _, err := s.pool.Exec(ctx, q); err != nil {
		return fmt.Errorf("ledger/postgres: ensure schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Insert(ctx context.Context, q models.Quota) error {
	_, err := s.pool.Exec(ctx,
		fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`, s.table(), quotaColumns),
		q.ID, string(q.Unit), q.Limit, q.Balance, q.UseCase.ID, q.UseCase.Name,
		q.Provider.Name, q.Provider.Model.Name, q.CreatedAt.UTC(), q.Enabled,
	)
	if err != nil {
		return fmt.Errorf("ledger/postgres: insert: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, f Filter) ([]models.Quota, error) {
	where, args := whereClause(f, dollar, 0)
	rows, err := s.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM %s%s ORDER BY created_at, id`, quotaColumns, s.table(), where), args...)
	if err != nil {
		return nil, fmt.Errorf("ledger/postgres: find: %w", err)
	}
	defer rows.Close()

	var out []models.Quota
	for rows.Next() {
		q, err := scanPostgresQuota(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *PostgresStore) FindOneAndUpdate(ctx context.Context, f Filter, u Update) (*models.Quota, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger/postgres: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	where, args := whereClause(f, dollar, 0)
	var id string
	err = tx.QueryRow(ctx,
		fmt.Sprintf(`SELECT id FROM %s%s ORDER BY created_at, id LIMIT 1 FOR UPDATE`, s.table(), where), args...).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ledger/postgres: find one: %w", err)
	}

	var q models.Quota
	if u.empty() {
		q, err = scanPostgresQuota(tx.QueryRow(ctx,
			fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, quotaColumns, s.table()), id))
	} else {
		set, setArgs := setClause(u, dollar)
		q, err = scanPostgresQuota(tx.QueryRow(ctx,
			fmt.Sprintf(`UPDATE %s SET %s WHERE id = $%d RETURNING %s`, s.table(), set, len(setArgs)+1, quotaColumns),
			append(setArgs, id)...))
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ledger/postgres: commit: %w", err)
	}
	return &q, nil
}

func (s *PostgresStore) UpdateMany(ctx context.Context, f Filter, u Update) (int64, error) {
	if u.empty() {
		qs, err := s.Find(ctx, f)
		return int64(len(qs)), err
	}
	set, setArgs := setClause(u, dollar)
	where, args := whereClause(f, dollar, len(setArgs))
	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE %s SET %s%s`, s.table(), set, where), append(setArgs, args...)...)
	if err != nil {
		return 0, fmt.Errorf("ledger/postgres: update many: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Close closes the underlying pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func scanPostgresQuota(row pgx.Row) (models.Quota, error) {
	var (
		q    models.Quota
		unit string
	)
	err := row.Scan(&q.ID, &unit, &q.Limit, &q.Balance, &q.UseCase.ID, &q.UseCase.Name,
		&q.Provider.Name, &q.Provider.Model.Name, &q.CreatedAt, &q.Enabled)
	if err != nil {
		return models.Quota{}, fmt.Errorf("ledger/postgres: scan: %w", err)
	}
	q.Unit = models.QuotaUnit(unit)
	q.CreatedAt = q.CreatedAt.UTC()
	return q, nil
}
