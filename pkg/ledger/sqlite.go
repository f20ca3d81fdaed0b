package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pario-ai/aigateway/pkg/models"
)

// SQLiteStore implements Store with a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

const createQuotasTable = `
CREATE TABLE IF NOT EXISTS quotas (
	id TEXT PRIMARY KEY,
	unit TEXT NOT NULL,
	quota_limit INTEGER NOT NULL,
	balance INTEGER NOT NULL,
	use_case_id TEXT NOT NULL,
	use_case_name TEXT NOT NULL DEFAULT '',
	provider_name TEXT NOT NULL,
	model_name TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	enabled INTEGER NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS idx_quotas_tuple ON quotas(use_case_id, provider_name, model_name, enabled);
`

// NewSQLite opens (or creates) a SQLite ledger at dbPath and runs
// auto-migration.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open ledger db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createQuotasTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate ledger db: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, q models.Quota) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO quotas (`+quotaColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ID, string(q.Unit), q.Limit, q.Balance, q.UseCase.ID, q.UseCase.Name,
		q.Provider.Name, q.Provider.Model.Name, q.CreatedAt.UTC().UnixNano(), q.Enabled,
	)
	if err != nil {
		return fmt.Errorf("insert quota: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Find(ctx context.Context, f Filter) ([]models.Quota, error) {
	where, args := whereClause(f, questionMark, 0)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+quotaColumns+` FROM quotas`+where+` ORDER BY created_at, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("find quotas: %w", err)
	}
	defer rows.Close()

	var out []models.Quota
	for rows.Next() {
		q, err := scanSQLiteQuota(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) FindOneAndUpdate(ctx context.Context, f Filter, u Update) (*models.Quota, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	where, args := whereClause(f, questionMark, 0)
	var id string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM quotas`+where+` ORDER BY created_at, id LIMIT 1`, args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find quota: %w", err)
	}

	if !u.empty() {
		set, setArgs := setClause(u, questionMark)
		if _, err := tx.ExecContext(ctx, `UPDATE quotas SET `+set+` WHERE id = ?`, append(setArgs, id)...); err != nil {
			return nil, fmt.Errorf("update quota: %w", err)
		}
	}

	q, err := scanSQLiteQuota(tx.QueryRowContext(ctx, `SELECT `+quotaColumns+` FROM quotas WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &q, nil
}

func (s *SQLiteStore) UpdateMany(ctx context.Context, f Filter, u Update) (int64, error) {
	if u.empty() {
		qs, err := s.Find(ctx, f)
		return int64(len(qs)), err
	}
	set, setArgs := setClause(u, questionMark)
	where, args := whereClause(f, questionMark, len(setArgs))
	res, err := s.db.ExecContext(ctx, `UPDATE quotas SET `+set+where, append(setArgs, args...)...)
	if err != nil {
		return 0, fmt.Errorf("update quotas: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteQuota(row rowScanner) (models.Quota, error) {
	var (
		q       models.Quota
		unit    string
		created int64
	)
	err := row.Scan(&q.ID, &unit, &q.Limit, &q.Balance, &q.UseCase.ID, &q.UseCase.Name,
		&q.Provider.Name, &q.Provider.Model.Name, &created, &q.Enabled)
	if err != nil {
		return models.Quota{}, fmt.Errorf("scan quota: %w", err)
	}
	q.Unit = models.QuotaUnit(unit)
	q.CreatedAt = time.Unix(0, created).UTC()
	return q, nil
}
