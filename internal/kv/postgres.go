package kv

import (
	"context"
	"fmt"
	"time"

	"foodconnect/internal/utils"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	entrySchemaName = "foodconnect"
	entryTableName  = "foodconnect.kv_entries"

	// Every Update takes this transaction scoped advisory lock so read-modify-write
	// cycles on a collection never interleave, including on keys that do not exist yet.
	updateLockID = 0x666f6f64 // "food"
)

var entryColumns = utils.StructTagValues(entry{})

type entry struct {
	Key       string    `db:"key"`
	Value     string    `db:"value"`
	UpdatedAt time.Time `db:"updated_at"`
}

type querier interface {
	pgxscan.Querier
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Postgres stores each key as one row of foodconnect.kv_entries. Values are
// kept as text, not jsonb, so malformed content round-trips untouched.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func psql() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

func (p *Postgres) EnsureSchema(ctx context.Context) error {
	statements := []string{
		fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", entrySchemaName),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, entryTableName),
	}

	for _, stmt := range statements {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure kv schema: %w", err)
		}
	}

	return nil
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	return getEntry(ctx, p.pool, key)
}

func (p *Postgres) Set(ctx context.Context, key string, value []byte) error {
	return setEntry(ctx, p.pool, key, value)
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	return deleteEntry(ctx, p.pool, key)
}

func (p *Postgres) Update(ctx context.Context, fn func(ctx context.Context, tx Bucket) error) error {
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin kv transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", int64(updateLockID)); err != nil {
		return fmt.Errorf("failed to acquire kv update lock: %w", err)
	}

	if err := fn(ctx, &pgBucket{q: tx}); err != nil {
		return err
	}

	return utils.ErrorWrapOrNil(tx.Commit(ctx), "failed to commit kv transaction")
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

type pgBucket struct {
	q querier
}

func (b *pgBucket) Get(ctx context.Context, key string) ([]byte, error) {
	return getEntry(ctx, b.q, key)
}

func (b *pgBucket) Set(ctx context.Context, key string, value []byte) error {
	return setEntry(ctx, b.q, key, value)
}

func (b *pgBucket) Delete(ctx context.Context, key string) error {
	return deleteEntry(ctx, b.q, key)
}

func getEntry(ctx context.Context, q pgxscan.Querier, key string) ([]byte, error) {
	query, args, err := psql().
		Select(entryColumns...).
		From(entryTableName).
		Where(sq.Eq{"key": key}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate kv get query: %w", err)
	}

	var row entry
	err = pgxscan.Get(ctx, q, &row, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch key %s: %w", key, err)
	}

	return []byte(row.Value), nil
}

func setEntry(ctx context.Context, q querier, key string, value []byte) error {
	query, args, err := psql().
		Insert(entryTableName).
		Columns("key", "value", "updated_at").
		Values(key, string(value), time.Now()).
		Suffix("ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate kv set query: %w", err)
	}

	_, err = q.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to set key "+key)
}

func deleteEntry(ctx context.Context, q querier, key string) error {
	query, args, err := psql().
		Delete(entryTableName).
		Where(sq.Eq{"key": key}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate kv delete query: %w", err)
	}

	_, err = q.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to delete key "+key)
}
