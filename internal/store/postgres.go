package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS coach_records (
	user_id    TEXT        NOT NULL,
	kind       TEXT        NOT NULL,
	key        TEXT        NOT NULL,
	at         TIMESTAMPTZ NOT NULL,
	body       JSONB       NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (user_id, kind, key)
);
CREATE INDEX IF NOT EXISTS coach_records_range_idx ON coach_records (user_id, kind, at);
`

// PostgresBackend stores records in a single JSONB table.
type PostgresBackend struct {
	pool *pgxpool.Pool
}

// NewPostgresBackend connects to dsn and ensures the schema exists.
func NewPostgresBackend(ctx context.Context, dsn string) (*PostgresBackend, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: connect postgres: %v", ErrUnavailable, err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply postgres schema: %w", classifyPG(err))
	}
	return &PostgresBackend{pool: pool}, nil
}

func (b *PostgresBackend) Put(ctx context.Context, r Record) error {
	_, err := b.pool.Exec(ctx, `
		INSERT INTO coach_records (user_id, kind, key, at, body)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, kind, key)
		DO UPDATE SET at = EXCLUDED.at, body = EXCLUDED.body, updated_at = now()`,
		r.UserID, r.Kind, r.Key, r.At.UTC(), r.Body)
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", r.Kind, r.Key, classifyPG(err))
	}
	return nil
}

func (b *PostgresBackend) Get(ctx context.Context, userID, kind, key string) (Record, error) {
	r := Record{UserID: userID, Kind: kind, Key: key}
	err := b.pool.QueryRow(ctx,
		`SELECT at, body FROM coach_records WHERE user_id = $1 AND kind = $2 AND key = $3`,
		userID, kind, key).Scan(&r.At, &r.Body)
	if err != nil {
		return Record{}, fmt.Errorf("get %s/%s: %w", kind, key, classifyPG(err))
	}
	return r, nil
}

func (b *PostgresBackend) List(ctx context.Context, q Query) ([]Record, error) {
	where, args := pgWhere(q)
	sql := `SELECT key, at, body FROM coach_records WHERE ` + where
	if q.Desc {
		sql += ` ORDER BY at DESC, key DESC`
	} else {
		sql += ` ORDER BY at, key`
	}
	if q.Limit > 0 {
		args = append(args, q.Limit)
		sql += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := b.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", q.Kind, classifyPG(err))
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		r := Record{UserID: q.UserID, Kind: q.Kind}
		if err := rows.Scan(&r.Key, &r.At, &r.Body); err != nil {
			return nil, fmt.Errorf("scan %s: %w", q.Kind, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", q.Kind, classifyPG(err))
	}
	return out, nil
}

func (b *PostgresBackend) Delete(ctx context.Context, q Query) (int64, error) {
	where, args := pgWhere(q)
	tag, err := b.pool.Exec(ctx, `DELETE FROM coach_records WHERE `+where, args...)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", q.Kind, classifyPG(err))
	}
	return tag.RowsAffected(), nil
}

func (b *PostgresBackend) Ping(ctx context.Context) error {
	if err := b.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (b *PostgresBackend) Close() error {
	b.pool.Close()
	return nil
}

func pgWhere(q Query) (string, []any) {
	clauses := []string{"user_id = $1", "kind = $2"}
	args := []any{q.UserID, q.Kind}
	if !q.From.IsZero() {
		args = append(args, q.From.UTC())
		clauses = append(clauses, fmt.Sprintf("at >= $%d", len(args)))
	}
	if !q.To.IsZero() {
		args = append(args, q.To.UTC())
		clauses = append(clauses, fmt.Sprintf("at < $%d", len(args)))
	}
	return strings.Join(clauses, " AND "), args
}

// classifyPG maps driver errors onto the store sentinels. Server-side
// errors (constraint violations, bad SQL) are returned as-is; anything that
// never reached the server is treated as unavailability.
func classifyPG(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

var _ Backend = (*PostgresBackend)(nil)
