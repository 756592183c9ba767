package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS coach_records (
	user_id    TEXT    NOT NULL,
	kind       TEXT    NOT NULL,
	key        TEXT    NOT NULL,
	at         INTEGER NOT NULL,
	body       TEXT    NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (user_id, kind, key)
);
CREATE INDEX IF NOT EXISTS coach_records_range_idx ON coach_records (user_id, kind, at);
`

// SQLiteBackend stores records in an embedded SQLite database.
// Timestamps are stored as unix nanoseconds so range scans sort correctly.
type SQLiteBackend struct {
	db *sql.DB
}

// OpenSQLite opens the database at path. ":memory:" gives a private in-memory
// database limited to a single connection so every query sees the same data.
func OpenSQLite(path string) (*SQLiteBackend, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %v", ErrUnavailable, err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	} else {
		if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting WAL mode: %w", err)
		}
		if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting busy timeout: %w", err)
		}
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return &SQLiteBackend{db: db}, nil
}

func (b *SQLiteBackend) Put(ctx context.Context, r Record) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO coach_records (user_id, kind, key, at, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, kind, key)
		DO UPDATE SET at = excluded.at, body = excluded.body, updated_at = excluded.updated_at`,
		r.UserID, r.Kind, r.Key, r.At.UnixNano(), string(r.Body), time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", r.Kind, r.Key, classifySQLite(err))
	}
	return nil
}

func (b *SQLiteBackend) Get(ctx context.Context, userID, kind, key string) (Record, error) {
	var (
		at   int64
		body string
	)
	err := b.db.QueryRowContext(ctx,
		`SELECT at, body FROM coach_records WHERE user_id = ? AND kind = ? AND key = ?`,
		userID, kind, key).Scan(&at, &body)
	if err != nil {
		return Record{}, fmt.Errorf("get %s/%s: %w", kind, key, classifySQLite(err))
	}
	return Record{UserID: userID, Kind: kind, Key: key, At: time.Unix(0, at).UTC(), Body: []byte(body)}, nil
}

func (b *SQLiteBackend) List(ctx context.Context, q Query) ([]Record, error) {
	where, args := sqliteWhere(q)
	query := `SELECT key, at, body FROM coach_records WHERE ` + where
	if q.Desc {
		query += ` ORDER BY at DESC, key DESC`
	} else {
		query += ` ORDER BY at, key`
	}
	if q.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, q.Limit)
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", q.Kind, classifySQLite(err))
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			key  string
			at   int64
			body string
		)
		if err := rows.Scan(&key, &at, &body); err != nil {
			return nil, fmt.Errorf("scan %s: %w", q.Kind, err)
		}
		out = append(out, Record{UserID: q.UserID, Kind: q.Kind, Key: key, At: time.Unix(0, at).UTC(), Body: []byte(body)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", q.Kind, classifySQLite(err))
	}
	return out, nil
}

func (b *SQLiteBackend) Delete(ctx context.Context, q Query) (int64, error) {
	where, args := sqliteWhere(q)
	res, err := b.db.ExecContext(ctx, `DELETE FROM coach_records WHERE `+where, args...)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", q.Kind, classifySQLite(err))
	}
	return res.RowsAffected()
}

func (b *SQLiteBackend) Ping(ctx context.Context) error {
	if err := b.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

func sqliteWhere(q Query) (string, []any) {
	clauses := []string{"user_id = ?", "kind = ?"}
	args := []any{q.UserID, q.Kind}
	if !q.From.IsZero() {
		clauses = append(clauses, "at >= ?")
		args = append(args, q.From.UnixNano())
	}
	if !q.To.IsZero() {
		clauses = append(clauses, "at < ?")
		args = append(args, q.To.UnixNano())
	}
	return strings.Join(clauses, " AND "), args
}

func classifySQLite(err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case errors.Is(err, sql.ErrConnDone):
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	case strings.Contains(err.Error(), "database is closed"),
		strings.Contains(err.Error(), "database is locked"),
		strings.Contains(err.Error(), "unable to open"):
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	default:
		return err
	}
}

var _ Backend = (*SQLiteBackend)(nil)
