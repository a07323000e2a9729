package kv

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	expires_at INTEGER
)`

// the upsert only fires when the existing row has no active ttl
const sqliteLockStatement = `
INSERT INTO kv (key, value, expires_at) VALUES (?, ?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at
WHERE kv.expires_at IS NULL OR kv.expires_at <= ?`

// SQLite implements Client on a single table of an SQLite database.
type SQLite struct {
	l  *zap.Logger
	db *sql.DB
}

// NewSQLite opens (and migrates) the database at dsn, e.g. a file path.
func NewSQLite(ctx context.Context, l *zap.Logger, dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open sqlite")
	}
	// a single connection serialises writers and keeps :memory: databases shared
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to create kv table")
	}
	return &SQLite{l: l.Named("sqlite"), db: db}, nil
}

func (s *SQLite) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE key = ? AND (expires_at IS NULL OR expires_at > ?)`,
		key, time.Now().Unix(),
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *SQLite) Set(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, expires_at) VALUES (?, ?, NULL)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, expires_at = NULL`,
		key, value,
	)
	return err
}

func (s *SQLite) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	args := make([]any, len(keys))
	for i, key := range keys {
		args[i] = key
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key IN (`+placeholders+`)`, args...)
	return err
}

// Keys relies on the GLOB operator which shares the redis pattern syntax.
func (s *SQLite) Keys(ctx context.Context, pattern string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM kv WHERE key GLOB ? AND (expires_at IS NULL OR expires_at > ?) ORDER BY key`,
		pattern, time.Now().Unix(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// LockScript prepares the conditional upsert once.
func (s *SQLite) LockScript(ctx context.Context) (LockScript, error) {
	stmt, err := s.db.PrepareContext(ctx, sqliteLockStatement)
	if err != nil {
		return nil, errors.Wrap(err, "failed to prepare lock statement")
	}
	return &sqliteLockScript{stmt: stmt}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

type sqliteLockScript struct {
	stmt *sql.Stmt
}

func (s *sqliteLockScript) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	now := time.Now().Unix()
	res, err := s.stmt.ExecContext(ctx, key, []byte(LockValue), now+ttlSeconds(ttl), now)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
