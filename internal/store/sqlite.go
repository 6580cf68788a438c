package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pkg/errors"

	"github.com/you/onthisday/internal/game"
)

const schema = `CREATE TABLE IF NOT EXISTS records (
  name TEXT NOT NULL PRIMARY KEY,
  doc TEXT NOT NULL,
  stored_at TEXT NOT NULL DEFAULT ''
);`

const upsertRecord = `INSERT INTO records (name, doc, stored_at)
VALUES (?, ?, ?)
ON CONFLICT(name) DO UPDATE SET doc = excluded.doc, stored_at = excluded.stored_at;`

// SQLiteStore is a single-file alternative to Redis for hosts without one.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

func OpenSQLite(ctx context.Context, path string, tuning bool) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("store: sqlite path is empty")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "apply schema")
	}
	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode=wal;`); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "set WAL")
	}
	ApplySQLitePragmas(ctx, db, tuning)
	if err := migrateSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) String() string {
	return fmt.Sprintf("SQLiteStore{%p}", s.db)
}

func (s *SQLiteStore) Set(ctx context.Context, rec game.CleanRecord) error {
	key, doc, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, upsertRecord, key, string(doc), s.stamp())
	return errors.Wrapf(err, "upsert %q", key)
}

func (s *SQLiteStore) SetMany(ctx context.Context, recs []game.CleanRecord) error {
	if len(recs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin batch")
	}
	stmt, err := tx.PrepareContext(ctx, upsertRecord)
	if err != nil {
		_ = tx.Rollback()
		return errors.Wrap(err, "prepare batch")
	}
	defer stmt.Close()

	stamp := s.stamp()
	for _, rec := range recs {
		key, doc, err := encodeRecord(rec)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		if _, err := stmt.ExecContext(ctx, key, string(doc), stamp); err != nil {
			_ = tx.Rollback()
			return errors.Wrapf(err, "upsert %q", key)
		}
	}
	return errors.Wrap(tx.Commit(), "commit batch")
}

func (s *SQLiteStore) ClearAll(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM records;`)
	return errors.Wrap(err, "clear records")
}

// TakeOneArbitrary deletes a random row and returns it in one statement, so
// two hourly runs can never receive the same record.
func (s *SQLiteStore) TakeOneArbitrary(ctx context.Context) (*game.CleanRecord, error) {
	const q = `DELETE FROM records
WHERE name = (SELECT name FROM records ORDER BY RANDOM() LIMIT 1)
RETURNING name, doc;`

	var key, doc string
	err := s.db.QueryRowContext(ctx, q).Scan(&key, &doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "take record")
	}
	return decodeRecord(key, []byte(doc))
}

func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records;`).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count")
	}
	return n, nil
}

func (s *SQLiteStore) stamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}
