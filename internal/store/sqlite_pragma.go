package store

import (
	"context"
	"database/sql"
	"errors"
	"log"
)

var tuningPragmas = []string{
	"PRAGMA synchronous=NORMAL;",
	"PRAGMA busy_timeout=5000;",
	"PRAGMA temp_store=MEMORY;",
}

// ApplySQLitePragmas applies optional tuning statements when enabled. Each
// result is logged; failures are not fatal.
func ApplySQLitePragmas(ctx context.Context, db *sql.DB, enabled bool) {
	if !enabled {
		return
	}
	for _, pragma := range tuningPragmas {
		if value, err := applyPragma(ctx, db, pragma); err != nil {
			log.Printf("store: sqlite: pragma %s failed: %v", pragma, err)
		} else {
			log.Printf("store: sqlite: pragma %s => %v", pragma, value)
		}
	}
}

func applyPragma(ctx context.Context, db *sql.DB, pragma string) (any, error) {
	var value any
	if err := db.QueryRowContext(ctx, pragma).Scan(&value); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			return nil, execErr
		}
		return "ok", nil
	}
	return value, nil
}
