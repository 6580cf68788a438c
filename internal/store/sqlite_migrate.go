package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/pkg/errors"
)

const schemaVersion = 1

// migrateSQLite stamps a fresh database with schemaVersion and refuses one
// written by a newer schema.
func migrateSQLite(ctx context.Context, db *sql.DB) error {
	version, err := sqliteUserVersion(ctx, db)
	if err != nil {
		return errors.Wrap(err, "sqlite: user_version")
	}
	switch {
	case version == schemaVersion:
		return nil
	case version > schemaVersion:
		return errors.Errorf("sqlite: %s has user_version %d, newer than supported %d", sqlitePath(ctx, db), version, schemaVersion)
	}
	log.Printf("store: sqlite: path=%s user_version=%d stamping %d", sqlitePath(ctx, db), version, schemaVersion)

	if _, err := db.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version=%d;`, schemaVersion)); err != nil {
		return errors.Wrap(err, "sqlite: set user_version")
	}
	return nil
}

func sqlitePath(ctx context.Context, db *sql.DB) string {
	rows, err := db.QueryContext(ctx, `PRAGMA database_list;`)
	if err != nil {
		return "(unknown)"
	}
	defer rows.Close()

	for rows.Next() {
		var (
			seq  int
			name string
			file sql.NullString
		)
		if err := rows.Scan(&seq, &name, &file); err != nil {
			return "(unknown)"
		}
		if strings.EqualFold(strings.TrimSpace(name), "main") {
			if file.Valid && strings.TrimSpace(file.String) != "" {
				return file.String
			}
			return "(memory)"
		}
	}
	return "(unknown)"
}

func sqliteUserVersion(ctx context.Context, db *sql.DB) (int, error) {
	var v int
	if err := db.QueryRowContext(ctx, `PRAGMA user_version;`).Scan(&v); err != nil {
		return 0, err
	}
	return v, nil
}
