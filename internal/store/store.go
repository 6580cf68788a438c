// Package store persists clean game records between the daily and hourly
// runs. Records are keyed by name and stored as their JSON document.
package store

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"

	"github.com/you/onthisday/internal/game"
)

const (
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Store is the record store shared by both runs.
type Store interface {
	// Set writes rec under its name, replacing any previous record.
	Set(ctx context.Context, rec game.CleanRecord) error
	// SetMany writes recs in one round trip where the backend allows it.
	SetMany(ctx context.Context, recs []game.CleanRecord) error
	// ClearAll removes every record.
	ClearAll(ctx context.Context) error
	// TakeOneArbitrary removes and returns one record. It returns nil and no
	// error when the store is empty.
	TakeOneArbitrary(ctx context.Context) (*game.CleanRecord, error)
	Count(ctx context.Context) (int64, error)
	Close() error
}

type Options struct {
	Backend      string
	RedisURL     string
	SQLitePath   string
	SQLiteTuning bool
}

// Open connects to the backend named in opts.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendRedis:
		return OpenRedis(ctx, opts.RedisURL)
	case BackendSQLite:
		return OpenSQLite(ctx, opts.SQLitePath, opts.SQLiteTuning)
	default:
		return nil, errors.Errorf("store: unknown backend %q", opts.Backend)
	}
}

func encodeRecord(rec game.CleanRecord) (string, []byte, error) {
	key := rec.Name
	if strings.TrimSpace(key) == "" {
		return "", nil, errors.New("store: record has no name")
	}
	doc, err := json.Marshal(rec)
	if err != nil {
		return "", nil, errors.Wrapf(err, "store: encode %q", key)
	}
	return key, doc, nil
}

func decodeRecord(key string, doc []byte) (*game.CleanRecord, error) {
	var rec game.CleanRecord
	if err := json.Unmarshal(doc, &rec); err != nil {
		return nil, errors.Wrapf(err, "store: decode %q", key)
	}
	return &rec, nil
}
