package store

import (
	"context"
	"log"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/you/onthisday/internal/game"
)

// takeAttempts bounds how often TakeOneArbitrary retries when the random
// key disappears between RANDOMKEY and GETDEL.
const takeAttempts = 3

// RedisStore keeps one string key per record in the selected database.
type RedisStore struct {
	client *redis.Client
}

// OpenRedis connects using a redis:// or rediss:// URL and pings the server.
func OpenRedis(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "store: parse redis url")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "store: ping redis %s", opts.Addr)
	}
	return &RedisStore{client: client}, nil
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Close() error { return s.client.Close() }

func (s *RedisStore) Set(ctx context.Context, rec game.CleanRecord) error {
	key, doc, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	return errors.Wrapf(s.client.Set(ctx, key, doc, 0).Err(), "store: set %q", key)
}

func (s *RedisStore) SetMany(ctx context.Context, recs []game.CleanRecord) error {
	if len(recs) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	for _, rec := range recs {
		key, doc, err := encodeRecord(rec)
		if err != nil {
			return err
		}
		pipe.Set(ctx, key, doc, 0)
	}

	cmds, err := pipe.Exec(ctx)
	if err != nil {
		return errors.Wrapf(err, "store: pipeline set %d records", len(recs))
	}
	for _, cmd := range cmds {
		if cmd.Err() != nil {
			return errors.Wrap(cmd.Err(), "store: pipeline set")
		}
	}
	return nil
}

func (s *RedisStore) ClearAll(ctx context.Context) error {
	return errors.Wrap(s.client.FlushDB(ctx).Err(), "store: flushdb")
}

func (s *RedisStore) TakeOneArbitrary(ctx context.Context) (*game.CleanRecord, error) {
	for attempt := 0; attempt < takeAttempts; attempt++ {
		key, err := s.client.RandomKey(ctx).Result()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if err != nil {
			return nil, errors.Wrap(err, "store: randomkey")
		}

		doc, err := s.client.GetDel(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			log.Printf("store: redis: key %q vanished before getdel; retrying", key)
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "store: getdel %q", key)
		}
		return decodeRecord(key, doc)
	}
	return nil, errors.Errorf("store: no key survived %d take attempts", takeAttempts)
}

func (s *RedisStore) Count(ctx context.Context) (int64, error) {
	n, err := s.client.DBSize(ctx).Result()
	return n, errors.Wrap(err, "store: dbsize")
}
