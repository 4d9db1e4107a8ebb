package ledger

import (
	"context"
	"fmt"

	"github.com/meme-bots/go-roundtrip/logger"
	"github.com/redis/go-redis/v9"
)

// RedisStore appends entries as JSON to a capped Redis list.
type RedisStore struct {
	rdb *redis.Client
	key string
}

func NewRedisStore(ctx context.Context, opt Options) (*RedisStore, error) {
	if opt.Addr == "" {
		return nil, fmt.Errorf("redis address is empty")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     opt.Addr,
		Password: opt.Password,
		DB:       opt.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis %s db %d: %w", opt.Addr, opt.DB, err)
	}
	return NewRedisStoreWithClient(rdb, opt.Key), nil
}

func NewRedisStoreWithClient(rdb *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultKey
	}
	return &RedisStore{rdb: rdb, key: key}
}

func (r *RedisStore) Record(ctx context.Context, e *Entry) error {
	raw, err := encode(e)
	if err != nil {
		return err
	}
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, r.key, raw)
		pipe.LTrim(ctx, r.key, -MaxEntries, -1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis record: %w", err)
	}
	return nil
}

func (r *RedisStore) Recent(ctx context.Context, limit int) ([]*Entry, error) {
	start := int64(0)
	if limit > 0 {
		start = -int64(limit)
	}
	values, err := r.rdb.LRange(ctx, r.key, start, -1).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis lrange: %w", err)
	}

	entries := make([]*Entry, 0, len(values))
	for _, v := range values {
		e, err := decode([]byte(v))
		if err != nil {
			logger.Warnf("[Ledger] skipping malformed entry: %v", err)
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (r *RedisStore) Run(ctx context.Context, runID string) ([]*Entry, error) {
	all, err := r.Recent(ctx, 0)
	if err != nil {
		return nil, err
	}
	return filterRun(all, runID), nil
}

func (r *RedisStore) Close() error {
	return r.rdb.Close()
}
