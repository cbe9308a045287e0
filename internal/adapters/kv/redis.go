package kv

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ecolens/ecolens/pkg/metrics"
)

const scanBatchSize = 100

// RedisConfig holds connection settings for the redis backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisStore implements Store on a redis database.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects and pings the redis server before returning.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnect, err)
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	defer observe("get", time.Now())

	val, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		metrics.RecordKVError("get")
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	defer observe("set", time.Now())

	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		metrics.RecordKVError("set")
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// GetByPrefix scans matching keys in batches and fetches each value. Values
// are read one key at a time; the dataset is small and a best-effort
// point-in-time view is all callers expect of a prefix scan.
func (s *RedisStore) GetByPrefix(ctx context.Context, prefix string) ([]Pair, error) {
	defer observe("get_by_prefix", time.Now())

	var pairs []Pair
	iter := s.client.Scan(ctx, 0, prefix+"*", scanBatchSize).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		val, err := s.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			continue // expired between scan and read
		}
		if err != nil {
			metrics.RecordKVError("get_by_prefix")
			return nil, fmt.Errorf("redis get %s: %w", key, err)
		}
		pairs = append(pairs, Pair{Key: key, Value: val})
	}
	if err := iter.Err(); err != nil {
		metrics.RecordKVError("get_by_prefix")
		return nil, fmt.Errorf("redis scan %s: %w", prefix, err)
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Key < pairs[j].Key })
	return pairs, nil
}

func (s *RedisStore) Close() error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("redis close: %w", err)
	}
	return nil
}
