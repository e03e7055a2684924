// Package topicindex is an optional probabilistic fast path for exact
// duplicate topics: a Redis bloom filter keyed by topic-hash fingerprints.
// A hit short-circuits the similarity scan; a miss (or an unavailable index)
// falls through to it, so the engine's verdict stays authoritative.
package topicindex

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultKey     = "topics:bloom"
	defaultTTL     = 180 * 24 * time.Hour
	commandTimeout = 5 * time.Second

	reserveCapacity  = 100000
	reserveErrorRate = 0.001
)

// Config configures the Redis connection and filter key.
type Config struct {
	Addr     string
	Password string
	DB       int
	Key      string
	TTL      time.Duration
}

// Index is a Redis-backed bloom filter of topic hashes.
type Index struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// New connects to Redis and reserves the bloom filter if absent. BF.RESERVE
// failure is non-fatal: BF.ADD auto-creates the filter on most deployments.
func New(cfg Config) (*Index, error) {
	if cfg.Key == "" {
		cfg.Key = defaultKey
	}
	if cfg.TTL == 0 {
		cfg.TTL = defaultTTL
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	if exists, err := client.Exists(ctx, cfg.Key).Result(); err == nil && exists == 0 {
		_ = client.Do(ctx, "BF.RESERVE", cfg.Key,
			fmt.Sprintf("%f", reserveErrorRate), reserveCapacity).Err()
	}

	return &Index{client: client, key: cfg.Key, ttl: cfg.TTL}, nil
}

// Seen reports whether the hash is probably already indexed.
func (i *Index) Seen(ctx context.Context, hash string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	res, err := i.client.Do(ctx, "BF.EXISTS", i.key, hash).Result()
	if err != nil {
		return false, err
	}
	switch v := res.(type) {
	case int64:
		return v == 1, nil
	case string:
		return v == "1", nil
	default:
		return false, fmt.Errorf("unexpected BF.EXISTS response type %T: %v", res, res)
	}
}

// Add inserts the hash and refreshes the key TTL so the filter tracks the
// rolling lookback window.
func (i *Index) Add(ctx context.Context, hash string) error {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	if err := i.client.Do(ctx, "BF.ADD", i.key, hash).Err(); err != nil {
		return err
	}
	return i.client.Expire(ctx, i.key, i.ttl).Err()
}

// Close closes the underlying Redis client.
func (i *Index) Close() error {
	return i.client.Close()
}
