package finance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	cacheVersionKey = "finance:version"
	// InvalidationChannel carries the new cache version after snapshots change.
	InvalidationChannel = "finance.snapshots"
)

// Cache stores snapshot reads in Redis under a global version so that a
// single bump invalidates every cached summary.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache returns a cache; a nil client disables caching.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) enabled() bool { return c != nil && c.client != nil }

// Version returns the current cache version, initialising it when missing.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	if !c.enabled() {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	switch {
	case errors.Is(err, redis.Nil):
		ver = 0
	case err != nil:
		return 0, fmt.Errorf("cache version: %w", err)
	}
	if ver > 0 {
		return ver, nil
	}
	if err := c.client.Set(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
		return 0, fmt.Errorf("cache version: %w", err)
	}
	return 1, nil
}

// Key composes a versioned key from parts.
func (c *Cache) Key(ctx context.Context, parts ...string) (string, error) {
	joined := strings.Join(parts, ":")
	if !c.enabled() {
		return joined, nil
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return joined + ":v" + strconv.FormatInt(ver, 10), nil
}

// FetchJSON decodes the value cached at key into dest, calling load and
// storing its result on a miss.
func (c *Cache) FetchJSON(ctx context.Context, key string, dest any, load func(context.Context) (any, error)) error {
	if load == nil {
		return errors.New("cache: loader required")
	}
	if c.enabled() {
		payload, err := c.client.Get(ctx, key).Bytes()
		if err == nil {
			return json.Unmarshal(payload, dest)
		}
		if !errors.Is(err, redis.Nil) {
			return fmt.Errorf("cache get %s: %w", key, err)
		}
	}
	value, err := load(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if c.enabled() {
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			return fmt.Errorf("cache set %s: %w", key, err)
		}
	}
	return json.Unmarshal(raw, dest)
}

// Invalidate bumps the version and announces it to other instances.
func (c *Cache) Invalidate(ctx context.Context) (int64, error) {
	if !c.enabled() {
		return 0, nil
	}
	ver, err := c.client.Incr(ctx, cacheVersionKey).Result()
	if err != nil {
		return 0, err
	}
	if err := c.client.Publish(ctx, InvalidationChannel, strconv.FormatInt(ver, 10)).Err(); err != nil {
		return ver, err
	}
	return ver, nil
}

// Listen follows invalidation announcements until ctx ends. onBump, when set,
// receives every announced version.
func (c *Cache) Listen(ctx context.Context, onBump func(version int64)) error {
	if !c.enabled() {
		return nil
	}
	pubsub := c.client.Subscribe(ctx, InvalidationChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("subscribe %s: %w", InvalidationChannel, err)
	}
	go func() {
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				ver, err := strconv.ParseInt(msg.Payload, 10, 64)
				if err != nil {
					ver, err = c.client.Incr(ctx, cacheVersionKey).Result()
					if err != nil {
						continue
					}
				}
				if onBump != nil {
					onBump(ver)
				}
			}
		}
	}()
	return nil
}

func keySummary(userID int64, period Period) string {
	return strings.Join([]string{"finance", "summary", strconv.FormatInt(userID, 10), period.From.Format(DateLayout), period.To.Format(DateLayout)}, ":")
}

const keyFilterOptions = "finance:filter_options"
