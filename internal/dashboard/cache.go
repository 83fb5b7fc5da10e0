package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	cacheVersionKey = "dashboard:version"
	bumpChannel     = "dashboard.bump"
	// versionMemoTTL bounds how long a remembered version is trusted, so a
	// missed notification costs at most this much staleness.
	versionMemoTTL = 5 * time.Second
)

// Cache stores computed dashboard parts in Redis under versioned keys.
// Bumping the version orphans every key written before it.
//
// While ListenForInvalidation runs, the current version is remembered in
// process and refreshed from bump notifications, so reads skip the Redis
// round trip for it.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time

	listening atomic.Bool
	memo      atomic.Int64
	memoAt    atomic.Int64
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl, now: time.Now}
}

// Version returns the current cache version, initialising when missing.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	if ver, ok := c.remembered(); ok {
		return ver, nil
	}
	ver, err := c.fetchVersion(ctx)
	if err != nil {
		return 0, err
	}
	// Redis is authoritative, even when it went backwards after a flush.
	c.memo.Store(ver)
	c.memoAt.Store(c.now().UnixNano())
	return ver, nil
}

func (c *Cache) remembered() (int64, bool) {
	if !c.listening.Load() {
		return 0, false
	}
	ver := c.memo.Load()
	if ver <= 0 || c.now().Sub(time.Unix(0, c.memoAt.Load())) > versionMemoTTL {
		return 0, false
	}
	return ver, true
}

// remember records ver unless a newer version is already known.
func (c *Cache) remember(ver int64) {
	for {
		cur := c.memo.Load()
		if ver < cur {
			return
		}
		if c.memo.CompareAndSwap(cur, ver) {
			c.memoAt.Store(c.now().UnixNano())
			return
		}
	}
}

func (c *Cache) fetchVersion(ctx context.Context) (int64, error) {
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		// SETNX so concurrent first readers agree on the version
		if err := c.client.SetNX(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, cacheVersionKey).Int64()
	}
	if err != nil {
		return 0, err
	}
	if ver <= 0 {
		ver = 1
		if err := c.client.Set(ctx, cacheVersionKey, ver, 0).Err(); err != nil {
			return 0, err
		}
	}
	return ver, nil
}

// BuildKey composes dashboard:<parts...>:<version>.
func (c *Cache) BuildKey(ctx context.Context, parts ...string) (string, error) {
	joined := strings.Join(append([]string{"dashboard"}, parts...), ":")
	if c == nil || c.client == nil {
		return joined, nil
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%d", joined, ver), nil
}

// FetchJSON loads a cached value into dest or populates it using loader.
func (c *Cache) FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("dashboard cache: loader required")
	}
	if c == nil || c.client == nil {
		return load(ctx, dest, loader)
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		return json.Unmarshal(payload, dest)
	}
	if !errors.Is(err, redis.Nil) {
		return err
	}
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

func load(ctx context.Context, dest any, loader func(context.Context) (any, error)) error {
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

// Bump invalidates every cached part and notifies listeners of the new version.
func (c *Cache) Bump(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	ver, err := c.client.Incr(ctx, cacheVersionKey).Result()
	if err != nil {
		return err
	}
	c.remember(ver)
	return c.client.Publish(ctx, bumpChannel, strconv.FormatInt(ver, 10)).Err()
}

// ListenForInvalidation subscribes to bump notifications published by other
// processes, e.g. the worker, records each new version and calls onBump.
func (c *Cache) ListenForInvalidation(ctx context.Context, onBump func(version int64)) error {
	if c == nil || c.client == nil {
		return nil
	}
	pubsub := c.client.Subscribe(ctx, bumpChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return err
	}
	c.listening.Store(true)
	go func() {
		defer func() {
			c.listening.Store(false)
			_ = pubsub.Close()
		}()
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
					continue
				}
				c.remember(ver)
				if onBump != nil {
					onBump(ver)
				}
			}
		}
	}()
	return nil
}
