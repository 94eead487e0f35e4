// Package cache keeps remote answers in Redis so repeated queries do not hit
// the remote service again.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	backend "github.com/redis/go-redis/v9"
)

const DefaultTTL = 24 * time.Hour

// Resolver is the remote lookup being cached.
type Resolver interface {
	Resolve(ctx context.Context, input string) (string, bool, error)
}

type entry struct {
	Answer string `json:"answer"`
	Found  bool   `json:"found"`
}

// CachingResolver wraps next with a read-through Redis cache. Redis failures are
// logged and fall through to next; errors from next are never cached.
type CachingResolver struct {
	next   Resolver
	client backend.UniversalClient
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

// Option configures a CachingResolver.
type Option func(*CachingResolver)

// WithTTL sets how long answers are kept.
func WithTTL(ttl time.Duration) Option {
	return func(c *CachingResolver) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithPrefix namespaces cache keys.
func WithPrefix(prefix string) Option {
	return func(c *CachingResolver) {
		c.prefix = prefix
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *CachingResolver) {
		c.logger = logger
	}
}

// New wraps next with the Redis client.
func New(next Resolver, client backend.UniversalClient, opts ...Option) *CachingResolver {
	c := &CachingResolver{
		next:   next,
		client: client,
		prefix: "calcalc:",
		ttl:    DefaultTTL,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key returns the Redis key for input. Inputs differing only in whitespace share a key.
func (c *CachingResolver) Key(input string) string {
	sum := sha256.Sum256([]byte(strings.Join(strings.Fields(input), " ")))
	return c.prefix + "answer:" + hex.EncodeToString(sum[:])
}

func (c *CachingResolver) Resolve(ctx context.Context, input string) (string, bool, error) {
	key := c.Key(input)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var e entry
		if err := json.Unmarshal(raw, &e); err == nil {
			c.logger.Debug("cache hit", "key", key)
			return e.Answer, e.Found, nil
		}
		c.logger.Warn("discarding corrupt cache entry", "key", key)
	case !errors.Is(err, backend.Nil):
		c.logger.Warn("cache read failed", "key", key, "error", err)
	}

	answer, found, err := c.next.Resolve(ctx, input)
	if err != nil {
		return "", false, err
	}

	data, _ := json.Marshal(entry{Answer: answer, Found: found})
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err)
	}
	return answer, found, nil
}
