package api

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const dedupeKeyPrefix = "idempotency"

// RedisDeduper stores Idempotency-Key values in Redis so all instances
// agree on which creates were already accepted.
type RedisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDeduper creates a deduper using the provided Redis client and TTL.
func NewRedisDeduper(client *redis.Client, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{client: client, ttl: ttl}
}

func (r *RedisDeduper) key(username, key string) string {
	return fmt.Sprintf("%s:%s:%s", dedupeKeyPrefix, username, key)
}

// Add records the key if it does not already exist. It returns true when the
// key was newly added.
func (r *RedisDeduper) Add(ctx context.Context, username, key string) (bool, error) {
	return r.client.SetNX(ctx, r.key(username, key), 1, r.ttl).Result()
}

// Remove deletes a previously recorded key so the caller may retry.
func (r *RedisDeduper) Remove(ctx context.Context, username, key string) error {
	return r.client.Del(ctx, r.key(username, key)).Err()
}

// claimIdempotencyKey records the request's Idempotency-Key. The returned
// release func must be called when the create fails; it is a no-op when no
// key was claimed. Redis faults are logged and the request proceeds.
func claimIdempotencyKey(c echo.Context, d Deduper, username string) (release func(), err error) {
	noop := func() {}
	key := c.Request().Header.Get(headerIdempotencyKey)
	if d == nil || key == "" {
		return noop, nil
	}
	ctx := c.Request().Context()
	added, err := d.Add(ctx, username, key)
	if err != nil {
		log.WithError(err).Warn("idempotency key not recorded")
		return noop, nil
	}
	if !added {
		return noop, errDuplicateRequest
	}
	return func() {
		if err := d.Remove(context.WithoutCancel(ctx), username, key); err != nil {
			log.WithError(err).Warn("idempotency key not released")
		}
	}, nil
}
