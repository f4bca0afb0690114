// Package cache holds the redis fast paths around settlement: a checkout
// session cache so status polls stay off the database, and a replay cache
// that short-circuits duplicate webhook deliveries. The database idempotency
// gate stays authoritative; losing every key here is safe.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Cache struct {
	redis      *redis.Client
	sessionTTL time.Duration
}

func New(redisClient *redis.Client, sessionTTL time.Duration) *Cache {
	return &Cache{
		redis:      redisClient,
		sessionTTL: sessionTTL,
	}
}

// Session is the cached view of a pending checkout.
type Session struct {
	Reference   string
	BuyerID     string
	EventID     string
	TierID      string
	Amount      string
	Status      string
	CheckoutURL string
}

func sessionKey(reference string) string {
	return fmt.Sprintf("checkout:%s", reference)
}

func settledKey(reference string) string {
	return fmt.Sprintf("settled:%s", reference)
}

func (c *Cache) PutSession(ctx context.Context, s *Session) error {
	key := sessionKey(s.Reference)

	if err := c.redis.HSet(ctx, key,
		"reference", s.Reference,
		"buyer_id", s.BuyerID,
		"event_id", s.EventID,
		"tier_id", s.TierID,
		"amount", s.Amount,
		"status", s.Status,
		"checkout_url", s.CheckoutURL,
	).Err(); err != nil {
		return fmt.Errorf("cache: put session: %w", err)
	}

	if err := c.redis.Expire(ctx, key, c.sessionTTL).Err(); err != nil {
		return fmt.Errorf("cache: put session: %w", err)
	}
	return nil
}

// GetSession returns the cached checkout, or nil when it expired or was
// never cached.
func (c *Cache) GetSession(ctx context.Context, reference string) (*Session, error) {
	data, err := c.redis.HGetAll(ctx, sessionKey(reference)).Result()
	if err != nil {
		return nil, fmt.Errorf("cache: get session: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	return &Session{
		Reference:   data["reference"],
		BuyerID:     data["buyer_id"],
		EventID:     data["event_id"],
		TierID:      data["tier_id"],
		Amount:      data["amount"],
		Status:      data["status"],
		CheckoutURL: data["checkout_url"],
	}, nil
}

// MarkSettled records a settled reference and stamps the session with its
// final status so pollers see it immediately.
func (c *Cache) MarkSettled(ctx context.Context, reference, finalStatus string) error {
	if err := c.redis.Set(ctx, settledKey(reference), finalStatus, c.sessionTTL).Err(); err != nil {
		return fmt.Errorf("cache: mark settled: %w", err)
	}
	// Best effort: the session hash may already have expired.
	c.redis.HSet(ctx, sessionKey(reference), "status", finalStatus)
	return nil
}

// AlreadySettled reports whether a reference was recently settled. Errors
// degrade to false so the caller falls through to the database gate.
func (c *Cache) AlreadySettled(ctx context.Context, reference string) bool {
	n, err := c.redis.Exists(ctx, settledKey(reference)).Result()
	if err != nil {
		return false
	}
	return n > 0
}
