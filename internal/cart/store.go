package cart

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Store persists cart lines as product id -> quantity. Every write touches a
// single line so concurrent tabs only race on the line they both edit.
type Store interface {
	Load(ctx context.Context, cartID string) (map[uuid.UUID]int, error)
	SetQuantity(ctx context.Context, cartID string, productID uuid.UUID, qty int) error
	Remove(ctx context.Context, cartID string, productIDs ...uuid.UUID) error
	Clear(ctx context.Context, cartID string) error
}

type hashClient interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HSet(ctx context.Context, key, field string, value any, ttl time.Duration) error
	HDel(ctx context.Context, key string, fields ...string) error
	Del(ctx context.Context, keys ...string) error
	CartKey(cartID string) string
}

type redisStore struct {
	client hashClient
	ttl    time.Duration
}

// NewRedisStore keeps one hash per cart. Writes refresh the TTL.
func NewRedisStore(client hashClient, ttl time.Duration) (Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &redisStore{client: client, ttl: ttl}, nil
}

func (s *redisStore) Load(ctx context.Context, cartID string) (map[uuid.UUID]int, error) {
	raw, err := s.client.HGetAll(ctx, s.client.CartKey(cartID))
	if err != nil {
		return nil, err
	}
	lines := make(map[uuid.UUID]int, len(raw))
	for field, value := range raw {
		id, err := uuid.Parse(field)
		if err != nil {
			continue
		}
		qty, err := strconv.Atoi(value)
		if err != nil || qty < 1 {
			continue
		}
		lines[id] = qty
	}
	return lines, nil
}

func (s *redisStore) SetQuantity(ctx context.Context, cartID string, productID uuid.UUID, qty int) error {
	return s.client.HSet(ctx, s.client.CartKey(cartID), productID.String(), qty, s.ttl)
}

func (s *redisStore) Remove(ctx context.Context, cartID string, productIDs ...uuid.UUID) error {
	if len(productIDs) == 0 {
		return nil
	}
	fields := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		fields = append(fields, id.String())
	}
	return s.client.HDel(ctx, s.client.CartKey(cartID), fields...)
}

func (s *redisStore) Clear(ctx context.Context, cartID string) error {
	return s.client.Del(ctx, s.client.CartKey(cartID))
}
