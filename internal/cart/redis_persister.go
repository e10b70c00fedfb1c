package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	pkgredis "github.com/angelmondragon/checkout-flow/pkg/redis"
)

type keyValueStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	CheckoutStateKey(sessionKey string) string
}

// RedisPersister stores the JSON record under a namespaced key with a sliding TTL.
type RedisPersister struct {
	store keyValueStore
	ttl   time.Duration
}

// NewRedisPersister wires the persister to a redis client.
func NewRedisPersister(store keyValueStore, ttl time.Duration) (*RedisPersister, error) {
	if store == nil {
		return nil, errors.New("redis store required")
	}
	return &RedisPersister{store: store, ttl: ttl}, nil
}

// Load implements Persister.
func (p *RedisPersister) Load(ctx context.Context, key string) (*State, error) {
	redisKey := p.store.CheckoutStateKey(key)
	raw, err := p.store.Get(ctx, redisKey)
	if err != nil {
		if pkgredis.IsNil(err) {
			return nil, ErrStateNotFound
		}
		return nil, fmt.Errorf("load checkout state: %w", err)
	}
	state, err := decodeState([]byte(raw))
	if err != nil {
		return nil, err
	}
	if p.ttl > 0 {
		if _, err := p.store.Expire(ctx, redisKey, p.ttl); err != nil {
			return nil, fmt.Errorf("refresh checkout state ttl: %w", err)
		}
	}
	return state, nil
}

// Save implements Persister.
func (p *RedisPersister) Save(ctx context.Context, key string, state State) error {
	payload, err := encodeState(state)
	if err != nil {
		return err
	}
	if err := p.store.Set(ctx, p.store.CheckoutStateKey(key), string(payload), p.ttl); err != nil {
		return fmt.Errorf("save checkout state: %w", err)
	}
	return nil
}
