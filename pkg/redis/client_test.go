package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/angelmondragon/checkout-flow/pkg/config"
	"github.com/redis/go-redis/v9"
)

func TestSetGetDelLifecycle(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	key := client.CheckoutStateKey("sess-1")
	if err := client.Set(ctx, key, `{"currentStep":1}`, time.Hour); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	got, err := client.Get(ctx, key)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != `{"currentStep":1}` {
		t.Fatalf("unexpected payload %q", got)
	}
	if mock.ttls[key] != time.Hour {
		t.Fatalf("expected ttl to be forwarded, got %v", mock.ttls[key])
	}

	if err := client.Del(ctx, key); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if _, err := client.Get(ctx, key); !IsNil(err) {
		t.Fatalf("expected redis.Nil after delete, got %v", err)
	}
}

func TestSetNXOnlyOnce(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}

	ok, err := client.SetNX(ctx, "k", "v1", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first setnx should succeed: %v %v", ok, err)
	}
	ok, err = client.SetNX(ctx, "k", "v2", time.Minute)
	if err != nil || ok {
		t.Fatalf("second setnx should be rejected: %v %v", ok, err)
	}
	if v, _ := client.Get(ctx, "k"); v != "v1" {
		t.Fatalf("value overwritten: %q", v)
	}
}

func TestUninitializedClient(t *testing.T) {
	client := &Client{}
	ctx := context.Background()
	if err := client.Ping(ctx); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized from ping, got %v", err)
	}
	if _, err := client.Get(ctx, "k"); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized from get, got %v", err)
	}
	if _, err := client.Expire(ctx, "k", time.Minute); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized from expire, got %v", err)
	}
	if ErrNotInitialized.Error() != "redis client not initialized" {
		t.Fatalf("unexpected message %q", ErrNotInitialized.Error())
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close on empty client should be a no-op: %v", err)
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.IdempotencyKey("scope", "id"); got != "co:idempotency:scope:id" {
		t.Fatalf("unexpected idempotency key %s", got)
	}
	if got := client.CheckoutStateKey("abc"); got != "co:checkout:abc" {
		t.Fatalf("unexpected checkout key %s", got)
	}
	if got := client.RateLimitKey("ip", "login", "10.0.0.1"); got != "co:rl:ip:login:10.0.0.1" {
		t.Fatalf("unexpected rate limit key %s", got)
	}
	if got := client.IdempotencyKey("", "id"); got != "co:idempotency:id" {
		t.Fatalf("empty parts should be skipped, got %s", got)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected error without url or address")
	}
	opts, err := optionsFromConfig(config.RedisConfig{Address: "localhost:6379", DB: 3, PoolSize: 7, DialTimeout: time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "localhost:6379" || opts.DB != 3 || opts.PoolSize != 7 || opts.DialTimeout != time.Second {
		t.Fatalf("unexpected options %+v", opts)
	}
	opts, err = optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6380/2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "localhost:6380" || opts.DB != 2 {
		t.Fatalf("unexpected parsed options %+v", opts)
	}
}

func TestIncrWithTTLSetsExpiryOnce(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	for want := int64(1); want <= 3; want++ {
		got, err := client.IncrWithTTL(ctx, "counter", time.Minute)
		if err != nil {
			t.Fatalf("incr failed: %v", err)
		}
		if got != want {
			t.Fatalf("expected count %d, got %d", want, got)
		}
	}
	if mock.expires != 1 {
		t.Fatalf("expected expire to be set once, got %d", mock.expires)
	}
	if mock.ttls["counter"] != time.Minute {
		t.Fatalf("unexpected ttl %v", mock.ttls["counter"])
	}
}

type mockCmdable struct {
	data     map[string]string
	ttls     map[string]time.Duration
	counters map[string]int64
	expires  int
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data:     make(map[string]string),
		ttls:     make(map[string]time.Duration),
		counters: make(map[string]int64),
	}
}

func (m *mockCmdable) Incr(ctx context.Context, key string) *redis.IntCmd {
	m.counters[key]++
	return redis.NewIntResult(m.counters[key], nil)
}

func (m *mockCmdable) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.expires++
	m.ttls[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	m.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}
