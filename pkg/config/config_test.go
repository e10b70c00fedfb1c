package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "dev" || !cfg.App.IsDev() {
		t.Fatalf("expected dev env, got %q", cfg.App.Env)
	}
	if cfg.Store.Backend != StoreBackendMemory {
		t.Fatalf("expected memory backend, got %q", cfg.Store.Backend)
	}
	if cfg.Simulation.OrderLatency != 1500*time.Millisecond {
		t.Fatalf("expected order latency 1.5s, got %v", cfg.Simulation.OrderLatency)
	}
	if cfg.Simulation.CatalogFailureRate != 0.05 {
		t.Fatalf("unexpected catalog failure rate %v", cfg.Simulation.CatalogFailureRate)
	}
	if cfg.Orders.Mode != OrdersModeInProcess {
		t.Fatalf("expected inprocess orders, got %q", cfg.Orders.Mode)
	}
	if cfg.Store.IdleTimeout != 30*time.Minute || cfg.Orders.ReplayTTL != 24*time.Hour {
		t.Fatalf("unexpected eviction defaults idle=%v replay=%v", cfg.Store.IdleTimeout, cfg.Orders.ReplayTTL)
	}
	if cfg.Store.ResetAfterOrder {
		t.Fatalf("reset after order should default to false")
	}
	if got := cfg.JWT.Expiration(); got != 720*time.Hour {
		t.Fatalf("expected 30 day token expiry, got %v", got)
	}
	if len(cfg.App.CORSOrigins) != 2 || cfg.App.CORSOrigins[0] != "http://localhost:3000" {
		t.Fatalf("unexpected cors origins %v", cfg.App.CORSOrigins)
	}
	if cfg.RateLimit.LoginWindow != time.Minute || cfg.RateLimit.LoginEmailLimit != 5 {
		t.Fatalf("unexpected login rate limit %+v", cfg.RateLimit)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvAppEnv); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvAppEnv, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_BackendRequirements(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{name: "redis without address", env: map[string]string{EnvStoreBackend: StoreBackendRedis}, wantErr: true},
		{name: "redis with url", env: map[string]string{EnvStoreBackend: StoreBackendRedis, EnvRedisURL: "redis://localhost:6379/0"}},
		{name: "db without dsn", env: map[string]string{EnvStoreBackend: StoreBackendDB}, wantErr: true},
		{name: "sqlite db", env: map[string]string{EnvStoreBackend: StoreBackendDB, EnvDBDriver: DBDriverSQLite, EnvDBDSN: "file:checkout.db"}},
		{name: "unknown driver", env: map[string]string{EnvStoreBackend: StoreBackendDB, EnvDBDriver: "mysql", EnvDBDSN: "x"}, wantErr: true},
		{name: "unknown backend", env: map[string]string{EnvStoreBackend: "etcd"}, wantErr: true},
		{name: "http orders without url", env: map[string]string{EnvOrdersMode: OrdersModeHTTP}, wantErr: true},
		{name: "negative idle timeout", env: map[string]string{EnvSessionIdle: "-1m"}, wantErr: true},
		{name: "idle eviction disabled", env: map[string]string{EnvSessionIdle: "0s"}},
		{name: "http orders with url", env: map[string]string{EnvOrdersMode: OrdersModeHTTP, EnvOrdersBaseURL: "http://localhost:8080"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setMinimalEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if tt.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "dev")
	t.Setenv(EnvJWTSecret, "secret")
}
