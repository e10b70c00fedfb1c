package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = "CHECKOUT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	StoreBackendMemory = "memory"
	StoreBackendRedis  = "redis"
	StoreBackendDB     = "db"
)

const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	OrdersModeInProcess = "inprocess"
	OrdersModeHTTP      = "http"
)

const (
	EnvAppEnv          = "CHECKOUT_APP_ENV"
	EnvPort            = "CHECKOUT_APP_PORT"
	EnvLogLevel        = "CHECKOUT_LOG_LEVEL"
	EnvStoreBackend    = "CHECKOUT_STORE_BACKEND"
	EnvSessionTTL      = "CHECKOUT_SESSION_TTL"
	EnvSessionIdle     = "CHECKOUT_SESSION_IDLE_TIMEOUT"
	EnvSeedDemoCart    = "CHECKOUT_SEED_DEMO_CART"
	EnvResetAfterOrder = "CHECKOUT_RESET_AFTER_ORDER"
	EnvDBDriver        = "CHECKOUT_DB_DRIVER"
	EnvDBDSN           = "CHECKOUT_DB_DSN"
	EnvRedisURL        = "CHECKOUT_REDIS_URL"
	EnvRedisAddr       = "CHECKOUT_REDIS_ADDR"
	EnvJWTSecret       = "CHECKOUT_JWT_SECRET"
	EnvJWTIssuer       = "CHECKOUT_JWT_ISSUER"
	EnvOrdersMode      = "CHECKOUT_ORDERS_MODE"
	EnvOrdersBaseURL   = "CHECKOUT_ORDERS_BASE_URL"
	EnvOrderReplayTTL  = "CHECKOUT_ORDER_REPLAY_TTL"
	EnvSimDisabled     = "CHECKOUT_SIM_DISABLE_FAILURES"
)

type Config struct {
	App        AppConfig
	Store      StoreConfig
	DB         DBConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Simulation SimulationConfig
	Orders     OrdersConfig
	RateLimit  RateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case StoreBackendMemory:
	case StoreBackendRedis:
		if c.Redis.URL == "" && c.Redis.Address == "" {
			return fmt.Errorf("%s or %s is required for the redis store backend", EnvRedisURL, EnvRedisAddr)
		}
	case StoreBackendDB:
		if c.DB.DSN == "" {
			return fmt.Errorf("%s is required for the db store backend", EnvDBDSN)
		}
		if c.DB.Driver != DBDriverPostgres && c.DB.Driver != DBDriverSQLite {
			return fmt.Errorf("unsupported %s %q", EnvDBDriver, c.DB.Driver)
		}
	default:
		return fmt.Errorf("unsupported %s %q", EnvStoreBackend, c.Store.Backend)
	}

	if c.Store.IdleTimeout < 0 {
		return fmt.Errorf("%s must not be negative", EnvSessionIdle)
	}

	switch c.Orders.Mode {
	case OrdersModeInProcess:
	case OrdersModeHTTP:
		if c.Orders.BaseURL == "" {
			return fmt.Errorf("%s is required when orders mode is http", EnvOrdersBaseURL)
		}
	default:
		return fmt.Errorf("unsupported %s %q", EnvOrdersMode, c.Orders.Mode)
	}
	return nil
}

type AppConfig struct {
	Env          string `envconfig:"CHECKOUT_APP_ENV" required:"true"`
	Port         string `envconfig:"CHECKOUT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"CHECKOUT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CHECKOUT_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"CHECKOUT_AUTO_MIGRATE" default:"false"`

	CORSOrigins []string `envconfig:"CHECKOUT_CORS_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// StoreConfig selects where checkout session state is persisted.
type StoreConfig struct {
	Backend         string        `envconfig:"CHECKOUT_STORE_BACKEND" default:"memory"`
	SessionTTL      time.Duration `envconfig:"CHECKOUT_SESSION_TTL" default:"720h"`
	IdleTimeout     time.Duration `envconfig:"CHECKOUT_SESSION_IDLE_TIMEOUT" default:"30m"`
	SeedDemoCart    bool          `envconfig:"CHECKOUT_SEED_DEMO_CART" default:"true"`
	ResetAfterOrder bool          `envconfig:"CHECKOUT_RESET_AFTER_ORDER" default:"false"`
}

type DBConfig struct {
	Driver string `envconfig:"CHECKOUT_DB_DRIVER" default:"postgres"`
	DSN    string `envconfig:"CHECKOUT_DB_DSN"`

	MaxOpenConns    int           `envconfig:"CHECKOUT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CHECKOUT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CHECKOUT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CHECKOUT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CHECKOUT_REDIS_URL"`
	Address      string        `envconfig:"CHECKOUT_REDIS_ADDR"`
	Password     string        `envconfig:"CHECKOUT_REDIS_PASSWORD"`
	DB           int           `envconfig:"CHECKOUT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CHECKOUT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CHECKOUT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CHECKOUT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CHECKOUT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CHECKOUT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis connection has been configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

// JWTConfig signs the session tokens handed to browser clients.
type JWTConfig struct {
	Secret            string `envconfig:"CHECKOUT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"CHECKOUT_JWT_ISSUER" default:"checkout-flow"`
	ExpirationMinutes int    `envconfig:"CHECKOUT_JWT_EXPIRATION_MINUTES" default:"43200"`
}

// Expiration returns the configured token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// SimulationConfig tunes the latency and failure injection standing in for real backends.
type SimulationConfig struct {
	DisableFailures bool `envconfig:"CHECKOUT_SIM_DISABLE_FAILURES" default:"false"`

	CatalogLatency      time.Duration `envconfig:"CHECKOUT_SIM_CATALOG_LATENCY" default:"300ms"`
	CatalogFailureRate  float64       `envconfig:"CHECKOUT_SIM_CATALOG_FAILURE_RATE" default:"0.05"`
	InfoLatency         time.Duration `envconfig:"CHECKOUT_SIM_INFO_LATENCY" default:"800ms"`
	InfoFailureRate     float64       `envconfig:"CHECKOUT_SIM_INFO_FAILURE_RATE" default:"0.05"`
	DeliveryLatency     time.Duration `envconfig:"CHECKOUT_SIM_DELIVERY_LATENCY" default:"600ms"`
	DeliveryFailureRate float64       `envconfig:"CHECKOUT_SIM_DELIVERY_FAILURE_RATE" default:"0.03"`
	OrderLatency        time.Duration `envconfig:"CHECKOUT_SIM_ORDER_LATENCY" default:"1500ms"`
	UserLatency         time.Duration `envconfig:"CHECKOUT_SIM_USER_LATENCY" default:"100ms"`
	LoginLatency        time.Duration `envconfig:"CHECKOUT_SIM_LOGIN_LATENCY" default:"1s"`
	LogoutLatency       time.Duration `envconfig:"CHECKOUT_SIM_LOGOUT_LATENCY" default:"500ms"`
}

// OrdersConfig selects how the checkout reaches the order placement boundary.
type OrdersConfig struct {
	Mode      string        `envconfig:"CHECKOUT_ORDERS_MODE" default:"inprocess"`
	BaseURL   string        `envconfig:"CHECKOUT_ORDERS_BASE_URL"`
	ReplayTTL time.Duration `envconfig:"CHECKOUT_ORDER_REPLAY_TTL" default:"24h"`
}

// RateLimitConfig throttles login attempts. Counters live in redis, so the
// limiter is inactive when redis is not configured.
type RateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"CHECKOUT_LOGIN_RATE_WINDOW" default:"1m"`
	LoginIPLimit    int           `envconfig:"CHECKOUT_LOGIN_RATE_IP_LIMIT" default:"20"`
	LoginEmailLimit int           `envconfig:"CHECKOUT_LOGIN_RATE_EMAIL_LIMIT" default:"5"`
}
