package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv = "STOREFRONT_APP_ENV"
)

type Config struct {
	App          AppConfig
	Tenant       TenantConfig
	Redis        RedisConfig
	SessionToken SessionTokenConfig
	AuthAPI      AuthAPIConfig
	TicketingAPI TicketingAPIConfig
	Events       EventsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.AuthAPI.validate(); err != nil {
		return nil, err
	}
	if err := cfg.TicketingAPI.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string   `envconfig:"STOREFRONT_APP_PORT" default:"8080"`
	LogLevel     string   `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"STOREFRONT_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// TenantConfig identifies the organization partition sent on every upstream call.
type TenantConfig struct {
	ID string `envconfig:"STOREFRONT_TENANT_ID" required:"true"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// SessionTokenConfig governs the signed browser-session cookie and the TTL of the
// per-session records it points at.
type SessionTokenConfig struct {
	Secret  string `envconfig:"STOREFRONT_SESSION_SECRET" required:"true"`
	Issuer  string `envconfig:"STOREFRONT_SESSION_ISSUER" default:"storefront"`
	TTLDays int    `envconfig:"STOREFRONT_SESSION_TTL_DAYS" default:"30"`
}

// TTL returns the browser-session lifetime.
func (s SessionTokenConfig) TTL() time.Duration {
	if s.TTLDays <= 0 {
		return 0
	}
	return time.Duration(s.TTLDays) * 24 * time.Hour
}

type AuthAPIConfig struct {
	BaseURL string        `envconfig:"STOREFRONT_AUTH_API_URL" required:"true"`
	Timeout time.Duration `envconfig:"STOREFRONT_AUTH_API_TIMEOUT" default:"10s"`
}

func (c AuthAPIConfig) validate() error {
	return validateBaseURL("auth api", c.BaseURL)
}

type TicketingAPIConfig struct {
	BaseURL string        `envconfig:"STOREFRONT_TICKETING_API_URL" required:"true"`
	Timeout time.Duration `envconfig:"STOREFRONT_TICKETING_API_TIMEOUT" default:"10s"`
}

func (c TicketingAPIConfig) validate() error {
	return validateBaseURL("ticketing api", c.BaseURL)
}

type EventsConfig struct {
	CacheTTL time.Duration `envconfig:"STOREFRONT_EVENTS_CACHE_TTL" default:"30s"`
}

func validateBaseURL(name, raw string) error {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%s base url: %w", name, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s base url must be http(s), got %q", name, raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s base url is missing a host", name)
	}
	return nil
}
