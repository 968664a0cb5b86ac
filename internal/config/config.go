package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Env      string         `yaml:"env"`
	LogLevel string         `yaml:"log_level"`
	HTTP     HTTPConfig     `yaml:"http"`
	Remote   RemoteConfig   `yaml:"remote"`
	Cache    CacheConfig    `yaml:"cache"`
	Identity IdentityConfig `yaml:"identity"`
	Site     SiteConfig     `yaml:"site"`
}

type HTTPConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type RemoteConfig struct {
	BaseURL       string        `yaml:"base_url"`
	Timeout       time.Duration `yaml:"timeout"`
	BeaconTimeout time.Duration `yaml:"beacon_timeout"`
	OAuth         OAuthConfig   `yaml:"oauth"`
}

// OAuthConfig enables client-credentials bearer auth against the course service
// when ClientID and TokenURL are both set.
type OAuthConfig struct {
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	TokenURL     string   `yaml:"token_url"`
	Scopes       []string `yaml:"scopes"`
}

func (o OAuthConfig) Enabled() bool {
	return o.ClientID != "" && o.TokenURL != ""
}

type CacheConfig struct {
	Backend     string `yaml:"backend"` // file | gorm | redis
	Dir         string `yaml:"dir"`
	DBDriver    string `yaml:"db_driver"` // sqlite | postgres
	DSN         string `yaml:"dsn"`
	RedisAddr   string `yaml:"redis_addr"`
	RedisPrefix string `yaml:"redis_prefix"`
	Key         string `yaml:"key"`
}

type IdentityConfig struct {
	AuthToken      string        `yaml:"auth_token"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	DeviceFallback bool          `yaml:"device_fallback"`
}

type SiteConfig struct {
	RootPrefix string `yaml:"root_prefix"`
}

func defaults() *Config {
	return &Config{
		Env:      "development",
		LogLevel: "info",
		HTTP: HTTPConfig{
			Addr:           "127.0.0.1:8787",
			AllowedOrigins: []string{"https://2025ai.tijerino.ai"},
		},
		Remote: RemoteConfig{
			BaseURL:       "http://localhost:8003/api",
			Timeout:       30 * time.Second,
			BeaconTimeout: 5 * time.Second,
		},
		Cache: CacheConfig{
			Backend:     "file",
			Dir:         "./.progress-cache",
			DBDriver:    "sqlite",
			DSN:         "./progress-cache.db",
			RedisPrefix: "course-progress:",
		},
		Identity: IdentityConfig{
			PollInterval: 5 * time.Second,
		},
		Site: SiteConfig{
			RootPrefix: "/2025AI",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file named by
// AGENT_CONFIG, and finally environment variables (a .env file is honored).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	if path := os.Getenv("AGENT_CONFIG"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.Env = getEnv("ENV", cfg.Env)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", cfg.HTTP.Addr)
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.HTTP.AllowedOrigins = splitList(origins)
	}

	cfg.Remote.BaseURL = strings.TrimRight(getEnv("REMOTE_BASE_URL", cfg.Remote.BaseURL), "/")
	cfg.Remote.Timeout = getDuration("REMOTE_TIMEOUT", cfg.Remote.Timeout)
	cfg.Remote.BeaconTimeout = getDuration("REMOTE_BEACON_TIMEOUT", cfg.Remote.BeaconTimeout)
	cfg.Remote.OAuth.ClientID = getEnv("REMOTE_OAUTH_CLIENT_ID", cfg.Remote.OAuth.ClientID)
	cfg.Remote.OAuth.ClientSecret = getEnv("REMOTE_OAUTH_CLIENT_SECRET", cfg.Remote.OAuth.ClientSecret)
	cfg.Remote.OAuth.TokenURL = getEnv("REMOTE_OAUTH_TOKEN_URL", cfg.Remote.OAuth.TokenURL)
	if scopes := os.Getenv("REMOTE_OAUTH_SCOPES"); scopes != "" {
		cfg.Remote.OAuth.Scopes = splitList(scopes)
	}

	cfg.Cache.Backend = getEnv("CACHE_BACKEND", cfg.Cache.Backend)
	cfg.Cache.Dir = getEnv("CACHE_DIR", cfg.Cache.Dir)
	cfg.Cache.DBDriver = getEnv("DB_DRIVER", cfg.Cache.DBDriver)
	cfg.Cache.DSN = getEnv("DATABASE_DSN", cfg.Cache.DSN)
	cfg.Cache.RedisAddr = getEnv("REDIS_ADDR", cfg.Cache.RedisAddr)
	cfg.Cache.RedisPrefix = getEnv("REDIS_PREFIX", cfg.Cache.RedisPrefix)
	cfg.Cache.Key = getEnv("CACHE_KEY", cfg.Cache.Key)

	cfg.Identity.AuthToken = getEnv("AUTH_TOKEN", cfg.Identity.AuthToken)
	cfg.Identity.PollInterval = getDuration("IDENTITY_POLL_INTERVAL", cfg.Identity.PollInterval)
	cfg.Identity.DeviceFallback = getBool("IDENTITY_DEVICE_FALLBACK", cfg.Identity.DeviceFallback)

	cfg.Site.RootPrefix = getEnv("SITE_ROOT_PREFIX", cfg.Site.RootPrefix)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Cache.Backend {
	case "file", "gorm", "redis":
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.Backend == "redis" && c.Cache.RedisAddr == "" {
		return fmt.Errorf("cache backend redis requires REDIS_ADDR")
	}
	if c.Cache.Key != "" && len(c.Cache.Key) != 32 {
		return fmt.Errorf("CACHE_KEY must be 32 bytes")
	}
	if c.IsProduction() {
		for _, o := range c.HTTP.AllowedOrigins {
			if strings.TrimSpace(o) == "*" {
				return fmt.Errorf("wildcard ALLOWED_ORIGINS is not allowed in production")
			}
		}
	}
	if c.Identity.PollInterval < time.Second {
		return fmt.Errorf("identity poll interval must be at least 1s")
	}
	if c.Remote.BaseURL == "" {
		return fmt.Errorf("REMOTE_BASE_URL required")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production") || strings.EqualFold(c.Env, "prod")
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
