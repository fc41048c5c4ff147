package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	LogLevel  string `env:"LOG_LEVEL,  default=warn"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`

	API     APIConfig
	Token   TokenConfig
	Mongo   MongoConfig
	Redis   RedisConfig
	MockAPI MockAPIConfig
}

// APIConfig points the client at the remote REST API. A zero Timeout means
// requests wait as long as their context allows.
type APIConfig struct {
	BaseURL string        `env:"RATING_API_URL,      default=http://localhost:5000"`
	Timeout time.Duration `env:"RATING_HTTP_TIMEOUT, default=0"`
}

// TokenConfig selects where the session token survives restarts.
type TokenConfig struct {
	Store string `env:"RATING_TOKEN_STORE, default=file"`
	Key   string `env:"RATING_TOKEN_KEY,   default=token"`
	// File defaults to <user config dir>/ratingctl/session.json when empty.
	File string `env:"RATING_TOKEN_FILE"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=rating_client"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,   default=0"`
}

// MockAPIConfig configures the in-process development backend.
type MockAPIConfig struct {
	Port      string `env:"MOCKAPI_PORT,       default=5000"`
	JWTSecret string `env:"MOCKAPI_JWT_SECRET, default=dev-secret"`
}

// Token store kinds accepted by RATING_TOKEN_STORE.
const (
	TokenStoreFile   = "file"
	TokenStoreRedis  = "redis"
	TokenStoreMongo  = "mongo"
	TokenStoreMemory = "memory"
)

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads configuration through an arbitrary lookuper.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Token.Store {
	case TokenStoreFile, TokenStoreRedis, TokenStoreMongo, TokenStoreMemory:
	default:
		return fmt.Errorf("RATING_TOKEN_STORE: unknown store %q", c.Token.Store)
	}
	if c.Token.Key == "" {
		return fmt.Errorf("RATING_TOKEN_KEY: must not be empty")
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("RATING_HTTP_TIMEOUT: must not be negative")
	}
	return nil
}
