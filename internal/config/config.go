package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"

	SecretSourceEnv           = "env"
	SecretSourceSecretManager = "secretmanager"
)

// Config is loaded from the environment. The token signing secret is not part
// of it: it is resolved on every token operation (see internal/secrets).
type Config struct {
	Port        string `envconfig:"PORT" default:"5000"`
	Environment string `envconfig:"ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	Storage            string `envconfig:"STORAGE" default:"postgres"`
	DBConnectionString string `envconfig:"DB_CONNECTION_STRING"`
	DBMaxOpenConns     int    `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
	RunMigrations      bool   `envconfig:"RUN_MIGRATIONS" default:"true"`

	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`
	BcryptCost  int      `envconfig:"BCRYPT_COST" default:"10"`

	// Where JWT_SECRET / JWT_ACCESS_SECRET are read from.
	SecretSource string `envconfig:"SECRET_SOURCE" default:"env"`

	GCPProjectID      string `envconfig:"GCP_PROJECT_ID"`
	PubSubEventsTopic string `envconfig:"PUBSUB_EVENTS_TOPIC"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks rules envconfig tags cannot express.
func (c *Config) Validate() error {
	switch c.Storage {
	case StoragePostgres:
		if c.DBConnectionString == "" {
			return fmt.Errorf("DB_CONNECTION_STRING is required when STORAGE=%s", StoragePostgres)
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unsupported STORAGE %q", c.Storage)
	}

	switch c.SecretSource {
	case SecretSourceEnv:
	case SecretSourceSecretManager:
		if c.GCPProjectID == "" {
			return fmt.Errorf("GCP_PROJECT_ID is required when SECRET_SOURCE=%s", SecretSourceSecretManager)
		}
	default:
		return fmt.Errorf("unsupported SECRET_SOURCE %q", c.SecretSource)
	}

	if c.PubSubEventsTopic != "" && c.GCPProjectID == "" {
		return fmt.Errorf("GCP_PROJECT_ID is required when PUBSUB_EVENTS_TOPIC is set")
	}
	if c.DBMaxOpenConns < 1 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be positive")
	}
	return nil
}
