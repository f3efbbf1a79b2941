package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/pomo1231/solbombs2/internal/models"
)

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"

	DefaultProgramID = "8163c0e07201d34b21129d0eb509cde9329b9335d41caaf5bf2c32854a69655d"
)

// Config holds all application configuration. Values come from the optional
// YAML file first; environment variables override them, and envDefault fills
// whatever is still unset.
type Config struct {
	Port string `yaml:"port" env:"PORT" envDefault:"8080"`
	Env  string `yaml:"env" env:"ENV" envDefault:"development"`

	// Store selects the account host: "memory" or "redis".
	Store     string `yaml:"store" env:"STORE" envDefault:"memory"`
	RedisURL  string `yaml:"redis_url" env:"REDIS_URL" envDefault:"localhost:6379"`
	RedisPass string `yaml:"redis_pass" env:"REDIS_PASS"`
	RedisDB   int    `yaml:"redis_db" env:"REDIS_DB"`

	JWTSecret string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	JWTTTL    time.Duration `yaml:"jwt_ttl" env:"JWT_TTL" envDefault:"24h"`

	// SQLitePath enables the settlement history when set.
	SQLitePath   string `yaml:"sqlite_path" env:"SQLITE_PATH"`
	SnapshotCron string `yaml:"snapshot_cron" env:"SNAPSHOT_CRON" envDefault:"0 */5 * * * *"`

	ProgramID string `yaml:"program_id" env:"PROGRAM_ID" envDefault:"8163c0e07201d34b21129d0eb509cde9329b9335d41caaf5bf2c32854a69655d"`
	// TreasurySeed funds an empty treasury at boot.
	TreasurySeed uint64 `yaml:"treasury_seed" env:"TREASURY_SEED"`
	StorageRate  uint64 `yaml:"storage_rate" env:"STORAGE_RATE" envDefault:"6960"`
}

// Load reads the optional YAML file named by CONFIG_PATH, then applies
// environment variable overrides and defaults.
func Load() (*Config, error) {
	cfg := &Config{}

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	// Defaults only fill fields the file left zero.
	if err := env.ParseWithOptions(cfg, env.Options{SetDefaultsForZeroValuesOnly: true}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// ProgramAddress parses ProgramID.
func (c *Config) ProgramAddress() (models.Address, error) {
	return models.ParseAddress(c.ProgramID)
}

// Validate rejects combinations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreMemory, StoreRedis:
	default:
		return fmt.Errorf("store must be %q or %q, got %q", StoreMemory, StoreRedis, c.Store)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required")
	}
	if c.IsProduction() && len(c.JWTSecret) < 32 {
		return fmt.Errorf("jwt_secret must be at least 32 bytes in production")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("jwt_ttl must be positive")
	}
	if _, err := c.ProgramAddress(); err != nil {
		return fmt.Errorf("program_id: %w", err)
	}
	return nil
}
