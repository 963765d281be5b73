package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/playperu/treasurehunt/internal/stopwatch"
)

// Backend selects the primary store.
type Backend string

const (
	BackendSQLite Backend = "sqlite"
	BackendMongo  Backend = "mongo"
	BackendMemory Backend = "memory"
)

func (b *Backend) UnmarshalText(text []byte) error {
	switch v := Backend(text); v {
	case BackendSQLite, BackendMongo, BackendMemory:
		*b = v
		return nil
	}
	return fmt.Errorf("unknown store backend %q", text)
}

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`

	StoreBackend  Backend `env:"STORE_BACKEND" envDefault:"sqlite"`
	DBPath        string  `env:"DB_PATH" envDefault:"data/hunt.db"`
	MongoURI      string  `env:"MONGO_URI"`
	MongoDatabase string  `env:"MONGO_DATABASE" envDefault:"treasurehunt"`

	RedisURL    string        `env:"REDIS_URL"`
	ProgressTTL time.Duration `env:"PROGRESS_TTL" envDefault:"24h"`

	CatalogPath      string                   `env:"CATALOG_PATH"`
	StartingScore    int                      `env:"STARTING_SCORE" envDefault:"100"`
	PauseGapPolicy   stopwatch.PauseGapPolicy `env:"PAUSE_GAP_POLICY" envDefault:"discard"`
	AutosaveInterval time.Duration            `env:"AUTOSAVE_INTERVAL" envDefault:"30s"`

	TokenSecret string        `env:"TOKEN_SECRET,required,notEmpty"`
	TokenTTL    time.Duration `env:"TOKEN_TTL" envDefault:"72h"`
}

// Load reads a .env file if one exists, then the environment. Variables
// already set in the environment win over the file.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.StoreBackend == BackendMongo && c.MongoURI == "" {
		return errors.New("MONGO_URI is required when STORE_BACKEND=mongo")
	}
	if c.StartingScore <= 0 {
		return errors.New("STARTING_SCORE must be positive")
	}
	if c.AutosaveInterval <= 0 {
		return errors.New("AUTOSAVE_INTERVAL must be positive")
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	return nil
}
