package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	// Server configuration
	Server struct {
		// Port the HTTP API listens on
		Port int `env:"SERVER_PORT" envDefault:"5250"`

		// Origins allowed by the CORS middleware
		AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

		// Seconds to wait for in-flight requests on shutdown
		ShutdownTimeout int `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10"`
	}

	// Database configuration
	Database struct {
		// Path to the SQLite file holding stored datasets
		Path string `env:"DATABASE_PATH" envDefault:"database/estate.db"`

		// Number of rows written per insert statement
		BatchSize int `env:"DATABASE_BATCH_SIZE" envDefault:"100"`
	}

	// Generator configuration
	Generator struct {
		// Number of synthetic properties to generate
		Samples int `env:"GENERATOR_SAMPLES" envDefault:"500"`

		// Seed for the synthetic generator
		Seed int64 `env:"GENERATOR_SEED" envDefault:"42"`
	}

	// Cleaning configuration
	Cleaning struct {
		// Lower percentile bound used for outlier trimming
		LowerQuantile float64 `env:"CLEAN_LOWER_QUANTILE" envDefault:"0.01"`

		// Upper percentile bound used for outlier trimming
		UpperQuantile float64 `env:"CLEAN_UPPER_QUANTILE" envDefault:"0.99"`
	}

	// Model configuration
	Model struct {
		// Regression algorithm: random_forest, gradient_boosting, linear or mean
		Algorithm string `env:"MODEL_ALGORITHM" envDefault:"random_forest"`

		// Share of rows held out for evaluation
		TestSize float64 `env:"MODEL_TEST_SIZE" envDefault:"0.2"`

		// Seed for the train/test split and the ensembles
		Seed int64 `env:"MODEL_SEED" envDefault:"42"`

		// Where trained models are saved
		Path string `env:"MODEL_PATH" envDefault:"models/price_model.json"`
	}

	// Log configuration
	Log struct {
		Level  string `env:"LOG_LEVEL" envDefault:"info"`
		Format string `env:"LOG_FORMAT" envDefault:"json"`
	}
}

// LoadConfig reads optional .env files and then parses the environment.
// Missing env files are skipped.
func LoadConfig(envFiles ...string) (*Config, error) {
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", file, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges that env tags cannot express.
func (c *Config) Validate() error {
	if c.Cleaning.LowerQuantile < 0 || c.Cleaning.UpperQuantile > 1 || c.Cleaning.LowerQuantile > c.Cleaning.UpperQuantile {
		return fmt.Errorf("invalid cleaning quantiles: %v..%v", c.Cleaning.LowerQuantile, c.Cleaning.UpperQuantile)
	}
	if c.Model.TestSize <= 0 || c.Model.TestSize >= 1 {
		return fmt.Errorf("invalid model test size: %v", c.Model.TestSize)
	}
	if c.Database.BatchSize <= 0 {
		return fmt.Errorf("invalid database batch size: %d", c.Database.BatchSize)
	}
	if c.Generator.Samples < 0 {
		return fmt.Errorf("invalid generator samples: %d", c.Generator.Samples)
	}
	return nil
}
