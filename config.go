package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the dashboard backend.
type Config struct {
	Env            string // "development" or "production"
	StorageBackend string // "memory" or "database"
	SeedSampleData bool   // load the demo accounts/inventory fixture on start
}

// LoadConfig loads environment variables into a Config struct.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:            os.Getenv("ENV"),
		StorageBackend: os.Getenv("STORAGE_BACKEND"),
		SeedSampleData: os.Getenv("SEED_SAMPLE_DATA") == "true",
	}

	if cfg.Env == "" {
		cfg.Env = "development"
	}
	if cfg.StorageBackend == "" {
		cfg.StorageBackend = "memory"
	}

	switch cfg.StorageBackend {
	case "memory", "database":
	default:
		return nil, fmt.Errorf("invalid STORAGE_BACKEND %q (want \"memory\" or \"database\")", cfg.StorageBackend)
	}

	return cfg, nil
}
