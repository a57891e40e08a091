// Package config collects the service configuration from environment
// variables.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds everything the service needs to start.
type Config struct {
	Port       int    `env:"PORT" envDefault:"8080"`
	DBUser     string `env:"DBUSER"`
	DBPassword string `env:"DBPWD"`
	DBHost     string `env:"DBHOST" envDefault:"localhost:3306"`
	DBName     string `env:"DBNAME" envDefault:"contacts"`
	JWTSecret  string `env:"JWT_SECRET,required"`
	GinLogging string `env:"GIN_LOGGING" envDefault:"on"`
}

// Load parses the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
