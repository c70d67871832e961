// Package config fills tagged structs from the process environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Load parses environment variables into cfg, which must be a pointer to a
// struct using `env` and `envDefault` tags:
//
//	type Config struct {
//	    HTTPPort int    `env:"ONBOARDING_HTTP_PORT" envDefault:"8080"`
//	    LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
//	}
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// LoadWithDotenv merges the given dotenv files into the process environment
// and then calls Load. Absent files are ignored. A variable already present in
// the environment is never overwritten by a file.
func LoadWithDotenv(cfg any, files ...string) error {
	for _, path := range files {
		err := godotenv.Load(path)
		if err == nil || errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return fmt.Errorf("load dotenv %s: %w", path, err)
	}
	return Load(cfg)
}
