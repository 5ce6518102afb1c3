// Package config loads runtime settings from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config collects everything the agent needs at startup. All fields are
// read from DEXAGENT_* variables except the OpenAI key, which keeps its
// conventional name.
type Config struct {
	OpenAIAPIKey  string  `envconfig:"OPENAI_API_KEY"`
	Model         string  `envconfig:"MODEL" default:"gpt-4o-mini"`
	DBPath        string  `envconfig:"DB_PATH" default:"pokedex.db"`
	Addr          string  `envconfig:"ADDR" default:":8080"`
	MaxIterations int     `envconfig:"MAX_ITERATIONS" default:"10"`
	Temperature   float64 `envconfig:"TEMPERATURE" default:"0.2"`
	LogLevel      string  `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads .env if present, then the process environment.
func Load() (Config, error) {
	// Missing .env is the normal case outside development.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("dexagent", &cfg); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}
	return cfg, nil
}
