package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// ModelEnv holds hosted-model settings read from the environment. Keys never
// live in game files.
type ModelEnv struct {
	APIKey  string        `env:"FARKLE_MODEL_API_KEY"`
	BaseURL string        `env:"FARKLE_MODEL_BASE_URL"`
	Model   string        `env:"FARKLE_MODEL"         envDefault:"gpt-4o-mini"`
	Timeout time.Duration `env:"FARKLE_MODEL_TIMEOUT" envDefault:"60s"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadModelEnv reads ModelEnv.
func LoadModelEnv() (ModelEnv, error) {
	var m ModelEnv
	if err := ParseEnv(&m); err != nil {
		return ModelEnv{}, err
	}
	return m, nil
}
