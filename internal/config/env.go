package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "HALALDL"

// Env holds overrides read from HALALDL_* variables.
type Env struct {
	Config    string `envconfig:"CONFIG"`
	BinDir    string `envconfig:"BIN_DIR"`
	LogLevel  string `envconfig:"LOG_LEVEL"`
	UserAgent string `envconfig:"USER_AGENT"`
}

// LoadEnv reads the environment overrides.
func LoadEnv() (Env, error) {
	var env Env
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return Env{}, fmt.Errorf("process env: %w", err)
	}
	return env, nil
}

// Apply overlays the non-empty environment values onto cfg.
func (e Env) Apply(cfg *Config) {
	if e.BinDir != "" {
		cfg.BinDir = e.BinDir
	}
	if e.LogLevel != "" {
		cfg.LogLevel = e.LogLevel
	}
	if e.UserAgent != "" {
		cfg.UserAgent = e.UserAgent
	}
}
