package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variables that locate configuration sources.
const (
	EnvPrefix     = "AOELOOKUP_"
	EnvConfigFile = "AOELOOKUP_CONFIG"
	EnvDotenvFile = "AOELOOKUP_DOTENV"
	defaultDotenv = ".env"
)

// Load builds a Config by layering sources. Precedence (low -> high):
//  1. defaults (New)
//  2. YAML file if AOELOOKUP_CONFIG is set
//  3. .env file (AOELOOKUP_DOTENV, default .env)
//  4. process environment (prefix AOELOOKUP_)
//
// The .env file is merged into the environment without overriding variables
// already set, so both env layers beat YAML. A missing .env file is not an
// error.
func Load(_ context.Context) (*Config, error) {
	base := New()

	dotenv := os.Getenv(EnvDotenvFile)
	if dotenv == "" {
		dotenv = defaultDotenv
	}
	if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: dotenv %s: %v", ErrLoadConfig, dotenv, err)
	}

	k := koanf.New(".")

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	// AOELOOKUP_SEARCH_LIMIT -> search_limit. Underscores are kept so the
	// flat keys match the koanf struct tags.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
