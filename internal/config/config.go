// Package config loads medrecall settings from defaults, a YAML file,
// MEDRECALL_* environment variables and command-line flags, in that order.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const envPrefix = "MEDRECALL_"

type Config struct {
	Store   StoreConfig   `koanf:"store"`
	Server  ServerConfig  `koanf:"server"`
	Capture CaptureConfig `koanf:"capture"`
	Bank    BankConfig    `koanf:"bank"`
	Log     LogConfig     `koanf:"log"`
}

type StoreConfig struct {
	Driver   string `koanf:"driver" validate:"oneof=memory sqlite redis"`
	Path     string `koanf:"path" validate:"required_if=Driver sqlite"`
	RedisURL string `koanf:"redis_url" validate:"required_if=Driver redis"`
}

type ServerConfig struct {
	Addr string `koanf:"addr" validate:"required,hostname_port"`
}

type CaptureConfig struct {
	Policy         string   `koanf:"policy" validate:"oneof=skip refresh"`
	MaxExplanation int      `koanf:"max_explanation" validate:"gt=0"`
	Signatures     []string `koanf:"signatures"`
}

type BankConfig struct {
	Dir string `koanf:"dir" validate:"required"`
	URL string `koanf:"url"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Store:   StoreConfig{Driver: "sqlite", Path: "medrecall.db", RedisURL: "redis://localhost:6379/0"},
		Server:  ServerConfig{Addr: "localhost:8080"},
		Capture: CaptureConfig{Policy: "skip", MaxExplanation: 500, Signatures: []string{"@dams_new_robot"}},
		Bank:    BankConfig{Dir: "bank"},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

// flagKeys maps command-line flag names to config keys. Flags not listed
// here are not configuration.
var flagKeys = map[string]string{
	"store":          "store.driver",
	"db":             "store.path",
	"redis-url":      "store.redis_url",
	"addr":           "server.addr",
	"capture-policy": "capture.policy",
	"bank-dir":       "bank.dir",
	"bank-url":       "bank.url",
	"log-level":      "log.level",
	"log-format":     "log.format",
}

// Load builds the configuration. path may be empty; flags may be nil.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// MEDRECALL_STORE__DRIVER -> store.driver
	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
	}), nil)
	if err != nil {
		return Config{}, fmt.Errorf("failed to load environment: %w", err)
	}

	if flags != nil {
		// Only flags the user set override; defaults stay in Default().
		err := k.Load(posflag.ProviderWithFlag(flags, ".", nil, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil)
		if err != nil {
			return Config{}, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func Validate(cfg Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
