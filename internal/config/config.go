// Package config loads the portico.yaml project file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "portico.yaml"

// Config is the project configuration. Command-line flags override it.
type Config struct {
	Dir            string `mapstructure:"dir"`
	StartPartition string `mapstructure:"start_partition"`
	// Partitions restricts enumeration and transitions to these keys, in order.
	Partitions        []string      `mapstructure:"partitions"`
	CheckDisconnected bool          `mapstructure:"check_disconnected"`
	ActivationGate    bool          `mapstructure:"activation_gate"`
	LoadDelay         time.Duration `mapstructure:"load_delay"`
	HTTP              HTTPConfig    `mapstructure:"http"`
	Redis             RedisConfig   `mapstructure:"redis"`
	Log               LogConfig     `mapstructure:"log"`
}

type HTTPConfig struct {
	Port int `mapstructure:"port"`
}

// RedisConfig enables the redis store and report sink when Addr is set.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Dir:            ".",
		ActivationGate: true,
		HTTP:           HTTPConfig{Port: 8080},
		Redis:          RedisConfig{Prefix: "portico:"},
		Log:            LogConfig{Level: "info"},
	}
}

// Load reads path on top of the defaults.
// An empty path, or a missing DefaultFile, yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && path == DefaultFile {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := Decode(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode merges YAML data into cfg. Keys absent from data keep their value.
func Decode(data []byte, cfg *Config) error {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse yaml: %w", err)
	}
	if raw == nil {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      cfg,
		ErrorUnused: true,
		DecodeHook:  mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(raw); err != nil {
		return err
	}
	return cfg.Validate()
}

func (c *Config) Validate() error {
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port out of range: %d", c.HTTP.Port)
	}
	if c.LoadDelay < 0 {
		return fmt.Errorf("load_delay must not be negative")
	}
	return nil
}
