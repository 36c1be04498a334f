package cli

import (
	"time"

	"github.com/aretw0/portico/internal/config"
)

// Options carries the resolved configuration shared by every command.
type Options struct {
	Dir               string
	StartPartition    string
	Partitions        []string
	CheckDisconnected bool
	ActivationGate    bool
	LoadDelay         time.Duration
	Port              int
	Redis             config.RedisConfig
	// RedisStore serves partitions from redis, seeded from Dir on startup.
	RedisStore bool
	Debug      bool
	LogLevel   string
	LogJSON    bool
	JSON       bool
	Watch      bool
}

// FromConfig converts a loaded config file into command options.
func FromConfig(cfg *config.Config) Options {
	return Options{
		Dir:               cfg.Dir,
		StartPartition:    cfg.StartPartition,
		Partitions:        cfg.Partitions,
		CheckDisconnected: cfg.CheckDisconnected,
		ActivationGate:    cfg.ActivationGate,
		LoadDelay:         cfg.LoadDelay,
		Port:              cfg.HTTP.Port,
		Redis:             cfg.Redis,
		LogLevel:          cfg.Log.Level,
		LogJSON:           cfg.Log.JSON,
	}
}
