package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the run configuration of the katachi demo, read from TOML.
type Config struct {
	World   WorldConfig   `toml:"world"`
	Paths   PathsConfig   `toml:"paths"`
	Run     RunConfig     `toml:"run"`
	Logging LoggingConfig `toml:"logging"`
	Spawn   []SpawnConfig `toml:"spawn"`
}

// WorldConfig sizes the worlds the context creates.
type WorldConfig struct {
	InitialCapacity int `toml:"initial_capacity"` // handle slots preallocated per world
}

// PathsConfig locates the definitions file and the Lua scripts.
type PathsConfig struct {
	Definitions string `toml:"definitions"` // .yaml, .yml or .toml
	Scripts     string `toml:"scripts"`     // directory of *.lua, empty disables scripting
}

// RunConfig controls the tick loop.
type RunConfig struct {
	Ticks    int           `toml:"ticks"` // 0 runs until interrupted
	TickRate time.Duration `toml:"tick_rate"`
}

// LoggingConfig selects the zap level and encoder, see NewLogger.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// SpawnConfig makes Count entities of EntityType at startup, deactivated
// when Inactive is set.
type SpawnConfig struct {
	EntityType string `toml:"entity_type"`
	Count      int    `toml:"count"`
	Inactive   bool   `toml:"inactive"`
}

// Load reads the TOML file at path on top of the defaults, so keys the file
// omits keep their default value.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config { return defaults() }

func defaults() *Config {
	return &Config{
		World: WorldConfig{
			InitialCapacity: 1024,
		},
		Paths: PathsConfig{
			Definitions: "data/definitions.yaml",
			Scripts:     "data/scripts",
		},
		Run: RunConfig{
			Ticks:    600,
			TickRate: 16 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
