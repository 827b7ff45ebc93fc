package config

import (
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultWorkload = "mixed"
	DefaultBodies   = 256
	DefaultSystems  = 8
	DefaultTicks    = 300
	DefaultDelta    = 0.05
	DefaultBuffer   = 64
	DefaultLogLevel = "info"
)

type Config struct {
	Workload string  `yaml:"workload"`
	Bodies   int     `yaml:"bodies"`
	Systems  int     `yaml:"systems"`
	TickRate float64 `yaml:"tick_rate"`
	Ticks    uint64  `yaml:"ticks"`
	Duration float64 `yaml:"duration"`
	Delta    float64 `yaml:"delta"`
	Seed     int64   `yaml:"seed"`
	Buffer   int     `yaml:"command_buffer"`
	LogLevel string  `yaml:"log_level"`
}

func DefaultConfig() *Config {
	return &Config{
		Workload: DefaultWorkload,
		Bodies:   DefaultBodies,
		Systems:  DefaultSystems,
		Ticks:    DefaultTicks,
		Delta:    DefaultDelta,
		Buffer:   DefaultBuffer,
		LogLevel: DefaultLogLevel,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// SlogLevel maps the configured level name to a slog level. Unknown
// names fall back to info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// RunDuration converts the duration field (seconds) to a deadline for
// the run loop. Zero means no deadline.
func (c *Config) RunDuration() time.Duration {
	return time.Duration(c.Duration * float64(time.Second))
}
