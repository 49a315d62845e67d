package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"gitlab.com/justnurik/newsroom/pkg/random"
)

type Policy string

const (
	PolicySentinel    Policy = "sentinel"
	PolicyIdleTimeout Policy = "idle-timeout"
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Producers int `yaml:"producers"`

	MinItems    int `yaml:"min_items"`
	MaxItems    int `yaml:"max_items"`
	MinDuration int `yaml:"min_duration"`
	MaxDuration int `yaml:"max_duration"`

	Policy      Policy        `yaml:"policy"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	InterItemPause time.Duration `yaml:"inter_item_pause"`
	// TimeUnit is the real length of one unit of interview duration.
	TimeUnit time.Duration `yaml:"time_unit"`

	// Seed 0 seeds from the clock.
	Seed int64 `yaml:"seed"`

	MetricsAddr   string        `yaml:"metrics_addr"`
	DepthInterval time.Duration `yaml:"depth_interval"`
	Color         bool          `yaml:"color"`
}

func Default() Config {
	return Config{
		Producers:      3,
		MinItems:       1,
		MaxItems:       3,
		MinDuration:    1,
		MaxDuration:    5,
		Policy:         PolicySentinel,
		IdleTimeout:    10 * time.Second,
		InterItemPause: 500 * time.Millisecond,
		TimeUnit:       time.Second,
		Color:          true,
	}
}

// Load reads a YAML file over the defaults. An empty path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

func (c Config) Items() random.Range {
	return random.Range{Min: c.MinItems, Max: c.MaxItems}
}

func (c Config) Durations() random.Range {
	return random.Range{Min: c.MinDuration, Max: c.MaxDuration}
}

func (c Config) Validate() error {
	if c.Producers <= 0 {
		return fmt.Errorf("%w: producers must be positive, got %d", ErrInvalid, c.Producers)
	}
	if err := c.Items().Validate(); err != nil {
		return fmt.Errorf("%w: items per producer: %v", ErrInvalid, err)
	}
	if err := c.Durations().Validate(); err != nil {
		return fmt.Errorf("%w: duration: %v", ErrInvalid, err)
	}

	switch c.Policy {
	case PolicySentinel:
	case PolicyIdleTimeout:
		if c.IdleTimeout <= 0 {
			return fmt.Errorf("%w: idle timeout must be positive, got %s", ErrInvalid, c.IdleTimeout)
		}
	default:
		return fmt.Errorf("%w: unknown policy %q", ErrInvalid, c.Policy)
	}

	if c.TimeUnit <= 0 {
		return fmt.Errorf("%w: time unit must be positive, got %s", ErrInvalid, c.TimeUnit)
	}
	if c.InterItemPause < 0 {
		return fmt.Errorf("%w: inter item pause is negative", ErrInvalid)
	}
	if c.DepthInterval < 0 {
		return fmt.Errorf("%w: depth interval is negative", ErrInvalid)
	}

	return nil
}
