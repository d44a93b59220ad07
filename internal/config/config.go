// Package config loads the YAML configuration for the korra CLI and
// validator server. Agent-level configuration stays a flat string map; only
// the application shell is structured.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level file layout.
type Config struct {
	ListenAddr string                 `yaml:"listen_addr"`
	LogLevel   string                 `yaml:"log_level"`
	Consensus  ConsensusConfig        `yaml:"consensus"`
	Redis      *RedisConfig           `yaml:"redis"`
	Agents     map[string]AgentConfig `yaml:"agents"`
}

// ConsensusConfig seeds the validator roster.
type ConsensusConfig struct {
	Threshold float64      `yaml:"threshold"`
	Nodes     []NodeConfig `yaml:"nodes"`
}

// NodeConfig is one seeded roster entry.
type NodeConfig struct {
	ID     string  `yaml:"id"`
	Weight float64 `yaml:"weight"`
}

// RedisConfig enables the proof archive when present.
type RedisConfig struct {
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	ArchiveCap int64  `yaml:"archive_cap"`
}

// AgentConfig declares one runnable agent: its type plus the flat config map
// handed to agent construction untouched.
type AgentConfig struct {
	Type   string            `yaml:"type"`
	Config map[string]string `yaml:"config"`
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		ListenAddr: ":8080",
		LogLevel:   "info",
		Consensus: ConsensusConfig{
			Threshold: 0.66,
		},
	}
}

// Load reads and validates a configuration file, applying defaults for
// absent fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	for name, ag := range c.Agents {
		if ag.Type == "" {
			return fmt.Errorf("agent %q: missing type", name)
		}
	}
	for i, n := range c.Consensus.Nodes {
		if n.ID == "" {
			return fmt.Errorf("consensus node %d: missing id", i)
		}
		if n.Weight < 0 {
			return fmt.Errorf("consensus node %q: negative weight", n.ID)
		}
	}
	if c.Redis != nil && c.Redis.Addr == "" {
		return fmt.Errorf("redis: missing addr")
	}
	return nil
}
