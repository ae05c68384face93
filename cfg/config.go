package cfg

import (
	"os"
	"time"

	yaml "gopkg.in/yaml.v2"
)

// Config is the run configuration for the smuctl binary. Flags override
// whatever the file sets.
type Config struct {
	Resource  string      `yaml:"Resource"`
	Lan       bool        `yaml:"Lan"`
	TimeoutMs int64       `yaml:"TimeoutMs"`
	Debug     bool        `yaml:"Debug"`
	Sweep     SweepConfig `yaml:"Sweep"`
	JV        JVConfig    `yaml:"JV"`
}

// SweepConfig sets the defaults for the sweep subcommand.
type SweepConfig struct {
	Start          float64 `yaml:"Start"`
	Stop           float64 `yaml:"Stop"`
	Points         int     `yaml:"Points"`
	SettlingTimeMs int64   `yaml:"SettlingTimeMs"`
	OutputCSV      string  `yaml:"OutputCSV"`
}

// JVConfig sets the defaults for the jv subcommand: a stepped voltage
// scan on channel A with a photodiode current reading on channel B.
type JVConfig struct {
	Start        float64 `yaml:"Start"`
	Stop         float64 `yaml:"Stop"`
	Step         float64 `yaml:"Step"`
	DelayMs      int64   `yaml:"DelayMs"`
	VoltageRange float64 `yaml:"VoltageRange"`
	OutputCSV    string  `yaml:"OutputCSV"`
}

// Timeout returns the bus timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// InitConfig loads the config from the given YAML file.
func InitConfig(path string) (*Config, error) {
	cfgBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(cfgBytes, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
