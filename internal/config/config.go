// Package config loads and saves the tanksim YAML configuration:
// server address, session loop timing, controller gains, noise and the
// plant constants. Flag values from the CLI override file values.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/procmix/tanksim/internal/control"
	"github.com/procmix/tanksim/internal/plant"
	"github.com/procmix/tanksim/internal/session"
)

const (
	DefaultAddr         = ":8080"
	DefaultSamplingSecs = 0.5
	DefaultSubStep      = 0.5
	DefaultIntegrator   = "rk4"
	DefaultNoiseLevel   = 0.01
	DefaultDataDir      = ".tanksim"
)

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type SessionConfig struct {
	// SamplingInterval is the wall-clock snapshot period in seconds.
	SamplingInterval float64 `yaml:"sampling_interval"`
	// SubStep is the integration increment in simulated seconds.
	SubStep      float64 `yaml:"sub_step"`
	Integrator   string  `yaml:"integrator"`
	NoiseEnabled bool    `yaml:"noise_enabled"`
	NoiseLevel   float64 `yaml:"noise_level"`
}

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Session     SessionConfig     `yaml:"session"`
	Gains       control.Gains     `yaml:"gains"`
	DataDir     string            `yaml:"data_dir"`
	Plant       plant.Params      `yaml:"plant"`
	Equilibrium plant.Equilibrium `yaml:"equilibrium"`
}

// Default returns the nominal configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: DefaultAddr},
		Session: SessionConfig{
			SamplingInterval: DefaultSamplingSecs,
			SubStep:          DefaultSubStep,
			Integrator:       DefaultIntegrator,
			NoiseLevel:       DefaultNoiseLevel,
		},
		Gains:       control.DefaultGains(),
		DataDir:     DefaultDataDir,
		Plant:       plant.DefaultParams(),
		Equilibrium: plant.DefaultEquilibrium(),
	}
}

// Load reads a YAML file over the defaults, so partial files work.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// SessionOptions translates the file values into loop options.
func (c *Config) SessionOptions() session.Options {
	opts := session.DefaultOptions()
	opts.SamplingInterval = time.Duration(c.Session.SamplingInterval * float64(time.Second))
	opts.SubStep = c.Session.SubStep
	opts.Integrator = c.Session.Integrator
	opts.NoiseEnabled = c.Session.NoiseEnabled
	opts.NoiseLevel = c.Session.NoiseLevel
	opts.Gains = c.Gains
	return opts
}
