// Package config loads and saves run configuration as YAML.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultModel      = "exphydro"
	DefaultSolver     = "euler"
	DefaultMetric     = "nse"
	DefaultIterations = 5000
	DefaultWarmup     = 365
)

type Config struct {
	Model  string `yaml:"model"`
	Solver string `yaml:"solver"` // "euler" or "rk45"

	ForcingFile string `yaml:"forcing_file,omitempty"`

	Params     map[string]float64 `yaml:"params"`
	InitStates map[string]float64 `yaml:"initstates"`

	Calibrate CalibrateConfig `yaml:"calibrate"`
}

type CalibrateConfig struct {
	Metric     string                `yaml:"metric"`
	Iterations int                   `yaml:"iterations"`
	Seed       int64                 `yaml:"seed"`
	Warmup     int                   `yaml:"warmup"`
	Penalty    float64               `yaml:"penalty,omitempty"`
	Tunable    map[string][2]float64 `yaml:"tunable,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:  DefaultModel,
		Solver: DefaultSolver,
		Calibrate: CalibrateConfig{
			Metric:     DefaultMetric,
			Iterations: DefaultIterations,
			Warmup:     DefaultWarmup,
		},
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
