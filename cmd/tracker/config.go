package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vaultseed/tracker/auth"
	"github.com/vaultseed/tracker/frontend/http"
	"github.com/vaultseed/tracker/persist"
	"github.com/vaultseed/tracker/pkg/conf"
	"github.com/vaultseed/tracker/swarm"
)

// fileConfig is the top-level shape of the tracker's YAML configuration
// file: one block per component, each decoded independently via pkg/conf so
// a component never needs to know about its siblings' schema.
type fileConfig struct {
	Debug bool `yaml:"debug"`

	HTTP     conf.MapConfig `yaml:"http"`
	Response conf.MapConfig `yaml:"response"`
	Swarm    conf.MapConfig `yaml:"swarm"`
	Auth     conf.MapConfig `yaml:"auth"`
	Persist  conf.MapConfig `yaml:"persist"`
	Postgres conf.MapConfig `yaml:"postgres"`

	MetricsAddr string `yaml:"metrics_addr"`
}

func loadConfig(path string) (fileConfig, error) {
	var fc fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("reading config file: %w", err)
	}
	if err = yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("parsing config file: %w", err)
	}
	return fc, nil
}

func (fc fileConfig) httpConfig() (http.Config, error) {
	var cfg http.Config
	err := fc.HTTP.Unmarshal(&cfg)
	return cfg, err
}

func (fc fileConfig) responseConfig() (http.ResponseConfig, error) {
	var cfg http.ResponseConfig
	err := fc.Response.Unmarshal(&cfg)
	return cfg, err
}

func (fc fileConfig) swarmConfig() (swarm.Config, error) {
	var cfg swarm.Config
	err := fc.Swarm.Unmarshal(&cfg)
	return cfg, err
}

func (fc fileConfig) authConfig() (auth.Config, error) {
	var cfg auth.Config
	err := fc.Auth.Unmarshal(&cfg)
	return cfg, err
}

func (fc fileConfig) persistConfig() (persist.Config, error) {
	var cfg persist.Config
	err := fc.Persist.Unmarshal(&cfg)
	return cfg, err
}
