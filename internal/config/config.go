// Package config loads workspace settings from dequeue.yaml in the
// workspace directory. Everything has a default; a missing file is not an
// error.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const FileName = "dequeue.yaml"

type Config struct {
	// MaxActiveArcs bounds how many arcs may be active at once.
	MaxActiveArcs int `yaml:"max_active_arcs"`

	// Actor and Device identify who and where local mutations come from.
	Actor  string `yaml:"actor"`
	Device string `yaml:"device"`
}

func Default() Config {
	host, _ := os.Hostname()
	if host == "" {
		host = "local"
	}
	return Config{
		MaxActiveArcs: 5,
		Actor:         "local",
		Device:        host,
	}
}

// Load reads dir/dequeue.yaml over the defaults. Unset keys keep their
// default values.
func Load(dir string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(filepath.Join(dir, FileName))
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", FileName, err)
	}
	if cfg.MaxActiveArcs <= 0 {
		cfg.MaxActiveArcs = Default().MaxActiveArcs
	}
	if strings.TrimSpace(cfg.Actor) == "" {
		cfg.Actor = Default().Actor
	}
	if strings.TrimSpace(cfg.Device) == "" {
		cfg.Device = Default().Device
	}
	return cfg, nil
}

// Save writes the config to dir/dequeue.yaml.
func Save(dir string, cfg Config) error {
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, FileName), b, 0o644)
}
