// Copyright 2026 The Tessellate Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the webboot client configuration, loaded from a single
// YAML file. There is no automatic discovery and environment
// variables do not override values — the file plus explicit flags are
// the whole story, so a run is reproducible from its command line.
type Config struct {
	// BaseURL is the deployed bundle root.
	BaseURL string `yaml:"base_url"`

	// Manifest is the manifest path beneath the base URL.
	// Default: "bundle.webboot.jsonc".
	Manifest string `yaml:"manifest"`

	// Mount overrides the manifest's mount-point identifier when set.
	Mount string `yaml:"mount"`

	// StageTimeout bounds each bootstrap stage, as a duration string.
	// Default: "30s". "0" disables the bound.
	StageTimeout string `yaml:"stage_timeout"`

	// InterfaceBinding is the binding namespace the interface module's
	// symbols resolve in. Default: "app".
	InterfaceBinding string `yaml:"interface_binding"`

	// HelperBinding is the binding namespace the helper module's
	// symbols resolve in. Default: "unzstd".
	HelperBinding string `yaml:"helper_binding"`
}

// defaultConfig returns the configuration used before any file or
// flag is applied. BaseURL has no default — it must come from the
// file or the flag.
func defaultConfig() *Config {
	return &Config{
		Manifest:         "bundle.webboot.jsonc",
		StageTimeout:     "30s",
		InterfaceBinding: "app",
		HelperBinding:    "unzstd",
	}
}

// loadConfig reads a YAML config file over the defaults. An empty
// path returns the defaults unchanged.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// stageTimeout parses the configured stage timeout. "0" maps to the
// negative sentinel that disables the bound downstream.
func (c *Config) stageTimeout() (time.Duration, error) {
	timeout, err := time.ParseDuration(c.StageTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid stage_timeout %q: %w", c.StageTimeout, err)
	}
	if timeout == 0 {
		return -1, nil
	}
	return timeout, nil
}

// validate checks that required fields are present after file and
// flag merging.
func (c *Config) validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL is required (--base-url or base_url in config)")
	}
	if c.Manifest == "" {
		return fmt.Errorf("manifest path is required")
	}
	if c.InterfaceBinding == "" || c.HelperBinding == "" {
		return fmt.Errorf("binding namespaces must not be empty")
	}
	return nil
}
