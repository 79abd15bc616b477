// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"
)

// Config is the run configuration read from a YAML or TOML file.
// Command-line flags override its fields.
type Config struct {
	// Timeout bounds a run, as a Go duration string. Empty means none.
	Timeout string `yaml:"timeout" toml:"timeout"`
	// Output is the result format: json, yaml or msgpack.
	Output string `yaml:"output" toml:"output"`
	// Jobs limits the concurrent reads of async.readfiles.
	Jobs int `yaml:"jobs" toml:"jobs"`
	// Globals are set as Lua globals before the script runs.
	Globals map[string]any `yaml:"globals" toml:"globals"`
}

// LoadConfig reads the file at path, choosing the format by extension:
// .yaml and .yml are YAML, .toml is TOML.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q (must be .yaml, .yml or .toml)", ext)
	}
	if _, err := cfg.timeout(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) timeout() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", c.Timeout, err)
	}
	return d, nil
}
