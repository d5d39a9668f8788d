package commands

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// Config is the YAML run configuration.
type Config struct {
	// Script is the start script, overridden by a positional argument.
	Script string `yaml:"script,omitempty"`

	// LibsDir contains preloadable Lua library modules.
	LibsDir string `yaml:"libs_dir,omitempty"`

	// PackageDirs are appended to the Lua module search path.
	PackageDirs []string `yaml:"package_dirs,omitempty"`

	// Packages are required into every fresh state before the start script.
	Packages []string `yaml:"packages,omitempty"`

	// WatchDirs are monitored for changes in addition to the start script.
	WatchDirs []string `yaml:"watch_dirs,omitempty"`

	// KVDir is the directory for the persistent key-value store. Empty
	// means an in-memory store.
	KVDir string `yaml:"kv_dir,omitempty"`

	// Bindings are injected as global variables and replayed on restart.
	Bindings Bindings `yaml:"bindings,omitempty"`
}

// Bindings groups the typed value bindings from the config file.
type Bindings struct {
	Strings  map[string]string  `yaml:"strings,omitempty"`
	Numbers  map[string]float64 `yaml:"numbers,omitempty"`
	Integers map[string]int64   `yaml:"integers,omitempty"`
	Booleans map[string]bool    `yaml:"booleans,omitempty"`
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}
