package commands

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	content := `
script: main.lua
libs_dir: ./libs
package_dirs:
  - ./vendor
packages:
  - helpers
kv_dir: ./data
bindings:
  strings:
    greeting: hello
  numbers:
    pi: 3.14
  integers:
    retries: 3
  booleans:
    debug: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Script != "main.lua" {
		t.Errorf("Script = %q", cfg.Script)
	}
	if cfg.LibsDir != "./libs" {
		t.Errorf("LibsDir = %q", cfg.LibsDir)
	}
	if len(cfg.PackageDirs) != 1 || cfg.PackageDirs[0] != "./vendor" {
		t.Errorf("PackageDirs = %v", cfg.PackageDirs)
	}
	if cfg.Bindings.Strings["greeting"] != "hello" {
		t.Errorf("Strings = %v", cfg.Bindings.Strings)
	}
	if cfg.Bindings.Numbers["pi"] != 3.14 {
		t.Errorf("Numbers = %v", cfg.Bindings.Numbers)
	}
	if cfg.Bindings.Integers["retries"] != 3 {
		t.Errorf("Integers = %v", cfg.Bindings.Integers)
	}
	if !cfg.Bindings.Booleans["debug"] {
		t.Errorf("Booleans = %v", cfg.Bindings.Booleans)
	}
}

func TestLoadConfigMissing(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
