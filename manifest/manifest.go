// Package manifest handles catlang.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Manifest represents a catlang.toml project configuration.
type Manifest struct {
	Project Project `toml:"project"`
	Source  Source  `toml:"source"`
	Runtime Runtime `toml:"runtime"`

	// Dir is the directory containing the catlang.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Source configures source file locations.
type Source struct {
	Dirs  []string `toml:"dirs"`
	Entry string   `toml:"entry"`
}

// Runtime configures compiler and VM behaviour. Environment variables
// (CB_AUTOFIX, CB_MEMDBG, CB_DLL_PATH) override these at resolve time.
type Runtime struct {
	AutoFix  *bool    `toml:"autofix"`
	MemDebug bool     `toml:"memdbg"`
	DllPath  []string `toml:"dll-path"`
	Cache    *bool    `toml:"cache"`
}

// Load parses a catlang.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "catlang.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	// Defaults
	if len(m.Source.Dirs) == 0 {
		m.Source.Dirs = []string{"."}
	}

	return &m, nil
}

// FindAndLoad walks up from startDir to find a catlang.toml file, then
// loads and returns the manifest. Returns nil (no error) when no manifest
// is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "catlang.toml")); err == nil {
			return Load(dir)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

// Config is the fully resolved runtime configuration: manifest values
// with environment overrides applied.
type Config struct {
	AutoFix  bool
	MemDebug bool
	DllPath  []string
	Cache    bool
	Entry    string
}

// Resolve merges an optional manifest with the CB_* environment
// variables. CB_AUTOFIX: 1/unset = consult the suggestion oracle, 0 =
// never. CB_MEMDBG: set = report container counts at halt. CB_DLL_PATH:
// OS path-list of FFI search directories.
func Resolve(m *Manifest) Config {
	cfg := Config{AutoFix: true, Cache: true}

	if m != nil {
		if m.Runtime.AutoFix != nil {
			cfg.AutoFix = *m.Runtime.AutoFix
		}
		if m.Runtime.Cache != nil {
			cfg.Cache = *m.Runtime.Cache
		}
		cfg.MemDebug = m.Runtime.MemDebug
		cfg.DllPath = append(cfg.DllPath, m.Runtime.DllPath...)
		cfg.Entry = m.Source.Entry
	}

	if v, ok := os.LookupEnv("CB_AUTOFIX"); ok {
		cfg.AutoFix = v != "0"
	}
	if _, ok := os.LookupEnv("CB_MEMDBG"); ok {
		cfg.MemDebug = true
	}
	if v, ok := os.LookupEnv("CB_DLL_PATH"); ok && v != "" {
		cfg.DllPath = append(cfg.DllPath, strings.Split(v, string(os.PathListSeparator))...)
	}

	return cfg
}
