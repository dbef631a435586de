package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

type projectManifest struct {
	Path   string
	Root   string
	Config projectConfig
}

type projectConfig struct {
	Package packageConfig `toml:"package"`
	Lower   lowerConfig   `toml:"lower"`
}

type packageConfig struct {
	Name string `toml:"name"`
}

type lowerConfig struct {
	Jobs   int  `toml:"jobs"`
	Verify bool `toml:"verify"`
	Cache  bool `toml:"cache"`
}

func defaultLowerConfig() lowerConfig {
	return lowerConfig{Jobs: 0, Verify: true, Cache: false}
}

func findStrataToml(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, "strata.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// loadProjectManifest walks upward from startDir looking for strata.toml.
// Absence is not an error: defaults apply.
func loadProjectManifest(startDir string) (*projectManifest, bool, error) {
	manifestPath, ok, err := findStrataToml(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg := projectConfig{Lower: defaultLowerConfig()}
	if _, err := toml.DecodeFile(manifestPath, &cfg); err != nil {
		return nil, true, fmt.Errorf("failed to parse %q: %w", manifestPath, err)
	}
	return &projectManifest{
		Path:   manifestPath,
		Root:   filepath.Dir(manifestPath),
		Config: cfg,
	}, true, nil
}
