package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/wasmpatch/wasmpatch/internal/constants"
)

// Loader resolves and reads the configuration file.
type Loader struct {
	baseDir string
}

// NewLoader creates a config loader.
// The base directory is resolved in this order:
//  1. WASMPATCH_CONFIG environment variable.
//  2. ~/.wasmpatch
//  3. no directory; Load returns defaults plus environment overrides.
func NewLoader() *Loader {
	if dir := os.Getenv(constants.ConfigEnvVar); dir != "" {
		return &Loader{baseDir: dir}
	}
	if home, err := os.UserHomeDir(); err == nil {
		return &Loader{baseDir: filepath.Join(home, constants.DefaultDir)}
	}
	return &Loader{}
}

// NewLoaderAt creates a loader reading from dir.
func NewLoaderAt(dir string) *Loader {
	return &Loader{baseDir: dir}
}

// Path returns the config file path, or "" when no base directory exists.
func (l *Loader) Path() string {
	if l.baseDir == "" {
		return ""
	}
	return filepath.Join(l.baseDir, constants.ConfigFile)
}

// Load reads the config file over the defaults, applies environment
// overrides and validates the result. A missing file is not an error.
func (l *Loader) Load() (*Config, error) {
	cfg := Default()

	if path := l.Path(); path != "" {
		//nolint:gosec // G304: path is from the trusted config directory.
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if err := LoadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
