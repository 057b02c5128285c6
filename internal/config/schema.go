// Package config provides wasmpatch configuration loading.
//
// Configuration is layered: built-in defaults, then the YAML file at
// $WASMPATCH_CONFIG/config.yaml or ~/.wasmpatch/config.yaml, then environment
// variables named by `env` struct tags. Command-line flags are applied last
// by the CLI.
package config

import "time"

// Config is the wasmpatch tool configuration.
type Config struct {
	Log    LogConfig    `yaml:"log"`
	Output OutputConfig `yaml:"output"`
	Patch  PatchConfig  `yaml:"patch"`
	Load   LoadConfig   `yaml:"load"`
	Save   SaveConfig   `yaml:"save"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level" env:"WASMPATCH_LOG_LEVEL"`
	// Pretty selects console output. Nil means decide from the terminal.
	Pretty *bool `yaml:"pretty,omitempty" env:"WASMPATCH_LOG_PRETTY"`
}

// OutputConfig configures report and image output.
type OutputConfig struct {
	Suffix string `yaml:"suffix" env:"WASMPATCH_OUTPUT_SUFFIX"`
	Format string `yaml:"format" env:"WASMPATCH_OUTPUT_FORMAT"`
}

// PatchConfig configures the patch engine.
type PatchConfig struct {
	// Strict rejects text replacements longer than their match.
	Strict bool `yaml:"strict" env:"WASMPATCH_STRICT"`
}

// LoadConfig configures image loading.
type LoadConfig struct {
	MaxSize       int64 `yaml:"max_size" env:"WASMPATCH_MAX_SIZE"`
	AllowSymlinks bool  `yaml:"allow_symlinks" env:"WASMPATCH_ALLOW_SYMLINKS"`
}

// SaveConfig configures retries when writing the patched image.
type SaveConfig struct {
	Retries int           `yaml:"retries" env:"WASMPATCH_SAVE_RETRIES"`
	Backoff time.Duration `yaml:"backoff" env:"WASMPATCH_SAVE_BACKOFF"`
}
