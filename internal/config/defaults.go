package config

import "github.com/wasmpatch/wasmpatch/internal/constants"

// Default returns a config with sensible defaults.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level: constants.DefaultLogLevel,
		},
		Output: OutputConfig{
			Suffix: constants.DefaultOutputSuffix,
			Format: constants.DefaultOutputFormat,
		},
		Patch: PatchConfig{
			Strict: false,
		},
		Load: LoadConfig{
			MaxSize:       constants.DefaultMaxImageSize,
			AllowSymlinks: true,
		},
		Save: SaveConfig{
			Retries: constants.DefaultSaveRetries,
			Backoff: constants.DefaultSaveBackoff,
		},
	}
}
