// Package constants defines shared configuration constants.
package constants

import "time"

var (
	ConfigFile = "config.yaml"

	DefaultDir = ".wasmpatch"

	// ConfigEnvVar overrides the configuration directory.
	ConfigEnvVar = "WASMPATCH_CONFIG"

	// DefaultOutputSuffix is inserted before the extension of the input
	// file to derive the default output path.
	DefaultOutputSuffix = "_modified"

	DefaultLogLevel = "info"

	DefaultOutputFormat = "table"

	// DefaultMaxImageSize caps module images held in memory (512MB).
	DefaultMaxImageSize int64 = 512 << 20

	DefaultSaveRetries = 3

	DefaultSaveBackoff = 100 * time.Millisecond
)
