package helpers

import (
	"path/filepath"
	"strings"
)

// DefaultOutputPath derives the output path from the input path by inserting
// suffix before the extension: game.wasm -> game_modified.wasm.
func DefaultOutputPath(input, suffix string) string {
	ext := filepath.Ext(input)
	// A leading-dot name like ".module" has no extension to preserve.
	if ext == filepath.Base(input) {
		ext = ""
	}
	return strings.TrimSuffix(input, ext) + suffix + ext
}
