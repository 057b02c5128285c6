package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// WasmHeader is the 8-byte WebAssembly magic and version 1.
var WasmHeader = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

// WriteModule writes content to a fresh game.wasm in a temp directory and
// returns its path.
func WriteModule(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "game.wasm")
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}

// ReadModule returns the content of path.
func ReadModule(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

// IsolateConfig points the config loader at an empty temp directory and
// clears WASMPATCH_* overrides inherited from the environment.
func IsolateConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("WASMPATCH_CONFIG", dir)
	for _, name := range []string{
		"WASMPATCH_LOG_LEVEL",
		"WASMPATCH_LOG_PRETTY",
		"WASMPATCH_OUTPUT_SUFFIX",
		"WASMPATCH_OUTPUT_FORMAT",
		"WASMPATCH_STRICT",
		"WASMPATCH_MAX_SIZE",
		"WASMPATCH_ALLOW_SYMLINKS",
		"WASMPATCH_SAVE_RETRIES",
		"WASMPATCH_SAVE_BACKOFF",
	} {
		// An empty value is treated as unset by the env loader.
		t.Setenv(name, "")
	}
	return dir
}
