package batch

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	cerrors "github.com/wasmpatch/wasmpatch/internal/errors"
	"github.com/wasmpatch/wasmpatch/internal/patch"
)

//go:embed presets/*.yaml
var presetFS embed.FS

// PresetNames lists the built-in presets.
func PresetNames() []string {
	entries, err := presetFS.ReadDir("presets")
	cerrors.Must(err, "read embedded presets")

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// Preset returns the requests of a built-in preset.
func Preset(name string) ([]patch.Request, error) {
	data, err := presetFS.ReadFile(path.Join("presets", name+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("unknown preset %q (available: %s)", name, strings.Join(PresetNames(), ", "))
	}
	reqs, err := Parse(data)
	cerrors.Must(err, "parse embedded preset "+name)
	return reqs, nil
}
