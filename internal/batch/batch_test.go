package batch

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasmpatch/wasmpatch/internal/image"
	"github.com/wasmpatch/wasmpatch/internal/patch"
)

func TestParse(t *testing.T) {
	doc := `
patches:
  - type: string
    old: "Score: "
    new: "Points: "
    max_replacements: 1
  - type: numeric
    old: 200
    new: 250.5
  - type: numeric
    old: 3
    new: -1
    value_type: int32
    description: fewer lives
  - type: text
    hex: true
    old: "de ad"
    new: "beef"
`
	reqs, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.Len(t, reqs, 4)

	text, ok := reqs[0].(patch.Text)
	require.True(t, ok)
	assert.Equal(t, []byte("Score: "), text.Match)
	assert.Equal(t, []byte("Points: "), text.Replacement)
	assert.Equal(t, 1, text.MaxOccurrences)

	num, ok := reqs[1].(patch.Numeric)
	require.True(t, ok)
	assert.Equal(t, 200.0, num.Match)
	assert.Equal(t, 250.5, num.Replacement)
	assert.Equal(t, patch.EncodingFloat32, num.Encoding)

	num, ok = reqs[2].(patch.Numeric)
	require.True(t, ok)
	assert.Equal(t, patch.EncodingInt32, num.Encoding)
	assert.Equal(t, "fewer lives", num.Describe())

	raw, ok := reqs[3].(patch.Text)
	require.True(t, ok)
	assert.Equal(t, []byte{0xde, 0xad}, raw.Match)
	assert.Equal(t, []byte{0xbe, 0xef}, raw.Replacement)
}

func TestParse_LazyValidation(t *testing.T) {
	doc := `
patches:
  - type: bogus
    old: a
    new: b
  - type: numeric
    old: fast
    new: 2
  - type: numeric
    old: 1
    new: 2
    value_type: float64
  - type: string
    hex: true
    old: zz
    new: "00"
  - type: string
    old: ok
    new: OK
`
	reqs, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.Len(t, reqs, 5)

	assert.Equal(t, patch.KindInvalid, reqs[0].Kind())
	assert.Equal(t, patch.KindInvalid, reqs[1].Kind())
	// Unknown encodings decode fine and fail when applied.
	assert.Equal(t, patch.KindNumeric, reqs[2].Kind())
	assert.Equal(t, patch.KindInvalid, reqs[3].Kind())
	assert.Equal(t, patch.KindText, reqs[4].Kind())

	inv := reqs[0].(patch.Invalid)
	assert.ErrorIs(t, inv.Err, patch.ErrInvalidRequest)
	assert.Contains(t, inv.Describe(), "bogus")
}

func TestParse_BadRecordDoesNotRejectBatch(t *testing.T) {
	tests := []struct {
		name    string
		record  string
		wantErr string
	}{
		{name: "sequence value", record: "  - type: string\n    old: [a, b]\n    new: c\n", wantErr: "expected a scalar value"},
		{name: "misspelled key", record: "  - type: string\n    old: a\n    new: b\n    descripton: typo\n", wantErr: `unknown field "descripton"`},
		{name: "non-integer max", record: "  - type: string\n    old: a\n    new: b\n    max_replacements: lots\n", wantErr: "lots"},
		{name: "negative max", record: "  - type: string\n    old: a\n    new: b\n    max_replacements: -1\n", wantErr: "must not be negative"},
		{name: "not a mapping", record: "  - just text\n", wantErr: "must be a mapping"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := "patches:\n" + tt.record + "  - type: string\n    old: AB\n    new: XY\n"

			reqs, err := Parse([]byte(doc))
			require.NoError(t, err)
			require.Len(t, reqs, 2)

			inv, ok := reqs[0].(patch.Invalid)
			require.True(t, ok)
			assert.ErrorIs(t, inv.Err, patch.ErrInvalidRequest)
			assert.ErrorContains(t, inv.Err, tt.wantErr)

			e := patch.NewEngine(image.New("mem", []byte("--AB--AB")), patch.DefaultConfig())
			outcomes := e.Apply(reqs)

			assert.Error(t, outcomes[0].Err)
			require.NoError(t, outcomes[1].Err)
			assert.Equal(t, 2, outcomes[1].Applied())
			assert.Equal(t, "--XY--XY", string(e.Image().Bytes()))
		})
	}
}

func TestParse_NullPatches(t *testing.T) {
	reqs, err := Parse([]byte("patches:\n"))
	require.NoError(t, err)
	assert.Empty(t, reqs)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "not yaml", doc: "patches: [\n"},
		{name: "wrong shape", doc: "patches: 3\n"},
		{name: "patches is a mapping", doc: "patches:\n  type: string\n"},
		{name: "top level is a list", doc: "- type: string\n"},
		{name: "unknown top-level key", doc: "patch:\n  - type: string\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestParse_Empty(t *testing.T) {
	reqs, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, reqs)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patches.yaml")
	require.NoError(t, os.WriteFile(path, []byte("patches:\n  - type: string\n    old: a\n    new: b\n"), 0o644))

	reqs, err := LoadFile(path, zerolog.Nop())
	require.NoError(t, err)
	assert.Len(t, reqs, 1)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), zerolog.Nop())
	assert.Error(t, err)
}

func TestPresets(t *testing.T) {
	assert.Contains(t, PresetNames(), "bungvo")

	reqs, err := Preset("bungvo")
	require.NoError(t, err)
	require.Len(t, reqs, 6)
	for _, r := range reqs {
		assert.NotEqual(t, patch.KindInvalid, r.Kind())
	}

	_, err = Preset("nope")
	assert.Error(t, err)
}

func TestSchema(t *testing.T) {
	data, err := Schema()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "wasmpatch batch", doc["title"])

	props, ok := doc["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "patches")
}
