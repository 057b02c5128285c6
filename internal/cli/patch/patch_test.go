package patch

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasmpatch/wasmpatch/internal/patch"
	"github.com/wasmpatch/wasmpatch/internal/testutil"
)

func setup(t *testing.T, content []byte) string {
	t.Helper()
	testutil.IsolateConfig(t)
	return testutil.WriteModule(t, content)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewPatchCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestNewPatchCmd(t *testing.T) {
	cmd := NewPatchCmd()

	assert.Equal(t, "patch", cmd.Name())
	for _, name := range []string{"replace", "with", "numeric", "type", "max", "batch", "preset", "strict", "output", "dry-run", "format"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
}

func TestPatch_ReplaceWritesDefaultOutput(t *testing.T) {
	input := setup(t, []byte("Score: 123"))

	out, err := execute(t, input, "--replace", "Score: ", "--with", "Points: ")
	require.NoError(t, err)

	patched := testutil.ReadModule(t, filepath.Join(filepath.Dir(input), "game_modified.wasm"))
	assert.Equal(t, "Points:123", string(patched))
	assert.Equal(t, "Score: 123", string(testutil.ReadModule(t, input)))

	assert.Contains(t, out, "1 request(s) truncated")
}

func TestPatch_StrictRejectsTruncation(t *testing.T) {
	input := setup(t, []byte("Score: 123"))
	output := filepath.Join(t.TempDir(), "out.wasm")

	out, err := execute(t, input, "--replace", "Score: ", "--with", "Points: ",
		"--strict", "--output", output, "-o", "json")
	require.NoError(t, err)

	var report patch.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.True(t, report.Strict)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 0, report.Applied)

	assert.Equal(t, "Score: 123", string(testutil.ReadModule(t, output)))
}

func TestPatch_NumericDryRun(t *testing.T) {
	data := append([]byte("hp"), 0x00, 0x00, 0x48, 0x43) // float32 200
	input := setup(t, data)

	out, err := execute(t, input, "--numeric", "200=250", "--dry-run", "-o", "json")
	require.NoError(t, err)

	var report patch.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.True(t, report.DryRun)
	assert.Equal(t, 1, report.Applied)
	assert.NotEqual(t, report.DigestBefore, report.DigestAfter)
	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, []int{2}, report.Outcomes[0].Offsets)

	_, err = os.Stat(filepath.Join(filepath.Dir(input), "game_modified.wasm"))
	assert.True(t, os.IsNotExist(err))
}

func TestPatch_BatchFile(t *testing.T) {
	input := setup(t, []byte("Lives: 3 GAME OVER"))
	batchPath := filepath.Join(t.TempDir(), "patches.yaml")
	require.NoError(t, os.WriteFile(batchPath, []byte(`patches:
  - type: string
    old: "Lives: "
    new: "HP: "
  - type: string
    old: GAME OVER
    new: TRY AGAIN
`), 0o600))
	output := filepath.Join(t.TempDir(), "out.wasm")

	_, err := execute(t, input, "--batch", batchPath, "--output", output)
	require.NoError(t, err)

	patched := testutil.ReadModule(t, output)
	assert.Equal(t, "HP: \x00\x00\x003 TRY AGAIN", string(patched))
}

func TestPatch_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "no patches", args: nil, wantErr: "no patches given"},
		{name: "unpaired replace", args: []string{"--replace", "a"}, wantErr: "must pair up"},
		{name: "bad numeric", args: []string{"--numeric", "200"}, wantErr: "expected OLD=NEW"},
		{name: "bad type", args: []string{"--numeric", "1=2", "--type", "float64"}, wantErr: "unsupported numeric encoding"},
		{name: "bad format", args: []string{"--replace", "a", "--with", "b", "-o", "xml"}, wantErr: "unsupported format"},
		{name: "unknown preset", args: []string{"--preset", "nope"}, wantErr: "unknown preset"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := setup(t, []byte("abc"))
			_, err := execute(t, append([]string{input}, tt.args...)...)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestPatch_MissingInput(t *testing.T) {
	setup(t, nil)

	_, err := execute(t, filepath.Join(t.TempDir(), "missing.wasm"), "--replace", "a", "--with", "b")
	assert.Error(t, err)
}

func TestParseNumericPair(t *testing.T) {
	req, err := parseNumericPair("-400=-450", patch.EncodingFloat32)
	require.NoError(t, err)
	assert.Equal(t, -400.0, req.Match)
	assert.Equal(t, -450.0, req.Replacement)

	for _, bad := range []string{"=1", "1=", "a=1", "1=b", "12"} {
		_, err := parseNumericPair(bad, patch.EncodingFloat32)
		assert.Error(t, err, bad)
	}
}

func TestCollectRequests_Order(t *testing.T) {
	opts := &options{
		presets:     []string{"bungvo"},
		replace:     []string{"x"},
		with:        []string{"y"},
		numeric:     []string{"1=2"},
		numericType: "int32",
		max:         2,
	}

	reqs, err := collectRequests(opts, testutil.NewTestLogger(t))
	require.NoError(t, err)
	require.Len(t, reqs, 8)

	text, ok := reqs[6].(patch.Text)
	require.True(t, ok)
	assert.Equal(t, 2, text.MaxOccurrences)

	num, ok := reqs[7].(patch.Numeric)
	require.True(t, ok)
	assert.Equal(t, patch.EncodingInt32, num.Encoding)
	assert.Equal(t, 2, num.MaxOccurrences)
}

func TestShouldRetrySave(t *testing.T) {
	assert.False(t, shouldRetrySave(os.ErrNotExist))
	assert.False(t, shouldRetrySave(os.ErrPermission))
	assert.True(t, shouldRetrySave(assert.AnError))
}
