// Package search implements the 'wasmpatch search' command.
package search

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wasmpatch/wasmpatch/internal/cli/helpers"
	"github.com/wasmpatch/wasmpatch/internal/image"
	"github.com/wasmpatch/wasmpatch/internal/patch"
)

// Result is the search outcome for one pattern.
type Result struct {
	Pattern    string `json:"pattern" yaml:"pattern" header:"PATTERN"`
	Bytes      string `json:"bytes_hex" yaml:"bytes_hex" header:"BYTES"`
	Count      int    `json:"count" yaml:"count" header:"COUNT"`
	Offsets    []int  `json:"offsets" yaml:"offsets"`
	OffsetList string `json:"-" yaml:"-" header:"OFFSETS"`
}

// Output is the structured search report.
type Output struct {
	Source      string   `json:"source" yaml:"source"`
	Size        int      `json:"size" yaml:"size"`
	Overlapping bool     `json:"overlapping" yaml:"overlapping"`
	Results     []Result `json:"results" yaml:"results"`
}

type options struct {
	hex         bool
	numeric     bool
	numericType string
	overlapping bool
	format      string
}

// NewSearchCmd creates the search command.
func NewSearchCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "search <file> <pattern>...",
		Short: "Find occurrences of text, bytes or numbers without patching",
		Long: `Report where each pattern occurs in a module file. The file is never modified.

Patterns are UTF-8 text by default. With --hex they are hex-encoded bytes,
and with --numeric they are numbers encoded as --type.

Offsets are non-overlapping by default, which is the set a patch would
rewrite. --overlapping reports every starting position instead.

Negative numbers look like flags: put them after "--", with all flags
before it.`,
		Example: `  wasmpatch search game.wasm "Score: " "GAME OVER"
  wasmpatch search game.wasm --numeric 200 980
  wasmpatch search game.wasm --numeric -- -400 -450
  wasmpatch search game.wasm --hex 00004843 --overlapping`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], args[1:], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.hex, "hex", false, "Patterns are hex-encoded bytes")
	cmd.Flags().BoolVar(&opts.numeric, "numeric", false, "Patterns are numbers")
	cmd.Flags().StringVar(&opts.numericType, "type", string(patch.EncodingFloat32), "Encoding for --numeric patterns (float32, int32)")
	cmd.Flags().BoolVar(&opts.overlapping, "overlapping", false, "Report overlapping occurrences")
	cmd.MarkFlagsMutuallyExclusive("hex", "numeric")
	helpers.AddFormatFlag(cmd, &opts.format, helpers.FormatTable, helpers.AllFormats)

	return cmd
}

func run(cmd *cobra.Command, input string, patterns []string, opts *options) error {
	rt, err := helpers.LoadRuntime(cmd)
	if err != nil {
		return err
	}
	cfg := rt.Config

	if !cmd.Flags().Changed("format") {
		opts.format = cfg.Output.Format
	}
	if err := helpers.ValidateFormat(opts.format, helpers.AllFormats); err != nil {
		return err
	}

	needles := make([][]byte, len(patterns))
	for i, p := range patterns {
		needles[i], err = opts.needle(p)
		if err != nil {
			return err
		}
	}

	img, err := image.Load(input, &image.LoadOptions{
		MaxSize:       cfg.Load.MaxSize,
		AllowSymlinks: cfg.Load.AllowSymlinks,
	})
	if err != nil {
		return err
	}

	out := Output{
		Source:      img.Path(),
		Size:        img.Len(),
		Overlapping: opts.overlapping,
		Results:     make([]Result, len(patterns)),
	}
	engine := patch.NewEngine(img, patch.Config{Logger: rt.Logger})
	for i, needle := range needles {
		out.Results[i] = find(engine, patterns[i], needle, opts.overlapping)
	}

	rt.Logger.Debug().
		Str("path", img.Path()).
		Int("patterns", len(patterns)).
		Msg("Search complete")

	if opts.format != string(helpers.FormatTable) {
		formatter, err := helpers.NewFormatter(helpers.OutputFormat(opts.format))
		if err != nil {
			return err
		}
		return formatter.Format(out, cmd.OutOrStdout())
	}

	w := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(w, "Image: %s (%d bytes)\n\n", out.Source, out.Size); err != nil {
		return err
	}
	return (&helpers.TableFormatter{}).Format(out.Results, w)
}

// needle decodes a pattern argument into the bytes to look for.
func (o *options) needle(pattern string) ([]byte, error) {
	switch {
	case o.hex:
		b, err := hex.DecodeString(strings.ReplaceAll(pattern, " ", ""))
		if err != nil {
			return nil, fmt.Errorf("invalid hex pattern %q: %w", pattern, err)
		}
		if len(b) == 0 {
			return nil, fmt.Errorf("%w: empty pattern", patch.ErrInvalidRequest)
		}
		return b, nil

	case o.numeric:
		v, err := strconv.ParseFloat(pattern, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid numeric pattern %q: %w", pattern, err)
		}
		return patch.ParseEncoding(o.numericType).Encode(v)

	default:
		if pattern == "" {
			return nil, fmt.Errorf("%w: empty pattern", patch.ErrInvalidRequest)
		}
		return []byte(pattern), nil
	}
}

func find(engine *patch.Engine, pattern string, needle []byte, overlapping bool) Result {
	var offsets []int
	if overlapping {
		offsets = image.Scan(engine.Image().Bytes(), needle, 0, 1)
	} else {
		offsets = engine.FindBytes(needle)
	}
	if offsets == nil {
		offsets = []int{}
	}

	return Result{
		Pattern:    pattern,
		Bytes:      hex.EncodeToString(needle),
		Count:      len(offsets),
		Offsets:    offsets,
		OffsetList: listOffsets(offsets),
	}
}

func listOffsets(offsets []int) string {
	if len(offsets) == 0 {
		return "-"
	}
	parts := make([]string, len(offsets))
	for i, off := range offsets {
		parts[i] = fmt.Sprintf("0x%x", off)
	}
	return strings.Join(parts, ",")
}
