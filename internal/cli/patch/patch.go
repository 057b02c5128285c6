// Package patch implements the 'wasmpatch patch' command.
package patch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/wasmpatch/wasmpatch/internal/batch"
	"github.com/wasmpatch/wasmpatch/internal/cli/helpers"
	"github.com/wasmpatch/wasmpatch/internal/image"
	"github.com/wasmpatch/wasmpatch/internal/patch"
	"github.com/wasmpatch/wasmpatch/internal/retry"
)

type options struct {
	replace     []string
	with        []string
	numeric     []string
	numericType string
	max         int
	batchFiles  []string
	presets     []string
	strict      bool
	output      string
	dryRun      bool
	format      string
}

// NewPatchCmd creates the patch command.
func NewPatchCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "patch <file>",
		Short: "Apply fixed-length patches to a module file",
		Long: `Apply text and numeric replacements to a compiled module without changing
its length.

Requests run in this order: presets, batch files, --replace/--with pairs,
then --numeric values. Each request scans the result of the previous one.

Text replacements shorter than their match are padded with zero bytes.
Longer ones are truncated to the match width with a warning, or rejected
with --strict.

The patched image is written to <name>_modified<ext> next to the input
unless --output is given.`,
		Example: `  wasmpatch patch game.wasm --replace "Score: " --with "Points: "
  wasmpatch patch game.wasm --numeric 200=250 --numeric -400=-450
  wasmpatch patch game.wasm --batch patches.yaml --dry-run -o json
  wasmpatch patch game.wasm --preset bungvo`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringArrayVar(&opts.replace, "replace", nil, "Text to replace (pair each with --with)")
	cmd.Flags().StringArrayVar(&opts.with, "with", nil, "Replacement text for the matching --replace")
	cmd.Flags().StringArrayVar(&opts.numeric, "numeric", nil, "Numeric replacement as OLD=NEW")
	cmd.Flags().StringVar(&opts.numericType, "type", string(patch.EncodingFloat32), "Encoding for --numeric values (float32, int32)")
	cmd.Flags().IntVar(&opts.max, "max", 0, "Maximum replacements per --replace/--numeric request (0 = all)")
	cmd.Flags().StringArrayVar(&opts.batchFiles, "batch", nil, "YAML or JSON batch file (repeatable)")
	cmd.Flags().StringArrayVar(&opts.presets, "preset", nil, "Built-in preset name (repeatable)")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Reject text replacements longer than their match")
	cmd.Flags().StringVar(&opts.output, "output", "", "Output path (default: <name>_modified<ext>)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Apply in memory and report without writing")
	helpers.AddFormatFlag(cmd, &opts.format, helpers.FormatTable, helpers.AllFormats)

	_ = cmd.RegisterFlagCompletionFunc("preset", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return batch.PresetNames(), cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("type", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{string(patch.EncodingFloat32), string(patch.EncodingInt32)}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func run(cmd *cobra.Command, input string, opts *options) error {
	rt, err := helpers.LoadRuntime(cmd)
	if err != nil {
		return err
	}
	cfg := rt.Config
	logger := rt.Logger

	if !cmd.Flags().Changed("format") {
		opts.format = cfg.Output.Format
	}
	if err := helpers.ValidateFormat(opts.format, helpers.AllFormats); err != nil {
		return err
	}

	requests, err := collectRequests(opts, logger)
	if err != nil {
		return err
	}
	if len(requests) == 0 {
		return fmt.Errorf("no patches given: use --replace/--with, --numeric, --batch or --preset")
	}

	img, err := image.Load(input, &image.LoadOptions{
		MaxSize:       cfg.Load.MaxSize,
		AllowSymlinks: cfg.Load.AllowSymlinks,
	})
	if err != nil {
		return err
	}
	logger.Info().
		Str("path", img.Path()).
		Int("size", img.Len()).
		Int("requests", len(requests)).
		Msg("Loaded module image")

	engine := patch.NewEngine(img, patch.Config{
		Strict: opts.strict || cfg.Patch.Strict,
		Logger: logger,
	})
	session := patch.NewSession(engine)
	session.Run(requests)

	output := opts.output
	if output == "" {
		output = helpers.DefaultOutputPath(input, cfg.Output.Suffix)
	}
	session.SetOutput(output, opts.dryRun)

	if !opts.dryRun {
		if err := save(cmd.Context(), img, output, cfg.Save.Retries, cfg.Save.Backoff, logger); err != nil {
			return err
		}
		logger.Info().Str("path", output).Msg("Wrote patched image")
	}

	return helpers.WriteReport(cmd.OutOrStdout(), helpers.OutputFormat(opts.format), session.Report())
}

// collectRequests gathers requests from every source in a fixed order.
func collectRequests(opts *options, logger zerolog.Logger) ([]patch.Request, error) {
	var requests []patch.Request

	for _, name := range opts.presets {
		reqs, err := batch.Preset(name)
		if err != nil {
			return nil, err
		}
		requests = append(requests, reqs...)
	}

	for _, path := range opts.batchFiles {
		reqs, err := batch.LoadFile(path, logger)
		if err != nil {
			return nil, err
		}
		requests = append(requests, reqs...)
	}

	if len(opts.replace) != len(opts.with) {
		return nil, fmt.Errorf("got %d --replace and %d --with flags, they must pair up",
			len(opts.replace), len(opts.with))
	}
	for i := range opts.replace {
		requests = append(requests, patch.NewText(opts.replace[i], opts.with[i], opts.max))
	}

	enc := patch.ParseEncoding(opts.numericType)
	if len(opts.numeric) > 0 && !enc.Supported() {
		return nil, fmt.Errorf("%w: %q", patch.ErrUnsupportedEncoding, opts.numericType)
	}
	for _, pair := range opts.numeric {
		req, err := parseNumericPair(pair, enc)
		if err != nil {
			return nil, err
		}
		req.MaxOccurrences = opts.max
		requests = append(requests, req)
	}

	return requests, nil
}

// parseNumericPair parses OLD=NEW, e.g. "-400=-450".
func parseNumericPair(pair string, enc patch.Encoding) (patch.Numeric, error) {
	idx := strings.Index(pair, "=")
	if idx <= 0 || idx == len(pair)-1 {
		return patch.Numeric{}, fmt.Errorf("invalid --numeric %q, expected OLD=NEW", pair)
	}

	oldValue, err := strconv.ParseFloat(strings.TrimSpace(pair[:idx]), 64)
	if err != nil {
		return patch.Numeric{}, fmt.Errorf("invalid --numeric %q: %w", pair, err)
	}
	newValue, err := strconv.ParseFloat(strings.TrimSpace(pair[idx+1:]), 64)
	if err != nil {
		return patch.Numeric{}, fmt.Errorf("invalid --numeric %q: %w", pair, err)
	}

	return patch.NewNumeric(oldValue, newValue, enc), nil
}

// save writes the image, retrying transient failures.
func save(ctx context.Context, img *image.Image, path string, attempts int, backoff time.Duration, logger zerolog.Logger) error {
	cfg := retry.Config{
		MaxAttempts:    attempts,
		InitialBackoff: backoff,
		MaxBackoff:     backoff * 8,
	}

	attempt := 0
	return retry.Do(ctx, cfg, func() error {
		attempt++
		err := img.Save(path)
		if err != nil {
			logger.Warn().
				Err(err).
				Int("attempt", attempt).
				Str("path", path).
				Msg("Failed to write patched image")
		}
		return err
	}, shouldRetrySave)
}

// shouldRetrySave skips errors another attempt cannot fix.
func shouldRetrySave(err error) bool {
	return !errors.Is(err, fs.ErrNotExist) && !errors.Is(err, fs.ErrPermission)
}
