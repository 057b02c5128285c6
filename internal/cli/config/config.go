// Package config implements the 'wasmpatch config' command family.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wasmpatch/wasmpatch/internal/cli/helpers"
	"github.com/wasmpatch/wasmpatch/internal/config"
	"github.com/wasmpatch/wasmpatch/internal/constants"
)

// NewConfigCmd creates the config command and its subcommands.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect wasmpatch configuration",
		Long: `Inspect wasmpatch configuration.

Configuration Priority:
  1. Command-line flags (highest)
  2. WASMPATCH_* environment variables
  3. Config file (config.yaml in the config directory)
  4. Built-in defaults

Environment Variables:
  WASMPATCH_CONFIG  Override config directory (default: ~/.wasmpatch)`,
	}

	cmd.AddCommand(newViewCmd())
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newPathCmd())

	return cmd
}

// newViewCmd creates the 'config view' command.
func newViewCmd() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(cmd, raw)
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print YAML only, without the source header")

	return cmd
}

func runView(cmd *cobra.Command, raw bool) error {
	loader := config.NewLoader()
	cfg, err := loader.Load()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if !raw {
		_, _ = fmt.Fprintf(w, "# Config file: %s (%s)\n", displayPath(loader.Path()), fileState(loader.Path()))
		_, _ = fmt.Fprintln(w, "# Overrides: WASMPATCH_* environment variables, then flags")
		_, _ = fmt.Fprintln(w)
	}
	_, err = w.Write(data)
	return err
}

// newValidateCmd creates the 'config validate' command.
func newValidateCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file and environment",
		Long: `Load the configuration and report any errors.

Checks:
- The config file parses as YAML
- log.level is a known level
- output.format is table, json or yaml
- Size limits and retry settings are not negative`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, format)
		},
	}

	helpers.AddFormatFlag(cmd, &format, helpers.FormatTable, []helpers.OutputFormat{
		helpers.FormatTable,
		helpers.FormatJSON,
	})

	return cmd
}

type validationResult struct {
	Path  string `json:"path"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

func runValidate(cmd *cobra.Command, format string) error {
	loader := config.NewLoader()
	_, loadErr := loader.Load()

	result := validationResult{
		Path:  displayPath(loader.Path()),
		Valid: loadErr == nil,
	}
	if loadErr != nil {
		result.Error = loadErr.Error()
	}

	if format != string(helpers.FormatTable) {
		formatter, err := helpers.NewFormatter(helpers.OutputFormat(format))
		if err != nil {
			return err
		}
		if err := formatter.Format(result, cmd.OutOrStdout()); err != nil {
			return err
		}
	} else if result.Valid {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is valid\n", result.Path)
	} else {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✗ %s\n  %s\n", result.Path, result.Error)
	}

	if loadErr != nil {
		return fmt.Errorf("configuration is invalid")
	}
	return nil
}

// newPathCmd creates the 'config path' command.
func newPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.NewLoader().Path()
			if path == "" {
				return fmt.Errorf("no config directory: set %s or HOME", constants.ConfigEnvVar)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), path)
			return err
		},
	}
}

func displayPath(path string) string {
	if path == "" {
		return "(none)"
	}
	return path
}

func fileState(path string) string {
	if path == "" {
		return "defaults only"
	}
	if _, err := os.Stat(path); err != nil {
		return "not found, using defaults"
	}
	return "loaded"
}
