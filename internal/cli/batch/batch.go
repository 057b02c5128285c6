// Package batch implements the 'wasmpatch schema' and 'wasmpatch presets'
// commands.
package batch

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wasmpatch/wasmpatch/internal/batch"
	"github.com/wasmpatch/wasmpatch/internal/cli/helpers"
	"github.com/wasmpatch/wasmpatch/internal/patch"
)

// NewSchemaCmd creates the schema command.
func NewSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema for batch files",
		Long: `Print the JSON Schema describing batch files accepted by 'wasmpatch patch --batch'.

Point an editor's YAML language server at it for completion and validation.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := batch.Schema()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
}

// PresetInfo describes a built-in preset.
type PresetInfo struct {
	Name     string   `json:"name" yaml:"name" header:"NAME"`
	Requests int      `json:"requests" yaml:"requests" header:"REQUESTS"`
	Changes  []string `json:"changes" yaml:"changes"`
}

// PresetRow is one line of the preset table.
type PresetRow struct {
	Preset string `header:"PRESET"`
	Kind   string `header:"KIND"`
	Change string `header:"CHANGE"`
}

// NewPresetsCmd creates the presets command.
func NewPresetsCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "presets [name]",
		Short: "List built-in patch presets",
		Long: `List the patch presets compiled into wasmpatch, or the requests of one preset.

Apply a preset with 'wasmpatch patch <file> --preset <name>'.`,
		Args: cobra.MaximumNArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return batch.PresetNames(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := helpers.ValidateFormat(format, helpers.AllFormats); err != nil {
				return err
			}

			names := batch.PresetNames()
			if len(args) == 1 {
				names = args
			}

			infos := make([]PresetInfo, 0, len(names))
			var rows []PresetRow
			for _, name := range names {
				reqs, err := batch.Preset(name)
				if err != nil {
					return err
				}
				info := PresetInfo{Name: name, Requests: len(reqs), Changes: describe(reqs)}
				infos = append(infos, info)
				for i, req := range reqs {
					rows = append(rows, PresetRow{Preset: name, Kind: string(req.Kind()), Change: info.Changes[i]})
				}
			}

			if format == string(helpers.FormatTable) {
				return (&helpers.TableFormatter{}).Format(rows, cmd.OutOrStdout())
			}
			formatter, err := helpers.NewFormatter(helpers.OutputFormat(format))
			if err != nil {
				return err
			}
			return formatter.Format(infos, cmd.OutOrStdout())
		},
	}

	helpers.AddFormatFlag(cmd, &format, helpers.FormatTable, helpers.AllFormats)

	return cmd
}

func describe(reqs []patch.Request) []string {
	out := make([]string, len(reqs))
	for i, r := range reqs {
		out[i] = r.Describe()
	}
	return out
}
