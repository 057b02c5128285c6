// Package cli wires the wasmpatch command tree.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wasmpatch/wasmpatch/internal/cli/batch"
	configcmd "github.com/wasmpatch/wasmpatch/internal/cli/config"
	patchcmd "github.com/wasmpatch/wasmpatch/internal/cli/patch"
	"github.com/wasmpatch/wasmpatch/internal/cli/search"
	"github.com/wasmpatch/wasmpatch/pkg/version"
)

// NewRootCmd builds the wasmpatch command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "wasmpatch",
		Short: "Fixed-length binary patching for compiled web modules",
		Long: `Patch strings and numeric constants inside a compiled module
(a WebAssembly binary, for example) without changing its length.

Every replacement is normalized to the width of what it replaces: shorter
text is padded with zero bytes, longer text is truncated (or rejected with
--strict), and numbers are rewritten in place using the same 4-byte
encoding. Offsets embedded elsewhere in the module stay valid.

Patches come from flags, YAML batch files or built-in presets and run in
order against one in-memory image before it is written out.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("log-level", "", "Log level (trace, debug, info, warn, error)")

	rootCmd.AddCommand(patchcmd.NewPatchCmd())
	rootCmd.AddCommand(search.NewSearchCmd())
	rootCmd.AddCommand(batch.NewSchemaCmd())
	rootCmd.AddCommand(batch.NewPresetsCmd())
	rootCmd.AddCommand(configcmd.NewConfigCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("wasmpatch version %s\n", version.Version)
			cmd.Printf("Git commit: %s\n", version.GitCommit)
			cmd.Printf("Build date: %s\n", version.BuildDate)
			cmd.Printf("Go version: %s\n", version.GoVersion)
		},
	}
}

// Execute runs the root command. Interrupts cancel the command context, which
// stops a pending save retry.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return NewRootCmd().ExecuteContext(ctx)
}
