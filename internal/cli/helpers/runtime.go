package helpers

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/wasmpatch/wasmpatch/internal/config"
	"github.com/wasmpatch/wasmpatch/internal/logging"
)

// Runtime bundles what every command needs after startup.
type Runtime struct {
	Config *config.Config
	Logger zerolog.Logger
}

// LoadRuntime loads configuration and builds the command logger. The
// persistent --log-level flag, when set, wins over config and environment.
func LoadRuntime(cmd *cobra.Command) (*Runtime, error) {
	cfg, err := config.NewLoader().Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if f := cmd.Flags().Lookup("log-level"); f != nil && f.Changed {
		cfg.Log.Level = f.Value.String()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Log.Level
	logCfg.Output = cmd.ErrOrStderr()
	logCfg.Pretty = logging.IsTerminal(logCfg.Output)
	if cfg.Log.Pretty != nil {
		logCfg.Pretty = *cfg.Log.Pretty
	}

	logger := logging.NewWithComponent(logCfg, cmd.Name())

	return &Runtime{Config: cfg, Logger: logger}, nil
}
