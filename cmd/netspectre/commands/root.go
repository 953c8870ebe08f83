// Package commands wires the netspectre command tree.
package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vulntor/netspectre/cmd/netspectre/internal/format"
	"github.com/vulntor/netspectre/pkg/config"
	"github.com/vulntor/netspectre/pkg/logging"
)

const cliExecutable = "netspectre"

// NewCommand constructs the top-level netspectre CLI command. Configuration
// and logging are set up once before any subcommand runs.
func NewCommand() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   cliExecutable,
		Short: "NetSpectre analyzes network inventories: fingerprints, baselines and topology",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			mode, _ := cmd.Flags().GetString("output")
			if err := format.ValidateMode(mode); err != nil {
				return err
			}

			debug, _ := cmd.Flags().GetBool("debug")
			mgr := config.NewManager()
			if err := mgr.Load(config.DefaultSources(configFile, cmd.Flags(), debug)...); err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			cfg := mgr.Get()

			if err := logging.Configure(logging.Options{
				Level:   cfg.Log.Level,
				Format:  cfg.Log.Format,
				NoColor: cfg.Log.NoColor,
				Writer:  cmd.ErrOrStderr(),
			}); err != nil {
				return err
			}
			log.Debug().Str("data_dir", cfg.Data.Dir).Str("config", configFile).Msg("Configuration loaded")

			cmd.SetContext(withConfig(cmd.Context(), cfg))
			return nil
		},
	}

	cmd.SilenceUsage = true

	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file path")
	cmd.PersistentFlags().StringP("output", "o", string(format.ModeTable), "Output format (table, json)")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress summary messages")

	config.BindFlags(cmd.PersistentFlags())

	cmd.AddGroup(&cobra.Group{ID: "analysis", Title: "Analysis Commands"})
	cmd.AddGroup(&cobra.Group{ID: "store", Title: "Store Commands"})

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newFingerprintCommand())
	cmd.AddCommand(newDiffCommand())
	cmd.AddCommand(newTopologyCommand())
	cmd.AddCommand(newReportCommand())
	cmd.AddCommand(newBaselineCommand())
	cmd.AddCommand(newProfileCommand())
	cmd.AddCommand(newVersionCommand())

	return cmd
}
