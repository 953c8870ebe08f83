package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vulntor/netspectre/pkg/profile"
	"github.com/vulntor/netspectre/pkg/rpc"
)

func newServeCommand() *cobra.Command {
	var noWatch bool

	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Serve the engine as line-delimited JSON-RPC 2.0 on stdin/stdout",
		GroupID: "analysis",
		Args:    cobra.NoArgs,
		Long: `Reads one JSON-RPC request per line from stdin and writes one response
per line to stdout. Logs go to stderr. The server exits when stdin closes.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg := configFrom(ctx)

			profiles, err := openProfiles(ctx)
			if err != nil {
				return err
			}
			baselines, err := openBaselines(ctx)
			if err != nil {
				return err
			}

			if cfg.Profiles.Watch && !noWatch {
				w, err := profile.NewWatcher(profiles.Dir(), profiles, cfg.Profiles.Debounce, log.Logger)
				if err != nil {
					return fmt.Errorf("create profile watcher: %w", err)
				}
				go func() {
					if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
						log.Warn().Err(err).Msg("Profile watcher stopped")
					}
				}()
			}

			srv := rpc.NewServer(profiles, baselines)
			err = srv.Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "Do not reload profiles edited outside the engine")

	return cmd
}
