package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vulntor/netspectre/cmd/netspectre/internal/format"
	"github.com/vulntor/netspectre/pkg/baseline"
	"github.com/vulntor/netspectre/pkg/config"
	"github.com/vulntor/netspectre/pkg/profile"
	"github.com/vulntor/netspectre/pkg/storage"
)

type configKey struct{}

func withConfig(ctx context.Context, cfg config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// configFrom returns the loaded configuration, or the defaults when the root
// pre-run did not execute.
func configFrom(ctx context.Context) config.Config {
	if ctx != nil {
		if cfg, ok := ctx.Value(configKey{}).(config.Config); ok {
			return cfg
		}
	}
	return config.DefaultConfig()
}

// formatter renders for cmd, honouring log.no_color from any config source.
func formatter(cmd *cobra.Command) format.Formatter {
	return format.FromCommand(cmd, configFrom(cmd.Context()).Log.NoColor)
}

func storageConfig(ctx context.Context) (*storage.Config, error) {
	sc := configFrom(ctx).StorageConfig()
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

func openProfiles(ctx context.Context) (*profile.Manager, error) {
	sc, err := storageConfig(ctx)
	if err != nil {
		return nil, err
	}
	m, err := profile.NewManager(sc.ProfilesPath())
	if err != nil {
		return nil, fmt.Errorf("open profile store: %w", err)
	}
	return m, nil
}

func openBaselines(ctx context.Context) (*baseline.Manager, error) {
	sc, err := storageConfig(ctx)
	if err != nil {
		return nil, err
	}
	m, err := baseline.NewManager(sc.BaselinesPath())
	if err != nil {
		return nil, fmt.Errorf("open baseline store: %w", err)
	}
	return m, nil
}
