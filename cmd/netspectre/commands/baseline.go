package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vulntor/netspectre/cmd/netspectre/internal/format"
	"github.com/vulntor/netspectre/pkg/baseline"
	"github.com/vulntor/netspectre/pkg/inventory"
)

func newBaselineCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "baseline",
		Aliases: []string{"bl"},
		Short:   "Manage stored inventory snapshots",
		GroupID: "store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newBaselineCreateCommand())
	cmd.AddCommand(newBaselineListCommand())
	cmd.AddCommand(newBaselineShowCommand())
	cmd.AddCommand(newBaselineDeleteCommand())
	cmd.AddCommand(newBaselineDiffCommand())

	return cmd
}

func newBaselineCreateCommand() *cobra.Command {
	var label string

	cmd := &cobra.Command{
		Use:   "create <hosts-file>",
		Short: "Store a host inventory as a new snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hosts, err := inventory.LoadHosts(args[0])
			if err != nil {
				return err
			}
			mgr, err := openBaselines(cmd.Context())
			if err != nil {
				return err
			}
			meta, err := mgr.CreateSnapshot(cmd.Context(), hosts, label)
			if err != nil {
				return err
			}

			f := formatter(cmd)
			if f.Mode() == format.ModeJSON {
				return f.PrintJSON(meta)
			}
			return f.PrintSummary(fmt.Sprintf("✓ Created snapshot %s (%q, %d hosts)", meta.ID, meta.Label, meta.HostCount))
		},
	}

	cmd.Flags().StringVarP(&label, "label", "l", "", "Snapshot label (default \"Baseline <id prefix>\")")

	return cmd
}

func newBaselineListCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List snapshots, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 0 {
				return fmt.Errorf("--limit must not be negative")
			}
			mgr, err := openBaselines(cmd.Context())
			if err != nil {
				return err
			}
			metas, err := mgr.List(cmd.Context())
			if err != nil {
				return err
			}
			if limit > 0 && len(metas) > limit {
				metas = metas[:limit]
			}

			f := formatter(cmd)
			if f.Mode() == format.ModeJSON {
				return f.PrintJSON(map[string]any{"baselines": metas})
			}
			if len(metas) == 0 {
				return f.PrintSummary("No snapshots stored")
			}
			return f.PrintTable([]string{"ID", "Label", "Timestamp", "Hosts"}, metaRows(metas))
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most n snapshots (0 for all)")

	return cmd
}

func metaRows(metas []baseline.Meta) [][]string {
	rows := make([][]string, 0, len(metas))
	for _, m := range metas {
		rows = append(rows, []string{m.ID, m.Label, m.Timestamp, strconv.Itoa(m.HostCount)})
	}
	return rows
}

func newBaselineShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a stored snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openBaselines(cmd.Context())
			if err != nil {
				return err
			}
			b, err := mgr.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			f := formatter(cmd)
			if f.Mode() == format.ModeJSON {
				return f.PrintJSON(b)
			}
			if err := f.PrintHeading(fmt.Sprintf("%s (%s)", b.Meta.Label, b.Meta.Timestamp)); err != nil {
				return err
			}
			return f.PrintTable(hostHeaders, hostRows(b.Hosts))
		},
	}
	return cmd
}

func newBaselineDeleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a stored snapshot",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openBaselines(cmd.Context())
			if err != nil {
				return err
			}
			if err := mgr.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}

			f := formatter(cmd)
			if f.Mode() == format.ModeJSON {
				return f.PrintJSON(map[string]any{"deleted": true})
			}
			return f.PrintSummary("✓ Deleted snapshot " + args[0])
		},
	}
	return cmd
}

func newBaselineDiffCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff <id> <current-hosts>",
		Short: "Compare a host inventory against a stored snapshot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			current, err := inventory.LoadHosts(args[1])
			if err != nil {
				return err
			}
			mgr, err := openBaselines(cmd.Context())
			if err != nil {
				return err
			}
			res, err := mgr.Diff(cmd.Context(), args[0], current)
			if err != nil {
				return err
			}
			return renderDiff(formatter(cmd), res)
		},
	}
	return cmd
}
