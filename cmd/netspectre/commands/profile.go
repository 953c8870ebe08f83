package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vulntor/netspectre/cmd/netspectre/internal/format"
	"github.com/vulntor/netspectre/pkg/inventory"
	"github.com/vulntor/netspectre/pkg/profile"
)

func newProfileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "profile",
		Aliases: []string{"profiles"},
		Short:   "Manage scan profiles",
		GroupID: "store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newProfileListCommand())
	cmd.AddCommand(newProfileShowCommand())
	cmd.AddCommand(newProfileCreateCommand())
	cmd.AddCommand(newProfileDeleteCommand())
	cmd.AddCommand(newProfileValidateCommand())

	return cmd
}

func newProfileListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored profiles",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, err := openProfiles(cmd.Context())
			if err != nil {
				return err
			}
			list, err := mgr.List(cmd.Context())
			if err != nil {
				return err
			}

			f := formatter(cmd)
			if f.Mode() == format.ModeJSON {
				return f.PrintJSON(map[string]any{"profiles": list})
			}
			if len(list) == 0 {
				return f.PrintSummary("No profiles stored")
			}
			rows := make([][]string, 0, len(list))
			for _, p := range list {
				rows = append(rows, profileRow(p))
			}
			return f.PrintTable(profileHeaders, rows)
		},
	}
	return cmd
}

var profileHeaders = []string{"Name", "Ports", "Timeout", "Chunk", "Safe", "Description"}

func profileRow(p profile.Profile) []string {
	return []string{
		p.Name,
		p.PortRange,
		strconv.FormatUint(uint64(p.Timeout), 10) + "ms",
		strconv.FormatUint(uint64(p.ChunkSize), 10),
		strconv.FormatBool(p.SafeMode),
		format.OrDash(p.Description),
	}
}

func newProfileShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Print a stored profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openProfiles(cmd.Context())
			if err != nil {
				return err
			}
			p, err := mgr.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			f := formatter(cmd)
			if f.Mode() == format.ModeJSON {
				return f.PrintJSON(p)
			}
			return f.PrintTable([]string{"Field", "Value"}, [][]string{
				{"name", p.Name},
				{"port_range", p.PortRange},
				{"timeout", strconv.FormatUint(uint64(p.Timeout), 10)},
				{"chunk_size", strconv.FormatUint(uint64(p.ChunkSize), 10)},
				{"banner_grab", strconv.FormatBool(p.BannerGrab)},
				{"tls_inspect", strconv.FormatBool(p.TLSInspect)},
				{"security_audit", strconv.FormatBool(p.SecurityAudit)},
				{"safe_mode", strconv.FormatBool(p.SafeMode)},
				{"description", format.OrDash(p.Description)},
			})
		},
	}
	return cmd
}

func newProfileCreateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <profile-file>",
		Short: "Store a profile read from a JSON or YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p profile.Profile
			if err := inventory.LoadFile(args[0], &p); err != nil {
				return err
			}
			mgr, err := openProfiles(cmd.Context())
			if err != nil {
				return err
			}
			created, err := mgr.Create(cmd.Context(), p)
			if err != nil {
				return err
			}

			f := formatter(cmd)
			if f.Mode() == format.ModeJSON {
				return f.PrintJSON(map[string]any{"profile": created})
			}
			return f.PrintSummary(fmt.Sprintf("✓ Created profile %q", created.Name))
		},
	}
	return cmd
}

func newProfileDeleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete <name>",
		Aliases: []string{"rm"},
		Short:   "Delete a stored profile",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openProfiles(cmd.Context())
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
			return f.PrintSummary(fmt.Sprintf("✓ Deleted profile %q", args[0]))
		},
	}
	return cmd
}

func newProfileValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <profile-file>",
		Short: "Check a profile file without storing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p profile.Profile
			if err := inventory.LoadFile(args[0], &p); err != nil {
				return err
			}
			errs := profile.Validate(p)

			f := formatter(cmd)
			if f.Mode() == format.ModeJSON {
				if err := f.PrintJSON(map[string]any{"valid": len(errs) == 0, "errors": errs}); err != nil {
					return err
				}
			} else if len(errs) == 0 {
				if err := f.PrintSummary(fmt.Sprintf("✓ Profile %q is valid", p.Name)); err != nil {
					return err
				}
			} else {
				rows := make([][]string, 0, len(errs))
				for _, msg := range errs {
					rows = append(rows, []string{msg})
				}
				if err := f.PrintTable([]string{"Problem"}, rows); err != nil {
					return err
				}
			}

			if len(errs) > 0 {
				return &profile.ValidationError{Messages: errs}
			}
			return nil
		},
	}
	return cmd
}
