package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vulntor/netspectre/cmd/netspectre/internal/format"
	"github.com/vulntor/netspectre/pkg/inventory"
	"github.com/vulntor/netspectre/pkg/report"
)

func newReportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarise, sanitise and export host inventories",
		Long: `Report commands read a JSON or YAML document of the form
{"hosts": [...], "baseline": <diff result>} or a bare list of hosts. Hosts may
carry a "deepPorts" list of deep-scan results.`,
		GroupID: "analysis",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newReportSummaryCommand())
	cmd.AddCommand(newReportSanitizeCommand())
	cmd.AddCommand(newReportExportCommand())

	return cmd
}

// loadReport reads the report payload at path. A non-empty baselineID
// replaces any inline diff with one computed against the stored snapshot.
func loadReport(cmd *cobra.Command, path, baselineID string) (report.Payload, error) {
	var payload report.Payload
	if err := inventory.LoadFile(path, &payload); err != nil {
		return payload, err
	}
	if baselineID == "" {
		return payload, nil
	}

	mgr, err := openBaselines(cmd.Context())
	if err != nil {
		return payload, err
	}
	changes, err := mgr.Diff(cmd.Context(), baselineID, report.Hosts(payload.Hosts))
	if err != nil {
		return payload, err
	}
	payload.Baseline = &changes
	return payload, nil
}

func newReportSummaryCommand() *cobra.Command {
	var baselineID string

	cmd := &cobra.Command{
		Use:   "summary <report-file>",
		Short: "Rank risky hosts and widely exposed ports",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := loadReport(cmd, args[0], baselineID)
			if err != nil {
				return err
			}
			return renderReportSummary(formatter(cmd), report.GenerateSummary(payload.Hosts, payload.Baseline))
		},
	}

	cmd.Flags().StringVarP(&baselineID, "baseline", "b", "", "Compare against a stored snapshot for new exposures")

	return cmd
}

func newReportSanitizeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sanitize <report-file>",
		Short: "Mask addresses and hostnames for sharing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := loadReport(cmd, args[0], "")
			if err != nil {
				return err
			}
			records := report.SanitizeRecords(payload.Hosts)

			f := formatter(cmd)
			if f.Mode() == format.ModeJSON {
				return f.PrintJSON(map[string]any{"hosts": records})
			}
			return f.PrintTable(hostHeaders, hostRows(report.Hosts(records)))
		},
	}
	return cmd
}

func newReportExportCommand() *cobra.Command {
	var (
		exportFormat string
		file         string
		baselineID   string
		withSummary  bool
		sanitize     bool
	)

	cmd := &cobra.Command{
		Use:   "export <report-file>",
		Short: "Write hosts and an optional summary as JSON, YAML or CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ef, err := report.ParseFormat(exportFormat)
			if err != nil {
				return err
			}
			payload, err := loadReport(cmd, args[0], baselineID)
			if err != nil {
				return err
			}

			var summary *report.Summary
			if withSummary {
				s := report.GenerateSummary(payload.Hosts, payload.Baseline)
				summary = &s
			}
			records := payload.Hosts
			if sanitize {
				records = report.SanitizeRecords(records)
			}

			if file == "" {
				return report.Export(cmd.OutOrStdout(), ef, records, summary)
			}
			if err := writeExport(file, ef, records, summary); err != nil {
				return err
			}
			return formatter(cmd).PrintSummary(fmt.Sprintf("✓ Wrote %s report to %s", ef, file))
		},
	}

	cmd.Flags().StringVarP(&exportFormat, "format", "f", string(report.FormatJSON), "Export format (json, yaml, csv)")
	cmd.Flags().StringVar(&file, "file", "", "Write to this path instead of stdout")
	cmd.Flags().StringVarP(&baselineID, "baseline", "b", "", "Compare against a stored snapshot for new exposures")
	cmd.Flags().BoolVar(&withSummary, "summary", false, "Include the management summary")
	cmd.Flags().BoolVar(&sanitize, "sanitize", false, "Mask addresses and hostnames")

	return cmd
}

func writeExport(path string, ef report.Format, records []report.HostRecord, summary *report.Summary) (err error) {
	out, err := os.Create(path) //nolint:gosec // path is operator supplied
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close report file: %w", cerr)
		}
	}()

	return report.Export(out, ef, records, summary)
}

func renderReportSummary(f format.Formatter, s report.Summary) error {
	if f.Mode() == format.ModeJSON {
		return f.PrintJSON(s)
	}

	if len(s.RiskyHosts) > 0 {
		if err := f.PrintHeading("Risky hosts"); err != nil {
			return err
		}
		rows := make([][]string, 0, len(s.RiskyHosts))
		for _, h := range s.RiskyHosts {
			rows = append(rows, []string{h.IP, format.OrDash(h.Hostname), strconv.Itoa(h.VulnCount)})
		}
		if err := f.PrintTable([]string{"IP", "Hostname", "Findings"}, rows); err != nil {
			return err
		}
	}

	if len(s.ExposedPorts) > 0 {
		if err := f.PrintHeading("Exposed ports"); err != nil {
			return err
		}
		rows := make([][]string, 0, len(s.ExposedPorts))
		for _, p := range s.ExposedPorts {
			rows = append(rows, []string{strconv.Itoa(int(p.Port)), p.Service, strconv.Itoa(p.Count)})
		}
		if err := f.PrintTable([]string{"Port", "Service", "Hosts"}, rows); err != nil {
			return err
		}
	}

	if len(s.NewExposures) > 0 {
		if err := f.PrintHeading("New exposures"); err != nil {
			return err
		}
		rows := make([][]string, 0, len(s.NewExposures))
		for _, e := range s.NewExposures {
			rows = append(rows, []string{e.IP, format.Added(strconv.Itoa(int(e.Port)), f.Color())})
		}
		if err := f.PrintTable([]string{"IP", "Port"}, rows); err != nil {
			return err
		}
	}

	return f.PrintSummary(fmt.Sprintf("%d hosts, %d open ports, %d critical, %d warning",
		s.TotalHosts, s.TotalPorts, s.CriticalCount, s.WarningCount))
}
