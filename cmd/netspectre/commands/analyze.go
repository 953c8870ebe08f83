package commands

import (
	"github.com/spf13/cobra"

	"github.com/vulntor/netspectre/pkg/diff"
	"github.com/vulntor/netspectre/pkg/fingerprint"
	"github.com/vulntor/netspectre/pkg/inventory"
	"github.com/vulntor/netspectre/pkg/topology"
)

// analyzeInput is the document read by the fingerprint command.
type analyzeInput struct {
	Host  inventory.Host           `json:"host" yaml:"host"`
	Ports []inventory.DeepScanPort `json:"ports" yaml:"ports"`
}

func newFingerprintCommand() *cobra.Command {
	var explain bool

	cmd := &cobra.Command{
		Use:     "fingerprint <deep-scan-file>",
		Aliases: []string{"fp"},
		Short:   "Identify services from captured banners",
		Long: `Reads a JSON or YAML document of the form {"host": {...}, "ports": [...]}
and prints one fingerprint per port.`,
		GroupID: "analysis",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in analyzeInput
			if err := inventory.LoadFile(args[0], &in); err != nil {
				return err
			}

			fps := fingerprint.Analyze(in.Host, in.Ports)
			return renderFingerprints(formatter(cmd), fps, explain)
		},
	}

	cmd.Flags().BoolVar(&explain, "explain", false, "Show detector order and the evidence behind each result")

	return cmd
}

func newDiffCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "diff <baseline-hosts> <current-hosts>",
		Short:   "Compare two host inventory files",
		GroupID: "analysis",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			before, err := inventory.LoadHosts(args[0])
			if err != nil {
				return err
			}
			after, err := inventory.LoadHosts(args[1])
			if err != nil {
				return err
			}
			return renderDiff(formatter(cmd), diff.Compute(before, after))
		},
	}
	return cmd
}

func newTopologyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "topology <hosts-file>",
		Aliases: []string{"topo"},
		Short:   "Infer device roles and links from a host inventory",
		GroupID: "analysis",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hosts, err := inventory.LoadHosts(args[0])
			if err != nil {
				return err
			}
			return renderTopology(formatter(cmd), topology.Build(hosts))
		},
	}
	return cmd
}
