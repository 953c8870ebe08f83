package commands

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/vulntor/netspectre/cmd/netspectre/internal/format"
	"github.com/vulntor/netspectre/pkg/diff"
	"github.com/vulntor/netspectre/pkg/fingerprint"
	"github.com/vulntor/netspectre/pkg/inventory"
	"github.com/vulntor/netspectre/pkg/topology"
)

func renderFingerprints(f format.Formatter, fps []fingerprint.Fingerprint, explain bool) error {
	if f.Mode() == format.ModeJSON {
		doc := map[string]any{"fingerprints": fps}
		if explain {
			doc["detectors"] = fingerprint.Detectors()
		}
		return f.PrintJSON(doc)
	}

	rows := make([][]string, 0, len(fps))
	for _, fp := range fps {
		rows = append(rows, []string{
			strconv.Itoa(int(fp.Port)),
			format.OrDash(fp.Protocol),
			format.OrDash(fp.Product),
			format.OrDash(fp.Version),
			strconv.FormatFloat(fp.Confidence, 'f', 2, 64),
			format.OrDash(fp.CPE),
		})
	}
	if err := f.PrintTable([]string{"Port", "Protocol", "Product", "Version", "Confidence", "CPE"}, rows); err != nil {
		return err
	}

	for _, fp := range fps {
		if fp.TLSCert == nil {
			continue
		}
		c := fp.TLSCert
		if err := f.PrintSummary(fmt.Sprintf("Port %d certificate: subject=%s issuer=%s expires=%s (%d days)",
			fp.Port, format.OrDash(c.Subject), format.OrDash(c.Issuer), format.OrDash(c.ValidTo), c.DaysUntilExpiry)); err != nil {
			return err
		}
	}

	if !explain {
		return nil
	}
	if err := f.PrintHeading("Evidence (detectors: " + strings.Join(fingerprint.Detectors(), " > ") + ")"); err != nil {
		return err
	}
	evidenceRows := make([][]string, 0, len(fps))
	for _, fp := range fps {
		for _, ev := range fp.Evidence {
			evidenceRows = append(evidenceRows, []string{strconv.Itoa(int(fp.Port)), ev})
		}
	}
	return f.PrintTable([]string{"Port", "Evidence"}, evidenceRows)
}

func renderDiff(f format.Formatter, res diff.Result) error {
	if f.Mode() == format.ModeJSON {
		return f.PrintJSON(res)
	}

	if res.Empty() {
		return f.PrintSummary("No changes")
	}

	if len(res.NewHosts) > 0 {
		if err := f.PrintHeading("New hosts"); err != nil {
			return err
		}
		if err := f.PrintTable(hostHeaders, hostRows(res.NewHosts)); err != nil {
			return err
		}
	}

	if len(res.MissingHosts) > 0 {
		if err := f.PrintHeading("Missing hosts"); err != nil {
			return err
		}
		if err := f.PrintTable(hostHeaders, hostRows(res.MissingHosts)); err != nil {
			return err
		}
	}

	if len(res.PortChanges) > 0 {
		if err := f.PrintHeading("Port changes"); err != nil {
			return err
		}
		rows := make([][]string, 0, len(res.PortChanges))
		for _, pc := range res.PortChanges {
			rows = append(rows, []string{pc.IP, portDelta(pc, f.Color())})
		}
		if err := f.PrintTable([]string{"IP", "Changes"}, rows); err != nil {
			return err
		}
	}

	s := res.Summary
	return f.PrintSummary(fmt.Sprintf("%d new, %d missing, %d with port changes",
		s.TotalNew, s.TotalMissing, s.TotalPortChanges))
}

func portDelta(pc diff.PortChange, colored bool) string {
	parts := make([]string, 0, len(pc.AddedPorts)+len(pc.RemovedPorts))
	for _, p := range pc.AddedPorts {
		parts = append(parts, format.Added(strconv.Itoa(int(p)), colored))
	}
	for _, p := range pc.RemovedPorts {
		parts = append(parts, format.Removed(strconv.Itoa(int(p)), colored))
	}
	return strings.Join(parts, " ")
}

var hostHeaders = []string{"IP", "Hostname", "MAC", "Vendor", "OS", "Ports"}

func hostRows(hosts []inventory.Host) [][]string {
	rows := make([][]string, 0, len(hosts))
	for _, h := range hosts {
		rows = append(rows, []string{
			h.IP,
			format.OrDash(h.Hostname),
			format.OrDash(h.MAC),
			format.OrDash(h.Vendor),
			format.OrDash(h.OS),
			format.Ports(inventory.SortedPorts(h.Ports)),
		})
	}
	return rows
}

func renderTopology(f format.Formatter, res topology.Result) error {
	if f.Mode() == format.ModeJSON {
		return f.PrintJSON(res)
	}

	if err := f.PrintHeading("Nodes"); err != nil {
		return err
	}
	nodes := make([][]string, 0, len(res.Nodes))
	for _, n := range res.Nodes {
		nodes = append(nodes, []string{n.ID, n.Label, string(n.NodeType), format.OrDash(n.OS), format.Ports(n.Ports)})
	}
	if err := f.PrintTable([]string{"ID", "Label", "Type", "OS", "Ports"}, nodes); err != nil {
		return err
	}

	if err := f.PrintHeading("Edges"); err != nil {
		return err
	}
	edges := make([][]string, 0, len(res.Edges))
	for _, e := range res.Edges {
		edges = append(edges, []string{e.Source, e.Target, e.Evidence})
	}
	if err := f.PrintTable([]string{"Source", "Target", "Evidence"}, edges); err != nil {
		return err
	}

	stats := res.Stats()
	types := make([]string, 0, len(stats.NodesByType))
	for t, n := range stats.NodesByType {
		types = append(types, fmt.Sprintf("%s=%d", t, n))
	}
	sort.Strings(types)
	return f.PrintSummary(fmt.Sprintf("%d nodes (%s), %d edges across %d subnets",
		len(res.Nodes), strings.Join(types, " "), len(res.Edges), stats.SubnetGroupCount))
}
