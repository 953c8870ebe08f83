// Package topology classifies hosts into device roles and infers a plausible
// adjacency graph from /24 grouping and gateway heuristics.
//
// Edge generation is quadratic in the size of each /24 group. That is an
// explicit scaling limit for small LANs, not something to optimize away.
package topology

import (
	"strings"

	"github.com/vulntor/netspectre/pkg/inventory"
)

// NodeType is the inferred role of a host.
type NodeType string

const (
	NodeRouter      NodeType = "router"
	NodeServer      NodeType = "server"
	NodeIoT         NodeType = "iot"
	NodeWorkstation NodeType = "workstation"
	NodeUnknown     NodeType = "unknown"
)

// Edge evidence tags.
const (
	EvidenceSameSubnet = "same-subnet"
	EvidenceGateway    = "gateway"
)

// Node is one host in the graph. ID is the host IP.
type Node struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	NodeType NodeType `json:"node_type"`
	Ports    []uint16 `json:"ports"`
	OS       string   `json:"os"`
}

// Edge is an undirected link between two host IPs.
type Edge struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Evidence string `json:"evidence"`
}

// Result is the inferred graph.
type Result struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Build classifies every host and links hosts sharing a /24. It returns one
// node per host, in input order, and never fails.
func Build(hosts []inventory.Host) Result {
	res := Result{
		Nodes: make([]Node, 0, len(hosts)),
		Edges: []Edge{},
	}

	types := make([]NodeType, len(hosts))
	for i, h := range hosts {
		types[i] = Classify(h)
		res.Nodes = append(res.Nodes, Node{
			ID:       h.IP,
			Label:    label(h),
			NodeType: types[i],
			Ports:    append([]uint16{}, h.Ports...),
			OS:       h.OS,
		})
	}

	for _, group := range groupBySubnet(hosts) {
		res.Edges = append(res.Edges, subnetEdges(hosts, types, group)...)
	}
	return res
}

func label(h inventory.Host) string {
	if h.Hostname == "" || h.Hostname == "Unknown" {
		return h.IP
	}
	return h.Hostname
}

// groupBySubnet returns host indexes grouped by the first three octets, in
// order of first appearance. Hosts without exactly four octets are skipped.
func groupBySubnet(hosts []inventory.Host) [][]int {
	var groups [][]int
	pos := make(map[string]int)
	for i, h := range hosts {
		parts, ok := inventory.Octets(h.IP)
		if !ok {
			continue
		}
		key := strings.Join(parts[:3], ".")
		g, seen := pos[key]
		if !seen {
			g = len(groups)
			pos[key] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return groups
}

type pairKey struct{ a, b string }

func unordered(x, y string) pairKey {
	if x > y {
		x, y = y, x
	}
	return pairKey{x, y}
}

// subnetEdges emits the complete same-subnet graph for one group, then a
// gateway edge from each router to every other member. Records sharing an IP
// never get an edge between them. Gateway edges are deduplicated only against
// other gateway edges.
func subnetEdges(hosts []inventory.Host, types []NodeType, group []int) []Edge {
	var edges []Edge
	for i := 0; i < len(group); i++ {
		for j := i + 1; j < len(group); j++ {
			if hosts[group[i]].IP == hosts[group[j]].IP {
				continue
			}
			edges = append(edges, Edge{
				Source:   hosts[group[i]].IP,
				Target:   hosts[group[j]].IP,
				Evidence: EvidenceSameSubnet,
			})
		}
	}

	gateways := make(map[pairKey]struct{})
	for _, gi := range group {
		if types[gi] != NodeRouter {
			continue
		}
		gw := hosts[gi].IP
		for _, oi := range group {
			other := hosts[oi].IP
			if other == gw {
				continue
			}
			key := unordered(gw, other)
			if _, dup := gateways[key]; dup {
				continue
			}
			gateways[key] = struct{}{}
			edges = append(edges, Edge{Source: gw, Target: other, Evidence: EvidenceGateway})
		}
	}
	return edges
}

// Stats counts nodes per type and edges per evidence tag.
type Stats struct {
	NodesByType      map[NodeType]int `json:"nodes_by_type"`
	EdgesByEvidence  map[string]int   `json:"edges_by_evidence"`
	SubnetGroupCount int              `json:"subnet_groups"`
}

// Stats summarizes r.
func (r Result) Stats() Stats {
	s := Stats{
		NodesByType:     make(map[NodeType]int),
		EdgesByEvidence: make(map[string]int),
	}
	subnets := make(map[string]struct{})
	for _, n := range r.Nodes {
		s.NodesByType[n.NodeType]++
		if parts, ok := inventory.Octets(n.ID); ok {
			subnets[strings.Join(parts[:3], ".")] = struct{}{}
		}
	}
	for _, e := range r.Edges {
		s.EdgesByEvidence[e.Evidence]++
	}
	s.SubnetGroupCount = len(subnets)
	return s
}
