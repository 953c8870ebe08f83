// Package diff computes the structural difference between two host
// inventories: hosts that appeared, hosts that disappeared and per-host port
// deltas.
//
// Output lists are sorted by IP (numeric for parseable addresses) and port
// lists are ascending without duplicates so results are reproducible. When an IP occurs more than
// once in one snapshot the last record wins.
package diff

import (
	"net/netip"
	"sort"

	"github.com/vulntor/netspectre/pkg/inventory"
)

// PortChange lists the ports opened and closed on a host present in both
// snapshots.
type PortChange struct {
	IP           string   `json:"ip" yaml:"ip"`
	AddedPorts   []uint16 `json:"added_ports" yaml:"added_ports"`
	RemovedPorts []uint16 `json:"removed_ports" yaml:"removed_ports"`
}

// BannerChange is reserved for deep-scan aware diffing and is never emitted.
type BannerChange struct {
	IP        string `json:"ip" yaml:"ip"`
	Port      uint16 `json:"port" yaml:"port"`
	OldBanner string `json:"old_banner" yaml:"old_banner"`
	NewBanner string `json:"new_banner" yaml:"new_banner"`
}

// TLSChange is reserved for deep-scan aware diffing and is never emitted.
type TLSChange struct {
	IP       string `json:"ip" yaml:"ip"`
	Port     uint16 `json:"port" yaml:"port"`
	Field    string `json:"field" yaml:"field"`
	OldValue string `json:"old_value" yaml:"old_value"`
	NewValue string `json:"new_value" yaml:"new_value"`
}

// Summary holds the counts of a Result.
type Summary struct {
	TotalNew           int `json:"total_new" yaml:"total_new"`
	TotalMissing       int `json:"total_missing" yaml:"total_missing"`
	TotalPortChanges   int `json:"total_port_changes" yaml:"total_port_changes"`
	TotalBannerChanges int `json:"total_banner_changes" yaml:"total_banner_changes"`
	TotalTLSChanges    int `json:"total_tls_changes" yaml:"total_tls_changes"`
}

// Result is the difference between a baseline and a current inventory.
type Result struct {
	NewHosts      []inventory.Host `json:"new_hosts" yaml:"new_hosts"`
	MissingHosts  []inventory.Host `json:"missing_hosts" yaml:"missing_hosts"`
	PortChanges   []PortChange     `json:"port_changes" yaml:"port_changes"`
	BannerChanges []BannerChange   `json:"banner_changes" yaml:"banner_changes"`
	TLSChanges    []TLSChange      `json:"tls_changes" yaml:"tls_changes"`
	Summary       Summary          `json:"summary_stats" yaml:"summary_stats"`
}

// Empty reports whether nothing changed between the two snapshots.
func (r Result) Empty() bool {
	return len(r.NewHosts) == 0 && len(r.MissingHosts) == 0 && len(r.PortChanges) == 0 &&
		len(r.BannerChanges) == 0 && len(r.TLSChanges) == 0
}

// Compute diffs current against baseline. It never fails and never aliases
// its inputs.
func Compute(baseline, current []inventory.Host) Result {
	before := index(baseline)
	after := index(current)

	res := Result{
		NewHosts:      []inventory.Host{},
		MissingHosts:  []inventory.Host{},
		PortChanges:   []PortChange{},
		BannerChanges: []BannerChange{},
		TLSChanges:    []TLSChange{},
	}

	for ip, h := range after {
		if _, ok := before[ip]; !ok {
			res.NewHosts = append(res.NewHosts, withSortedPorts(h))
		}
	}

	for ip, old := range before {
		cur, ok := after[ip]
		if !ok {
			res.MissingHosts = append(res.MissingHosts, withSortedPorts(old))
			continue
		}
		if change, changed := comparePorts(ip, old, cur); changed {
			res.PortChanges = append(res.PortChanges, change)
		}
	}

	sort.Slice(res.NewHosts, func(i, j int) bool { return lessIP(res.NewHosts[i].IP, res.NewHosts[j].IP) })
	sort.Slice(res.MissingHosts, func(i, j int) bool { return lessIP(res.MissingHosts[i].IP, res.MissingHosts[j].IP) })
	sort.Slice(res.PortChanges, func(i, j int) bool { return lessIP(res.PortChanges[i].IP, res.PortChanges[j].IP) })

	res.Summary = Summary{
		TotalNew:           len(res.NewHosts),
		TotalMissing:       len(res.MissingHosts),
		TotalPortChanges:   len(res.PortChanges),
		TotalBannerChanges: len(res.BannerChanges),
		TotalTLSChanges:    len(res.TLSChanges),
	}
	return res
}

// index keys hosts by IP; later duplicates replace earlier ones.
func index(hosts []inventory.Host) map[string]inventory.Host {
	m := make(map[string]inventory.Host, len(hosts))
	for _, h := range hosts {
		m[h.IP] = h
	}
	return m
}

func comparePorts(ip string, old, cur inventory.Host) (PortChange, bool) {
	oldSet := old.PortSet()
	curSet := cur.PortSet()

	change := PortChange{IP: ip, AddedPorts: []uint16{}, RemovedPorts: []uint16{}}
	for p := range curSet {
		if _, ok := oldSet[p]; !ok {
			change.AddedPorts = append(change.AddedPorts, p)
		}
	}
	for p := range oldSet {
		if _, ok := curSet[p]; !ok {
			change.RemovedPorts = append(change.RemovedPorts, p)
		}
	}

	if len(change.AddedPorts) == 0 && len(change.RemovedPorts) == 0 {
		return PortChange{}, false
	}
	change.AddedPorts = inventory.SortedPorts(change.AddedPorts)
	change.RemovedPorts = inventory.SortedPorts(change.RemovedPorts)
	return change, true
}

// lessIP orders parseable addresses numerically (IPv4 before IPv6) and puts
// unparseable strings after them in lexical order.
func lessIP(a, b string) bool {
	pa, errA := netip.ParseAddr(a)
	pb, errB := netip.ParseAddr(b)
	switch {
	case errA == nil && errB == nil:
		if c := pa.Compare(pb); c != 0 {
			return c < 0
		}
		return a < b
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}

// withSortedPorts clones h with its port list deduplicated in ascending
// order. The list is never nil.
func withSortedPorts(h inventory.Host) inventory.Host {
	c := h.Clone()
	c.Ports = inventory.SortedPorts(h.Ports)
	return c
}
