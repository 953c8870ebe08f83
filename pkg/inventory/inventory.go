// Package inventory defines the host and port records produced by an external
// scanner and consumed by the analysis packages (fingerprint, diff, topology).
package inventory

import (
	"sort"
	"strings"
)

// Host is one discovered machine. IP is the key within a snapshot.
type Host struct {
	IP       string   `json:"ip" yaml:"ip"`
	MAC      string   `json:"mac" yaml:"mac"`
	Hostname string   `json:"hostname" yaml:"hostname"`
	Vendor   string   `json:"vendor" yaml:"vendor"`
	OS       string   `json:"os" yaml:"os"`
	Ports    []uint16 `json:"ports" yaml:"ports"` // semantically a set
}

// DeepScanPort carries the banner and service details captured for one port.
type DeepScanPort struct {
	Port        uint16  `json:"port" yaml:"port"`
	ServiceName string  `json:"serviceName" yaml:"serviceName"`
	Details     string  `json:"details" yaml:"details"`
	Vulnerable  bool    `json:"vulnerable" yaml:"vulnerable"`
	Severity    string  `json:"severity" yaml:"severity"`
	RawBanner   *string `json:"rawBanner,omitempty" yaml:"rawBanner,omitempty"`
}

// Banner returns the raw banner or "" when none was captured.
func (p DeepScanPort) Banner() string {
	if p.RawBanner == nil {
		return ""
	}
	return *p.RawBanner
}

// Clone returns a deep copy of h.
func (h Host) Clone() Host {
	out := h
	if h.Ports != nil {
		out.Ports = append([]uint16(nil), h.Ports...)
	}
	return out
}

// PortSet returns the host ports as a set.
func (h Host) PortSet() map[uint16]struct{} {
	set := make(map[uint16]struct{}, len(h.Ports))
	for _, p := range h.Ports {
		set[p] = struct{}{}
	}
	return set
}

// HasAnyPort reports whether the host exposes at least one of ports.
func (h Host) HasAnyPort(ports ...uint16) bool {
	for _, have := range h.Ports {
		for _, want := range ports {
			if have == want {
				return true
			}
		}
	}
	return false
}

// SortedPorts returns a fresh ascending slice with duplicates removed.
func SortedPorts(ports []uint16) []uint16 {
	out := make([]uint16, 0, len(ports))
	seen := make(map[uint16]struct{}, len(ports))
	for _, p := range ports {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Octets splits a dotted IPv4 string. ok is false unless there are exactly
// four parts; the parts themselves are not validated.
func Octets(ip string) (parts []string, ok bool) {
	parts = strings.Split(ip, ".")
	if len(parts) != 4 {
		return nil, false
	}
	return parts, true
}
