// Package report condenses a host inventory into a management summary and
// prepares it for sharing outside the scanning team.
//
// GenerateSummary ranks hosts by vulnerable findings, counts severities,
// lists ports that are widely exposed and, given a diff against a baseline,
// the ports opened since then. SanitizeHost masks identifying fields so a
// report can leave the network it describes. Export writes hosts and an
// optional summary as JSON, YAML or CSV.
package report

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vulntor/netspectre/pkg/diff"
	"github.com/vulntor/netspectre/pkg/inventory"
)

// Summary limits.
const (
	MaxRiskyHosts     = 10
	ExposureThreshold = 3
)

// Severity labels counted by GenerateSummary.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
)

// HostRecord is a host together with the deep-scan results of its ports.
type HostRecord struct {
	inventory.Host `yaml:",inline"`
	DeepPorts      []inventory.DeepScanPort `json:"deepPorts,omitempty" yaml:"deepPorts,omitempty"`
}

// Hosts returns the inventory part of records.
func Hosts(records []HostRecord) []inventory.Host {
	out := make([]inventory.Host, 0, len(records))
	for _, r := range records {
		out = append(out, r.Host)
	}
	return out
}

// Payload is the document accepted by the report commands: the hosts to
// report on and, optionally, their diff against a baseline. A bare list of
// hosts decodes as a Payload without a baseline.
type Payload struct {
	Hosts    []HostRecord `json:"hosts" yaml:"hosts"`
	Baseline *diff.Result `json:"baseline,omitempty" yaml:"baseline,omitempty"`
}

type payloadFields Payload

// UnmarshalJSON implements json.Unmarshaler.
func (p *Payload) UnmarshalJSON(data []byte) error {
	if t := bytes.TrimSpace(data); len(t) > 0 && t[0] == '[' {
		*p = Payload{}
		return json.Unmarshal(t, &p.Hosts)
	}
	return json.Unmarshal(data, (*payloadFields)(p))
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *Payload) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		*p = Payload{}
		return node.Decode(&p.Hosts)
	}
	return node.Decode((*payloadFields)(p))
}

// Summary is the management view of one inventory.
type Summary struct {
	TotalHosts    int           `json:"totalHosts" yaml:"totalHosts"`
	TotalPorts    int           `json:"totalPorts" yaml:"totalPorts"`
	CriticalCount int           `json:"criticalCount" yaml:"criticalCount"`
	WarningCount  int           `json:"warningCount" yaml:"warningCount"`
	RiskyHosts    []RiskyHost   `json:"riskyHosts" yaml:"riskyHosts"`
	ExposedPorts  []ExposedPort `json:"exposedPorts" yaml:"exposedPorts"`
	NewExposures  []NewExposure `json:"newExposures" yaml:"newExposures"`
}

// RiskyHost is a host with at least one vulnerable port.
type RiskyHost struct {
	IP        string `json:"ip" yaml:"ip"`
	Hostname  string `json:"hostname" yaml:"hostname"`
	VulnCount int    `json:"vulnCount" yaml:"vulnCount"`
}

// ExposedPort is a port open on at least ExposureThreshold hosts.
type ExposedPort struct {
	Port    uint16 `json:"port" yaml:"port"`
	Service string `json:"service" yaml:"service"`
	Count   int    `json:"count" yaml:"count"`
}

// NewExposure is a port opened on a host since the baseline.
type NewExposure struct {
	IP   string `json:"ip" yaml:"ip"`
	Port uint16 `json:"port" yaml:"port"`
}

// GenerateSummary summarises hosts. changes may be nil when no baseline was
// compared. Every list in the result is non-nil.
func GenerateSummary(hosts []HostRecord, changes *diff.Result) Summary {
	s := Summary{
		TotalHosts:   len(hosts),
		RiskyHosts:   []RiskyHost{},
		ExposedPorts: []ExposedPort{},
		NewExposures: []NewExposure{},
	}

	// Hosts sharing an IP are counted once in risk and exposure figures.
	risky := make(map[string]*RiskyHost)
	var riskyOrder []string
	exposure := make(map[uint16]map[string]struct{})
	services := make(map[uint16]string)

	expose := func(port uint16, ip string) {
		if exposure[port] == nil {
			exposure[port] = make(map[string]struct{})
		}
		exposure[port][ip] = struct{}{}
	}

	for _, h := range hosts {
		s.TotalPorts += len(h.Ports)

		for _, p := range h.Ports {
			expose(p, h.IP)
		}

		for _, dp := range h.DeepPorts {
			expose(dp.Port, h.IP)
			if services[dp.Port] == "" {
				services[dp.Port] = strings.TrimSpace(dp.ServiceName)
			}
			if !dp.Vulnerable {
				continue
			}

			rh, ok := risky[h.IP]
			if !ok {
				rh = &RiskyHost{IP: h.IP, Hostname: h.Hostname}
				risky[h.IP] = rh
				riskyOrder = append(riskyOrder, h.IP)
			}
			rh.VulnCount++

			switch strings.ToLower(dp.Severity) {
			case SeverityCritical:
				s.CriticalCount++
			case SeverityWarning:
				s.WarningCount++
			}
		}
	}

	for _, ip := range riskyOrder {
		s.RiskyHosts = append(s.RiskyHosts, *risky[ip])
	}
	// Stable so ties keep first-seen order.
	sort.SliceStable(s.RiskyHosts, func(i, j int) bool {
		return s.RiskyHosts[i].VulnCount > s.RiskyHosts[j].VulnCount
	})
	if len(s.RiskyHosts) > MaxRiskyHosts {
		s.RiskyHosts = s.RiskyHosts[:MaxRiskyHosts]
	}

	for port, ips := range exposure {
		if len(ips) < ExposureThreshold {
			continue
		}
		service := services[port]
		if service == "" {
			service = guessService(port)
		}
		s.ExposedPorts = append(s.ExposedPorts, ExposedPort{Port: port, Service: service, Count: len(ips)})
	}
	sort.Slice(s.ExposedPorts, func(i, j int) bool {
		a, b := s.ExposedPorts[i], s.ExposedPorts[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Port < b.Port
	})

	if changes != nil {
		for _, pc := range changes.PortChanges {
			for _, port := range pc.AddedPorts {
				s.NewExposures = append(s.NewExposures, NewExposure{IP: pc.IP, Port: port})
			}
		}
	}

	return s
}

var wellKnownServices = map[uint16]string{
	21:    "FTP",
	22:    "SSH",
	23:    "Telnet",
	25:    "SMTP",
	53:    "DNS",
	80:    "HTTP",
	110:   "POP3",
	143:   "IMAP",
	443:   "HTTPS",
	445:   "SMB",
	3306:  "MySQL",
	3389:  "RDP",
	5432:  "PostgreSQL",
	5900:  "VNC",
	6379:  "Redis",
	8080:  "HTTP Proxy",
	27017: "MongoDB",
}

// guessService names a port when no deep scan reported a service for it.
func guessService(port uint16) string {
	if name, ok := wellKnownServices[port]; ok {
		return name
	}
	return "Unknown"
}
