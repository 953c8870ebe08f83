package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vulntor/netspectre/pkg/storage"
)

// Format is an export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
)

// Formats lists the encodings accepted by Export.
func Formats() []Format {
	return []Format{FormatJSON, FormatYAML, FormatCSV}
}

// ParseFormat validates a user supplied format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", unsupported(s)
}

func unsupported(name string) error {
	return storage.Invalid("format", fmt.Sprintf("unsupported format %q (want json, yaml or csv)", name))
}

// Document is the JSON and YAML export body.
type Document struct {
	Hosts   []HostRecord `json:"hosts" yaml:"hosts"`
	Summary *Summary     `json:"summary,omitempty" yaml:"summary,omitempty"`
}

// csvHeader is the first CSV row. Each deep-scan port gets its own row; a
// host without deep-scan data gets one row listing its open ports.
var csvHeader = []string{"IP", "MAC", "Hostname", "Vendor", "OS", "Port", "Service", "Vulnerable", "Severity"}

// Export writes hosts, and summary when non-nil, to w. CSV carries hosts
// only.
func Export(w io.Writer, format Format, hosts []HostRecord, summary *Summary) error {
	if hosts == nil {
		hosts = []HostRecord{}
	}
	doc := Document{Hosts: hosts, Summary: summary}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode json report: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode yaml report: %w", err)
		}
		return enc.Close()
	case FormatCSV:
		return writeCSV(w, hosts)
	default:
		return unsupported(string(format))
	}
}

func writeCSV(w io.Writer, hosts []HostRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv report: %w", err)
	}

	for _, h := range hosts {
		base := []string{h.IP, h.MAC, h.Hostname, h.Vendor, h.OS}

		if len(h.DeepPorts) == 0 {
			ports := make([]string, 0, len(h.Ports))
			for _, p := range h.Ports {
				ports = append(ports, strconv.Itoa(int(p)))
			}
			row := append(append([]string{}, base...), strings.Join(ports, " "), "", "", "")
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write csv report: %w", err)
			}
			continue
		}

		for _, dp := range h.DeepPorts {
			row := append(append([]string{}, base...),
				strconv.Itoa(int(dp.Port)),
				dp.ServiceName,
				strconv.FormatBool(dp.Vulnerable),
				dp.Severity,
			)
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write csv report: %w", err)
			}
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write csv report: %w", err)
	}
	return nil
}
