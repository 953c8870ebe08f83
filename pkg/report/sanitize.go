package report

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/vulntor/netspectre/pkg/inventory"
)

// hostnameUnknown is the scanner's placeholder for an unresolved name.
const hostnameUnknown = "Unknown"

// SanitizeHost returns a copy of h with the vendor-specific half of the MAC
// masked, the last IPv4 octet replaced by "x" and the hostname replaced by a
// short hash. Values that do not parse are returned unchanged.
func SanitizeHost(h inventory.Host) inventory.Host {
	out := h.Clone()
	out.MAC = maskMAC(h.MAC)
	out.IP = maskIPv4(h.IP)
	out.Hostname = hashHostname(h.Hostname)
	return out
}

// SanitizeRecords applies SanitizeHost to every record. Deep-scan data is
// copied as is.
func SanitizeRecords(records []HostRecord) []HostRecord {
	out := make([]HostRecord, 0, len(records))
	for _, r := range records {
		out = append(out, HostRecord{
			Host:      SanitizeHost(r.Host),
			DeepPorts: append([]inventory.DeepScanPort(nil), r.DeepPorts...),
		})
	}
	return out
}

// maskMAC keeps the OUI: "00:1B:44:11:3A:B7" becomes "00:1B:44:XX:XX:XX".
// Colon and dash separators are accepted.
func maskMAC(mac string) string {
	for _, sep := range []string{":", "-"} {
		parts := strings.Split(mac, sep)
		if len(parts) != 6 {
			continue
		}
		for i := 3; i < 6; i++ {
			parts[i] = "XX"
		}
		return strings.Join(parts, sep)
	}
	return mac
}

// maskIPv4 turns "192.168.1.50" into "192.168.1.x".
func maskIPv4(ip string) string {
	parts, ok := inventory.Octets(ip)
	if !ok {
		return ip
	}
	return strings.Join(parts[:3], ".") + ".x"
}

// hashHostname returns "host-" and the first four bytes of the name's
// SHA-256 in hex.
func hashHostname(name string) string {
	if name == "" || name == hostnameUnknown {
		return name
	}
	sum := sha256.Sum256([]byte(name))
	return "host-" + hex.EncodeToString(sum[:4])
}
