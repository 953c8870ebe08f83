package topology

import (
	"strconv"
	"strings"

	"github.com/vulntor/netspectre/pkg/inventory"
)

var (
	networkVendors = []string{"cisco", "ubiquiti", "juniper", "mikrotik", "netgear", "tp-link"}
	iotVendors     = []string{"nest", "ring", "wyze", "sonos", "philips", "ecobee", "chamberlain", "espressif", "tuya", "shenzhen"}

	serverPorts      = []uint16{53, 80, 443, 8080, 8443, 25, 993, 995, 3306, 5432, 27017}
	workstationPorts = []uint16{22, 3389, 5900}
)

// Classify returns the role of h. Rules are evaluated in order and the first
// match wins: gateway address, networking vendor, server ports, IoT vendor,
// workstation ports.
func Classify(h inventory.Host) NodeType {
	vendor := strings.ToLower(h.Vendor)

	switch {
	case IsLikelyGateway(h.IP):
		return NodeRouter
	case containsAny(vendor, networkVendors):
		return NodeRouter
	case h.HasAnyPort(serverPorts...):
		return NodeServer
	case containsAny(vendor, iotVendors):
		return NodeIoT
	case h.HasAnyPort(workstationPorts...):
		return NodeWorkstation
	default:
		return NodeUnknown
	}
}

// IsLikelyGateway reports whether the last dotted component of ip is 1 or
// 254.
func IsLikelyGateway(ip string) bool {
	last := ip[strings.LastIndex(ip, ".")+1:]
	octet, err := strconv.ParseUint(last, 10, 8)
	if err != nil {
		return false
	}
	return octet == 1 || octet == 254
}

func containsAny(s string, needles []string) bool {
	if s == "" {
		return false
	}
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
