package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vulntor/netspectre/pkg/inventory"
)

func TestSanitizeHost(t *testing.T) {
	in := inventory.Host{
		IP:       "192.168.1.50",
		MAC:      "00:1B:44:11:3A:B7",
		Hostname: "myserver.local",
		Vendor:   "Dell",
		Ports:    []uint16{22},
	}

	out := SanitizeHost(in)

	assert.Equal(t, "192.168.1.x", out.IP)
	assert.Equal(t, "00:1B:44:XX:XX:XX", out.MAC)
	assert.Equal(t, "host-17bd03a0", out.Hostname)
	assert.Equal(t, "Dell", out.Vendor)

	out.Ports[0] = 9999
	assert.Equal(t, "192.168.1.50", in.IP)
	assert.Equal(t, uint16(22), in.Ports[0])
}

func TestMaskMAC(t *testing.T) {
	tests := map[string]string{
		"AA-BB-CC-DD-EE-FF": "AA-BB-CC-XX-XX-XX",
		"aa:bb:cc:dd:ee:ff": "aa:bb:cc:XX:XX:XX",
		"":                  "",
		"not-a-mac":         "not-a-mac",
		"aa:bb:cc":          "aa:bb:cc",
	}
	for in, want := range tests {
		assert.Equal(t, want, maskMAC(in), in)
	}
}

func TestMaskIPv4(t *testing.T) {
	assert.Equal(t, "10.0.0.x", maskIPv4("10.0.0.1"))
	assert.Equal(t, "fe80::1", maskIPv4("fe80::1"))
	assert.Equal(t, "", maskIPv4(""))
}

func TestHashHostname(t *testing.T) {
	assert.Equal(t, "", hashHostname(""))
	assert.Equal(t, "Unknown", hashHostname("Unknown"))

	h := hashHostname("web-01")
	assert.Regexp(t, `^host-[0-9a-f]{8}$`, h)
	assert.Equal(t, h, hashHostname("web-01"))
	assert.NotEqual(t, h, hashHostname("web-02"))
}

func TestSanitizeRecords(t *testing.T) {
	records := []HostRecord{{
		Host:      inventory.Host{IP: "172.16.4.9", Hostname: "db"},
		DeepPorts: []inventory.DeepScanPort{{Port: 5432, ServiceName: "PostgreSQL"}},
	}}

	out := SanitizeRecords(records)

	require.Len(t, out, 1)
	assert.Equal(t, "172.16.4.x", out[0].IP)
	assert.Equal(t, records[0].DeepPorts, out[0].DeepPorts)
	assert.Equal(t, "172.16.4.9", records[0].IP)
	assert.NotNil(t, SanitizeRecords(nil))
}
