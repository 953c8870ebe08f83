package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vulntor/netspectre/pkg/inventory"
)

func makeHost(ip string, ports ...uint16) inventory.Host {
	return inventory.Host{IP: ip, MAC: "00:00:00:00:00:00", Ports: ports}
}

func ips(hosts []inventory.Host) []string {
	out := make([]string, 0, len(hosts))
	for _, h := range hosts {
		out = append(out, h.IP)
	}
	return out
}

func TestCompute_NoChanges(t *testing.T) {
	hosts := []inventory.Host{makeHost("192.168.1.1", 22, 80), makeHost("192.168.1.7", 443)}
	res := Compute(hosts, hosts)

	assert.True(t, res.Empty())
	assert.Equal(t, Summary{}, res.Summary)
	assert.NotNil(t, res.NewHosts)
	assert.NotNil(t, res.BannerChanges)
	assert.NotNil(t, res.TLSChanges)
}

func TestCompute_PortOrderIsIrrelevant(t *testing.T) {
	res := Compute(
		[]inventory.Host{makeHost("10.0.0.1", 80, 22)},
		[]inventory.Host{makeHost("10.0.0.1", 22, 80, 22)},
	)
	assert.Empty(t, res.PortChanges)
}

func TestCompute_NewHost(t *testing.T) {
	res := Compute(
		[]inventory.Host{makeHost("192.168.1.1", 22)},
		[]inventory.Host{makeHost("192.168.1.1", 22), makeHost("192.168.1.2", 80)},
	)

	require.Len(t, res.NewHosts, 1)
	assert.Equal(t, "192.168.1.2", res.NewHosts[0].IP)
	assert.Equal(t, 1, res.Summary.TotalNew)
}

func TestCompute_MissingHost(t *testing.T) {
	res := Compute(
		[]inventory.Host{makeHost("192.168.1.1", 22), makeHost("192.168.1.2", 80)},
		[]inventory.Host{makeHost("192.168.1.1", 22)},
	)

	require.Len(t, res.MissingHosts, 1)
	assert.Equal(t, "192.168.1.2", res.MissingHosts[0].IP)
	assert.Equal(t, []uint16{80}, res.MissingHosts[0].Ports)
	assert.Equal(t, 1, res.Summary.TotalMissing)
}

func TestCompute_PortChanges(t *testing.T) {
	res := Compute(
		[]inventory.Host{makeHost("192.168.1.1", 22, 80)},
		[]inventory.Host{makeHost("192.168.1.1", 22, 443)},
	)

	require.Len(t, res.PortChanges, 1)
	assert.Equal(t, PortChange{IP: "192.168.1.1", AddedPorts: []uint16{443}, RemovedPorts: []uint16{80}}, res.PortChanges[0])
	assert.Equal(t, 1, res.Summary.TotalPortChanges)
}

func TestCompute_OnlyAddedPorts(t *testing.T) {
	res := Compute(
		[]inventory.Host{makeHost("192.168.1.1", 22)},
		[]inventory.Host{makeHost("192.168.1.1", 8443, 22, 3000)},
	)

	require.Len(t, res.PortChanges, 1)
	assert.Equal(t, []uint16{3000, 8443}, res.PortChanges[0].AddedPorts)
	assert.Empty(t, res.PortChanges[0].RemovedPorts)
}

func TestCompute_EmptySides(t *testing.T) {
	res := Compute(nil, []inventory.Host{makeHost("192.168.1.1", 22)})
	assert.Len(t, res.NewHosts, 1)
	assert.Empty(t, res.MissingHosts)

	res = Compute([]inventory.Host{makeHost("192.168.1.1", 22)}, nil)
	assert.Empty(t, res.NewHosts)
	assert.Len(t, res.MissingHosts, 1)
}

func TestCompute_Combined(t *testing.T) {
	res := Compute(
		[]inventory.Host{makeHost("192.168.1.1", 22, 80), makeHost("192.168.1.2", 443)},
		[]inventory.Host{makeHost("192.168.1.1", 22, 80, 8080), makeHost("192.168.1.3", 3389)},
	)

	assert.Equal(t, []string{"192.168.1.3"}, ips(res.NewHosts))
	assert.Equal(t, []string{"192.168.1.2"}, ips(res.MissingHosts))
	require.Len(t, res.PortChanges, 1)
	assert.Equal(t, []uint16{8080}, res.PortChanges[0].AddedPorts)
	assert.Equal(t, Summary{TotalNew: 1, TotalMissing: 1, TotalPortChanges: 1}, res.Summary)
}

func TestCompute_SortedNumerically(t *testing.T) {
	current := []inventory.Host{
		makeHost("10.0.0.10"),
		makeHost("not-an-ip"),
		makeHost("10.0.0.9"),
		makeHost("fe80::1"),
		makeHost("10.0.0.100"),
	}
	res := Compute(nil, current)

	assert.Equal(t, []string{"10.0.0.9", "10.0.0.10", "10.0.0.100", "fe80::1", "not-an-ip"}, ips(res.NewHosts))
}

func TestCompute_HostPortsSortedAndDeduplicated(t *testing.T) {
	res := Compute(
		[]inventory.Host{makeHost("10.0.0.2")},
		[]inventory.Host{makeHost("10.0.0.1", 443, 22, 22)},
	)

	require.Len(t, res.NewHosts, 1)
	assert.Equal(t, []uint16{22, 443}, res.NewHosts[0].Ports)
	require.Len(t, res.MissingHosts, 1)
	assert.NotNil(t, res.MissingHosts[0].Ports)
	assert.Empty(t, res.MissingHosts[0].Ports)
}

func TestCompute_DuplicateIPLastWins(t *testing.T) {
	res := Compute(
		[]inventory.Host{makeHost("10.0.0.1", 22)},
		[]inventory.Host{makeHost("10.0.0.1", 80), makeHost("10.0.0.1", 22)},
	)
	assert.Empty(t, res.PortChanges)
}

func TestCompute_Inversion(t *testing.T) {
	b := []inventory.Host{makeHost("10.0.0.1", 22), makeHost("10.0.0.2"), makeHost("10.0.0.3", 80)}
	c := []inventory.Host{makeHost("10.0.0.1", 22, 443), makeHost("10.0.0.4"), makeHost("10.0.0.5")}

	forward := Compute(b, c)
	backward := Compute(c, b)

	assert.Equal(t, ips(forward.NewHosts), ips(backward.MissingHosts))
	assert.Equal(t, ips(forward.MissingHosts), ips(backward.NewHosts))
	require.Len(t, backward.PortChanges, 1)
	assert.Equal(t, forward.PortChanges[0].AddedPorts, backward.PortChanges[0].RemovedPorts)
}

func TestCompute_NoAliasing(t *testing.T) {
	current := []inventory.Host{makeHost("10.0.0.9", 22)}
	res := Compute(nil, current)
	res.NewHosts[0].Ports[0] = 9999

	assert.Equal(t, uint16(22), current[0].Ports[0])
}
