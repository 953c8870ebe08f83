package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/vulntor/netspectre/pkg/inventory"
	"github.com/vulntor/netspectre/pkg/storage"
)

func exportHosts() []HostRecord {
	return []HostRecord{
		{Host: inventory.Host{IP: "10.0.0.1", MAC: "AA:BB:CC:DD:EE:FF", Hostname: "srv1", Ports: []uint16{22, 80}}},
		{
			Host: inventory.Host{IP: "10.0.0.2", Ports: []uint16{22, 80}},
			DeepPorts: []inventory.DeepScanPort{
				{Port: 22, ServiceName: "SSH"},
				{Port: 80, ServiceName: "HTTP", Vulnerable: true, Severity: "warning"},
			},
		},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" YAML ")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = ParseFormat("pdf")
	require.Error(t, err)
	assert.True(t, storage.IsInvalidInput(err))
	assert.Contains(t, err.Error(), "unsupported format")
}

func TestExport_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, FormatJSON, exportHosts()[:1], nil))

	var doc Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.Hosts, 1)
	assert.Equal(t, "10.0.0.1", doc.Hosts[0].IP)
	assert.Nil(t, doc.Summary)
	assert.NotContains(t, buf.String(), "deepPorts")
}

func TestExport_JSONWithSummary(t *testing.T) {
	summary := GenerateSummary(exportHosts(), nil)

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, FormatJSON, nil, &summary))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, []any{}, doc["hosts"])
	require.Contains(t, doc, "summary")
	assert.EqualValues(t, 2, doc["summary"].(map[string]any)["totalHosts"])
}

func TestExport_YAMLRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, FormatYAML, exportHosts(), nil))

	var doc Document
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, exportHosts(), doc.Hosts)
}

func TestExport_CSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, FormatCSV, exportHosts(), nil))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)

	// header, one row for the plain host, one per deep-scan port
	require.Len(t, records, 4)
	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, []string{"10.0.0.1", "AA:BB:CC:DD:EE:FF", "srv1", "", "", "22 80", "", "", ""}, records[1])
	assert.Equal(t, []string{"10.0.0.2", "", "", "", "", "80", "HTTP", "true", "warning"}, records[3])
}

func TestExport_UnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	err := Export(&buf, Format("html"), nil, nil)
	require.Error(t, err)
	assert.True(t, storage.IsInvalidInput(err))
	assert.Empty(t, buf.String())
}
