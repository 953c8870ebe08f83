package fingerprint

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vulntor/netspectre/pkg/inventory"
)

func makePort(port uint16, banner, details string) inventory.DeepScanPort {
	p := inventory.DeepScanPort{Port: port, Details: details, Severity: "info"}
	if banner != "" {
		p.RawBanner = &banner
	}
	return p
}

func testHost() inventory.Host {
	return inventory.Host{IP: "192.168.1.1"}
}

func analyzeOne(t *testing.T, p inventory.DeepScanPort) Fingerprint {
	t.Helper()
	out := Analyze(testHost(), []inventory.DeepScanPort{p})
	require.Len(t, out, 1)
	return out[0]
}

func TestAnalyze_HTTPServerHeader(t *testing.T) {
	fp := analyzeOne(t, makePort(80, "HTTP/1.1 200 OK\r\nServer: nginx/1.25.3\r\n", ""))

	assert.Equal(t, "http", fp.Protocol)
	assert.Equal(t, "nginx", fp.Product)
	assert.Equal(t, "1.25.3", fp.Version)
	assert.GreaterOrEqual(t, fp.Confidence, 0.9)
	assert.Equal(t, "cpe:2.3:a:nginx:nginx:1.25.3:*:*:*:*:*:*:*", fp.CPE)
	assert.Contains(t, fp.Evidence, "Server: nginx/1.25.3")
}

func TestAnalyze_HTTPUnknownServer(t *testing.T) {
	fp := analyzeOne(t, makePort(5000, "HTTP/1.0 200 OK\r\nServer: Werkzeug/2.0.1 Python/3.9\r\n", ""))

	assert.Equal(t, "http", fp.Protocol)
	assert.Equal(t, "Werkzeug/2.0.1 Python/3.9", fp.Product)
	assert.InDelta(t, 0.7, fp.Confidence, 1e-9)
	assert.Empty(t, fp.CPE)
}

func TestAnalyze_HTTPServerWithOpenSSLIsNotCertificate(t *testing.T) {
	fp := analyzeOne(t, makePort(443, "HTTP/1.1 200 OK\r\nServer: Apache/2.4.52 (Unix) OpenSSL/1.1.1k\r\n", ""))

	assert.Equal(t, "http", fp.Protocol)
	assert.Equal(t, "apache", fp.Product)
	assert.Equal(t, "2.4.52", fp.Version)
	assert.Nil(t, fp.TLSCert)
	assert.InDelta(t, 0.9, fp.Confidence, 1e-9)
}

func TestAnalyze_PoweredByOnly(t *testing.T) {
	fp := analyzeOne(t, makePort(8080, "HTTP/1.1 200 OK\r\nX-Powered-By: PHP/8.1\r\n", ""))

	assert.Equal(t, "http", fp.Protocol)
	assert.Equal(t, "PHP/8.1", fp.Product)
	assert.InDelta(t, 0.6, fp.Confidence, 1e-9)
}

func TestAnalyze_PoweredByBoostAndTitle(t *testing.T) {
	banner := "HTTP/1.1 200 OK\r\nServer: nginx/1.25.3\r\nX-Powered-By: Express\r\n<title>Jenkins</title>"
	fp := analyzeOne(t, makePort(80, banner, ""))

	assert.Equal(t, "jenkins", fp.Product)
	assert.InDelta(t, 0.95, fp.Confidence, 1e-9)
	assert.LessOrEqual(t, fp.Confidence, MaxConfidence)
	assert.Equal(t, []string{"Server: nginx/1.25.3", "X-Powered-By: Express", "HTML title: Jenkins"}, fp.Evidence)
}

func TestAnalyze_TitleNeverLowersConfidence(t *testing.T) {
	fp := analyzeOne(t, makePort(80, "<title>My WordPress Blog</title>", ""))

	assert.Equal(t, "wordpress", fp.Product)
	assert.InDelta(t, 0.8, fp.Confidence, 1e-9)
	// Title does not claim a protocol.
	assert.Equal(t, protocolUnknown, fp.Protocol)
}

func TestAnalyze_TitleProductDropsServerVersionFromCPE(t *testing.T) {
	banner := "HTTP/1.1 200 OK\r\nServer: Apache/2.4.52\r\n\r\n<title>Grafana</title>"
	fp := analyzeOne(t, makePort(3000, banner, ""))

	assert.Equal(t, "grafana", fp.Product)
	// Version still reports what the banner carried.
	assert.Equal(t, "2.4.52", fp.Version)
	assert.Equal(t, "cpe:2.3:a:grafana:grafana:*:*:*:*:*:*:*:*", fp.CPE)
}

func TestAnalyze_SMTPProductDropsEarlierVersionFromCPE(t *testing.T) {
	banner := "220 mail.example.com ESMTP Postfix\r\nSSH-2.0-OpenSSH_8.9p1"
	fp := analyzeOne(t, makePort(25, banner, ""))

	assert.Equal(t, "Postfix", fp.Product)
	assert.Equal(t, "8.9p1", fp.Version)
	assert.Equal(t, "cpe:2.3:a:postfix:postfix:*:*:*:*:*:*:*:*", fp.CPE)
}

func TestAnalyze_SSH(t *testing.T) {
	tests := []struct {
		name       string
		banner     string
		product    string
		version    string
		confidence float64
	}{
		{"openssh", "SSH-2.0-OpenSSH_8.9p1 Ubuntu-3", "OpenSSH", "8.9p1", 0.95},
		{"dropbear", "SSH-2.0-dropbear_2022.83", "Dropbear", "2022.83", 0.9},
		{"other", "SSH-2.0-Cisco-1.25", "Cisco-1.25", "", 0.8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp := analyzeOne(t, makePort(22, tt.banner, ""))
			assert.Equal(t, "ssh", fp.Protocol)
			assert.Equal(t, tt.product, fp.Product)
			assert.Equal(t, tt.version, fp.Version)
			assert.InDelta(t, tt.confidence, fp.Confidence, 1e-9)
		})
	}
}

func TestAnalyze_TLSCertificate(t *testing.T) {
	clock := func() time.Time { return time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC) }
	a := NewAnalyzer(WithClock(clock))

	out := a.Analyze(testHost(), []inventory.DeepScanPort{
		makePort(443, "", "TLS Service CN=example.com Issuer=Let's Encrypt validTo=2025-12-01"),
	})
	require.Len(t, out, 1)
	fp := out[0]

	require.NotNil(t, fp.TLSCert)
	assert.Equal(t, "tls", fp.Protocol)
	assert.Equal(t, "example.com", fp.TLSCert.Subject)
	assert.Equal(t, "Let's Encrypt", fp.TLSCert.Issuer)
	assert.Equal(t, "2025-12-01", fp.TLSCert.ValidTo)
	assert.Equal(t, int64(30), fp.TLSCert.DaysUntilExpiry)
	assert.InDelta(t, 0.7, fp.Confidence, 1e-9)
}

func TestAnalyze_TLSExpired(t *testing.T) {
	clock := func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	out := NewAnalyzer(WithClock(clock)).Analyze(testHost(), []inventory.DeepScanPort{
		makePort(8443, "", "SSL certificate Subject: intranet.local; expires=2025-12-31"),
	})

	require.NotNil(t, out[0].TLSCert)
	assert.Equal(t, "intranet.local", out[0].TLSCert.Subject)
	assert.Equal(t, int64(-1), out[0].TLSCert.DaysUntilExpiry)
}

func TestAnalyze_TLSKeepsEarlierProtocol(t *testing.T) {
	fp := analyzeOne(t, makePort(443, "HTTP/1.1 200 OK\r\nServer: caddy\r\n", "TLS CN=files.example.org"))

	assert.Equal(t, "http", fp.Protocol)
	assert.Equal(t, "caddy", fp.Product)
	require.NotNil(t, fp.TLSCert)
	assert.InDelta(t, 0.9, fp.Confidence, 1e-9)
}

func TestAnalyze_TLSMarkerWithoutSubjectFallsBack(t *testing.T) {
	fp := analyzeOne(t, makePort(443, "", "TLS handshake failed"))

	assert.Nil(t, fp.TLSCert)
	assert.Equal(t, "https", fp.Protocol)
	assert.InDelta(t, 0.15, fp.Confidence, 1e-9)
}

func TestAnalyze_SMTP(t *testing.T) {
	tests := []struct {
		name    string
		banner  string
		product string
		version string
		conf    float64
	}{
		{"postfix", "220 mail.example.com ESMTP Postfix (Ubuntu)\r\n", "Postfix", "", 0.9},
		{"exim", "220 mx.example.org ESMTP Exim 4.96 Mon, 01 Jan 2024\r\n", "Exim", "4.96", 0.9},
		{"exchange", "220 mail.corp.local Microsoft ESMTP MAIL Service ready\r\n", "Microsoft Exchange", "", 0.85},
		{"other", "220 smtp.relay.net ESMTP ready\r\n", "smtp.relay.net ESMTP ready", "", 0.7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp := analyzeOne(t, makePort(25, tt.banner, ""))
			assert.Equal(t, "smtp", fp.Protocol)
			assert.Equal(t, tt.product, fp.Product)
			assert.Equal(t, tt.version, fp.Version)
			assert.InDelta(t, tt.conf, fp.Confidence, 1e-9)
		})
	}
}

func TestAnalyze_FTPOverridesSMTP(t *testing.T) {
	fp := analyzeOne(t, makePort(21, "220 (vsFTPd 3.0.3)\r\n", ""))

	assert.Equal(t, "ftp", fp.Protocol)
	assert.Equal(t, "vsftpd", fp.Product)
	assert.Equal(t, "3.0.3", fp.Version)
	assert.InDelta(t, 0.9, fp.Confidence, 1e-9)
	assert.Equal(t, []string{"SMTP banner: (vsFTPd 3.0.3)", "FTP banner match: FTP"}, fp.Evidence)
}

func TestAnalyze_FTPVariants(t *testing.T) {
	pro := analyzeOne(t, makePort(21, "220 ProFTPD 1.3.5e Server (Debian)", ""))
	assert.Equal(t, "ProFTPD", pro.Product)
	assert.Equal(t, "1.3.5", pro.Version)

	fz := analyzeOne(t, makePort(21, "220-FileZilla Server 1.7.0\r\n", ""))
	assert.Equal(t, "ftp", fz.Protocol)
	assert.Equal(t, "FileZilla", fz.Product)
	assert.InDelta(t, 0.7, fz.Confidence, 1e-9)
}

func TestAnalyze_PortPriorFallback(t *testing.T) {
	fp := analyzeOne(t, makePort(3306, "", ""))

	assert.Equal(t, "mysql", fp.Protocol)
	assert.Equal(t, "MySQL", fp.Product)
	assert.LessOrEqual(t, fp.Confidence, 0.3)
	assert.Equal(t, []string{"Port heuristic: 3306/mysql"}, fp.Evidence)
}

func TestAnalyze_UnknownPort(t *testing.T) {
	fp := analyzeOne(t, makePort(12345, "", ""))

	assert.Equal(t, "unknown", fp.Protocol)
	assert.LessOrEqual(t, fp.Confidence, 0.1)
}

func TestAnalyze_MultiplePortsKeepOrder(t *testing.T) {
	ports := []inventory.DeepScanPort{
		makePort(22, "SSH-2.0-OpenSSH_9.0", ""),
		makePort(80, "HTTP/1.1 200 OK\r\nServer: Apache/2.4.52\r\n", ""),
		makePort(3306, "", ""),
	}
	out := Analyze(testHost(), ports)

	require.Len(t, out, 3)
	assert.Equal(t, []string{"ssh", "http", "mysql"}, []string{out[0].Protocol, out[1].Protocol, out[2].Protocol})
	assert.Equal(t, []uint16{22, 80, 3306}, []uint16{out[0].Port, out[1].Port, out[2].Port})
}

func TestAnalyze_EmptyInput(t *testing.T) {
	out := Analyze(testHost(), nil)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestAnalyze_ConfidenceBound(t *testing.T) {
	banners := []string{
		"",
		"garbage \x00\x01\x02",
		"HTTP/1.1 200 OK\r\nServer: nginx/1.25.3\r\nX-Powered-By: Express\r\n<title>Grafana</title>",
		"SSH-2.0-OpenSSH_8.9p1",
		"220 (vsFTPd 3.0.3)",
		"220 mail ESMTP Postfix",
	}
	for _, b := range banners {
		for _, port := range []uint16{0, 21, 22, 80, 443, 8080, 65535} {
			fp := analyzeOne(t, makePort(port, b, "TLS CN=x"))
			assert.GreaterOrEqual(t, fp.Confidence, 0.0)
			assert.LessOrEqual(t, fp.Confidence, MaxConfidence)
		}
	}
}

func TestDetectorsOrder(t *testing.T) {
	assert.Equal(t, []string{"http", "ssh", "tls", "smtp", "ftp"}, Detectors())
}

func TestClamp(t *testing.T) {
	assert.Equal(t, MaxConfidence, clamp(1.5))
	assert.Equal(t, 0.0, clamp(-0.2))
	assert.Equal(t, 0.5, clamp(0.5))
}

func TestBuildCPE(t *testing.T) {
	assert.Equal(t, "cpe:2.3:a:openbsd:openssh:8.9p1:*:*:*:*:*:*:*", buildCPE("OpenSSH", "8.9p1"))
	assert.Equal(t, "cpe:2.3:a:postfix:postfix:*:*:*:*:*:*:*:*", buildCPE("Postfix", ""))
	assert.Equal(t, "", buildCPE("HTTP", ""))
	assert.Equal(t, `cpe:2.3:a:exim:exim:4.96\+deb:*:*:*:*:*:*:*`, buildCPE("Exim", "4.96+deb"))
}

func TestLookupPortPrior(t *testing.T) {
	for _, port := range []uint16{21, 22, 23, 25, 53, 80, 110, 143, 443, 445, 993, 995, 1433, 1723, 3306, 3389, 5432, 5900, 6379, 8080, 8443, 27017} {
		prior := LookupPortPrior(port)
		assert.NotEqual(t, protocolUnknown, prior.Protocol, "port %d", port)
		assert.GreaterOrEqual(t, prior.Confidence, 0.1)
		assert.LessOrEqual(t, prior.Confidence, 0.3)
	}
	assert.Equal(t, PortPrior{"unknown", "Unknown", 0.1}, LookupPortPrior(9999))
}
