package fingerprint

import (
	"math"
	"regexp"
	"strings"
	"time"
)

const protocolUnknown = "unknown"

// observation is the read-only input shared by every detector for one port.
type observation struct {
	Port   uint16
	Buffer string // raw banner + " " + details
	Now    time.Time
}

// detector is a pure step of the pipeline: it receives the working record and
// returns its replacement.
type detector struct {
	name   string
	detect func(obs observation, fp Fingerprint) Fingerprint
}

// pipeline order is significant: later detectors overwrite earlier matches.
var pipeline = []detector{
	{name: "http", detect: detectHTTP},
	{name: "ssh", detect: detectSSH},
	{name: "tls", detect: detectTLS},
	{name: "smtp", detect: detectSMTP},
	{name: "ftp", detect: detectFTP},
}

// Detectors returns the detector names in evaluation order.
func Detectors() []string {
	names := make([]string, len(pipeline))
	for i, d := range pipeline {
		names[i] = d.name
	}
	return names
}

var (
	httpServerRe    = regexp.MustCompile(`(?i)Server:\s*([^\r\n]+)`)
	httpProductRe   = regexp.MustCompile(`(?i)^(nginx|apache|lighttpd|microsoft-iis|caddy|openresty|cloudflare)[/\s]*([0-9.]+)?`)
	httpPoweredByRe = regexp.MustCompile(`(?i)X-Powered-By:\s*([^\r\n]+)`)
	htmlTitleRe     = regexp.MustCompile(`(?i)<title>([^<]+)</title>`)

	sshBannerRe = regexp.MustCompile(`SSH-2\.0-(\S+)`)
	openSSHRe   = regexp.MustCompile(`(?i)OpenSSH[_\s]?([0-9.p]+)?`)
	dropbearRe  = regexp.MustCompile(`(?i)dropbear[_\s]?([0-9.]+)?`)
)

// titleApps maps a lowercase substring of an HTML title to the product it
// reveals and the confidence floor it grants. First match wins.
var titleApps = []struct {
	needle     string
	product    string
	confidence float64
}{
	{"wordpress", "wordpress", 0.8},
	{"grafana", "grafana", 0.85},
	{"jenkins", "jenkins", 0.85},
}

func detectHTTP(obs observation, fp Fingerprint) Fingerprint {
	if m := httpServerRe.FindStringSubmatch(obs.Buffer); m != nil {
		server := strings.TrimSpace(m[1])
		fp.Protocol = "http"
		fp.Evidence = append(fp.Evidence, "Server: "+server)

		if pm := httpProductRe.FindStringSubmatch(server); pm != nil {
			fp.Product = strings.ToLower(pm[1])
			fp.Version, fp.versionOf = pm[2], fp.Product
			fp.Confidence = 0.9
		} else {
			fp.Product = server
			fp.Confidence = 0.7
		}
	}

	if m := httpPoweredByRe.FindStringSubmatch(obs.Buffer); m != nil {
		powered := strings.TrimSpace(m[1])
		fp.Evidence = append(fp.Evidence, "X-Powered-By: "+powered)
		fp.Protocol = "http"
		if fp.Confidence > 0 {
			fp.Confidence = math.Min(fp.Confidence+0.05, 0.95)
		} else {
			fp.Product = powered
			fp.Confidence = 0.6
		}
	}

	if m := htmlTitleRe.FindStringSubmatch(obs.Buffer); m != nil {
		title := strings.TrimSpace(m[1])
		fp.Evidence = append(fp.Evidence, "HTML title: "+title)

		lower := strings.ToLower(title)
		for _, app := range titleApps {
			if strings.Contains(lower, app.needle) {
				fp.Product = app.product
				fp.Confidence = math.Max(fp.Confidence, app.confidence)
				break
			}
		}
	}

	return fp
}

func detectSSH(obs observation, fp Fingerprint) Fingerprint {
	m := sshBannerRe.FindStringSubmatch(obs.Buffer)
	if m == nil {
		return fp
	}

	banner := m[1]
	fp.Protocol = "ssh"
	fp.Evidence = append(fp.Evidence, "SSH banner: "+banner)

	switch {
	case openSSHRe.MatchString(banner):
		fp.Product = "OpenSSH"
		fp.Version, fp.versionOf = openSSHRe.FindStringSubmatch(banner)[1], fp.Product
		fp.Confidence = 0.95
	case strings.Contains(strings.ToLower(banner), "dropbear"):
		fp.Product = "Dropbear"
		fp.Version, fp.versionOf = "", fp.Product
		if dm := dropbearRe.FindStringSubmatch(banner); dm != nil {
			fp.Version = dm[1]
		}
		fp.Confidence = 0.9
	default:
		fp.Product = banner
		fp.Confidence = 0.8
	}
	return fp
}
