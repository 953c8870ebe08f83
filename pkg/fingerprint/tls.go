package fingerprint

import (
	"math"
	"regexp"
	"strings"
	"time"
)

var (
	tlsMarkerRe    = regexp.MustCompile(`(?i)(?:TLS|SSL|Certificate|CN[=:])`)
	tlsSubjectRe   = regexp.MustCompile(`(?i)(?:CN[=:]\s*|Subject:\s*)([^\s,;]+)`)
	tlsIssuerRe    = regexp.MustCompile(`(?i)Issuer[=:]\s*([^\r\n;]+)`)
	tlsValidToRe   = regexp.MustCompile(`(?i)(?:validTo|expires?|not\s*after)[=:]\s*([^\r\n;]+)`)
	tlsValidFromRe = regexp.MustCompile(`(?i)(?:validFrom|not\s*before)[=:]\s*([^\r\n;]+)`)
	tlsKeySizeRe   = regexp.MustCompile(`(?i)key\s*size[=:]\s*(\d+)`)
	tlsSignatureRe = regexp.MustCompile(`(?i)signature(?:\s*algorithm)?[=:]\s*([^\s,;]+)`)

	// tlsNextFieldRe marks where a free-running value runs into the next
	// "key=value" certificate field on the same line.
	tlsNextFieldRe = regexp.MustCompile(`(?i)\s+(?:issuer|valid(?:to|from)|expires?|not\s*(?:after|before)|key\s*size|signature(?:\s*algorithm)?)[=:]`)
)

// expiryLayouts are tried in order when computing days until expiry.
var expiryLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"Jan _2 15:04:05 2006 MST",
	"Jan 2 15:04:05 2006 MST",
	"Mon, 02 Jan 2006 15:04:05 MST",
}

func detectTLS(obs observation, fp Fingerprint) Fingerprint {
	if !tlsMarkerRe.MatchString(obs.Buffer) {
		return fp
	}

	if fp.Protocol == protocolUnknown {
		fp.Protocol = "tls"
	}

	m := tlsSubjectRe.FindStringSubmatch(obs.Buffer)
	if m == nil {
		return fp
	}

	cert := &TLSCertInfo{Subject: strings.TrimSpace(m[1])}
	fp.Evidence = append(fp.Evidence, "TLS CN: "+cert.Subject)

	if v := fieldValue(tlsIssuerRe, obs.Buffer); v != "" {
		cert.Issuer = v
		fp.Evidence = append(fp.Evidence, "Issuer: "+v)
	}
	if v := fieldValue(tlsValidToRe, obs.Buffer); v != "" {
		cert.ValidTo = v
		fp.Evidence = append(fp.Evidence, "Expires: "+v)
		if expiry, ok := parseCertTime(v); ok {
			cert.DaysUntilExpiry = daysBetween(obs.Now, expiry)
		}
	}
	cert.ValidFrom = fieldValue(tlsValidFromRe, obs.Buffer)
	if sm := tlsKeySizeRe.FindStringSubmatch(obs.Buffer); sm != nil {
		cert.KeySize = sm[1]
	}
	if sm := tlsSignatureRe.FindStringSubmatch(obs.Buffer); sm != nil {
		cert.Signature = sm[1]
	}

	fp.TLSCert = cert
	fp.Confidence = math.Max(fp.Confidence, 0.7)
	return fp
}

// fieldValue returns the first capture of re, cut where the next certificate
// field begins.
func fieldValue(re *regexp.Regexp, buf string) string {
	m := re.FindStringSubmatch(buf)
	if m == nil {
		return ""
	}
	v := m[1]
	if loc := tlsNextFieldRe.FindStringIndex(v); loc != nil {
		v = v[:loc[0]]
	}
	return strings.TrimSpace(v)
}

func parseCertTime(v string) (time.Time, bool) {
	for _, layout := range expiryLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// daysBetween returns whole days from now until t, negative once t has passed.
func daysBetween(now, t time.Time) int64 {
	return int64(math.Floor(t.Sub(now).Hours() / 24))
}
