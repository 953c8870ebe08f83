// Package fingerprint identifies the service behind a port from captured banner
// and detail text.
//
// Identification is a fixed, ordered pipeline of detectors (HTTP, SSH, TLS,
// SMTP, FTP). Each detector inspects the same search buffer and may replace
// protocol, product and version on the working Fingerprint while appending
// evidence. When two detectors match the same buffer the later one wins, so
// the order returned by Detectors is part of the package contract.
//
// When no detector produces any confidence a static port-number prior is
// applied instead. Confidence is always clamped to MaxConfidence.
package fingerprint

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vulntor/netspectre/pkg/inventory"
)

// MaxConfidence is the ceiling applied to every produced Fingerprint.
const MaxConfidence = 0.99

// Fingerprint is the inferred service identity of one port.
type Fingerprint struct {
	Port       uint16       `json:"port"`
	Protocol   string       `json:"protocol"`
	Product    string       `json:"product"`
	Version    string       `json:"version"`
	Confidence float64      `json:"confidence"`
	Evidence   []string     `json:"evidence"`
	TLSCert    *TLSCertInfo `json:"tls_cert,omitempty"`
	CPE        string       `json:"cpe,omitempty"`

	// versionOf is the product the current Version was read alongside.
	versionOf string
}

// TLSCertInfo holds certificate fields scraped from service details.
type TLSCertInfo struct {
	Subject         string `json:"subject"`
	Issuer          string `json:"issuer"`
	ValidFrom       string `json:"valid_from"`
	ValidTo         string `json:"valid_to"`
	DaysUntilExpiry int64  `json:"days_until_expiry"`
	KeySize         string `json:"key_size,omitempty"`
	Signature       string `json:"signature,omitempty"`
}

// Analyzer runs the detector pipeline. The zero value is not usable; use
// NewAnalyzer.
type Analyzer struct {
	now    func() time.Time
	logger zerolog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithClock sets the clock used for certificate expiry arithmetic.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) {
		if now != nil {
			a.now = now
		}
	}
}

// WithLogger sets the logger used for per-port debug output.
func WithLogger(logger zerolog.Logger) Option {
	return func(a *Analyzer) {
		a.logger = logger.With().Str("component", "fingerprint").Logger()
	}
}

// NewAnalyzer returns an Analyzer using the wall clock and the global logger.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{
		now:    time.Now,
		logger: log.Logger.With().Str("component", "fingerprint").Logger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze returns one Fingerprint per port, in input order, using a default
// Analyzer.
func Analyze(host inventory.Host, ports []inventory.DeepScanPort) []Fingerprint {
	return NewAnalyzer().Analyze(host, ports)
}

// Analyze returns one Fingerprint per port, in input order. It never fails;
// ports with no usable text fall back to the port-number prior.
func (a *Analyzer) Analyze(host inventory.Host, ports []inventory.DeepScanPort) []Fingerprint {
	out := make([]Fingerprint, 0, len(ports))
	now := a.now()

	for _, p := range ports {
		fp := a.identify(p, now)
		a.logger.Debug().
			Str("host", host.IP).
			Uint16("port", fp.Port).
			Str("protocol", fp.Protocol).
			Str("product", fp.Product).
			Float64("confidence", fp.Confidence).
			Msg("Port fingerprinted")
		out = append(out, fp)
	}
	return out
}

func (a *Analyzer) identify(p inventory.DeepScanPort, now time.Time) Fingerprint {
	obs := observation{
		Port:   p.Port,
		Buffer: p.Banner() + " " + p.Details,
		Now:    now,
	}

	fp := Fingerprint{
		Port:     p.Port,
		Protocol: protocolUnknown,
		Evidence: []string{},
	}
	for _, d := range pipeline {
		fp = d.detect(obs, fp)
	}

	if fp.Confidence == 0 {
		fp = applyPortPrior(p.Port, fp)
	}

	cpeVersion := fp.Version
	if fp.versionOf != fp.Product {
		cpeVersion = ""
	}
	fp.CPE = buildCPE(fp.Product, cpeVersion)
	fp.versionOf = ""
	fp.Confidence = clamp(fp.Confidence)
	return fp
}

func clamp(c float64) float64 {
	switch {
	case c > MaxConfidence:
		return MaxConfidence
	case c < 0:
		return 0
	default:
		return c
	}
}
