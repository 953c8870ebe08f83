// Package profile stores and validates named scan profiles.
//
// A profile is a reusable set of scan parameters chosen by the user. The
// engine never runs scans itself; it only keeps the records consistent so
// every front end sees the same constraints.
package profile

// Safe mode limits.
const (
	SafeMaxChunkSize  = 50
	SafeMinTimeoutMS  = 1000
	MaxNameLength     = 64
	MinTimeoutMS      = 100
	MaxTimeoutMS      = 60000
	MinChunkSize      = 1
	MaxChunkSize      = 500
	portRangeTagName  = "portrange"
	profileNameTagKey = "profilename"
)

// Profile is a named scan configuration.
type Profile struct {
	Name          string `json:"name" yaml:"name" validate:"required,max=64,profilename"`
	PortRange     string `json:"port_range" yaml:"port_range" validate:"required,portrange"`
	Timeout       uint32 `json:"timeout" yaml:"timeout" validate:"min=100,max=60000"`
	ChunkSize     uint32 `json:"chunk_size" yaml:"chunk_size" validate:"min=1,max=500"`
	BannerGrab    bool   `json:"banner_grab" yaml:"banner_grab"`
	TLSInspect    bool   `json:"tls_inspect" yaml:"tls_inspect"`
	SecurityAudit bool   `json:"security_audit" yaml:"security_audit"`
	SafeMode      bool   `json:"safe_mode" yaml:"safe_mode"`
	Description   string `json:"description" yaml:"description"`
}

// EnforceSafeMode clamps p to the safe mode limits: at most 50 hosts per
// chunk, at least a one second timeout and no intrusive audit modules.
func (p *Profile) EnforceSafeMode() {
	if p.ChunkSize > SafeMaxChunkSize {
		p.ChunkSize = SafeMaxChunkSize
	}
	if p.Timeout < SafeMinTimeoutMS {
		p.Timeout = SafeMinTimeoutMS
	}
	p.SecurityAudit = false
}

// normalize applies the safe mode limits when the profile asks for them.
func (p Profile) normalize() Profile {
	if p.SafeMode {
		p.EnforceSafeMode()
	}
	return p
}
