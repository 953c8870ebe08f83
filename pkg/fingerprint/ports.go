package fingerprint

import "fmt"

// PortPrior is the last-resort identity assumed from a port number alone.
type PortPrior struct {
	Protocol   string
	Product    string
	Confidence float64
}

// LookupPortPrior returns the static prior for port. Unlisted ports map to
// "unknown" at 0.1.
func LookupPortPrior(port uint16) PortPrior {
	switch port {
	case 21:
		return PortPrior{"ftp", "FTP", 0.2}
	case 22:
		return PortPrior{"ssh", "SSH", 0.2}
	case 23:
		return PortPrior{"telnet", "Telnet", 0.2}
	case 25:
		return PortPrior{"smtp", "SMTP", 0.2}
	case 53:
		return PortPrior{"dns", "DNS", 0.2}
	case 80:
		return PortPrior{"http", "HTTP", 0.15}
	case 110:
		return PortPrior{"pop3", "POP3", 0.2}
	case 143:
		return PortPrior{"imap", "IMAP", 0.2}
	case 443:
		return PortPrior{"https", "HTTPS", 0.15}
	case 445:
		return PortPrior{"smb", "SMB", 0.25}
	case 993:
		return PortPrior{"imaps", "IMAPS", 0.2}
	case 995:
		return PortPrior{"pop3s", "POP3S", 0.2}
	case 1433:
		return PortPrior{"mssql", "Microsoft SQL Server", 0.3}
	case 1723:
		return PortPrior{"pptp", "PPTP VPN", 0.25}
	case 3306:
		return PortPrior{"mysql", "MySQL", 0.3}
	case 3389:
		return PortPrior{"rdp", "RDP", 0.3}
	case 5432:
		return PortPrior{"postgresql", "PostgreSQL", 0.3}
	case 5900:
		return PortPrior{"vnc", "VNC", 0.25}
	case 6379:
		return PortPrior{"redis", "Redis", 0.3}
	case 8080:
		return PortPrior{"http-proxy", "HTTP Proxy", 0.1}
	case 8443:
		return PortPrior{"https-alt", "HTTPS Alt", 0.1}
	case 27017:
		return PortPrior{"mongodb", "MongoDB", 0.3}
	default:
		return PortPrior{protocolUnknown, "Unknown", 0.1}
	}
}

func applyPortPrior(port uint16, fp Fingerprint) Fingerprint {
	prior := LookupPortPrior(port)
	fp.Protocol = prior.Protocol
	fp.Product = prior.Product
	fp.Confidence = prior.Confidence
	fp.Evidence = append(fp.Evidence, fmt.Sprintf("Port heuristic: %d/%s", port, prior.Protocol))
	return fp
}
