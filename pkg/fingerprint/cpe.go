package fingerprint

import "strings"

type cpeName struct {
	vendor  string
	product string
}

// cpeCatalog maps lowercase detected product names to their CPE vendor and
// product components.
var cpeCatalog = map[string]cpeName{
	"nginx":              {"nginx", "nginx"},
	"apache":             {"apache", "http_server"},
	"lighttpd":           {"lighttpd", "lighttpd"},
	"microsoft-iis":      {"microsoft", "internet_information_services"},
	"caddy":              {"caddyserver", "caddy"},
	"openresty":          {"openresty", "openresty"},
	"openssh":            {"openbsd", "openssh"},
	"dropbear":           {"dropbear_ssh_project", "dropbear_ssh"},
	"postfix":            {"postfix", "postfix"},
	"exim":               {"exim", "exim"},
	"microsoft exchange": {"microsoft", "exchange_server"},
	"vsftpd":             {"beasts", "vsftpd"},
	"proftpd":            {"proftpd", "proftpd"},
	"wordpress":          {"wordpress", "wordpress"},
	"grafana":            {"grafana", "grafana"},
	"jenkins":            {"jenkins", "jenkins"},
}

// buildCPE returns a CPE 2.3 application name for a catalogued product, or ""
// when the product is unknown.
func buildCPE(product, version string) string {
	name, ok := cpeCatalog[strings.ToLower(product)]
	if !ok {
		return ""
	}
	v := cpeEscape(version)
	if v == "" {
		v = "*"
	}
	return "cpe:2.3:a:" + name.vendor + ":" + name.product + ":" + v + ":*:*:*:*:*:*:*"
}

// cpeEscape quotes characters that are significant in a formatted string
// binding.
func cpeEscape(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('\\')
			b.WriteRune(r)
		}
	}
	return b.String()
}
