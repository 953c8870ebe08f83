package fingerprint

import (
	"regexp"
	"strings"
)

// SMTP and FTP both greet with a leading "220" line. Both detectors may match
// the same greeting; FTP runs later and takes precedence.
var (
	smtpGreetingRe = regexp.MustCompile(`^220[ \t-]([^\r\n]+)`)
	postfixRe      = regexp.MustCompile(`(?i)Postfix`)
	eximRe         = regexp.MustCompile(`(?i)Exim\s*([0-9.]+)?`)
	exchangeRe     = regexp.MustCompile(`(?i)Microsoft\s+ESMTP`)

	ftpGreetingRe = regexp.MustCompile(`^220[ \t-][^\r\n]*(?i:(FTP|ProFTPD|vsftpd|Pure-FTPd|FileZilla))`)
	vsftpdRe      = regexp.MustCompile(`(?i)vsftpd\s*([0-9.]+)?`)
	proftpdRe     = regexp.MustCompile(`(?i)ProFTPD\s*([0-9.]+)?`)
)

func detectSMTP(obs observation, fp Fingerprint) Fingerprint {
	m := smtpGreetingRe.FindStringSubmatch(obs.Buffer)
	if m == nil {
		return fp
	}

	banner := strings.TrimSpace(m[1])
	fp.Protocol = "smtp"
	fp.Evidence = append(fp.Evidence, "SMTP banner: "+banner)

	switch {
	case postfixRe.MatchString(banner):
		fp.Product = "Postfix"
		fp.Confidence = 0.9
	case eximRe.MatchString(banner):
		fp.Product = "Exim"
		fp.Version, fp.versionOf = eximRe.FindStringSubmatch(banner)[1], fp.Product
		fp.Confidence = 0.9
	case exchangeRe.MatchString(banner):
		fp.Product = "Microsoft Exchange"
		fp.Confidence = 0.85
	default:
		fp.Product = banner
		fp.Confidence = 0.7
	}
	return fp
}

func detectFTP(obs observation, fp Fingerprint) Fingerprint {
	m := ftpGreetingRe.FindStringSubmatch(obs.Buffer)
	if m == nil {
		return fp
	}

	matched := m[1]
	fp.Protocol = "ftp"
	fp.Evidence = append(fp.Evidence, "FTP banner match: "+matched)

	if vm := vsftpdRe.FindStringSubmatch(obs.Buffer); vm != nil {
		fp.Product = "vsftpd"
		fp.Version, fp.versionOf = vm[1], fp.Product
		fp.Confidence = 0.9
	} else if pm := proftpdRe.FindStringSubmatch(obs.Buffer); pm != nil {
		fp.Product = "ProFTPD"
		fp.Version, fp.versionOf = pm[1], fp.Product
		fp.Confidence = 0.9
	} else {
		fp.Product = matched
		fp.Confidence = 0.7
	}
	return fp
}
