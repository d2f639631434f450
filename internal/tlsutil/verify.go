// Package tlsutil holds certificate checks shared by configuration
// validation and context building.
package tlsutil

import (
	"crypto/x509"
	"strings"

	"golang.org/x/net/publicsuffix"
)

const defaultHostName = "_default_"

// CoversPattern reports whether cert is valid for every name the host
// pattern can select. The default host selects arbitrary names and is
// always covered. A wildcard pattern needs the same wildcard among the
// certificate's DNS names, or a Common Name fallback when it has none.
func CoversPattern(cert *x509.Certificate, pattern string) bool {
	if pattern == defaultHostName {
		return true
	}
	if !strings.HasPrefix(pattern, "*.") {
		return cert.VerifyHostname(pattern) == nil
	}

	for _, dnsName := range cert.DNSNames {
		if strings.EqualFold(dnsName, pattern) {
			return true
		}
	}
	if len(cert.DNSNames) == 0 && cert.Subject.CommonName != "" {
		return strings.EqualFold(cert.Subject.CommonName, pattern)
	}
	return false
}

// PublicSuffixWildcard reports whether pattern is a wildcard directly
// below a public suffix, such as "*.com" or "*.co.uk". Unlisted
// top-level labels count as public suffixes.
func PublicSuffixWildcard(pattern string) bool {
	suffix, ok := strings.CutPrefix(pattern, "*.")
	if !ok || suffix == "" {
		return false
	}
	ps, _ := publicsuffix.PublicSuffix(suffix)
	return ps == suffix
}
