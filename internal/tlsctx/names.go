package tlsctx

import (
	"crypto/tls"
	"slices"
)

// Protocol names as they appear in host configuration.
const (
	ProtocolTLS10 = "TLSv1"
	ProtocolTLS11 = "TLSv1.1"
	ProtocolTLS12 = "TLSv1.2"
	ProtocolTLS13 = "TLSv1.3"
)

var protocolVersions = map[string]uint16{
	ProtocolTLS10: tls.VersionTLS10,
	ProtocolTLS11: tls.VersionTLS11,
	ProtocolTLS12: tls.VersionTLS12,
	ProtocolTLS13: tls.VersionTLS13,
}

var (
	suitesByName = map[string]*tls.CipherSuite{}
	tls13Suites  []string
)

func init() {
	for _, list := range [][]*tls.CipherSuite{tls.CipherSuites(), tls.InsecureCipherSuites()} {
		for _, cs := range list {
			suitesByName[cs.Name] = cs
			if IsTLS13Only(cs) {
				tls13Suites = append(tls13Suites, cs.Name)
			}
		}
	}
}

// ProtocolVersion maps a protocol name to its wire version.
func ProtocolVersion(name string) (uint16, bool) {
	v, ok := protocolVersions[name]
	return v, ok
}

// ProtocolName is the inverse of ProtocolVersion.
func ProtocolName(version uint16) string {
	for name, v := range protocolVersions {
		if v == version {
			return name
		}
	}
	return tls.VersionName(version)
}

// CipherSuite looks a suite up by its IANA name.
func CipherSuite(name string) (*tls.CipherSuite, bool) {
	cs, ok := suitesByName[name]
	return cs, ok
}

// IsTLS13Only reports whether cs can only be negotiated under TLS 1.3.
// Such suites cannot be toggled individually in crypto/tls.
func IsTLS13Only(cs *tls.CipherSuite) bool {
	return len(cs.SupportedVersions) == 1 && cs.SupportedVersions[0] == tls.VersionTLS13
}

// TLS13Suites returns the names of all TLS 1.3 suites crypto/tls negotiates.
func TLS13Suites() []string {
	return slices.Clone(tls13Suites)
}
