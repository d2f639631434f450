package provider

import (
	"strings"

	"tlsvhost/internal/tlsctx"
)

// Strict limits hosts to TLS 1.2 and later with forward-secret AEAD suites.
type Strict struct {
	Std
}

func (*Strict) Name() string { return "strict" }

func (s *Strict) SupportedCiphers() []string {
	var names []string
	for _, name := range s.Std.SupportedCiphers() {
		cs, _ := tlsctx.CipherSuite(name)
		if tlsctx.IsTLS13Only(cs) {
			names = append(names, name)
			continue
		}
		if strings.Contains(name, "_ECDHE_") && (strings.Contains(name, "_GCM_") || strings.Contains(name, "CHACHA20")) {
			names = append(names, name)
		}
	}
	return names
}

func (*Strict) SupportedProtocols() []string {
	return []string{tlsctx.ProtocolTLS12, tlsctx.ProtocolTLS13}
}
