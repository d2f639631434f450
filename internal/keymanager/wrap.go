package keymanager

import (
	"crypto/tls"
	"fmt"
)

// Wrap pins every alias-capable manager in managers to alias. The result has
// the same length and order; managers without alias selection are passed
// through as is. An empty alias returns managers unchanged.
func Wrap(managers []KeyManager, alias string) []KeyManager {
	if alias == "" || managers == nil {
		return managers
	}
	result := make([]KeyManager, len(managers))
	for i, km := range managers {
		if x, ok := km.(X509KeyManager); ok {
			result[i] = &pinned{X509KeyManager: x, alias: alias}
		} else {
			result[i] = km
		}
	}
	return result
}

// pinned overrides server alias selection and delegates everything else.
type pinned struct {
	X509KeyManager
	alias string
}

func (p *pinned) ChooseServerAlias(*tls.ClientHelloInfo) string {
	return p.alias
}

func (p *pinned) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	cert, ok := p.CertificateByAlias(p.alias)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownAlias, p.alias)
	}
	return cert, nil
}
