// Package keymanager supplies server identities to TLS contexts and pins
// them to a configured key alias.
package keymanager

import (
	"crypto/tls"
	"errors"
)

// KeyManager chooses the certificate presented for a handshake.
type KeyManager interface {
	GetCertificate(hello *tls.ClientHelloInfo) (*tls.Certificate, error)
}

// X509KeyManager is a KeyManager holding several aliased identities that can
// be selected by alias.
type X509KeyManager interface {
	KeyManager
	Aliases() []string
	ChooseServerAlias(hello *tls.ClientHelloInfo) string
	CertificateByAlias(alias string) (*tls.Certificate, bool)
}

// ErrUnknownAlias is returned when a pinned alias is missing from its store.
var ErrUnknownAlias = errors.New("keymanager: unknown key alias")

// Static serves a single certificate and has no notion of aliases.
type Static struct {
	Certificate *tls.Certificate
}

func (s *Static) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	return s.Certificate, nil
}
