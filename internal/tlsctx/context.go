// Package tlsctx holds the per-host TLS context engines are created from.
package tlsctx

import (
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"slices"

	"tlsvhost/internal/keymanager"
)

var (
	ErrNotInitialized     = errors.New("tlsctx: context not initialised")
	ErrAlreadyInitialized = errors.New("tlsctx: context already initialised")
	ErrNoKeyManagers      = errors.New("tlsctx: no key managers")
	errNoCertificate      = errors.New("tlsctx: no certificate available")
)

// TrustManager supplies the issuers accepted for client certificates.
type TrustManager interface {
	AcceptedIssuers() []*x509.Certificate
}

// CertificateTrust trusts a fixed list of issuers.
type CertificateTrust []*x509.Certificate

func (c CertificateTrust) AcceptedIssuers() []*x509.Certificate {
	return c
}

// SessionContext carries server-side session resumption settings.
type SessionContext struct {
	TicketsDisabled bool
	TicketKeys      [][32]byte
}

// Context is the certificate and trust configuration of one host. It is
// initialised once and read concurrently afterwards.
type Context struct {
	keyManagers []keymanager.KeyManager
	clientCAs   *x509.CertPool
	session     SessionContext
	// ticketKey encrypts session tickets when no keys are configured, so a
	// ticket issued for one host never resumes on another.
	ticketKey   [32]byte
	initialized bool
}

func New() *Context {
	return &Context{}
}

// Init installs identities and trust material. Trust material is optional.
func (c *Context) Init(kms []keymanager.KeyManager, tms []TrustManager) error {
	if c.initialized {
		return ErrAlreadyInitialized
	}
	if len(kms) == 0 {
		return ErrNoKeyManagers
	}

	var pool *x509.CertPool
	for _, tm := range tms {
		for _, cert := range tm.AcceptedIssuers() {
			if pool == nil {
				pool = x509.NewCertPool()
			}
			pool.AddCert(cert)
		}
	}

	if _, err := rand.Read(c.ticketKey[:]); err != nil {
		return fmt.Errorf("tlsctx: session ticket key: %w", err)
	}
	c.keyManagers = slices.Clone(kms)
	c.clientCAs = pool
	c.initialized = true
	return nil
}

// ServerSessionContext returns the session settings, or nil before Init.
func (c *Context) ServerSessionContext() *SessionContext {
	if !c.initialized {
		return nil
	}
	return &c.session
}

func (c *Context) KeyManagers() []keymanager.KeyManager {
	return slices.Clone(c.keyManagers)
}

// NewServerConfig returns a fresh server-side tls.Config bound to c.
func (c *Context) NewServerConfig() (*tls.Config, error) {
	if c == nil || !c.initialized {
		return nil, ErrNotInitialized
	}
	cfg := &tls.Config{
		GetCertificate:         c.getCertificate,
		ClientCAs:              c.clientCAs,
		SessionTicketsDisabled: c.session.TicketsDisabled,
	}
	keys := c.session.TicketKeys
	if len(keys) == 0 {
		keys = [][32]byte{c.ticketKey}
	}
	cfg.SetSessionTicketKeys(keys)
	return cfg, nil
}

// getCertificate asks each key manager in order and serves the first hit.
func (c *Context) getCertificate(hello *tls.ClientHelloInfo) (*tls.Certificate, error) {
	err := errNoCertificate
	for _, km := range c.keyManagers {
		cert, kmErr := km.GetCertificate(hello)
		if kmErr != nil {
			err = kmErr
			continue
		}
		if cert != nil {
			return cert, nil
		}
	}
	return nil, err
}
