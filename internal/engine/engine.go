// Package engine creates the per-connection TLS configuration for a
// handshake from the context registered for its SNI name.
package engine

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"slices"

	"tlsvhost/internal/config"
	"tlsvhost/internal/registry"
	"tlsvhost/internal/tlsctx"
)

// Error reports a failure to create an engine for one connection.
type Error struct {
	ServerName string
	Pattern    string
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("engine for %q (host %q): %v", e.ServerName, e.Pattern, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Engine is the server-side negotiation state for a single connection.
type Engine struct {
	entry       *registry.ContextEntry
	config      *tls.Config
	wantAuth    bool
	needAuth    bool
	ciphers     []string
	protocols   []string
	cipherOrder bool
}

// Factory creates engines. It holds no mutable state and may be used from
// any number of goroutines.
type Factory struct {
	registry *registry.Registry
	policy   config.EnginePolicy
}

func NewFactory(r *registry.Registry, policy config.EnginePolicy) *Factory {
	return &Factory{registry: r, policy: policy}
}

// NewEngine resolves sniName and returns a fresh engine restricted to the
// resolved entry's cipher suites and protocols. Registry faults are
// returned unchanged; anything else is wrapped in *Error.
func (f *Factory) NewEngine(sniName string) (*Engine, error) {
	entry, err := f.registry.Lookup(sniName)
	if err != nil {
		return nil, err
	}
	e, err := New(entry, f.policy)
	if err != nil {
		return nil, &Error{ServerName: sniName, Pattern: entry.Pattern(), Err: err}
	}
	return e, nil
}

// New builds an engine on entry's context.
func New(entry *registry.ContextEntry, policy config.EnginePolicy) (*Engine, error) {
	cfg, err := entry.Context().NewServerConfig()
	if err != nil {
		return nil, err
	}
	e := &Engine{entry: entry, config: cfg}

	e.setClientAuth(policy.ClientAuth)
	if err := e.setEnabledCipherSuites(entry.EnabledCiphers()); err != nil {
		return nil, err
	}
	if err := e.setEnabledProtocols(entry.EnabledProtocols()); err != nil {
		return nil, err
	}
	e.setUseCipherSuitesOrder(policy.ServerCipherOrder)
	return e, nil
}

func (e *Engine) setClientAuth(mode config.ClientAuth) {
	switch mode {
	case config.ClientAuthRequired:
		e.needAuth = true
		e.config.ClientAuth = tls.RequireAndVerifyClientCert
	case config.ClientAuthOptional:
		e.wantAuth = true
		e.config.ClientAuth = tls.VerifyClientCertIfGiven
	default:
		e.config.ClientAuth = tls.NoClientCert
	}
}

// setEnabledCipherSuites installs names in order. TLS 1.3 suites are not
// configurable in crypto/tls; the registry only enables TLS 1.3 when all of
// them are listed.
func (e *Engine) setEnabledCipherSuites(names []string) error {
	ids := make([]uint16, 0, len(names))
	for _, name := range names {
		cs, ok := tlsctx.CipherSuite(name)
		if !ok {
			return fmt.Errorf("unknown cipher suite %q", name)
		}
		if !tlsctx.IsTLS13Only(cs) {
			ids = append(ids, cs.ID)
		}
	}
	e.ciphers = names
	e.config.CipherSuites = ids
	return nil
}

func (e *Engine) setEnabledProtocols(names []string) error {
	if len(names) == 0 {
		return errors.New("no protocols enabled")
	}
	var versions []uint16
	for _, name := range names {
		v, ok := tlsctx.ProtocolVersion(name)
		if !ok {
			return fmt.Errorf("unknown protocol %q", name)
		}
		versions = append(versions, v)
	}
	e.protocols = names
	e.config.MinVersion = slices.Min(versions)
	e.config.MaxVersion = slices.Max(versions)
	return nil
}

func (e *Engine) setUseCipherSuitesOrder(enforce bool) {
	e.cipherOrder = enforce
	//lint:ignore SA1019 recorded for parity with the configured policy
	e.config.PreferServerCipherSuites = enforce
}

// Config returns the tls.Config for this connection. It must not be shared
// with other connections.
func (e *Engine) Config() *tls.Config { return e.config }

// Server wraps conn in a server-side TLS connection driven by e.
func (e *Engine) Server(conn net.Conn) *tls.Conn {
	return tls.Server(conn, e.config)
}

// Pattern is the host pattern the engine's context is registered under.
func (e *Engine) Pattern() string { return e.entry.Pattern() }

// UseClientMode is always false: engines only accept connections.
func (e *Engine) UseClientMode() bool { return false }

func (e *Engine) WantClientAuth() bool { return e.wantAuth }
func (e *Engine) NeedClientAuth() bool { return e.needAuth }

func (e *Engine) EnabledCipherSuites() []string { return slices.Clone(e.ciphers) }
func (e *Engine) EnabledProtocols() []string    { return slices.Clone(e.protocols) }

// UseCipherSuitesOrder reports whether the server's cipher order is binding.
func (e *Engine) UseCipherSuitesOrder() bool { return e.cipherOrder }
