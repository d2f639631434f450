package registry

import (
	"crypto/tls"
	"fmt"
	"slices"
	"strings"

	"tlsvhost/internal/config"
	"tlsvhost/internal/keymanager"
	"tlsvhost/internal/logger"
	"tlsvhost/internal/provider"
	"tlsvhost/internal/tlsctx"
	"tlsvhost/internal/tlsutil"
)

var defaultProtocols = []string{tlsctx.ProtocolTLS12, tlsctx.ProtocolTLS13}

// ContextEntry is an initialised TLS context together with the cipher
// suites and protocols engines created from it may enable.
type ContextEntry struct {
	pattern   string
	context   *tlsctx.Context
	ciphers   []string
	protocols []string
}

func (e *ContextEntry) Pattern() string          { return e.pattern }
func (e *ContextEntry) Context() *tlsctx.Context { return e.context }

// EnabledCiphers returns a copy of the enabled suites in preference order.
func (e *ContextEntry) EnabledCiphers() []string { return slices.Clone(e.ciphers) }

// EnabledProtocols returns a copy of the enabled protocols in preference order.
func (e *ContextEntry) EnabledProtocols() []string { return slices.Clone(e.protocols) }

// Builder turns host descriptors into context entries.
type Builder struct {
	Provider provider.Provider
	// KeyAlias applies to hosts that do not set their own.
	KeyAlias string
}

func (b *Builder) Build(host *config.Host) (*ContextEntry, error) {
	entry, err := b.build(host)
	if err != nil {
		return nil, &ConfigError{Host: host.Name, Provider: b.Provider.Name(), Err: err}
	}
	return entry, nil
}

func (b *Builder) build(host *config.Host) (*ContextEntry, error) {
	ctx, err := b.Provider.CreateContext()
	if err != nil {
		return nil, fmt.Errorf("create context: %w", err)
	}

	kms, err := b.Provider.KeyManagers(host)
	if err != nil {
		return nil, fmt.Errorf("key managers: %w", err)
	}
	alias := host.KeyAlias
	if alias == "" {
		alias = b.KeyAlias
	}
	kms = keymanager.Wrap(kms, alias)
	if err := checkAlias(kms, alias); err != nil {
		return nil, err
	}
	warnUncovered(host.Name, kms)

	tms, err := b.Provider.TrustManagers(host)
	if err != nil {
		return nil, fmt.Errorf("trust managers: %w", err)
	}
	if err := ctx.Init(kms, tms); err != nil {
		return nil, err
	}

	if sc := ctx.ServerSessionContext(); sc != nil {
		if sessions, ok := b.Provider.(provider.SessionConfigurer); ok {
			if err := sessions.ConfigureSessionContext(sc, host); err != nil {
				return nil, err
			}
		}
	}

	supportedCiphers := b.Provider.SupportedCiphers()
	ciphers := host.Ciphers
	if len(ciphers) == 0 {
		ciphers = supportedCiphers
	}
	ciphers = intersect(ciphers, supportedCiphers)

	protocols := host.Protocols
	if len(protocols) == 0 {
		protocols = defaultProtocols
	}
	protocols = intersect(protocols, b.Provider.SupportedProtocols())
	protocols, err = reconcileProtocols(host.Name, ciphers, protocols)
	if err != nil {
		return nil, err
	}

	return &ContextEntry{
		pattern:   host.Name,
		context:   ctx,
		ciphers:   ciphers,
		protocols: protocols,
	}, nil
}

// intersect keeps the entries of preferred found in supported, in preferred order.
func intersect(preferred, supported []string) []string {
	result := make([]string, 0, len(preferred))
	for _, name := range preferred {
		if slices.Contains(supported, name) && !slices.Contains(result, name) {
			result = append(result, name)
		}
	}
	return result
}

func checkAlias(kms []keymanager.KeyManager, alias string) error {
	if alias == "" {
		return nil
	}
	for _, km := range kms {
		if x, ok := km.(keymanager.X509KeyManager); ok {
			if _, found := x.CertificateByAlias(alias); !found {
				return fmt.Errorf("%w %q (have %v)", keymanager.ErrUnknownAlias, alias, x.Aliases())
			}
		}
	}
	return nil
}

// warnUncovered logs identities that clients reaching the host by one of
// its names would reject.
func warnUncovered(pattern string, kms []keymanager.KeyManager) {
	hello := &tls.ClientHelloInfo{}
	if !strings.HasPrefix(pattern, "*.") && pattern != config.DefaultHostName {
		hello.ServerName = pattern
	}
	for _, km := range kms {
		x, ok := km.(keymanager.X509KeyManager)
		if !ok {
			continue
		}
		alias := x.ChooseServerAlias(hello)
		cert, found := x.CertificateByAlias(alias)
		if !found || cert.Leaf == nil {
			continue
		}
		if !tlsutil.CoversPattern(cert.Leaf, pattern) {
			logger.Warn("TLS host %s: certificate %q is not valid for %s", pattern, alias, pattern)
		}
	}
}

// reconcileProtocols drops protocols crypto/tls could not restrict to the
// enabled suites: a version needs at least one enabled suite, and TLS 1.3
// needs all of its suites since they cannot be disabled one by one. The
// remaining versions must form a contiguous range.
func reconcileProtocols(pattern string, ciphers, protocols []string) ([]string, error) {
	tls13 := tlsctx.TLS13Suites()
	all13 := len(tls13) > 0
	for _, name := range tls13 {
		if !slices.Contains(ciphers, name) {
			all13 = false
		}
	}

	var kept []string
	var versions []uint16
	for _, p := range protocols {
		v, ok := tlsctx.ProtocolVersion(p)
		if !ok {
			continue
		}
		if !hasSuiteFor(ciphers, v) {
			logger.Warn("Host %s: disabling %s, no enabled cipher suite supports it", pattern, p)
			continue
		}
		if p == tlsctx.ProtocolTLS13 && !all13 {
			logger.Warn("Host %s: disabling %s, its cipher suites cannot be restricted individually (need all of %v)", pattern, p, tls13)
			continue
		}
		kept = append(kept, p)
		versions = append(versions, v)
	}

	if len(kept) == 0 {
		return nil, fmt.Errorf("no usable protocols among %v with ciphers %v", protocols, ciphers)
	}
	slices.Sort(versions)
	for i := 1; i < len(versions); i++ {
		if versions[i] != versions[i-1]+1 {
			return nil, fmt.Errorf("protocols %v do not form a contiguous range", kept)
		}
	}
	return kept, nil
}

func hasSuiteFor(ciphers []string, version uint16) bool {
	for _, name := range ciphers {
		cs, ok := tlsctx.CipherSuite(name)
		if ok && slices.Contains(cs.SupportedVersions, version) {
			return true
		}
	}
	return false
}
