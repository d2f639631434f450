// Package provider resolves a TLS implementation name to the capability
// object contexts are built with.
package provider

import (
	"errors"
	"fmt"
	"sort"

	"tlsvhost/internal/config"
	"tlsvhost/internal/keymanager"
	"tlsvhost/internal/tlsctx"
)

// Provider creates TLS contexts and loads the material they are built from.
type Provider interface {
	Name() string
	CreateContext() (*tlsctx.Context, error)
	KeyManagers(host *config.Host) ([]keymanager.KeyManager, error)
	TrustManagers(host *config.Host) ([]tlsctx.TrustManager, error)
	// SupportedCiphers lists the cipher suites that can be enabled, in the
	// provider's preference order.
	SupportedCiphers() []string
	SupportedProtocols() []string
}

// SessionConfigurer is implemented by providers that configure session
// resumption for a host.
type SessionConfigurer interface {
	ConfigureSessionContext(sc *tlsctx.SessionContext, host *config.Host) error
}

var ErrUnknownProvider = errors.New("unknown TLS provider")

var providers = map[string]func() Provider{
	"std":    func() Provider { return &Std{} },
	"strict": func() Provider { return &Strict{} },
}

// Lookup returns a new Provider for name. The empty name selects "std".
func Lookup(name string) (Provider, error) {
	if name == "" {
		name = "std"
	}
	newFn, ok := providers[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %v)", ErrUnknownProvider, name, Names())
	}
	return newFn(), nil
}

func Names() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
