// Package registry maps SNI host names to the TLS context serving them.
package registry

import (
	"errors"
	"sort"
	"strings"
	"sync/atomic"

	"tlsvhost/internal/config"
	"tlsvhost/internal/logger"
	"tlsvhost/internal/provider"
)

// Registry resolves SNI names to context entries. The mapping is built by
// Init and never modified until Shutdown, so lookups take no locks.
type Registry struct {
	builder  *Builder
	contexts atomic.Pointer[map[string]*ContextEntry]
}

// New returns an empty registry building contexts with p. keyAlias pins
// hosts that do not name their own alias.
func New(p provider.Provider, keyAlias string) *Registry {
	return &Registry{builder: &Builder{Provider: p, KeyAlias: keyAlias}}
}

// Init builds one entry per host, keyed by its normalised host pattern. Either every entry is
// built and published, or Init fails and the registry stays empty.
func (r *Registry) Init(hosts []config.Host) error {
	if r.contexts.Load() != nil {
		return ErrAlreadyInitialized
	}

	contexts := make(map[string]*ContextEntry, len(hosts))
	for i := range hosts {
		name, _, err := config.NormalizePattern(hosts[i].Name)
		if err != nil {
			return &ConfigError{Host: hosts[i].Name, Provider: r.builder.Provider.Name(), Err: err}
		}
		if _, dup := contexts[name]; dup {
			return &ConfigError{Host: hosts[i].Name, Provider: r.builder.Provider.Name(), Err: errors.New("duplicate host name")}
		}
		host := hosts[i]
		host.Name = name

		entry, err := r.builder.Build(&host)
		if err != nil {
			return err
		}
		contexts[name] = entry
		logger.Debug("Built TLS context for %s: protocols %v, %d cipher suites", name, entry.protocols, len(entry.ciphers))
	}

	if !r.contexts.CompareAndSwap(nil, &contexts) {
		return ErrAlreadyInitialized
	}
	logger.Info("TLS registry ready with %d hosts (provider %s)", len(contexts), r.builder.Provider.Name())
	return nil
}

// Lookup resolves sniName by exact match, then by the wildcard formed from
// its first dot onwards ("a.b.example.com" tries "*.b.example.com" only),
// then by the default entry.
func (r *Registry) Lookup(sniName string) (*ContextEntry, error) {
	m := r.contexts.Load()
	if m == nil {
		return nil, ErrNotInitialized
	}
	contexts := *m

	if entry, ok := contexts[sniName]; ok {
		return entry, nil
	}
	if i := strings.IndexByte(sniName, '.'); i >= 0 {
		if entry, ok := contexts["*"+sniName[i:]]; ok {
			return entry, nil
		}
	}
	if entry, ok := contexts[config.DefaultHostName]; ok {
		return entry, nil
	}
	return nil, ErrNoDefaultContext
}

// Entries returns the registered entries sorted by pattern.
func (r *Registry) Entries() []*ContextEntry {
	m := r.contexts.Load()
	if m == nil {
		return nil
	}
	entries := make([]*ContextEntry, 0, len(*m))
	for _, e := range *m {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].pattern < entries[j].pattern })
	return entries
}

// Shutdown drops every entry. It is safe to call repeatedly, and Init may
// be called again afterwards. Callers must stop all lookups first.
func (r *Registry) Shutdown() {
	r.contexts.Store(nil)
}
