package registry

import (
	"crypto/tls"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tlsvhost/internal/certgen"
	"tlsvhost/internal/config"
	"tlsvhost/internal/keymanager"
	"tlsvhost/internal/provider"
)

type fixture struct {
	t   *testing.T
	dir string
	ca  *certgen.Authority
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ca, err := certgen.NewAuthority("registry test root")
	require.NoError(t, err)
	return &fixture{t: t, dir: t.TempDir(), ca: ca}
}

// host returns a host entry with one certificate issued for its pattern.
func (f *fixture) host(pattern string) config.Host {
	f.t.Helper()
	dnsName := pattern
	if pattern == config.DefaultHostName {
		dnsName = "localhost"
	}
	name := strings.NewReplacer("*", "wildcard", "_", "").Replace(pattern)
	certPath, keyPath, err := f.ca.IssueFiles(f.dir, name, dnsName)
	require.NoError(f.t, err)
	return config.Host{
		Name:         pattern,
		Certificates: []config.Certificate{{Alias: name, CertificateFile: certPath, KeyFile: keyPath}},
	}
}

func newRegistry(t *testing.T, hosts ...config.Host) *Registry {
	t.Helper()
	p, err := provider.Lookup("std")
	require.NoError(t, err)
	r := New(p, "")
	require.NoError(t, r.Init(hosts))
	return r
}

func TestLookup(t *testing.T) {
	f := newFixture(t)
	r := newRegistry(t, f.host("example.com"), f.host("*.example.com"), f.host(config.DefaultHostName))

	tests := []struct {
		sni  string
		want string
	}{
		{"example.com", "example.com"},
		{"api.example.com", "*.example.com"},
		{"www.example.com", "*.example.com"},
		{"other.org", config.DefaultHostName},
		// Only one label is substituted: "*.b.example.com" is not registered.
		{"a.b.example.com", config.DefaultHostName},
		{"example", config.DefaultHostName},
		{"", config.DefaultHostName},
		{".example.com", "*.example.com"},
		{"EXAMPLE.com", config.DefaultHostName},
	}

	for _, tt := range tests {
		t.Run(tt.sni, func(t *testing.T) {
			entry, err := r.Lookup(tt.sni)
			require.NoError(t, err)
			assert.Equal(t, tt.want, entry.Pattern())

			again, err := r.Lookup(tt.sni)
			require.NoError(t, err)
			assert.Same(t, entry, again)
		})
	}
}

func TestLookup_EntryBuiltFromHost(t *testing.T) {
	f := newFixture(t)
	r := newRegistry(t, f.host("example.com"), f.host("*.example.com"), f.host(config.DefaultHostName))

	for sni, wantDNS := range map[string]string{
		"example.com":     "example.com",
		"api.example.com": "*.example.com",
		"other.org":       "localhost",
	} {
		entry, err := r.Lookup(sni)
		require.NoError(t, err)
		cfg, err := entry.Context().NewServerConfig()
		require.NoError(t, err)
		cert, err := cfg.GetCertificate(&tls.ClientHelloInfo{ServerName: sni})
		require.NoError(t, err)
		assert.Equal(t, []string{wantDNS}, cert.Leaf.DNSNames, "sni %s", sni)
	}
}

func TestLookup_NoDefault(t *testing.T) {
	f := newFixture(t)
	r := newRegistry(t, f.host("example.com"))

	entry, err := r.Lookup("example.com")
	require.NoError(t, err)
	assert.Equal(t, "example.com", entry.Pattern())

	_, err = r.Lookup("other.org")
	assert.ErrorIs(t, err, ErrNoDefaultContext)
}

func TestInit_Atomic(t *testing.T) {
	f := newFixture(t)
	broken := f.host("broken.example.com")
	broken.Certificates[0].KeyFile = filepath.Join(f.dir, "missing.key")

	p, err := provider.Lookup("std")
	require.NoError(t, err)
	r := New(p, "")

	err = r.Init([]config.Host{f.host(config.DefaultHostName), broken})
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "broken.example.com", cerr.Host)
	assert.Equal(t, "std", cerr.Provider)
	assert.Contains(t, err.Error(), "broken.example.com")

	_, err = r.Lookup("anything")
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.Empty(t, r.Entries())

	require.NoError(t, r.Init([]config.Host{f.host(config.DefaultHostName)}))
}

func TestInit_NormalizesPatterns(t *testing.T) {
	f := newFixture(t)
	r := newRegistry(t, f.host("Example.COM"), f.host("*.Example.com"), f.host(config.DefaultHostName))

	for sni, want := range map[string]string{
		"example.com":     "example.com",
		"api.example.com": "*.example.com",
	} {
		entry, err := r.Lookup(sni)
		require.NoError(t, err)
		assert.Equal(t, want, entry.Pattern(), "sni %s", sni)
	}
}

func TestInit_Rejects(t *testing.T) {
	f := newFixture(t)
	def := f.host(config.DefaultHostName)

	tests := []struct {
		name  string
		hosts func() []config.Host
	}{
		{"duplicate", func() []config.Host { return []config.Host{def, f.host("a.com"), f.host("a.com")} }},
		{"duplicate after normalising", func() []config.Host { return []config.Host{def, f.host("a.com"), f.host("A.COM")} }},
		{"malformed pattern", func() []config.Host {
			h := f.host("a.com")
			h.Name = "*.*.a.com"
			return []config.Host{def, h}
		}},
		{"unknown alias", func() []config.Host {
			h := f.host("a.com")
			h.KeyAlias = "nope"
			return []config.Host{def, h}
		}},
		{"no usable protocol", func() []config.Host {
			h := f.host("a.com")
			h.Protocols = []string{"SSLv3"}
			return []config.Host{def, h}
		}},
		{"no usable cipher", func() []config.Host {
			h := f.host("a.com")
			h.Ciphers = []string{"TLS_NULL_WITH_NULL_NULL"}
			return []config.Host{def, h}
		}},
		{"protocol gap", func() []config.Host {
			h := f.host("a.com")
			h.Protocols = []string{"TLSv1", "TLSv1.2"}
			h.Ciphers = []string{"TLS_ECDHE_ECDSA_WITH_AES_128_CBC_SHA"}
			return []config.Host{def, h}
		}},
		{"bad ticket key", func() []config.Host {
			h := f.host("a.com")
			h.SessionTicketKeys = []string{"zz"}
			return []config.Host{def, h}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := provider.Lookup("std")
			r := New(p, "")
			err := r.Init(tt.hosts())
			var cerr *ConfigError
			require.ErrorAs(t, err, &cerr)
			assert.NotEqual(t, config.DefaultHostName, cerr.Host)
			assert.Nil(t, r.Entries())
		})
	}
}

func TestLifecycle(t *testing.T) {
	f := newFixture(t)
	hosts := []config.Host{f.host(config.DefaultHostName)}
	r := newRegistry(t, hosts...)

	assert.ErrorIs(t, r.Init(hosts), ErrAlreadyInitialized)

	r.Shutdown()
	r.Shutdown()
	_, err := r.Lookup("example.com")
	assert.ErrorIs(t, err, ErrNotInitialized)

	require.NoError(t, r.Init(hosts))
	_, err = r.Lookup("example.com")
	assert.NoError(t, err)
}

func TestBuild_EnabledLists(t *testing.T) {
	f := newFixture(t)

	h := f.host("a.com")
	h.Ciphers = []string{
		"TLS_FAKE_WITH_NOTHING",
		"TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384",
		"TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256",
		"TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384",
	}
	h.Protocols = []string{"TLSv1.3", "TLSv1.2", "SSLv3"}

	r := newRegistry(t, f.host(config.DefaultHostName), h)
	entry, err := r.Lookup("a.com")
	require.NoError(t, err)

	assert.Equal(t, []string{"TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384", "TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256"}, entry.EnabledCiphers())
	// TLS 1.3 suites were not listed, so TLSv1.3 cannot be offered.
	assert.Equal(t, []string{"TLSv1.2"}, entry.EnabledProtocols())

	ciphers := entry.EnabledCiphers()
	ciphers[0] = "mutated"
	assert.Equal(t, "TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384", entry.EnabledCiphers()[0])
}

func TestBuild_Defaults(t *testing.T) {
	f := newFixture(t)
	r := newRegistry(t, f.host(config.DefaultHostName))

	entry, err := r.Lookup("")
	require.NoError(t, err)
	p, _ := provider.Lookup("std")
	assert.Equal(t, p.SupportedCiphers(), entry.EnabledCiphers())
	assert.Equal(t, []string{"TLSv1.2", "TLSv1.3"}, entry.EnabledProtocols())
}

func TestBuild_TLS13Only(t *testing.T) {
	f := newFixture(t)
	h := f.host(config.DefaultHostName)
	h.Ciphers = []string{"TLS_AES_256_GCM_SHA384", "TLS_AES_128_GCM_SHA256", "TLS_CHACHA20_POLY1305_SHA256"}
	r := newRegistry(t, h)

	entry, err := r.Lookup("x")
	require.NoError(t, err)
	assert.Equal(t, []string{"TLSv1.3"}, entry.EnabledProtocols())
}

func TestBuild_StrictProvider(t *testing.T) {
	f := newFixture(t)
	h := f.host(config.DefaultHostName)
	h.Protocols = []string{"TLSv1.1", "TLSv1.2"}

	p, err := provider.Lookup("strict")
	require.NoError(t, err)
	r := New(p, "")
	require.NoError(t, r.Init([]config.Host{h}))

	entry, err := r.Lookup("x")
	require.NoError(t, err)
	assert.Equal(t, []string{"TLSv1.2"}, entry.EnabledProtocols())
	for _, c := range entry.EnabledCiphers() {
		assert.NotContains(t, c, "CBC")
	}
}

func TestBuild_KeyAlias(t *testing.T) {
	f := newFixture(t)
	first, firstKey, err := f.ca.IssueFiles(f.dir, "first", "a.example.com")
	require.NoError(t, err)
	second, secondKey, err := f.ca.IssueFiles(f.dir, "second", "b.example.com")
	require.NoError(t, err)

	host := func(alias string) config.Host {
		return config.Host{
			Name: config.DefaultHostName,
			Certificates: []config.Certificate{
				{Alias: "first", CertificateFile: first, KeyFile: firstKey},
				{Alias: "second", CertificateFile: second, KeyFile: secondKey},
			},
			KeyAlias: alias,
		}
	}

	served := func(r *Registry, sni string) string {
		entry, err := r.Lookup(sni)
		require.NoError(t, err)
		cfg, err := entry.Context().NewServerConfig()
		require.NoError(t, err)
		cert, err := cfg.GetCertificate(&tls.ClientHelloInfo{ServerName: sni})
		require.NoError(t, err)
		return cert.Leaf.DNSNames[0]
	}

	p, _ := provider.Lookup("std")

	// Without a pin the store picks the matching identity.
	r := New(p, "")
	require.NoError(t, r.Init([]config.Host{host("")}))
	assert.Equal(t, "a.example.com", served(r, "a.example.com"))

	// The host alias pins the identity regardless of the requested name.
	r = New(p, "")
	require.NoError(t, r.Init([]config.Host{host("second")}))
	assert.Equal(t, "b.example.com", served(r, "a.example.com"))
	kms := r.Entries()[0].Context().KeyManagers()
	x, ok := kms[0].(keymanager.X509KeyManager)
	require.True(t, ok)
	assert.Equal(t, "second", x.ChooseServerAlias(nil))

	// The endpoint alias applies when the host has none, and a host alias wins over it.
	r = New(p, "second")
	require.NoError(t, r.Init([]config.Host{host("")}))
	assert.Equal(t, "b.example.com", served(r, "a.example.com"))

	r = New(p, "second")
	require.NoError(t, r.Init([]config.Host{host("first")}))
	assert.Equal(t, "a.example.com", served(r, "b.example.com"))
}

func TestLookup_Concurrent(t *testing.T) {
	f := newFixture(t)
	r := newRegistry(t, f.host("example.com"), f.host("*.example.com"), f.host(config.DefaultHostName))

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			names := []string{"example.com", "x.example.com", "other.org"}
			for j := 0; j < 100; j++ {
				if _, err := r.Lookup(names[(i+j)%len(names)]); err != nil {
					errs <- err
					return
				}
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestConfigError_Unwrap(t *testing.T) {
	inner := errors.New("inner")
	err := error(&ConfigError{Host: "a.com", Provider: "std", Err: inner})
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, `tls host "a.com" (provider std): inner`, err.Error())
}
