package provider

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"os"
	"strconv"

	"tlsvhost/internal/config"
	"tlsvhost/internal/keymanager"
	"tlsvhost/internal/tlsctx"
)

// Std exposes everything crypto/tls considers secure.
type Std struct{}

func (*Std) Name() string { return "std" }

func (*Std) CreateContext() (*tlsctx.Context, error) {
	return tlsctx.New(), nil
}

// KeyManagers loads the host's PEM pairs and PKCS#12 keystore into a single
// aliased store.
func (*Std) KeyManagers(host *config.Host) ([]keymanager.KeyManager, error) {
	store := keymanager.NewStore()
	for i, c := range host.Certificates {
		alias := c.Alias
		if alias == "" {
			alias = strconv.Itoa(i + 1)
		}
		if err := store.LoadPEM(alias, c.CertificateFile, c.KeyFile); err != nil {
			return nil, err
		}
	}
	if host.Keystore.File != "" {
		if err := store.LoadPKCS12(host.Keystore.File, host.Keystore.Password); err != nil {
			return nil, err
		}
	}
	if len(store.Aliases()) == 0 {
		return nil, fmt.Errorf("no identities for host %q", host.Name)
	}
	return []keymanager.KeyManager{store}, nil
}

// TrustManagers reads the CA bundle used to verify client certificates.
func (*Std) TrustManagers(host *config.Host) ([]tlsctx.TrustManager, error) {
	if host.CACertificateFile == "" {
		return nil, nil
	}
	data, err := os.ReadFile(host.CACertificateFile)
	if err != nil {
		return nil, err
	}

	var trust tlsctx.CertificateTrust
	for block, rest := pem.Decode(data); block != nil; block, rest = pem.Decode(rest) {
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", host.CACertificateFile, err)
		}
		trust = append(trust, cert)
	}
	if len(trust) == 0 {
		return nil, fmt.Errorf("%s: no certificates found", host.CACertificateFile)
	}
	return []tlsctx.TrustManager{trust}, nil
}

func (*Std) SupportedCiphers() []string {
	suites := tls.CipherSuites()
	names := make([]string, 0, len(suites))
	for _, cs := range suites {
		names = append(names, cs.Name)
	}
	return names
}

func (*Std) SupportedProtocols() []string {
	return []string{tlsctx.ProtocolTLS10, tlsctx.ProtocolTLS11, tlsctx.ProtocolTLS12, tlsctx.ProtocolTLS13}
}

func (*Std) ConfigureSessionContext(sc *tlsctx.SessionContext, host *config.Host) error {
	sc.TicketsDisabled = host.DisableSessionTickets
	sc.TicketKeys = nil
	for i, s := range host.SessionTicketKeys {
		raw, err := hex.DecodeString(s)
		if err != nil || len(raw) != 32 {
			return fmt.Errorf("session_ticket_keys[%d]: want 64 hex characters", i)
		}
		var key [32]byte
		copy(key[:], raw)
		sc.TicketKeys = append(sc.TicketKeys, key)
	}
	return nil
}
