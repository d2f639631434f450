package keymanager

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"

	"software.sslmate.com/src/go-pkcs12"
)

// Store is an X509KeyManager over an ordered set of aliased certificates.
type Store struct {
	certs map[string]*tls.Certificate
	order []string
}

func NewStore() *Store {
	return &Store{certs: make(map[string]*tls.Certificate)}
}

// Add registers cert under alias. Aliases are case-insensitive.
func (s *Store) Add(alias string, cert *tls.Certificate) error {
	alias = strings.ToLower(alias)
	if _, ok := s.certs[alias]; ok {
		return fmt.Errorf("keymanager: duplicate alias %q", alias)
	}
	if cert.Leaf == nil && len(cert.Certificate) > 0 {
		leaf, err := x509.ParseCertificate(cert.Certificate[0])
		if err != nil {
			return fmt.Errorf("keymanager: alias %q: %w", alias, err)
		}
		cert.Leaf = leaf
	}
	s.certs[alias] = cert
	s.order = append(s.order, alias)
	return nil
}

// LoadPEM adds the certificate chain and private key read from two PEM files.
func (s *Store) LoadPEM(alias, certFile, keyFile string) error {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return fmt.Errorf("keymanager: load %s: %w", certFile, err)
	}
	return s.Add(alias, &cert)
}

// LoadPKCS12 adds every identity in a PKCS#12 keystore, using the bag's
// friendlyName as alias. Certificates are paired with keys by localKeyId.
func (s *Store) LoadPKCS12(file, password string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("keymanager: %w", err)
	}
	blocks, err := pkcs12.ToPEM(data, password)
	if err != nil {
		return fmt.Errorf("keymanager: decode %s: %w", file, err)
	}

	type entry struct {
		alias string
		chain [][]byte
		key   interface{}
	}
	var entries []*entry
	byID := make(map[string]*entry)
	get := func(b *pem.Block) *entry {
		id := b.Headers["localKeyId"]
		if e, ok := byID[id]; ok && id != "" {
			return e
		}
		e := &entry{}
		entries = append(entries, e)
		if id != "" {
			byID[id] = e
		}
		return e
	}

	var caChain [][]byte
	for _, b := range blocks {
		switch b.Type {
		case "CERTIFICATE":
			if b.Headers["localKeyId"] == "" {
				caChain = append(caChain, b.Bytes)
				continue
			}
			e := get(b)
			e.chain = append(e.chain, b.Bytes)
			if e.alias == "" {
				e.alias = b.Headers["friendlyName"]
			}
		case "PRIVATE KEY":
			key, err := parsePrivateKey(b.Bytes)
			if err != nil {
				return fmt.Errorf("keymanager: %s: %w", file, err)
			}
			e := get(b)
			e.key = key
			if e.alias == "" {
				e.alias = b.Headers["friendlyName"]
			}
		}
	}

	added := 0
	for i, e := range entries {
		if e.key == nil || len(e.chain) == 0 {
			continue
		}
		alias := e.alias
		if alias == "" {
			alias = fmt.Sprintf("%d", i+1)
		}
		cert := &tls.Certificate{
			Certificate: append(e.chain, caChain...),
			PrivateKey:  e.key,
		}
		if err := s.Add(alias, cert); err != nil {
			return err
		}
		added++
	}
	if added == 0 {
		return fmt.Errorf("keymanager: %s holds no private key entries", file)
	}
	return nil
}

func parsePrivateKey(der []byte) (interface{}, error) {
	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return key, nil
	}
	if key, err := x509.ParseECPrivateKey(der); err == nil {
		return key, nil
	}
	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, errors.New("unsupported private key encoding")
	}
	switch key.(type) {
	case *rsa.PrivateKey, *ecdsa.PrivateKey, ed25519.PrivateKey:
		return key, nil
	}
	return nil, fmt.Errorf("unsupported private key type %T", key)
}

func (s *Store) Aliases() []string {
	return append([]string(nil), s.order...)
}

func (s *Store) CertificateByAlias(alias string) (*tls.Certificate, bool) {
	cert, ok := s.certs[strings.ToLower(alias)]
	return cert, ok
}

// ChooseServerAlias returns the first alias whose leaf is valid for the
// requested server name, else the first alias. It returns "" when empty.
func (s *Store) ChooseServerAlias(hello *tls.ClientHelloInfo) string {
	if len(s.order) == 0 {
		return ""
	}
	if hello != nil && hello.ServerName != "" {
		for _, alias := range s.order {
			leaf := s.certs[alias].Leaf
			if leaf != nil && leaf.VerifyHostname(hello.ServerName) == nil {
				return alias
			}
		}
	}
	return s.order[0]
}

func (s *Store) GetCertificate(hello *tls.ClientHelloInfo) (*tls.Certificate, error) {
	alias := s.ChooseServerAlias(hello)
	if alias == "" {
		return nil, errors.New("keymanager: empty key store")
	}
	return s.certs[alias], nil
}
