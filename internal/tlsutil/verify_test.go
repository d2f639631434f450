package tlsutil

import (
	"crypto/x509"
	"crypto/x509/pkix"
	"testing"
)

func TestCoversPattern(t *testing.T) {
	cert := &x509.Certificate{
		DNSNames: []string{"example.com", "*.example.org"},
	}

	tests := []struct {
		name    string
		pattern string
		want    bool
	}{
		{"Default", "_default_", true},
		{"Exact - Match", "example.com", true},
		{"Exact - Via Wildcard SAN", "www.example.org", true},
		{"Exact - No Match", "other.com", false},
		{"Exact - Too Deep", "a.b.example.org", false},
		{"Wildcard - Match", "*.example.org", true},
		{"Wildcard - Case", "*.EXAMPLE.org", true},
		{"Wildcard - Exact SAN Only", "*.example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CoversPattern(cert, tt.pattern); got != tt.want {
				t.Errorf("CoversPattern(%q) = %v, want %v", tt.pattern, got, tt.want)
			}
		})
	}
}

func TestCoversPattern_CommonName(t *testing.T) {
	cert := &x509.Certificate{Subject: pkix.Name{CommonName: "*.example.net"}}
	if !CoversPattern(cert, "*.example.net") {
		t.Error("expected wildcard Common Name to cover the pattern")
	}
	if CoversPattern(cert, "*.other.net") {
		t.Error("unexpected match for a different wildcard")
	}
}

func TestPublicSuffixWildcard(t *testing.T) {
	tests := []struct {
		pattern string
		want    bool
	}{
		{"*.com", true},
		{"*.co.uk", true},
		{"*.example.com", false},
		{"*.a.example.co.uk", false},
		{"example.com", false},
		{"_default_", false},
		{"*.", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			if got := PublicSuffixWildcard(tt.pattern); got != tt.want {
				t.Errorf("PublicSuffixWildcard(%q) = %v, want %v", tt.pattern, got, tt.want)
			}
		})
	}
}
