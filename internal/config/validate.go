package config

import (
	"fmt"

	"tlsvhost/internal/logger"
	"tlsvhost/internal/tlsutil"
)

// ValidationError identifies the host entry that made a configuration unusable.
type ValidationError struct {
	Host   string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Host == "" {
		return "config: " + e.Reason
	}
	return fmt.Sprintf("config: host %q: %s", e.Host, e.Reason)
}

// Validate normalises host patterns in place and checks the guarantees the
// registry relies on: unique patterns, identity material on every host and a
// default host. Wildcards over a public suffix such as "*.com" are only logged.
func Validate(cfg *Config) error {
	if len(cfg.Hosts) == 0 {
		return &ValidationError{Reason: "no hosts configured"}
	}

	seen := make(map[string]bool, len(cfg.Hosts))
	hasDefault := false
	for i := range cfg.Hosts {
		h := &cfg.Hosts[i]

		name, kind, err := NormalizePattern(h.Name)
		if err != nil {
			return &ValidationError{Host: h.Name, Reason: err.Error()}
		}
		if kind == PatternWildcard && tlsutil.PublicSuffixWildcard(name) {
			logger.Warn("Host %s is a wildcard directly below a public suffix", name)
		}
		if seen[name] {
			return &ValidationError{Host: h.Name, Reason: "duplicate host name"}
		}
		seen[name] = true
		h.Name = name
		if kind == PatternDefault {
			hasDefault = true
		}

		if len(h.Certificates) == 0 && h.Keystore.File == "" {
			return &ValidationError{Host: h.Name, Reason: "no certificate or keystore configured"}
		}
		for _, c := range h.Certificates {
			if c.CertificateFile == "" || c.KeyFile == "" {
				return &ValidationError{Host: h.Name, Reason: fmt.Sprintf("certificate %q needs both certificate_file and key_file", c.Alias)}
			}
		}
	}

	if !hasDefault {
		return &ValidationError{Reason: fmt.Sprintf("no %q host configured", DefaultHostName)}
	}
	return nil
}
