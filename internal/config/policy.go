package config

import "strings"

// ClientAuth is the client certificate policy applied to every engine.
type ClientAuth int

const (
	ClientAuthNone ClientAuth = iota
	ClientAuthRequired
	ClientAuthOptional
)

func (c ClientAuth) String() string {
	switch c {
	case ClientAuthRequired:
		return "required"
	case ClientAuthOptional:
		return "optional"
	default:
		return "none"
	}
}

// ParseClientAuth maps the historical client_auth tokens. Matching is
// case-sensitive and anything unrecognised, including "", means none.
func ParseClientAuth(s string) ClientAuth {
	switch s {
	case "true", "yes":
		return ClientAuthRequired
	case "want":
		return ClientAuthOptional
	default:
		return ClientAuthNone
	}
}

// ParseCipherOrder reports whether the server's cipher order is binding.
// Only "true" and "yes" enable it, ignoring case and surrounding space.
func ParseCipherOrder(s string) bool {
	s = strings.TrimSpace(s)
	return strings.EqualFold(s, "true") || strings.EqualFold(s, "yes")
}

// EnginePolicy is the process-wide policy every negotiation engine is built with.
type EnginePolicy struct {
	ClientAuth        ClientAuth
	ServerCipherOrder bool
	KeyAlias          string
}
