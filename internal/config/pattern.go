package config

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/idna"
)

type PatternKind int

const (
	PatternExact PatternKind = iota
	PatternWildcard
	PatternDefault
)

var errEmptyPattern = errors.New("empty host name")

// hostProfile case-folds and punycode-encodes host names without the STD3
// and hyphen rules, so names such as "my_host" or "ab--cd" are accepted.
var hostProfile = idna.New(
	idna.MapForLookup(),
	idna.BidiRule(),
	idna.StrictDomainName(false),
	idna.CheckHyphens(false),
)

// NormalizePattern validates a host pattern and returns its canonical form:
// the default marker, a lower-case ASCII hostname, or "*." followed by one.
func NormalizePattern(pattern string) (string, PatternKind, error) {
	if pattern == DefaultHostName {
		return pattern, PatternDefault, nil
	}
	if pattern == "" {
		return "", 0, errEmptyPattern
	}

	kind := PatternExact
	name := pattern
	if suffix, ok := strings.CutPrefix(pattern, "*."); ok {
		kind = PatternWildcard
		name = suffix
	}
	if name == "" || strings.Contains(name, "*") {
		return "", 0, fmt.Errorf("unsupported wildcard in %q, only a single leading \"*.\" label is allowed", pattern)
	}

	ascii, err := hostProfile.ToASCII(name)
	if err != nil {
		return "", 0, fmt.Errorf("invalid host name %q: %w", pattern, err)
	}
	if i := strings.IndexFunc(ascii, invalidHostRune); i >= 0 {
		return "", 0, fmt.Errorf("invalid host name %q: character %q not allowed", pattern, ascii[i])
	}
	if kind == PatternWildcard {
		return "*." + ascii, kind, nil
	}
	return ascii, kind, nil
}

func invalidHostRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		return false
	case r == '-', r == '_', r == '.':
		return false
	}
	return true
}
