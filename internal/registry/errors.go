package registry

import (
	"errors"
	"fmt"
)

var (
	// ErrNoDefaultContext means a lookup fell through with no "_default_"
	// entry. Validated configuration always has one, so this is a fault in
	// whatever produced the host list, not a per-connection miss.
	ErrNoDefaultContext   = errors.New("registry: no default TLS context")
	ErrNotInitialized     = errors.New("registry: not initialised")
	ErrAlreadyInitialized = errors.New("registry: already initialised")
)

// ConfigError aborts Init. Host is the offending pattern.
type ConfigError struct {
	Host     string
	Provider string
	Err      error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("tls host %q (provider %s): %v", e.Host, e.Provider, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
