package config

// DefaultHostName is the reserved host pattern for the fallback context.
const DefaultHostName = "_default_"

type Config struct {
	Provider          string       `toml:"provider"`
	ClientAuth        string       `toml:"client_auth"`                    // "false", "true"/"yes", "want"
	ServerCipherOrder string       `toml:"use_server_cipher_suites_order"` // "true"/"yes", case-insensitive
	KeyAlias          string       `toml:"key_alias"`
	Log               LogConfig    `toml:"log"`
	Server            ServerConfig `toml:"server"`
	Hosts             []Host       `toml:"host"`
}

type LogConfig struct {
	Level string `toml:"loglevel"`
	File  string `toml:"logfile"`
}

type ServerConfig struct {
	Address  string `toml:"address"`
	Port     int    `toml:"port"`
	MaxConns int    `toml:"max_conns"`
}

// Host describes one virtual host and the material its TLS context is built from.
type Host struct {
	Name              string        `toml:"name"`
	Certificates      []Certificate `toml:"certificate"`
	Keystore          Keystore      `toml:"keystore"`
	CACertificateFile string        `toml:"ca_certificate_file"`
	Ciphers           []string      `toml:"ciphers"`
	Protocols         []string      `toml:"protocols"`
	KeyAlias          string        `toml:"key_alias"`

	DisableSessionTickets bool     `toml:"disable_session_tickets"`
	SessionTicketKeys     []string `toml:"session_ticket_keys"` // hex, 32 bytes each
}

type Certificate struct {
	Alias           string `toml:"alias"`
	CertificateFile string `toml:"certificate_file"`
	KeyFile         string `toml:"key_file"`
}

// Keystore is a PKCS#12 file holding one or more aliased identities.
type Keystore struct {
	File     string `toml:"file"`
	Password string `toml:"password"`
}

// Policy converts the historical string settings into an EnginePolicy.
func (c *Config) Policy() EnginePolicy {
	return EnginePolicy{
		ClientAuth:        ParseClientAuth(c.ClientAuth),
		ServerCipherOrder: ParseCipherOrder(c.ServerCipherOrder),
		KeyAlias:          c.KeyAlias,
	}
}
