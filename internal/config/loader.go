package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// DefaultConfig returns the embedded defaults. It holds no hosts.
func DefaultConfig() Config {
	var cfg Config
	if err := toml.Unmarshal([]byte(DefaultConfigTOML), &cfg); err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// LoadConfig reads path over the embedded defaults. Relative certificate
// paths are resolved against the directory of path.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.resolvePaths(filepath.Dir(path))
	return &cfg, nil
}

// LoadAndValidate is LoadConfig followed by Validate.
func LoadAndValidate(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) resolvePaths(dir string) {
	for i := range c.Hosts {
		h := &c.Hosts[i]
		for j := range h.Certificates {
			h.Certificates[j].CertificateFile = GetPath(dir, h.Certificates[j].CertificateFile)
			h.Certificates[j].KeyFile = GetPath(dir, h.Certificates[j].KeyFile)
		}
		h.Keystore.File = GetPath(dir, h.Keystore.File)
		h.CACertificateFile = GetPath(dir, h.CACertificateFile)
	}
	c.Log.File = GetPath(dir, c.Log.File)
}

// WriteSample writes the sample configuration to path unless it exists.
func WriteSample(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists", path)
	} else if err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(SampleConfigTOML), 0644)
}

// GetPath resolves a possibly relative file name against workDir.
// Empty names stay empty.
func GetPath(workDir, filename string) string {
	if filename == "" || filepath.IsAbs(filename) {
		return filename
	}
	return filepath.Join(workDir, filename)
}

// GetAppDataDir is the directory holding the default config.toml.
func GetAppDataDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "tlsvhost"), nil
}
