package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"tlsvhost/internal/config"
	"tlsvhost/internal/logger"
	"tlsvhost/internal/provider"
	"tlsvhost/internal/registry"
)

var cfgFile string

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "tlsvhost",
	Short: "TLS endpoint serving several virtual hosts selected by SNI",
	Long: `tlsvhost terminates TLS for multiple virtual hosts on one listener.
Each host has its own certificates, trust material, cipher suites and
protocols; the host is chosen per handshake from the client's SNI name by
exact match, then a single-level "*.suffix" wildcard, then "_default_".`,
	SilenceUsage: true,
	RunE:         runServe,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default <user config dir>/tlsvhost/config.toml)")
}

func configPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	appDir, err := config.GetAppDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(appDir, "config.toml"), nil
}

// loadRegistry loads and validates the configuration, applies the log
// settings and builds every host.
func loadRegistry() (*config.Config, *registry.Registry, error) {
	path, err := configPath()
	if err != nil {
		return nil, nil, err
	}
	cfg, err := config.LoadAndValidate(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Configure(cfg.Log.Level, cfg.Log.File); err != nil {
		return nil, nil, err
	}
	logger.Debug("Config loaded from: %s", path)

	p, err := provider.Lookup(cfg.Provider)
	if err != nil {
		return nil, nil, err
	}
	reg := registry.New(p, cfg.KeyAlias)
	if err := reg.Init(cfg.Hosts); err != nil {
		return nil, nil, err
	}
	return cfg, reg, nil
}
