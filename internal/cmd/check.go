package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tlsvhost/internal/keymanager"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration and build every host",
	Long: `Loads the configuration, validates host patterns and builds the TLS
context of every host exactly as the endpoint would at startup. Prints the
resulting registry: identities, protocols and cipher suites per host.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, reg, err := loadRegistry()
		if err != nil {
			return err
		}
		defer reg.Shutdown()

		bold := "\033[1m"
		cyan := "\033[36m"
		green := "\033[32m"
		yellow := "\033[33m"
		reset := "\033[0m"

		policy := cfg.Policy()
		fmt.Printf("%s%s=== Endpoint ===%s\n", bold, cyan, reset)
		fmt.Printf("  %sprovider%s = %s\n", green, reset, cfg.Provider)
		fmt.Printf("  %sclient_auth%s = %q -> %s\n", green, reset, cfg.ClientAuth, policy.ClientAuth)
		fmt.Printf("  %suse_server_cipher_suites_order%s = %q -> %v\n", green, reset, cfg.ServerCipherOrder, policy.ServerCipherOrder)
		if cfg.KeyAlias != "" {
			fmt.Printf("  %skey_alias%s = %s\n", green, reset, cfg.KeyAlias)
		}

		fmt.Printf("\n%s%s=== Hosts ===%s\n", bold, cyan, reset)
		for _, e := range reg.Entries() {
			fmt.Printf("%s[%s]%s\n", yellow, e.Pattern(), reset)
			for _, km := range e.Context().KeyManagers() {
				if x, ok := km.(keymanager.X509KeyManager); ok {
					fmt.Printf("  identities: %s (serving %s)\n", strings.Join(x.Aliases(), ", "), x.ChooseServerAlias(nil))
				}
			}
			fmt.Printf("  protocols:  %s\n", strings.Join(e.EnabledProtocols(), ", "))
			fmt.Printf("  ciphers:\n")
			for _, c := range e.EnabledCiphers() {
				fmt.Printf("    %s\n", c)
			}
			fmt.Println()
		}
		fmt.Printf("%s✓ %d hosts OK%s\n", green, len(reg.Entries()), reset)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(checkCmd)
}
