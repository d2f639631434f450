package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tlsvhost/internal/provider"
	"tlsvhost/internal/tlsctx"
)

var providerName string

var ciphersCmd = &cobra.Command{
	Use:   "ciphers",
	Short: "List the cipher suites and protocols a provider supports",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := provider.Lookup(providerName)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Provider: %s\n", p.Name())
		fmt.Fprintf(out, "Protocols: %s\n", strings.Join(p.SupportedProtocols(), ", "))
		fmt.Fprintln(out, "Cipher suites:")
		for _, name := range p.SupportedCiphers() {
			cs, ok := tlsctx.CipherSuite(name)
			if !ok {
				continue
			}
			versions := make([]string, 0, len(cs.SupportedVersions))
			for _, v := range cs.SupportedVersions {
				versions = append(versions, tlsctx.ProtocolName(v))
			}
			fmt.Fprintf(out, "  %-50s %s\n", name, strings.Join(versions, " "))
		}
		return nil
	},
}

func init() {
	ciphersCmd.Flags().StringVarP(&providerName, "provider", "p", "std", fmt.Sprintf("TLS provider %v", provider.Names()))
	RootCmd.AddCommand(ciphersCmd)
}
