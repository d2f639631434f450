package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"tlsvhost/internal/certgen"
)

var (
	certOutDir string
	certName   string
)

var genCertCmd = &cobra.Command{
	Use:   "gen-cert <host>...",
	Short: "Generate a development CA and a certificate for the given hosts",
	Long: `Creates a self-signed root CA (ca.crt, ca.key) in the output directory and
issues a leaf certificate covering every given host name or IP address.
Wildcard names such as "*.example.com" are accepted.

The files can be referenced directly from a [[host]] certificate entry;
ca.crt can also serve as ca_certificate_file for client-auth testing.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := os.MkdirAll(certOutDir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", certOutDir, err)
		}

		ca, err := certgen.NewAuthority("tlsvhost development CA")
		if err != nil {
			return err
		}
		caCert := filepath.Join(certOutDir, "ca.crt")
		if err := ca.Save(caCert, filepath.Join(certOutDir, "ca.key")); err != nil {
			return err
		}

		name := certName
		if name == "" {
			name = strings.TrimPrefix(args[0], "*.")
		}
		certPath, keyPath, err := ca.IssueFiles(certOutDir, name, args...)
		if err != nil {
			return err
		}

		fmt.Printf("✓ CA:          %s\n", caCert)
		fmt.Printf("✓ Certificate: %s\n", certPath)
		fmt.Printf("✓ Key:         %s\n", keyPath)
		return nil
	},
}

func init() {
	genCertCmd.Flags().StringVarP(&certOutDir, "out", "o", ".", "output directory")
	genCertCmd.Flags().StringVarP(&certName, "name", "n", "", "base file name of the leaf pair (default: first host)")
	RootCmd.AddCommand(genCertCmd)
}
