package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tlsvhost/internal/engine"
	"tlsvhost/internal/server"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <server-name>...",
	Short: "Show which host a client SNI name selects",
	Long: `Runs the same lookup a handshake would for each given SNI name and prints
the selected host pattern and the negotiation settings of the engine that
would be created for it. Pass "" to resolve a client that sends no SNI.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, reg, err := loadRegistry()
		if err != nil {
			return err
		}
		defer reg.Shutdown()

		factory := engine.NewFactory(reg, cfg.Policy())
		out := cmd.OutOrStdout()
		for _, arg := range args {
			name := server.NormalizeServerName(arg)
			eng, err := factory.NewEngine(name)
			if err != nil {
				return fmt.Errorf("resolve %q: %w", arg, err)
			}
			fmt.Fprintf(out, "%s -> %s\n", displayName(name), eng.Pattern())
			fmt.Fprintf(out, "  protocols:   %s\n", strings.Join(eng.EnabledProtocols(), ", "))
			fmt.Fprintf(out, "  ciphers:     %s\n", strings.Join(eng.EnabledCipherSuites(), ", "))
			fmt.Fprintf(out, "  client auth: want=%v need=%v\n", eng.WantClientAuth(), eng.NeedClientAuth())
			fmt.Fprintf(out, "  server order: %v\n", eng.UseCipherSuitesOrder())
		}
		return nil
	},
}

func displayName(name string) string {
	if name == "" {
		return "(no sni)"
	}
	return name
}

func init() {
	RootCmd.AddCommand(resolveCmd)
}
