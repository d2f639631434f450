package cmd

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	"tlsvhost/internal/provider"
)

var Version = "0.0.0-dev"

var versionCmd = &cobra.Command{
	Use:     "version",
	Aliases: []string{"v"},
	Short:   "Show version and TLS runtime information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tlsvhost version: %s\n", Version)
		fmt.Printf("Go runtime: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
			fmt.Printf("Module: %s %s\n", info.Main.Path, info.Main.Version)
		}

		fmt.Println("Providers:")
		green := "\033[32m"
		reset := "\033[0m"
		for _, name := range provider.Names() {
			p, err := provider.Lookup(name)
			if err != nil {
				continue
			}
			protos := p.SupportedProtocols()
			fmt.Printf("  %s[+]%s %-8s %d suites, %s..%s\n", green, reset, name,
				len(p.SupportedCiphers()), protos[0], protos[len(protos)-1])
		}
	},
}

func init() {
	RootCmd.AddCommand(versionCmd)
}
