package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var completionOut string

var completionCmd = &cobra.Command{
	Use:   "completion <bash|zsh|fish|powershell>",
	Short: "Generate a shell completion script",
	Long: `Prints the completion script for the given shell, or writes it to the
file named by --out. For example:

  tlsvhost completion bash > /etc/bash_completion.d/tlsvhost
  tlsvhost completion zsh --out ~/.zfunc/_tlsvhost`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		var buf bytes.Buffer
		if err := genCompletion(RootCmd, args[0], &buf); err != nil {
			return fmt.Errorf("generate %s completion: %w", args[0], err)
		}
		if completionOut == "" {
			_, err := io.Copy(cmd.OutOrStdout(), &buf)
			return err
		}

		if err := os.MkdirAll(filepath.Dir(completionOut), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(completionOut, buf.Bytes(), 0644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s completion written to %s\n", args[0], completionOut)
		return nil
	},
}

func genCompletion(root *cobra.Command, shell string, w io.Writer) error {
	switch shell {
	case "bash":
		return root.GenBashCompletionV2(w, true)
	case "zsh":
		return root.GenZshCompletion(w)
	case "fish":
		return root.GenFishCompletion(w, true)
	case "powershell":
		return root.GenPowerShellCompletionWithDesc(w)
	}
	return fmt.Errorf("unsupported shell %q", shell)
}

func init() {
	completionCmd.Flags().StringVarP(&completionOut, "out", "o", "", "write the script to this file instead of stdout")
	RootCmd.AddCommand(completionCmd)
}
