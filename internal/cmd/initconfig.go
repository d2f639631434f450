package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"tlsvhost/internal/config"
)

var forceInit bool

var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Write a sample configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath()
		if err != nil {
			return err
		}
		if err := config.WriteSample(path, forceInit); err != nil {
			return err
		}
		fmt.Printf("✓ Sample config written to %s\n", path)
		return nil
	},
}

func init() {
	initConfigCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "overwrite an existing file")
	RootCmd.AddCommand(initConfigCmd)
}
