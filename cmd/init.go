package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/md4h/prosedown/internal/core"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Init a new workspace",
	Long:  `Set up the local directory as the root of a new workspace.`,
	Run: func(cmd *cobra.Command, args []string) {
		cwd, err := os.Getwd()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Unable to read current working directory: %v\n", err)
			os.Exit(1)
		}
		cfg, err := core.InitConfigFromDirectory(cwd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error while initializing configuration: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Initialized workspace in %s\n", cfg.RootDirectory)
	},
}
