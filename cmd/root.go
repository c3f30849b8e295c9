package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/md4h/prosedown/internal/core"
)

var verbosity int

var rootCmd = &cobra.Command{
	Use:   "md4h",
	Short: "Markdown for Humans is a rich Markdown editing engine",
	Long:  `A rich editing engine for Markdown files: structured documents, safe image edits, and host synchronization.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		core.CurrentLogger().SetVerboseLevel(core.VerboseLevelFromCount(verbosity))
		if cmd.Name() != "init" {
			// Ignore when configuration doesn't still exist
			CheckConfig()
		}
	},
}

func init() {
	// Use PersistentFlags to make flags accessible to sub-commands
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "enable verbose output, repeat for more detail")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func CheckConfig() {
	err := core.CurrentConfig().Check()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
