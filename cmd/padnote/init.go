package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/padnote"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the configuration directory",
	Long: `Create the configuration directory with default preferences, an empty
profiles document and the notes directory. Existing files are kept; missing
preference keys are filled in with their defaults.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		dir := configDir()

		app, err := padnote.Init(dir, options()...)
		if err != nil {
			fatal("Failed to initialize", err)
		}
		defer app.Close()

		fmt.Println("Initialized padnote in", dir)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
