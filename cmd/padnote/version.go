package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/aretw0/padnote"
)

func newVersionCmd() *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the padnote version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			if short {
				fmt.Fprintln(out, padnote.Version)
				return
			}
			fmt.Fprintf(out, "padnote version %s (%s %s/%s)\n", padnote.Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "print only the version number")
	return cmd
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
}
