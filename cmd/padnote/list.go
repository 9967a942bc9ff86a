package main

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aretw0/padnote"
)

func newListCmd() *cobra.Command {
	var (
		asJSON bool
		folder string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the notes on disk",
		Long: `List prints every note file under the notes directory without starting a
session, so it is safe to run next to one. Use --folder "" for the root only.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			app, err := padnote.Open(configDir(), append(options(), padnote.WithWatch(false))...)
			if err != nil {
				fatal("Failed to open", err)
			}
			defer app.Close()

			notes, err := padnote.ListNotes(context.Background(), app)
			if err != nil {
				fatal("Failed to list notes", err)
			}
			if cmd.Flags().Changed("folder") {
				notes = inFolder(notes, folder)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(notes); err != nil {
					fatal("Failed to encode JSON", err)
				}
				return
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NOTE\tKIND\tBYTES")
			for _, n := range notes {
				fmt.Fprintf(tw, "%s\t%s\t%d\n", n.ID, n.Kind, n.Size)
			}
			_ = tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print a JSON array instead of a table")
	cmd.Flags().StringVar(&folder, "folder", "", "only list one folder (empty for the root)")
	return cmd
}

func inFolder(notes []padnote.NoteInfo, folder string) []padnote.NoteInfo {
	kept := make([]padnote.NoteInfo, 0, len(notes))
	for _, n := range notes {
		if n.Folder == folder {
			kept = append(kept, n)
		}
	}
	return kept
}

func init() {
	rootCmd.AddCommand(newListCmd())
}
