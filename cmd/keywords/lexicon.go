package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newLexiconCmd(root *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "lexicon",
		Short: "Show statistics of the loaded lexicon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.analyzer(cmd.Context())
			if err != nil {
				return err
			}
			stats := a.Lexicon().Stats()
			out := cmd.OutOrStdout()
			if asJSON {
				return json.NewEncoder(out).Encode(stats)
			}
			fmt.Fprintf(out, "stop words:    %d\n", stats.StopWords)
			fmt.Fprintf(out, "idf terms:     %d\n", stats.Terms)
			fmt.Fprintf(out, "idf median:    %.6f\n", stats.Median)
			fmt.Fprintf(out, "skipped lines: %d\n", stats.SkippedLines)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}
