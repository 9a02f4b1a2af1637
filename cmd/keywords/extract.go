package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/internal/keywords"
)

const maxLineBytes = 1 << 20

type extractOutput struct {
	Content  string             `json:"content"`
	Keywords []keywords.Keyword `json:"keywords"`
}

func newExtractCmd(root *rootOptions) *cobra.Command {
	var (
		topN    int
		asJSON  bool
		noScore bool
	)
	cmd := &cobra.Command{
		Use:   "extract [text...]",
		Short: "Extract the top keywords of a text",
		Long: `Extract the top keywords of a text.

The arguments are joined with spaces and treated as one text. With no
arguments every non-empty line of standard input is a separate text.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.analyzer(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			emit := func(content string) error {
				kws, err := a.AnalyzeContext(cmd.Context(), content, topN)
				if err != nil {
					return err
				}
				if asJSON {
					return json.NewEncoder(out).Encode(extractOutput{Content: content, Keywords: kws})
				}
				return writeText(out, kws, noScore)
			}

			if len(args) > 0 {
				return emit(strings.Join(args, " "))
			}
			scanner := bufio.NewScanner(cmd.InOrStdin())
			scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
			first := true
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if !first && !asJSON {
					fmt.Fprintln(out)
				}
				first = false
				if err := emit(line); err != nil {
					return err
				}
			}
			return scanner.Err()
		},
	}
	cmd.Flags().IntVarP(&topN, "top", "n", 5, "number of keywords to return")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print one JSON object per text")
	cmd.Flags().BoolVar(&noScore, "terms-only", false, "print terms without scores")
	return cmd
}

func writeText(w io.Writer, kws []keywords.Keyword, noScore bool) error {
	for _, kw := range kws {
		var err error
		if noScore {
			_, err = fmt.Fprintln(w, kw.Term)
		} else {
			_, err = fmt.Fprintf(w, "%s\t%.6f\n", kw.Term, kw.Score)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
