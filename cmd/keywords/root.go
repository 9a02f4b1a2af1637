package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/data"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/internal/keywords"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/internal/resource"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/internal/segmenter"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/pkg/logger"
)

type rootOptions struct {
	segmenter  string
	lowercase  bool
	lexiconDir string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "keywords",
		Short:         "TF-IDF keyword extraction for short texts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(logger.New(cmd.ErrOrStderr(), opts.logLevel, "text"))
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.segmenter, "segmenter", segmenter.ModeDict, "word segmenter: dict or unicode")
	flags.BoolVar(&opts.lowercase, "lowercase", false, "fold tokens to lower case (unicode segmenter only)")
	flags.StringVar(&opts.lexiconDir, "lexicon-dir", "", "directory holding stop_words.txt and idf_dict.txt (default: bundled lexicon)")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level")

	cmd.AddCommand(newExtractCmd(opts), newLexiconCmd(opts))
	return cmd
}

// analyzer builds an Analyzer from the flags and loads its lexicon. A
// partially loaded lexicon is accepted.
func (o *rootOptions) analyzer(ctx context.Context) (*keywords.Analyzer, error) {
	seg, err := segmenter.New(config.SegmenterConfig{Mode: o.segmenter, Lowercase: o.lowercase})
	if err != nil {
		return nil, err
	}
	lexCfg := config.LexiconConfig{
		Source:        "embed",
		StopWordsName: data.StopWordsName,
		IDFName:       data.IDFName,
	}
	if o.lexiconDir != "" {
		lexCfg.Source = "dir"
		lexCfg.Dir = o.lexiconDir
	}
	store, err := resource.New(ctx, lexCfg)
	if err != nil {
		return nil, err
	}
	a := keywords.New(seg, keywords.StoreLoader(store, lexCfg.StopWordsName, lexCfg.IDFName))
	if err := a.Warm(ctx); err != nil && a.Lexicon() == nil {
		return nil, fmt.Errorf("loading lexicon from %v: %w", store, err)
	}
	return a, nil
}
