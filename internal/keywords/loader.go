package keywords

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/data"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/internal/resource"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/internal/segmenter"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/pkg/resilience"
)

// StoreLoader reads the stop-word list and IDF dictionary named stopName
// and idfName from store. A missing stop-word list is tolerated with a
// warning; a missing IDF dictionary fails the load. Opens against remote
// stores are retried.
func StoreLoader(store resource.Store, stopName, idfName string) LexiconLoader {
	return func(ctx context.Context) (*Lexicon, error) {
		logger := slog.Default().With("component", "lexicon-loader", "store", fmt.Sprint(store))

		stop, err := openResource(ctx, store, stopName)
		if err != nil {
			logger.Warn("stop-word list unavailable, continuing without stop words", "name", stopName, "error", err)
		} else {
			defer stop.Close()
		}

		idf, err := openResource(ctx, store, idfName)
		if err != nil {
			return nil, fmt.Errorf("opening idf dictionary %s: %w", idfName, err)
		}
		defer idf.Close()

		var stopReader io.Reader
		if stop != nil {
			stopReader = stop
		}
		return LoadLexicon(stopReader, idf)
	}
}

func openResource(ctx context.Context, store resource.Store, name string) (io.ReadCloser, error) {
	if !resource.Remote(store) {
		return store.Open(ctx, name)
	}
	var rc io.ReadCloser
	err := resilience.Retry(ctx, "open "+name, resilience.RetryConfig{}, func() error {
		var err error
		rc, err = store.Open(ctx, name)
		if errors.Is(err, resource.ErrNotFound) {
			return resilience.Permanent(err)
		}
		return err
	})
	return rc, err
}

// EmbeddedLoader loads the lexicon bundled into the binary.
func EmbeddedLoader() LexiconLoader {
	return StoreLoader(resource.Embedded(), data.StopWordsName, data.IDFName)
}

var defaultAnalyzer = sync.OnceValue(func() *Analyzer {
	var seg segmenter.Segmenter
	dict, err := segmenter.NewDict("")
	if err != nil {
		slog.Default().Warn("dictionary segmenter unavailable, falling back to unicode segmentation", "error", err)
		seg = segmenter.NewUnicode(true)
	} else {
		seg = dict
	}
	return New(seg, EmbeddedLoader())
})

// Default returns the process-wide Analyzer backed by the Chinese dictionary
// segmenter and the embedded lexicon.
func Default() *Analyzer {
	return defaultAnalyzer()
}

// Analyze extracts keywords with the Default analyzer.
func Analyze(content string, topN int) []Keyword {
	return Default().Analyze(content, topN)
}
