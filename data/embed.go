// Package data embeds the default stop-word list and IDF dictionary used when
// no external lexicon source is configured.
package data

import "embed"

// Logical resource names of the bundled lexicon files.
const (
	StopWordsName = "stop_words.txt"
	IDFName       = "idf_dict.txt"
)

//go:embed stop_words.txt idf_dict.txt
var FS embed.FS
