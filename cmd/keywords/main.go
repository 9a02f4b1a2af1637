// Command keywords extracts keywords from text on the command line.
//
//	keywords extract "some text" -n 3
//	cat lines.txt | keywords extract --json
//	keywords lexicon
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
