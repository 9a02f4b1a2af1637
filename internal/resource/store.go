// Package resource opens the static lexicon files (stop words, IDF
// dictionary) by logical name from the embedded bundle, a local directory or
// an S3 bucket.
package resource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/data"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/pkg/config"
)

// ErrNotFound is returned when no resource exists under the requested name.
var ErrNotFound = errors.New("resource not found")

// Store retrieves a resource stream by logical name.
type Store interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// Remote reports whether opening from s may fail transiently and is worth
// retrying.
func Remote(s Store) bool {
	_, ok := s.(*S3)
	return ok
}

// FS serves resources from a file system tree.
type FS struct {
	fsys fs.FS
	desc string
}

// NewFS wraps fsys. desc names the source in errors and logs.
func NewFS(fsys fs.FS, desc string) *FS {
	return &FS{fsys: fsys, desc: desc}
}

// Embedded returns the store holding the lexicon bundled into the binary.
func Embedded() *FS {
	return NewFS(data.FS, "embedded")
}

// Open opens name relative to the root of the file system.
func (s *FS) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := s.fsys.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s in %s", ErrNotFound, name, s.desc)
		}
		return nil, fmt.Errorf("opening %s in %s: %w", name, s.desc, err)
	}
	return f, nil
}

// String describes the store.
func (s *FS) String() string {
	return s.desc
}

// New builds the store selected by cfg.Source.
func New(ctx context.Context, cfg config.LexiconConfig) (Store, error) {
	switch cfg.Source {
	case "embed", "":
		return Embedded(), nil
	case "dir":
		if _, err := os.Stat(cfg.Dir); err != nil {
			return nil, fmt.Errorf("lexicon directory: %w", err)
		}
		return NewFS(os.DirFS(cfg.Dir), cfg.Dir), nil
	case "s3":
		return NewS3(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown lexicon source %q", cfg.Source)
	}
}
