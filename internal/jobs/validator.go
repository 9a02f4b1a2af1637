package jobs

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/pkg/config"
)

const maxDocumentIDLength = 255

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, field := range slices.Sorted(maps.Keys(e.Fields)) {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e.Fields[field]))
	}
	return strings.Join(parts, "; ")
}

// Validate checks req against the analyzer limits in cfg.
func Validate(req *ExtractionRequest, cfg config.AnalyzerConfig) error {
	errs := make(map[string]string)

	if strings.TrimSpace(req.Content) == "" {
		errs["content"] = "content is required"
	} else if len(req.Content) > cfg.MaxContentBytes {
		errs["content"] = fmt.Sprintf("content must be at most %d bytes", cfg.MaxContentBytes)
	}
	if len(req.DocumentID) > maxDocumentIDLength {
		errs["document_id"] = fmt.Sprintf("document id must be at most %d characters", maxDocumentIDLength)
	}
	if req.TopN != nil && (*req.TopN < 1 || *req.TopN > cfg.MaxTopN) {
		errs["top_n"] = fmt.Sprintf("top_n must be between 1 and %d", cfg.MaxTopN)
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
