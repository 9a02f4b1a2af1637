package jobs

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/pkg/config"
)

var limits = config.AnalyzerConfig{DefaultTopN: 5, MaxTopN: 20, MaxContentBytes: 64}

func intPtr(n int) *int { return &n }

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		req    ExtractionRequest
		fields []string
	}{
		{"valid", ExtractionRequest{DocumentID: "doc-1", Content: "曹操的诗"}, nil},
		{"valid with top_n", ExtractionRequest{Content: "曹操的诗", TopN: intPtr(20)}, nil},
		{"blank content", ExtractionRequest{Content: "  \n"}, []string{"content"}},
		{"content too long", ExtractionRequest{Content: strings.Repeat("a", 65)}, []string{"content"}},
		{"long document id", ExtractionRequest{DocumentID: strings.Repeat("d", 256), Content: "x"}, []string{"document_id"}},
		{"zero top_n", ExtractionRequest{Content: "x", TopN: intPtr(0)}, []string{"top_n"}},
		{"top_n above max", ExtractionRequest{Content: "x", TopN: intPtr(21)}, []string{"top_n"}},
		{"several", ExtractionRequest{TopN: intPtr(-1)}, []string{"content", "top_n"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(&tc.req, limits)
			if tc.fields == nil {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			for _, f := range tc.fields {
				assert.Contains(t, verr.Fields, f)
			}
			assert.Len(t, verr.Fields, len(tc.fields))
		})
	}
}

func TestValidationErrorMessageIsSorted(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"top_n": "bad", "content": "missing"}}
	assert.Equal(t, "content: missing; top_n: bad", err.Error())
}
