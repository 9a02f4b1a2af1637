// Package analytics tracks keyword extraction events, publishes them to
// Kafka and aggregates them into the statistics served by the API.
package analytics

import "time"

type EventType string

const (
	EventExtraction EventType = "extraction"
	EventJobFailed  EventType = "job_failed"
)

// Sources of an extraction.
const (
	SourceAPI = "api"
	SourceJob = "job"
)

// ExtractionEvent describes one extraction. Keywords holds the returned
// terms in rank order.
type ExtractionEvent struct {
	Type            EventType `json:"type"`
	Source          string    `json:"source"`
	ContentLength   int       `json:"content_length"`
	TopN            int       `json:"top_n"`
	Returned        int       `json:"returned"`
	Tokens          int       `json:"tokens"`
	Candidates      int       `json:"candidates"`
	OutOfVocabulary int       `json:"out_of_vocabulary"`
	Keywords        []string  `json:"keywords"`
	LatencyUs       int64     `json:"latency_us"`
	CacheHit        bool      `json:"cache_hit"`
	JobID           string    `json:"job_id,omitempty"`
	RequestID       string    `json:"request_id,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}
