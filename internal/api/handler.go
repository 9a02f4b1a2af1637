// Package api serves keyword extraction, job, lexicon and cache endpoints
// over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/internal/cache"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/internal/jobs"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/internal/keywords"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Keyword-Extraction-Service/pkg/tracing"
)

// Extractor runs the keyword pipeline.
type Extractor interface {
	Detail(ctx context.Context, content string, topN int) (keywords.Result, error)
	Lexicon() *keywords.Lexicon
}

// JobQueue accepts asynchronous extraction requests.
type JobQueue interface {
	Enqueue(ctx context.Context, req *jobs.ExtractionRequest) (*jobs.EnqueueResponse, error)
}

// JobReader looks up stored jobs.
type JobReader interface {
	Get(ctx context.Context, jobID string) (*jobs.JobResult, error)
}

// ExtractRequest is the body of POST /api/v1/keywords.
type ExtractRequest struct {
	Content string `json:"content"`
	TopN    *int   `json:"top_n,omitempty"`
}

// ExtractResponse is returned by both extraction endpoints.
type ExtractResponse struct {
	ContentLength int                `json:"content_length"`
	TopN          int                `json:"top_n"`
	Keywords      []keywords.Keyword `json:"keywords"`
	CacheHit      bool               `json:"cache_hit"`
}

type Handler struct {
	analyzer Extractor
	cfg      config.AnalyzerConfig
	cache    *cache.Cache
	events   analytics.Tracker
	queue    JobQueue
	jobs     JobReader
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

type Option func(*Handler)

func WithCache(c *cache.Cache) Option { return func(h *Handler) { h.cache = c } }

func WithEvents(t analytics.Tracker) Option { return func(h *Handler) { h.events = t } }

func WithMetrics(m *metrics.Metrics) Option { return func(h *Handler) { h.metrics = m } }

// WithJobs enables the job endpoints.
func WithJobs(queue JobQueue, reader JobReader) Option {
	return func(h *Handler) {
		h.queue = queue
		h.jobs = reader
	}
}

func New(analyzer Extractor, cfg config.AnalyzerConfig, opts ...Option) *Handler {
	h := &Handler{
		analyzer: analyzer,
		cfg:      cfg,
		logger:   slog.Default().With("component", "keyword-handler"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register adds every route served by h to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/keywords", h.ExtractPost)
	mux.HandleFunc("GET /api/v1/keywords", h.ExtractGet)
	mux.HandleFunc("POST /api/v1/jobs", h.EnqueueJob)
	mux.HandleFunc("GET /api/v1/jobs/{id}", h.GetJob)
	mux.HandleFunc("GET /api/v1/lexicon", h.LexiconStats)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
}

func (h *Handler) ExtractPost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, int64(h.cfg.MaxContentBytes)*2+1024)
	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	topN := h.cfg.DefaultTopN
	if req.TopN != nil {
		topN = *req.TopN
	}
	h.extract(w, r, req.Content, topN)
}

func (h *Handler) ExtractGet(w http.ResponseWriter, r *http.Request) {
	content := r.URL.Query().Get("q")
	if content == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	topN := h.cfg.DefaultTopN
	if v := r.URL.Query().Get("n"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "n must be an integer")
			return
		}
		topN = n
	}
	h.extract(w, r, content, topN)
}

func (h *Handler) extract(w http.ResponseWriter, r *http.Request, content string, topN int) {
	start := time.Now()
	ctx, span := tracing.Start(r.Context(), "extract")
	defer span.End()
	log := logger.FromContext(ctx)

	if len(content) > h.cfg.MaxContentBytes {
		err := apperrors.Newf(apperrors.ErrContentTooLarge, http.StatusRequestEntityTooLarge,
			"content must be at most %d bytes", h.cfg.MaxContentBytes)
		h.writeError(w, err.StatusCode, err.Message)
		return
	}
	topN = max(0, min(topN, h.cfg.MaxTopN))

	// The trimmed text is what gets analyzed and what gets keyed.
	text := strings.TrimSpace(content)
	var (
		res      keywords.Result
		cacheHit bool
		err      error
	)
	compute := func(ctx context.Context) (keywords.Result, error) {
		_, sp := tracing.Start(ctx, "analyze")
		defer sp.End()
		res, err := h.analyzer.Detail(ctx, text, topN)
		sp.SetAttr("tokens", res.Tokens)
		sp.SetAttr("candidates", res.Candidates)
		return res, err
	}
	if h.cache != nil && topN > 0 && text != "" {
		res, cacheHit, err = h.cache.GetOrCompute(ctx, text, topN, compute)
	} else {
		res, err = compute(ctx)
	}
	kws := res.Keywords
	elapsed := time.Since(start)
	span.SetAttr("content_length", len(content))
	span.SetAttr("top_n", topN)
	span.SetAttr("cache_hit", cacheHit)

	cacheStatus := "miss"
	if cacheHit {
		cacheStatus = "hit"
	} else if h.cache == nil {
		cacheStatus = "none"
	}
	if h.metrics != nil {
		h.metrics.ObserveExtraction(cacheStatus, elapsed.Seconds(), len(kws), err)
	}
	if err != nil {
		log.Error("keyword extraction failed", "content_length", len(content), "error", err)
		h.writeAppError(w, err)
		return
	}
	if kws == nil {
		kws = []keywords.Keyword{}
	}

	log.Info("keywords extracted",
		"content_length", len(content),
		"top_n", topN,
		"returned", len(kws),
		"cache_hit", cacheHit,
		"latency_us", elapsed.Microseconds(),
	)
	if h.events != nil {
		h.events.Track(analytics.ExtractionEvent{
			Type:            analytics.EventExtraction,
			Source:          analytics.SourceAPI,
			ContentLength:   len(content),
			TopN:            topN,
			Returned:        len(kws),
			Tokens:          res.Tokens,
			Candidates:      res.Candidates,
			OutOfVocabulary: res.OutOfVocabulary,
			Keywords:        terms(kws),
			LatencyUs:       elapsed.Microseconds(),
			CacheHit:        cacheHit,
			RequestID:       logger.RequestID(ctx),
			Timestamp:       time.Now().UTC(),
		})
	}

	h.writeJSON(w, http.StatusOK, ExtractResponse{
		ContentLength: len(content),
		TopN:          topN,
		Keywords:      kws,
		CacheHit:      cacheHit,
	})
}

func (h *Handler) EnqueueJob(w http.ResponseWriter, r *http.Request) {
	if h.queue == nil {
		h.writeAppError(w, apperrors.ErrUnavailable)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, int64(h.cfg.MaxContentBytes)*2+1024)
	var req jobs.ExtractionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	resp, err := h.queue.Enqueue(r.Context(), &req)
	if err != nil {
		var verr *jobs.ValidationError
		if errors.As(err, &verr) {
			h.writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":  "validation failed",
				"fields": verr.Fields,
			})
			return
		}
		logger.FromContext(r.Context()).Error("enqueue failed", "error", err)
		h.writeAppError(w, err)
		return
	}
	h.writeJSON(w, http.StatusAccepted, resp)
}

func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		h.writeAppError(w, apperrors.ErrUnavailable)
		return
	}
	id := r.PathValue("id")
	if err := uuid.Validate(id); err != nil {
		h.writeError(w, http.StatusBadRequest, "job id must be a UUID")
		return
	}
	job, err := h.jobs.Get(r.Context(), id)
	if err != nil {
		if !errors.Is(err, apperrors.ErrJobNotFound) {
			logger.FromContext(r.Context()).Error("job lookup failed", "job_id", id, "error", err)
		}
		h.writeAppError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, job)
}

func (h *Handler) LexiconStats(w http.ResponseWriter, r *http.Request) {
	lex := h.analyzer.Lexicon()
	if lex == nil {
		h.writeAppError(w, apperrors.ErrLexiconUnavailable)
		return
	}
	h.writeJSON(w, http.StatusOK, lex.Stats())
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	stats := h.cache.Stats()
	var hitRate float64
	if total := stats.Hits + stats.Misses; total > 0 {
		hitRate = float64(stats.Hits) / float64(total)
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"stats":    stats,
		"hit_rate": hitRate,
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	deleted, err := h.cache.Invalidate(r.Context())
	if err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "keys_deleted": deleted})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// writeAppError maps err to a status; 5xx responses hide the detail.
func (h *Handler) writeAppError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatusCode(err)
	msg := err.Error()
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}
	switch {
	case errors.Is(err, apperrors.ErrLexiconUnavailable):
		msg = "lexicon unavailable"
	case errors.Is(err, apperrors.ErrUnavailable):
		msg = "job processing is not configured"
	case status >= http.StatusInternalServerError:
		msg = "internal server error"
	}
	h.writeError(w, status, msg)
}

func terms(kws []keywords.Keyword) []string {
	out := make([]string, len(kws))
	for i, kw := range kws {
		out[i] = kw.Term
	}
	return out
}
