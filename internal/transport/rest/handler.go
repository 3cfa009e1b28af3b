package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"interactions-backend/internal/apperr"
	"interactions-backend/internal/orchestrator"
	"interactions-backend/internal/usagelog"
)

// UsageRecorder is the narrow interface the handler needs out of
// usagelog.Logger, so tests can substitute a no-op.
type UsageRecorder interface {
	Record(ctx context.Context, entry usagelog.Entry)
}

// Handler serves the pipeline's single exposed endpoint.
type Handler struct {
	deps     *orchestrator.Deps
	logger   *zap.Logger
	validate *validator.Validate
	debug    bool
	usage    UsageRecorder
}

// NewHandler builds a Handler driving deps. debug gates whether the debug
// trace is attached even when a request doesn't ask for it explicitly —
// it mirrors config.Config.Debug. usage may be nil to skip usage logging
// entirely.
func NewHandler(deps *orchestrator.Deps, logger *zap.Logger, debug bool, usage UsageRecorder) *Handler {
	return &Handler{deps: deps, logger: logger, validate: validator.New(), debug: debug, usage: usage}
}

// Analyze handles POST /api/v1/analyze (spec §6).
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "request body must be valid JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "items must be present, non-empty, and at most 10")
		return
	}

	opts := orchestrator.Options{Debug: h.debug}
	if req.Options != nil {
		opts.Debug = opts.Debug || req.Options.Debug
		opts.ForceRefresh = req.Options.ForceRefresh
	}

	resp, err := orchestrator.Process(r.Context(), h.deps, req.originals(), opts)
	if err != nil {
		h.respondPipelineError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
	h.recordUsage(req.originals(), resp)
}

// recordUsage appends a best-effort usage log entry after the response
// body has already been written, per spec §5's non-blocking-operations
// note. It never affects the response the caller already received.
func (h *Handler) recordUsage(items []string, resp *orchestrator.Response) {
	if h.usage == nil {
		return
	}
	entry := usagelog.Entry{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
		Items:     items,
		Summary: map[string]any{
			"pairs":   len(resp.Results.Pairs),
			"singles": len(resp.Results.Singles),
			"triples": len(resp.Results.Triples),
		},
		LatencyMs: resp.Meta.Timing.TotalMs,
		CacheHits: map[string]int{
			"medLookup": int(resp.Meta.CacheStats.MedLookupHits),
			"pair":      int(resp.Meta.CacheStats.PairCacheHits),
			"cms":       int(resp.Meta.CacheStats.CMSCacheHits),
		},
	}
	go h.usage.Record(context.Background(), entry)
}

// respondPipelineError maps the apperr taxonomy onto the status codes spec
// §6 names: InvalidInput is the caller's fault (400), everything else is
// opaque (500) with a correlation id for support lookups — never the
// underlying message, which may carry upstream detail.
func (h *Handler) respondPipelineError(w http.ResponseWriter, err error) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) && appErr.Kind == apperr.KindInvalidInput {
		h.respondError(w, http.StatusBadRequest, appErr.Message)
		return
	}

	correlationID := uuid.New().String()
	h.logger.Error("analyze request failed", zap.Error(err), zap.String("correlationId", correlationID))
	h.respondJSON(w, http.StatusInternalServerError, errorResponse{
		Error:         "an unexpected error occurred",
		CorrelationID: correlationID,
	})
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, errorResponse{Error: message})
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Warn("failed to encode response body", zap.Error(err))
	}
}
