package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Canopy/internal/analysis"
	"github.com/MikeSquared-Agency/Canopy/internal/cache"
	"github.com/MikeSquared-Agency/Canopy/internal/dataset"
	"github.com/MikeSquared-Agency/Canopy/internal/hermes"
	"github.com/MikeSquared-Agency/Canopy/internal/metrics"
	"github.com/MikeSquared-Agency/Canopy/internal/store"
)

// CacheHeader reports whether an analysis was served from the cache.
const CacheHeader = "X-Canopy-Cache"

type AnalyzeHandler struct {
	store    store.Store
	analyzer *analysis.Analyzer
	hermes   hermes.Client
	cache    cache.Cache
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewAnalyzeHandler(s store.Store, a *analysis.Analyzer, h hermes.Client, c cache.Cache, m *metrics.Metrics, logger *slog.Logger) *AnalyzeHandler {
	if c == nil {
		c = cache.NopCache{}
	}
	if m == nil {
		m = metrics.New()
	}
	return &AnalyzeHandler{store: s, analyzer: a, hermes: h, cache: c, metrics: m, logger: logger}
}

type AnalyzeRequest struct {
	Records []dataset.Record `json:"records"`
	Config  analysis.Options `json:"config"`
	Filter  dataset.Filter   `json:"filter"`
}

type AnalyzeDatasetRequest struct {
	Config analysis.Options `json:"config"`
	Filter dataset.Filter   `json:"filter"`
}

// Analyze runs the pipeline over the records in the request body.
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Records == nil {
		writeError(w, http.StatusBadRequest, "records required")
		return
	}
	h.respond(w, r, nil, req.Records, req.Filter, req.Config)
}

// AnalyzeDataset runs the pipeline over a stored dataset. An empty body
// analyses the whole dataset with default options.
func (h *AnalyzeHandler) AnalyzeDataset(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "dataset")
	if !ok {
		return
	}
	var req AnalyzeDatasetRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}

	records, err := h.store.GetDatasetRecords(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	if records == nil {
		writeError(w, http.StatusNotFound, "dataset not found")
		return
	}
	h.respond(w, r, &id, records, req.Filter, req.Config)
}

func (h *AnalyzeHandler) respond(w http.ResponseWriter, r *http.Request, datasetID *uuid.UUID, records []dataset.Record, filter dataset.Filter, opts analysis.Options) {
	state, hit, err := h.run(r.Context(), datasetID, records, filter, opts)
	if err != nil {
		writeErr(w, err)
		return
	}
	if hit {
		w.Header().Set(CacheHeader, "hit")
	} else {
		w.Header().Set(CacheHeader, "miss")
	}
	writeJSON(w, http.StatusOK, state)
}

// run serves a cached state when one exists. Otherwise it runs the pipeline,
// persists the run summary, fills the cache and publishes the completion.
func (h *AnalyzeHandler) run(ctx context.Context, datasetID *uuid.UUID, records []dataset.Record, filter dataset.Filter, opts analysis.Options) (*analysis.AnalysisState, bool, error) {
	resolved, err := h.analyzer.Resolve(opts)
	if err != nil {
		h.metrics.RunFailed(metrics.OutcomeInvalidInput)
		return nil, false, err
	}

	key, err := cache.Key(datasetID, records, filter, resolved)
	if err != nil {
		h.logger.Warn("cache key failed", "error", err)
	} else {
		state, ok, err := h.cache.Get(ctx, key)
		if err != nil {
			h.logger.Warn("cache lookup failed", "error", err)
		}
		h.metrics.CacheLookup(ok)
		if ok {
			return state, true, nil
		}
	}

	start := time.Now()
	state, err := h.analyzer.Run(ctx, records, filter, resolved)
	if err != nil {
		h.metrics.RunFailed(outcome(err))
		return nil, false, err
	}
	state.DatasetID = datasetID
	h.metrics.ObserveRun(state, time.Since(start))

	if err := h.store.CreateRun(ctx, store.RunFromState(state)); err != nil {
		h.logger.Error("failed to persist run", "run_id", state.RunID, "error", err)
		return nil, false, err
	}
	if key != "" {
		if err := h.cache.Set(ctx, key, state); err != nil {
			h.logger.Warn("cache store failed", "run_id", state.RunID, "error", err)
		}
	}
	publish(ctx, h.hermes, h.logger, hermes.SubjectAnalysisCompleted(state.RunID.String()), hermes.NewAnalysisCompletedEvent(state))
	return state, false, nil
}

func outcome(err error) string {
	switch {
	case errors.Is(err, analysis.ErrInvalidInput):
		return metrics.OutcomeInvalidInput
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.OutcomeCanceled
	default:
		return metrics.OutcomeError
	}
}

// publish is best-effort; a failed publish is logged and never fails the
// request.
func publish(ctx context.Context, h hermes.Client, logger *slog.Logger, subject string, event interface{}) {
	if h == nil {
		return
	}
	if err := h.Publish(ctx, subject, event); err != nil {
		logger.Warn("failed to publish event", "subject", subject, "error", err)
	}
}
