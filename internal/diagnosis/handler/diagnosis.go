// Package handler provides the HTTP handlers of the diagnosis service.
package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orphadx-io/orphadx/internal/diagnosis/biz"
	"github.com/orphadx-io/orphadx/internal/diagnosis/store"
	"github.com/orphadx-io/orphadx/pkg/llm"
	"github.com/orphadx-io/orphadx/pkg/utils/errors"
	"github.com/orphadx-io/orphadx/pkg/utils/response"
)

// queryTimeout bounds one diagnosis request end to end.
const queryTimeout = 60 * time.Second

// DiagnosisHandler handles diagnosis HTTP requests.
type DiagnosisHandler struct {
	service       biz.Service
	store         store.VectorStore
	collection    string
	defaultSource string
	cache         *biz.QueryCache
	embedder      llm.EmbeddingProvider
	chat          llm.ChatProvider
}

// NewDiagnosisHandler creates a new DiagnosisHandler. The store and
// provider references are used for per-component readiness reporting.
// defaultSource is the document ingested when a request omits the path.
func NewDiagnosisHandler(service biz.Service, vs store.VectorStore, collection, defaultSource string, cache *biz.QueryCache, embedder llm.EmbeddingProvider, chat llm.ChatProvider) *DiagnosisHandler {
	return &DiagnosisHandler{
		service:       service,
		store:         vs,
		collection:    collection,
		defaultSource: defaultSource,
		cache:         cache,
		embedder:      embedder,
		chat:          chat,
	}
}

// DiagnoseRequest is the symptom query request body.
type DiagnoseRequest struct {
	Symptoms string `json:"symptoms" binding:"required"`
}

// Diagnose answers a free-text symptom description.
func (h *DiagnosisHandler) Diagnose(c *gin.Context) {
	var req DiagnoseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, errors.ErrInvalidRequest.WithCause(err))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	result, err := h.service.Diagnose(ctx, req.Symptoms)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			response.WriteError(c, errors.ErrTimeout.WithCause(err))
			return
		}
		response.WriteError(c, err)
		return
	}

	response.WriteSuccess(c, result)
}

// IngestRequest is the ingestion request body. Path falls back to the
// configured source document when omitted.
type IngestRequest struct {
	Path string `json:"path"`
}

// Ingest loads a nomenclature document into the vector index and returns
// the ingestion report.
func (h *DiagnosisHandler) Ingest(c *gin.Context) {
	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, errors.ErrInvalidRequest.WithCause(err))
		return
	}
	if req.Path == "" {
		req.Path = h.defaultSource
	}
	if req.Path == "" {
		response.WriteError(c, errors.ErrInvalidRequest.WithMessage("no document path given and no source-path configured"))
		return
	}

	report, err := h.service.Ingest(c.Request.Context(), req.Path)
	if err != nil {
		response.WriteError(c, err)
		return
	}

	response.WriteSuccess(c, report)
}

// Stats returns index, cache and pipeline statistics.
func (h *DiagnosisHandler) Stats(c *gin.Context) {
	stats, err := h.service.GetStats(c.Request.Context())
	if err != nil {
		response.WriteError(c, err)
		return
	}

	response.WriteSuccess(c, stats)
}

// Health is the liveness probe.
func (h *DiagnosisHandler) Health(c *gin.Context) {
	response.WriteSuccess(c, gin.H{"status": "ok"})
}

// componentStatus reports the reachability of one external dependency.
type componentStatus struct {
	Healthy bool   `json:"healthy"`
	Detail  string `json:"detail,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Status reports index and provider reachability independently, so a
// caller can tell degraded retrieval apart from degraded generation.
func (h *DiagnosisHandler) Status(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	components := gin.H{
		"index":     h.indexStatus(ctx),
		"embedding": providerStatus(ctx, h.embedder),
		"chat":      providerStatus(ctx, h.chat),
		"cache":     h.cacheStatus(ctx),
	}

	response.WriteSuccess(c, gin.H{"components": components})
}

func (h *DiagnosisHandler) indexStatus(ctx context.Context) componentStatus {
	count, err := h.store.GetStats(ctx, h.collection)
	if err != nil {
		return componentStatus{Healthy: false, Error: err.Error()}
	}
	return componentStatus{Healthy: true, Detail: "chunks: " + strconv.FormatInt(count, 10)}
}

// cacheStatus reports the result cache. A disabled cache is healthy, an
// enabled cache with an unreachable backend is not.
func (h *DiagnosisHandler) cacheStatus(ctx context.Context) componentStatus {
	stats, err := h.cache.Stats(ctx)
	if err != nil {
		return componentStatus{Healthy: false, Error: err.Error()}
	}
	if enabled, _ := stats["enabled"].(bool); !enabled {
		return componentStatus{Healthy: true, Detail: "disabled"}
	}
	return componentStatus{Healthy: true, Detail: "enabled"}
}

// providerStatus pings the provider when it supports it. Providers
// without a ping are reported healthy as long as they are configured.
func providerStatus(ctx context.Context, provider interface{ Name() string }) componentStatus {
	if provider == nil {
		return componentStatus{Healthy: false, Error: "not configured"}
	}
	if pinger, ok := provider.(llm.Pinger); ok {
		if err := pinger.Ping(ctx); err != nil {
			return componentStatus{Healthy: false, Error: err.Error()}
		}
	}
	return componentStatus{Healthy: true, Detail: provider.Name()}
}
