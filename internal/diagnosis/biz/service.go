package biz

import (
	"context"
	"strings"
	"time"

	"github.com/kart-io/logger"

	"github.com/orphadx-io/orphadx/internal/diagnosis/metrics"
	"github.com/orphadx-io/orphadx/internal/diagnosis/store"
	"github.com/orphadx-io/orphadx/internal/model"
	"github.com/orphadx-io/orphadx/pkg/utils/errors"
)

// Service is the diagnosis business interface.
type Service interface {
	// Ingest loads the nomenclature document at path into the vector index.
	Ingest(ctx context.Context, path string) (*model.IngestReport, error)

	// Diagnose answers a free-text symptom query with ranked evidence and
	// an LLM assessment.
	Diagnose(ctx context.Context, symptoms string) (*model.DiagnosisResult, error)

	// GetStats reports index, cache and pipeline statistics.
	GetStats(ctx context.Context) (map[string]interface{}, error)
}

type diagnosisService struct {
	ingester   *Ingester
	retriever  *Retriever
	composer   *Composer
	cache      *QueryCache
	store      store.VectorStore
	collection string
}

// NewService wires the pipeline components into a diagnosis service.
// cache may be nil when result caching is disabled.
func NewService(ingester *Ingester, retriever *Retriever, composer *Composer, cache *QueryCache, vs store.VectorStore, collection string) Service {
	return &diagnosisService{
		ingester:   ingester,
		retriever:  retriever,
		composer:   composer,
		cache:      cache,
		store:      vs,
		collection: collection,
	}
}

// Ingest runs the ingestion pipeline and invalidates cached results, since
// a rebuilt index can change every answer.
func (s *diagnosisService) Ingest(ctx context.Context, path string) (*model.IngestReport, error) {
	report, err := s.ingester.Ingest(ctx, path)
	if err != nil {
		return report, err
	}

	if err := s.cache.Clear(ctx); err != nil {
		logger.Warnw("failed to clear query cache after ingestion", "error", err.Error())
	}

	return report, nil
}

func (s *diagnosisService) Diagnose(ctx context.Context, symptoms string) (*model.DiagnosisResult, error) {
	m := metrics.GetDiagnosisMetrics()

	query := strings.TrimSpace(symptoms)
	if query == "" {
		return nil, errors.ErrInvalidQuery
	}

	// 1. Check the result cache.
	if cached, err := s.cache.Get(ctx, query); err == nil && cached != nil {
		m.RecordQuery(true, nil)
		return cached, nil
	}

	// 2. Retrieve evidence. Search failures are fatal to the request.
	retrievalStart := time.Now()
	results, err := s.retriever.Retrieve(ctx, query)
	m.RecordRetrieval(time.Since(retrievalStart), err)
	if err != nil {
		m.RecordQuery(false, err)
		return nil, err
	}

	// 3. Compose the response. Generation failures degrade to evidence only.
	llmStart := time.Now()
	result, usage, err := s.composer.Compose(ctx, query, results)
	if err != nil {
		m.RecordQuery(false, err)
		return nil, err
	}

	if result.Degraded {
		m.RecordLLMCall(time.Since(llmStart), 0, 0, errors.ErrGeneration)
		m.RecordDegraded()
	} else if len(result.Matches) > 0 {
		promptTokens, completionTokens := 0, 0
		if usage != nil {
			promptTokens = usage.PromptTokens
			completionTokens = usage.CompletionTokens
		}
		m.RecordLLMCall(time.Since(llmStart), promptTokens, completionTokens, nil)
	}

	// 4. Cache the result. A cache failure never fails the request.
	if err := s.cache.Set(ctx, query, result); err != nil {
		logger.Debugw("failed to cache diagnosis result", "error", err.Error())
	}

	m.RecordQuery(false, nil)
	return result, nil
}

func (s *diagnosisService) GetStats(ctx context.Context) (map[string]interface{}, error) {
	stats := map[string]interface{}{
		"pipeline": metrics.GetDiagnosisMetrics().Stats(),
	}

	indexStats := map[string]interface{}{"available": true}
	if count, err := s.store.GetStats(ctx, s.collection); err != nil {
		indexStats["available"] = false
		indexStats["error"] = err.Error()
	} else {
		indexStats["chunks"] = count
	}
	stats["index"] = indexStats

	cacheStats, err := s.cache.Stats(ctx)
	if err != nil {
		cacheStats["error"] = err.Error()
	}
	stats["cache"] = cacheStats

	return stats, nil
}
