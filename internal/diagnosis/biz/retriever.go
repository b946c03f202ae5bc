package biz

import (
	"context"
	"strings"

	"github.com/kart-io/logger"

	"github.com/orphadx-io/orphadx/internal/diagnosis/store"
	"github.com/orphadx-io/orphadx/pkg/llm"
	"github.com/orphadx-io/orphadx/pkg/utils/errors"
)

// RetrieverConfig controls the retrieval step.
type RetrieverConfig struct {
	// Collection is the vector index collection name.
	Collection string
	// TopK is the number of chunks returned per query.
	TopK int
}

// DefaultRetrieverConfig returns the default retrieval parameters.
func DefaultRetrieverConfig() *RetrieverConfig {
	return &RetrieverConfig{
		Collection: "diseases",
		TopK:       5,
	}
}

// Retriever embeds a symptom query and searches the vector index.
// The query path must use the same embedding provider as ingestion,
// otherwise the vectors are not comparable.
type Retriever struct {
	embedder llm.EmbeddingProvider
	store    store.VectorStore
	config   *RetrieverConfig
}

// NewRetriever creates a retriever.
func NewRetriever(embedder llm.EmbeddingProvider, vs store.VectorStore, config *RetrieverConfig) *Retriever {
	if config == nil {
		config = DefaultRetrieverConfig()
	}
	return &Retriever{
		embedder: embedder,
		store:    vs,
		config:   config,
	}
}

// Retrieve returns the topK most similar chunks for the symptom text,
// best match first. An empty or whitespace-only query fails before any
// embedding call. An empty result is a valid outcome, not an error.
func (r *Retriever) Retrieve(ctx context.Context, symptoms string) ([]*store.SearchResult, error) {
	query := strings.TrimSpace(symptoms)
	if query == "" {
		return nil, errors.ErrInvalidQuery
	}

	logger.Debugw("retrieving evidence", "query_length", len(query), "top_k", r.config.TopK)

	embedding, err := r.embedder.EmbedSingle(ctx, query)
	if err != nil {
		return nil, errors.ErrEmbedding.WithCause(err)
	}

	results, err := r.store.Search(ctx, r.config.Collection, embedding, r.config.TopK)
	if err != nil {
		return nil, err
	}

	logger.Debugw("retrieval done", "results", len(results))
	return results, nil
}
