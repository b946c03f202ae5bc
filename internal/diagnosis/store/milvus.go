package store

import (
	"context"

	"github.com/milvus-io/milvus/client/v2/entity"

	"github.com/orphadx-io/orphadx/internal/pkg/textutil"
	"github.com/orphadx-io/orphadx/pkg/component/milvus"
	"github.com/orphadx-io/orphadx/pkg/utils/errors"
)

// MilvusStore implements VectorStore on Milvus.
type MilvusStore struct {
	client *milvus.Client
}

// NewMilvusStore creates a Milvus-backed store.
func NewMilvusStore(client *milvus.Client) *MilvusStore {
	return &MilvusStore{client: client}
}

// CreateCollection creates the Milvus collection for disease chunks.
func (s *MilvusStore) CreateCollection(ctx context.Context, config *CollectionConfig) error {
	schema := &milvus.CollectionSchema{
		Name:        config.Name,
		Description: config.Description,
		Dimension:   config.Dimension,
		MetaFields: []milvus.MetaField{
			{Name: "chunk_id", DataType: entity.FieldTypeVarChar, MaxLen: 64},
			{Name: "orpha_code", DataType: entity.FieldTypeVarChar, MaxLen: 32},
			{Name: "disease_name", DataType: entity.FieldTypeVarChar, MaxLen: 512},
			{Name: "content", DataType: entity.FieldTypeVarChar, MaxLen: 65535},
		},
	}
	if err := s.client.CreateCollection(ctx, schema); err != nil {
		return errors.ErrIndexUnavailable.WithCause(err)
	}
	return nil
}

// DropCollection removes the collection.
func (s *MilvusStore) DropCollection(ctx context.Context, collection string) error {
	if err := s.client.DropCollection(ctx, collection); err != nil {
		return errors.ErrIndexUnavailable.WithCause(err)
	}
	return nil
}

// Insert stores chunks in Milvus.
func (s *MilvusStore) Insert(ctx context.Context, collection string, chunks []*Chunk) ([]string, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	embeddings := make([][]float32, len(chunks))
	metadata := map[string][]any{
		"chunk_id":     make([]any, len(chunks)),
		"orpha_code":   make([]any, len(chunks)),
		"disease_name": make([]any, len(chunks)),
		"content":      make([]any, len(chunks)),
	}

	for i, chunk := range chunks {
		embeddings[i] = chunk.Embedding
		metadata["chunk_id"][i] = chunk.ID
		metadata["orpha_code"][i] = chunk.OrphaCode
		metadata["disease_name"][i] = chunk.DiseaseName
		metadata["content"][i] = chunk.Content
	}

	data := &milvus.InsertData{
		Embeddings: embeddings,
		Metadata:   metadata,
	}

	ids, err := s.client.Insert(ctx, collection, data)
	if err != nil {
		return nil, errors.ErrIndexUnavailable.WithCause(err)
	}

	stringIDs := make([]string, len(chunks))
	for i := range chunks {
		if i < len(ids) {
			stringIDs[i] = chunks[i].ID
		}
	}

	return stringIDs, nil
}

// Search performs a vector similarity search. Milvus reports raw L2
// distances; they are converted so callers always see descending scores
// in (0, 1].
func (s *MilvusStore) Search(ctx context.Context, collection string, embedding []float32, topK int) ([]*SearchResult, error) {
	outputFields := []string{"chunk_id", "orpha_code", "disease_name", "content"}
	results, err := s.client.Search(ctx, collection, embedding, topK, outputFields)
	if err != nil {
		return nil, errors.ErrIndexUnavailable.WithCause(err)
	}

	searchResults := make([]*SearchResult, len(results))
	for i, r := range results {
		sr := &SearchResult{
			Score: textutil.DistanceToScore(float64(r.Score)),
		}
		if v, ok := r.Metadata["chunk_id"].(string); ok {
			sr.ID = v
		}
		if v, ok := r.Metadata["orpha_code"].(string); ok {
			sr.OrphaCode = v
		}
		if v, ok := r.Metadata["disease_name"].(string); ok {
			sr.DiseaseName = v
		}
		if v, ok := r.Metadata["content"].(string); ok {
			sr.Content = v
		}
		searchResults[i] = sr
	}

	return searchResults, nil
}

// GetStats returns the number of stored chunks.
func (s *MilvusStore) GetStats(ctx context.Context, collection string) (int64, error) {
	count, err := s.client.GetCollectionStats(ctx, collection)
	if err != nil {
		return 0, errors.ErrIndexUnavailable.WithCause(err)
	}
	return count, nil
}

// Close closes the Milvus connection.
func (s *MilvusStore) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}

var _ VectorStore = (*MilvusStore)(nil)
