package store

import (
	"context"
)

// Chunk is one indexed fragment of a disease description.
type Chunk struct {
	// ID is the chunk ID, "<orphaCode>-<seq>".
	ID string
	// OrphaCode is the Orphanet code of the disease the chunk belongs to.
	OrphaCode string
	// DiseaseName is the preferred disease name.
	DiseaseName string
	// Content is the chunk text.
	Content string
	// Embedding is the chunk vector.
	Embedding []float32
}

// SearchResult is one vector search hit.
type SearchResult struct {
	// ID is the chunk ID.
	ID string
	// OrphaCode is the disease code.
	OrphaCode string
	// DiseaseName is the disease name.
	DiseaseName string
	// Content is the chunk text.
	Content string
	// Score is the similarity score in (0, 1], higher is closer.
	Score float32
}

// CollectionConfig describes a vector collection.
type CollectionConfig struct {
	// Name is the collection name.
	Name string
	// Description is the collection description.
	Description string
	// Dimension is the embedding dimension.
	Dimension int
}

// VectorStore is the vector storage interface.
type VectorStore interface {
	// CreateCollection creates the collection. Creating an existing
	// collection is a no-op.
	CreateCollection(ctx context.Context, config *CollectionConfig) error

	// DropCollection removes the collection and all its chunks.
	DropCollection(ctx context.Context, collection string) error

	// Insert stores a batch of chunks.
	Insert(ctx context.Context, collection string, chunks []*Chunk) ([]string, error)

	// Search returns up to topK chunks ordered by descending similarity.
	Search(ctx context.Context, collection string, embedding []float32, topK int) ([]*SearchResult, error)

	// GetStats returns the number of stored chunks.
	GetStats(ctx context.Context, collection string) (int64, error)

	// Close releases the store.
	Close(ctx context.Context) error
}
