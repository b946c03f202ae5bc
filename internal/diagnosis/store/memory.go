package store

import (
	"context"
	"sort"
	"sync"

	"github.com/orphadx-io/orphadx/internal/pkg/textutil"
	"github.com/orphadx-io/orphadx/pkg/utils/errors"
)

type memoryEntry struct {
	chunk *Chunk
	seq   int64
}

type memoryCollection struct {
	config  *CollectionConfig
	entries []memoryEntry
}

// MemoryStore implements VectorStore with brute-force search in memory.
// Useful for tests and small single-node deployments.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
	nextSeq     int64

	// failErr, when set, makes every operation fail. Used to simulate an
	// index outage in tests.
	failErr error
}

// NewMemoryStore creates an in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]*memoryCollection),
	}
}

// SetFailing makes all subsequent operations return err. Pass nil to heal.
func (s *MemoryStore) SetFailing(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failErr = err
}

func (s *MemoryStore) checkFailing() error {
	if s.failErr != nil {
		return errors.ErrIndexUnavailable.WithCause(s.failErr)
	}
	return nil
}

// CreateCollection creates the collection if it does not exist.
func (s *MemoryStore) CreateCollection(_ context.Context, config *CollectionConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkFailing(); err != nil {
		return err
	}

	if _, exists := s.collections[config.Name]; exists {
		return nil
	}

	s.collections[config.Name] = &memoryCollection{config: config}
	return nil
}

// DropCollection removes the collection and all its chunks.
func (s *MemoryStore) DropCollection(_ context.Context, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkFailing(); err != nil {
		return err
	}

	delete(s.collections, collection)
	return nil
}

// Insert stores chunks, preserving insertion order for tie-breaking.
func (s *MemoryStore) Insert(_ context.Context, collection string, chunks []*Chunk) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkFailing(); err != nil {
		return nil, err
	}

	coll, exists := s.collections[collection]
	if !exists {
		return nil, errors.ErrIndexUnavailable.WithMessagef("collection %s does not exist", collection)
	}

	ids := make([]string, len(chunks))
	for i, chunk := range chunks {
		c := *chunk
		coll.entries = append(coll.entries, memoryEntry{chunk: &c, seq: s.nextSeq})
		s.nextSeq++
		ids[i] = chunk.ID
	}

	return ids, nil
}

// Search brute-forces L2 distance over all chunks and returns the topK by
// descending score. Equal scores keep insertion order.
func (s *MemoryStore) Search(_ context.Context, collection string, embedding []float32, topK int) ([]*SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkFailing(); err != nil {
		return nil, err
	}

	coll, exists := s.collections[collection]
	if !exists {
		return nil, errors.ErrIndexUnavailable.WithMessagef("collection %s does not exist", collection)
	}

	type scored struct {
		entry memoryEntry
		score float32
	}

	candidates := make([]scored, 0, len(coll.entries))
	for _, entry := range coll.entries {
		distance := textutil.L2Distance(embedding, entry.chunk.Embedding)
		candidates = append(candidates, scored{
			entry: entry,
			score: textutil.DistanceToScore(distance),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].entry.seq < candidates[j].entry.seq
	})

	if topK > len(candidates) {
		topK = len(candidates)
	}

	results := make([]*SearchResult, 0, topK)
	for _, c := range candidates[:topK] {
		results = append(results, &SearchResult{
			ID:          c.entry.chunk.ID,
			OrphaCode:   c.entry.chunk.OrphaCode,
			DiseaseName: c.entry.chunk.DiseaseName,
			Content:     c.entry.chunk.Content,
			Score:       c.score,
		})
	}

	return results, nil
}

// GetStats returns the number of stored chunks.
func (s *MemoryStore) GetStats(_ context.Context, collection string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.checkFailing(); err != nil {
		return 0, err
	}

	coll, exists := s.collections[collection]
	if !exists {
		return 0, nil
	}

	return int64(len(coll.entries)), nil
}

// Close releases the store.
func (s *MemoryStore) Close(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.collections = make(map[string]*memoryCollection)
	return nil
}

var _ VectorStore = (*MemoryStore)(nil)
