package llm

import (
	"context"
	"sync"
	"testing"
)

// countingProvider returns a fixed embedding per text and counts calls.
type countingProvider struct {
	mu    sync.Mutex
	calls int
}

func (p *countingProvider) Name() string { return "counting" }

func (p *countingProvider) Embed(_ context.Context, texts []string) ([][]float32, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()

	result := make([][]float32, len(texts))
	for i, text := range texts {
		result[i] = []float32{float32(len(text)), 0.5}
	}
	return result, nil
}

func (p *countingProvider) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := p.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

func TestCachedEmbeddingProvider_SingleHit(t *testing.T) {
	upstream := &countingProvider{}
	cached, err := NewCachedEmbeddingProvider(upstream, nil, nil)
	if err != nil {
		t.Fatalf("NewCachedEmbeddingProvider failed: %v", err)
	}

	ctx := context.Background()

	first, err := cached.EmbedSingle(ctx, "hormigueo")
	if err != nil {
		t.Fatalf("EmbedSingle failed: %v", err)
	}

	second, err := cached.EmbedSingle(ctx, "hormigueo")
	if err != nil {
		t.Fatalf("EmbedSingle failed: %v", err)
	}

	if upstream.calls != 1 {
		t.Errorf("expected 1 upstream call, got %d", upstream.calls)
	}
	if len(first) != len(second) || first[0] != second[0] {
		t.Error("cached embedding differs from original")
	}
}

func TestCachedEmbeddingProvider_BatchPartialHit(t *testing.T) {
	upstream := &countingProvider{}
	cached, err := NewCachedEmbeddingProvider(upstream, nil, nil)
	if err != nil {
		t.Fatalf("NewCachedEmbeddingProvider failed: %v", err)
	}

	ctx := context.Background()

	if _, err := cached.EmbedSingle(ctx, "a"); err != nil {
		t.Fatalf("EmbedSingle failed: %v", err)
	}

	// "a" is already cached, only "bb" and "ccc" go upstream.
	embeddings, err := cached.Embed(ctx, []string{"a", "bb", "ccc"})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	if upstream.calls != 2 {
		t.Errorf("expected 2 upstream calls, got %d", upstream.calls)
	}
	if len(embeddings) != 3 {
		t.Fatalf("expected 3 embeddings, got %d", len(embeddings))
	}
	for i, want := range []float32{1, 2, 3} {
		if embeddings[i][0] != want {
			t.Errorf("embedding %d: got %v, want %v", i, embeddings[i][0], want)
		}
	}
}

func TestCachedEmbeddingProvider_Eviction(t *testing.T) {
	upstream := &countingProvider{}
	cached, err := NewCachedEmbeddingProvider(upstream, nil, &EmbeddingCacheConfig{Size: 2, KeyPrefix: "emb:"})
	if err != nil {
		t.Fatalf("NewCachedEmbeddingProvider failed: %v", err)
	}

	ctx := context.Background()
	for _, text := range []string{"a", "bb", "ccc"} {
		if _, err := cached.EmbedSingle(ctx, text); err != nil {
			t.Fatalf("EmbedSingle failed: %v", err)
		}
	}

	if cached.Len() != 2 {
		t.Errorf("expected 2 cached entries after eviction, got %d", cached.Len())
	}
}

func TestCachedEmbeddingProvider_Name(t *testing.T) {
	upstream := &countingProvider{}
	cached, err := NewCachedEmbeddingProvider(upstream, nil, nil)
	if err != nil {
		t.Fatalf("NewCachedEmbeddingProvider failed: %v", err)
	}

	if cached.Name() != "counting-cached" {
		t.Errorf("unexpected name: %s", cached.Name())
	}
}
