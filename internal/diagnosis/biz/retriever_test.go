package biz

import (
	"context"
	"testing"

	"github.com/orphadx-io/orphadx/internal/diagnosis/store"
	utilerrors "github.com/orphadx-io/orphadx/pkg/utils/errors"
)

func newTestRetriever(t *testing.T, vs store.VectorStore, embedder *keywordEmbedder) *Retriever {
	t.Helper()
	return NewRetriever(embedder, vs, &RetrieverConfig{
		Collection: "diseases_retrieve_test",
		TopK:       3,
	})
}

func seedStore(t *testing.T, vs *store.MemoryStore) {
	t.Helper()
	ctx := context.Background()
	if err := vs.CreateCollection(ctx, &store.CollectionConfig{
		Name:      "diseases_retrieve_test",
		Dimension: len(embedKeywords),
	}); err != nil {
		t.Fatalf("CreateCollection failed: %v", err)
	}

	chunks := []*store.Chunk{
		{ID: "2103-0", OrphaCode: "2103", DiseaseName: "Síndrome de Guillain-Barré",
			Content:   "hormigueo debilidad muscular dificultad para respirar",
			Embedding: keywordVector("hormigueo debilidad respirar")},
		{ID: "558-0", OrphaCode: "558", DiseaseName: "Síndrome de Marfan",
			Content:   "aracnodactilia luxación del cristalino",
			Embedding: keywordVector("aracnodactilia cristalino")},
	}
	if _, err := vs.Insert(ctx, "diseases_retrieve_test", chunks); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
}

func TestRetriever_EmptyQueryFailsFast(t *testing.T) {
	vs := store.NewMemoryStore()
	embedder := &keywordEmbedder{}
	r := newTestRetriever(t, vs, embedder)

	for _, query := range []string{"", "   ", "\t\n"} {
		_, err := r.Retrieve(context.Background(), query)
		if err == nil {
			t.Fatalf("expected error for query %q", query)
		}
		if !utilerrors.IsCode(err, utilerrors.ErrInvalidQuery.Code) {
			t.Errorf("expected invalid query code, got %v", err)
		}
	}

	// Validation happens before the embedding provider is touched.
	if embedder.callCount() != 0 {
		t.Errorf("expected zero embedding calls, got %d", embedder.callCount())
	}
}

func TestRetriever_Retrieve(t *testing.T) {
	vs := store.NewMemoryStore()
	seedStore(t, vs)
	r := newTestRetriever(t, vs, &keywordEmbedder{})

	results, err := r.Retrieve(context.Background(), "paciente con hormigueo y debilidad")
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected results")
	}
	if results[0].OrphaCode != "2103" {
		t.Errorf("expected Guillain-Barré first, got %s", results[0].DiseaseName)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Error("results not in descending score order")
		}
	}
}

func TestRetriever_EmptyIndexIsNotAnError(t *testing.T) {
	vs := store.NewMemoryStore()
	if err := vs.CreateCollection(context.Background(), &store.CollectionConfig{
		Name:      "diseases_retrieve_test",
		Dimension: len(embedKeywords),
	}); err != nil {
		t.Fatalf("CreateCollection failed: %v", err)
	}
	r := newTestRetriever(t, vs, &keywordEmbedder{})

	results, err := r.Retrieve(context.Background(), "fiebre persistente")
	if err != nil {
		t.Fatalf("empty index must not be an error, got %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestRetriever_IndexOutage(t *testing.T) {
	vs := store.NewMemoryStore()
	seedStore(t, vs)
	vs.SetFailing(context.DeadlineExceeded)
	r := newTestRetriever(t, vs, &keywordEmbedder{})

	_, err := r.Retrieve(context.Background(), "hormigueo")
	if err == nil {
		t.Fatal("expected error when index is down")
	}
	if !utilerrors.IsCode(err, utilerrors.ErrIndexUnavailable.Code) {
		t.Errorf("expected index unavailable code, got %v", err)
	}
}
