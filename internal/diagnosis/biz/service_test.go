package biz

import (
	"context"
	"errors"
	"testing"

	"github.com/orphadx-io/orphadx/internal/diagnosis/metrics"
	"github.com/orphadx-io/orphadx/internal/diagnosis/store"
	utilerrors "github.com/orphadx-io/orphadx/pkg/utils/errors"
)

const serviceCollection = "diseases_service_test"

// newTestService wires a full pipeline on the in-memory store.
func newTestService(t *testing.T, chat *mockChat) (Service, *store.MemoryStore, *keywordEmbedder) {
	t.Helper()
	metrics.GetDiagnosisMetrics().Reset()

	vs := store.NewMemoryStore()
	embedder := &keywordEmbedder{}

	chunker, err := NewChunker(&ChunkerConfig{ChunkSize: 512, Overlap: 50})
	if err != nil {
		t.Fatalf("NewChunker failed: %v", err)
	}

	ingester := NewIngester(chunker, embedder, vs, &IngesterConfig{
		Collection:      serviceCollection,
		Dimension:       len(embedKeywords),
		InsertBatchSize: 10,
	})
	retriever := NewRetriever(embedder, vs, &RetrieverConfig{
		Collection: serviceCollection,
		TopK:       5,
	})
	composer := NewComposer(chat, nil)
	cache := NewQueryCache(nil, nil)

	return NewService(ingester, retriever, composer, cache, vs, serviceCollection), vs, embedder
}

func TestService_EndToEnd(t *testing.T) {
	chat := &mockChat{answer: "El cuadro es compatible con el síndrome de Guillain-Barré."}
	svc, _, _ := newTestService(t, chat)
	ctx := context.Background()

	report, err := svc.Ingest(ctx, writeFixture(t, fixtureXML))
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if report.Records != 2 || report.Skipped != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}

	result, err := svc.Diagnose(ctx, "paciente con hormigueo y debilidad")
	if err != nil {
		t.Fatalf("Diagnose failed: %v", err)
	}

	if len(result.Matches) == 0 {
		t.Fatal("expected evidence matches")
	}
	if result.Matches[0].Name != "Síndrome de Guillain-Barré" {
		t.Errorf("expected Guillain-Barré as top match, got %s", result.Matches[0].Name)
	}
	if result.Matches[0].Score < 0.4 {
		t.Errorf("top match score %v below relevance floor", result.Matches[0].Score)
	}
	if result.Diagnosis != chat.answer {
		t.Errorf("unexpected diagnosis: %s", result.Diagnosis)
	}
	if result.Degraded {
		t.Error("result must not be degraded")
	}
}

func TestService_EmptyQuery(t *testing.T) {
	svc, _, embedder := newTestService(t, &mockChat{answer: "ok"})

	_, err := svc.Diagnose(context.Background(), "   ")
	if err == nil {
		t.Fatal("expected error for blank query")
	}
	if !utilerrors.IsCode(err, utilerrors.ErrInvalidQuery.Code) {
		t.Errorf("expected invalid query code, got %v", err)
	}
	if embedder.callCount() != 0 {
		t.Errorf("blank query must not reach the embedder, got %d calls", embedder.callCount())
	}
}

func TestService_IndexOutageIsNotNoMatch(t *testing.T) {
	svc, vs, _ := newTestService(t, &mockChat{answer: "ok"})
	ctx := context.Background()

	if _, err := svc.Ingest(ctx, writeFixture(t, fixtureXML)); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	vs.SetFailing(errors.New("connection refused"))

	// An unreachable index is an error, never an empty answer.
	result, err := svc.Diagnose(ctx, "hormigueo")
	if err == nil {
		t.Fatalf("expected error, got result %+v", result)
	}
	if !utilerrors.IsCode(err, utilerrors.ErrIndexUnavailable.Code) {
		t.Errorf("expected index unavailable code, got %v", err)
	}
}

func TestService_DegradedDiagnosis(t *testing.T) {
	chat := &mockChat{err: errors.New("model timeout")}
	svc, _, _ := newTestService(t, chat)
	ctx := context.Background()

	if _, err := svc.Ingest(ctx, writeFixture(t, fixtureXML)); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	result, err := svc.Diagnose(ctx, "paciente con hormigueo y debilidad")
	if err != nil {
		t.Fatalf("LLM failure must degrade, not fail: %v", err)
	}
	if !result.Degraded {
		t.Error("expected degraded result")
	}
	if len(result.Matches) == 0 {
		t.Error("degraded result must keep the evidence")
	}

	stats := metrics.GetDiagnosisMetrics().Stats()
	queries := stats["queries"].(map[string]interface{})
	if queries["degraded"].(uint64) != 1 {
		t.Errorf("expected 1 degraded query recorded, got %v", queries["degraded"])
	}
}

func TestService_NoRelevantDisease(t *testing.T) {
	svc, _, _ := newTestService(t, &mockChat{answer: "ok"})
	ctx := context.Background()

	// Ingest nothing and query against the empty collection.
	if _, err := svc.Ingest(ctx, writeFixture(t, `<JDBOR><DisorderList></DisorderList></JDBOR>`)); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	result, err := svc.Diagnose(ctx, "fiebre persistente")
	if err != nil {
		t.Fatalf("empty evidence is a valid state, got error %v", err)
	}
	if result.Diagnosis != noEvidenceMessage {
		t.Errorf("unexpected diagnosis: %s", result.Diagnosis)
	}
	if result.Degraded {
		t.Error("no evidence must not mark the result degraded")
	}
}

func TestService_GetStats(t *testing.T) {
	svc, _, _ := newTestService(t, &mockChat{answer: "ok"})
	ctx := context.Background()

	if _, err := svc.Ingest(ctx, writeFixture(t, fixtureXML)); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if _, err := svc.Diagnose(ctx, "hormigueo"); err != nil {
		t.Fatalf("Diagnose failed: %v", err)
	}

	stats, err := svc.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}

	index := stats["index"].(map[string]interface{})
	if index["available"] != true {
		t.Errorf("expected index available, got %+v", index)
	}
	if index["chunks"].(int64) == 0 {
		t.Error("expected indexed chunks in stats")
	}

	pipeline := stats["pipeline"].(map[string]interface{})
	queries := pipeline["queries"].(map[string]interface{})
	if queries["total"].(uint64) != 1 {
		t.Errorf("expected 1 query recorded, got %v", queries["total"])
	}

	cache := stats["cache"].(map[string]interface{})
	if cache["enabled"] != false {
		t.Errorf("expected cache disabled, got %+v", cache)
	}
}
