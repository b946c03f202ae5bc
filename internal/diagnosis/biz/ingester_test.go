package biz

import (
	"context"
	"testing"

	"github.com/orphadx-io/orphadx/internal/diagnosis/store"
	utilerrors "github.com/orphadx-io/orphadx/pkg/utils/errors"
)

func newTestIngester(t *testing.T, vs store.VectorStore, embedder *keywordEmbedder) *Ingester {
	t.Helper()
	chunker, err := NewChunker(&ChunkerConfig{ChunkSize: 512, Overlap: 50})
	if err != nil {
		t.Fatalf("NewChunker failed: %v", err)
	}
	return NewIngester(chunker, embedder, vs, &IngesterConfig{
		Collection:      "diseases_ingest_test",
		Dimension:       len(embedKeywords),
		InsertBatchSize: 2,
	})
}

func TestIngester_Ingest(t *testing.T) {
	vs := store.NewMemoryStore()
	ingester := newTestIngester(t, vs, &keywordEmbedder{})
	path := writeFixture(t, fixtureXML)

	report, err := ingester.Ingest(context.Background(), path)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	if report.Records != 2 {
		t.Errorf("expected 2 records, got %d", report.Records)
	}
	if report.Skipped != 1 {
		t.Errorf("expected 1 skipped, got %d", report.Skipped)
	}
	if report.Chunks == 0 {
		t.Error("expected indexed chunks")
	}
	if len(report.Errors) != 0 {
		t.Errorf("unexpected errors: %v", report.Errors)
	}
	if report.Source != path {
		t.Errorf("expected source %s, got %s", path, report.Source)
	}

	count, err := vs.GetStats(context.Background(), "diseases_ingest_test")
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if int(count) != report.Chunks {
		t.Errorf("store holds %d chunks, report says %d", count, report.Chunks)
	}
}

func TestIngester_Idempotent(t *testing.T) {
	vs := store.NewMemoryStore()
	embedder := &keywordEmbedder{}
	ingester := newTestIngester(t, vs, embedder)
	path := writeFixture(t, fixtureXML)
	ctx := context.Background()

	probe, err := embedder.EmbedSingle(ctx, "paciente con hormigueo y debilidad")
	if err != nil {
		t.Fatalf("EmbedSingle failed: %v", err)
	}

	if _, err := ingester.Ingest(ctx, path); err != nil {
		t.Fatalf("first ingest failed: %v", err)
	}
	first, err := vs.Search(ctx, "diseases_ingest_test", probe, 5)
	if err != nil {
		t.Fatalf("first search failed: %v", err)
	}

	if _, err := ingester.Ingest(ctx, path); err != nil {
		t.Fatalf("second ingest failed: %v", err)
	}
	second, err := vs.Search(ctx, "diseases_ingest_test", probe, 5)
	if err != nil {
		t.Fatalf("second search failed: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("result counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("position %d: IDs differ, %s vs %s", i, first[i].ID, second[i].ID)
		}
		if first[i].Score != second[i].Score {
			t.Errorf("position %d: scores differ, %v vs %v", i, first[i].Score, second[i].Score)
		}
	}
}

func TestIngester_MalformedKeepsIndex(t *testing.T) {
	vs := store.NewMemoryStore()
	ingester := newTestIngester(t, vs, &keywordEmbedder{})
	ctx := context.Background()

	if _, err := ingester.Ingest(ctx, writeFixture(t, fixtureXML)); err != nil {
		t.Fatalf("initial ingest failed: %v", err)
	}
	before, err := vs.GetStats(ctx, "diseases_ingest_test")
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}

	badPath := writeFixture(t, "<JDBOR><DisorderList>")
	_, err = ingester.Ingest(ctx, badPath)
	if err == nil {
		t.Fatal("expected error for malformed document")
	}
	if !utilerrors.IsCode(err, utilerrors.ErrParse.Code) {
		t.Errorf("expected parse error code, got %v", err)
	}

	// A parse failure aborts before the index is touched.
	after, err := vs.GetStats(ctx, "diseases_ingest_test")
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if before != after {
		t.Errorf("index changed after failed ingest: %d vs %d chunks", before, after)
	}
}

func TestIngester_EmbeddingFailureReported(t *testing.T) {
	vs := store.NewMemoryStore()
	// Marfan chunks fail to embed, Guillain-Barré still gets indexed.
	ingester := newTestIngester(t, vs, &keywordEmbedder{failOn: "Marfan"})
	ctx := context.Background()

	report, err := ingester.Ingest(ctx, writeFixture(t, fixtureXML))
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	if report.Records != 1 {
		t.Errorf("expected 1 indexed record, got %d", report.Records)
	}
	if len(report.Errors) != 1 {
		t.Fatalf("expected 1 reported error, got %v", report.Errors)
	}

	results, err := vs.Search(ctx, "diseases_ingest_test", keywordVector("hormigueo"), 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	for _, r := range results {
		if r.OrphaCode == "558" {
			t.Error("failed record must not be indexed")
		}
	}
}

func TestIngester_IndexOutage(t *testing.T) {
	vs := store.NewMemoryStore()
	vs.SetFailing(context.DeadlineExceeded)
	ingester := newTestIngester(t, vs, &keywordEmbedder{})

	_, err := ingester.Ingest(context.Background(), writeFixture(t, fixtureXML))
	if err == nil {
		t.Fatal("expected error when index is down")
	}
	if !utilerrors.IsCode(err, utilerrors.ErrIndexUnavailable.Code) {
		t.Errorf("expected index unavailable code, got %v", err)
	}
}
