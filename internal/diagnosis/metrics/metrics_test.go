package metrics

import (
	"errors"
	"testing"
	"time"
)

func TestRecordQuery(t *testing.T) {
	m := GetDiagnosisMetrics()
	m.Reset()

	m.RecordQuery(true, nil)
	m.RecordQuery(false, nil)
	m.RecordQuery(false, errors.New("boom"))

	stats := m.Stats()
	queries := stats["queries"].(map[string]interface{})

	if queries["total"].(uint64) != 3 {
		t.Errorf("expected 3 queries, got %v", queries["total"])
	}
	if queries["cache_hits"].(uint64) != 1 {
		t.Errorf("expected 1 cache hit, got %v", queries["cache_hits"])
	}
	if queries["errors"].(uint64) != 1 {
		t.Errorf("expected 1 error, got %v", queries["errors"])
	}
	if queries["cache_hit_rate"].(float64) != 0.5 {
		t.Errorf("expected hit rate 0.5, got %v", queries["cache_hit_rate"])
	}
}

func TestRecordRetrievalAndLLM(t *testing.T) {
	m := GetDiagnosisMetrics()
	m.Reset()

	m.RecordRetrieval(100*time.Millisecond, nil)
	m.RecordRetrieval(300*time.Millisecond, nil)
	m.RecordLLMCall(500*time.Millisecond, 10, 20, nil)

	stats := m.Stats()
	retrieval := stats["retrieval"].(map[string]interface{})
	llm := stats["llm"].(map[string]interface{})

	if retrieval["total"].(uint64) != 2 {
		t.Errorf("expected 2 retrievals, got %v", retrieval["total"])
	}
	avg := retrieval["avg_duration_secs"].(float64)
	if avg < 0.19 || avg > 0.21 {
		t.Errorf("expected avg retrieval ~0.2s, got %v", avg)
	}
	if llm["tokens_prompt"].(uint64) != 10 {
		t.Errorf("expected 10 prompt tokens, got %v", llm["tokens_prompt"])
	}
	if llm["tokens_completion"].(uint64) != 20 {
		t.Errorf("expected 20 completion tokens, got %v", llm["tokens_completion"])
	}
}

func TestRecordIngestion(t *testing.T) {
	m := GetDiagnosisMetrics()
	m.Reset()

	m.RecordIngestion(5, 42, nil)
	m.RecordIngestion(0, 0, errors.New("parse failure"))

	stats := m.Stats()
	ingestion := stats["ingestion"].(map[string]interface{})

	if ingestion["records_ingested"].(uint64) != 5 {
		t.Errorf("expected 5 records, got %v", ingestion["records_ingested"])
	}
	if ingestion["chunks_ingested"].(uint64) != 42 {
		t.Errorf("expected 42 chunks, got %v", ingestion["chunks_ingested"])
	}
	if ingestion["errors"].(uint64) != 1 {
		t.Errorf("expected 1 error, got %v", ingestion["errors"])
	}
}

func TestRecordDegraded(t *testing.T) {
	m := GetDiagnosisMetrics()
	m.Reset()

	m.RecordDegraded()

	stats := m.Stats()
	queries := stats["queries"].(map[string]interface{})
	if queries["degraded"].(uint64) != 1 {
		t.Errorf("expected 1 degraded query, got %v", queries["degraded"])
	}
}
