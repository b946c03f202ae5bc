package biz

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kart-io/logger"

	"github.com/orphadx-io/orphadx/internal/diagnosis/metrics"
	"github.com/orphadx-io/orphadx/internal/diagnosis/store"
	"github.com/orphadx-io/orphadx/internal/model"
	"github.com/orphadx-io/orphadx/pkg/infra/pool"
	"github.com/orphadx-io/orphadx/pkg/llm"
	"github.com/orphadx-io/orphadx/pkg/utils/errors"
)

// IngesterConfig controls the ingestion pipeline.
type IngesterConfig struct {
	// Collection is the vector index collection name.
	Collection string
	// Dimension is the embedding vector dimension.
	Dimension int
	// InsertBatchSize bounds the number of chunks per index write.
	InsertBatchSize int
}

// DefaultIngesterConfig returns the default ingestion parameters.
func DefaultIngesterConfig() *IngesterConfig {
	return &IngesterConfig{
		Collection:      "diseases",
		Dimension:       768,
		InsertBatchSize: 100,
	}
}

// Ingester loads a nomenclature document into the vector index.
//
// Re-ingestion uses full-replace semantics: the collection is dropped and
// rebuilt, so running the pipeline twice on the same document leaves the
// index in the same retrievable state.
type Ingester struct {
	normalizer *Normalizer
	chunker    *Chunker
	embedder   llm.EmbeddingProvider
	store      store.VectorStore
	config     *IngesterConfig
}

// NewIngester creates an ingestion pipeline.
func NewIngester(chunker *Chunker, embedder llm.EmbeddingProvider, vs store.VectorStore, config *IngesterConfig) *Ingester {
	if config == nil {
		config = DefaultIngesterConfig()
	}
	return &Ingester{
		normalizer: NewNormalizer(),
		chunker:    chunker,
		embedder:   embedder,
		store:      vs,
		config:     config,
	}
}

// Ingest parses, chunks, embeds and indexes the document at path, returning
// a structured report. A parse failure aborts before the index is touched,
// so a malformed document never destroys the previous index state.
func (i *Ingester) Ingest(ctx context.Context, path string) (*model.IngestReport, error) {
	start := time.Now()
	m := metrics.GetDiagnosisMetrics()

	records, skipped, err := i.normalizer.ParseFile(path)
	if err != nil {
		m.RecordIngestion(0, 0, err)
		return nil, err
	}

	report := &model.IngestReport{
		Source:  path,
		Skipped: skipped,
	}

	// Full replace: rebuild the collection from scratch.
	if err := i.store.DropCollection(ctx, i.config.Collection); err != nil {
		m.RecordIngestion(0, 0, err)
		return nil, err
	}
	if err := i.store.CreateCollection(ctx, &store.CollectionConfig{
		Name:        i.config.Collection,
		Description: "rare disease nomenclature chunks",
		Dimension:   i.config.Dimension,
	}); err != nil {
		m.RecordIngestion(0, 0, err)
		return nil, err
	}

	chunksByRecord, recordErrs := i.embedRecords(ctx, records)

	var batch []*store.Chunk
	for idx, record := range records {
		if recordErrs[idx] != nil {
			report.Errors = append(report.Errors,
				fmt.Sprintf("record %s: %v", record.OrphaCode, recordErrs[idx]))
			continue
		}

		report.Records++
		batch = append(batch, chunksByRecord[idx]...)

		if len(batch) >= i.config.InsertBatchSize {
			if err := i.flush(ctx, batch, report); err != nil {
				m.RecordIngestion(report.Records, report.Chunks, err)
				return report, err
			}
			batch = batch[:0]
		}
	}
	if err := i.flush(ctx, batch, report); err != nil {
		m.RecordIngestion(report.Records, report.Chunks, err)
		return report, err
	}

	report.Duration = time.Since(start)
	m.RecordIngestion(report.Records, report.Chunks, nil)

	logger.Infow("ingestion completed",
		"source", path,
		"records", report.Records,
		"skipped", report.Skipped,
		"chunks", report.Chunks,
		"errors", len(report.Errors),
		"duration", report.Duration.String())

	return report, nil
}

// embedRecords chunks and embeds all records in parallel on the ingest
// worker pool. Results keep record order so insertion order, and with it
// search tie-breaking, stays deterministic across runs.
func (i *Ingester) embedRecords(ctx context.Context, records []*model.DiseaseRecord) ([][]*store.Chunk, []error) {
	chunksByRecord := make([][]*store.Chunk, len(records))
	recordErrs := make([]error, len(records))

	var wg sync.WaitGroup
	for idx, record := range records {
		wg.Add(1)
		idx, record := idx, record
		task := func() {
			defer wg.Done()
			chunksByRecord[idx], recordErrs[idx] = i.embedRecord(ctx, record)
		}

		if err := pool.SubmitToType(pool.IngestPool, task); err != nil {
			logger.Warnw("ingest pool unavailable, falling back to goroutine",
				"error", err.Error())
			go task()
		}
	}
	wg.Wait()

	return chunksByRecord, recordErrs
}

func (i *Ingester) embedRecord(ctx context.Context, record *model.DiseaseRecord) ([]*store.Chunk, error) {
	chunks := i.chunker.Chunk(record)
	if len(chunks) == 0 {
		return nil, nil
	}

	texts := make([]string, len(chunks))
	for n, chunk := range chunks {
		texts[n] = chunk.Content
	}

	embeddings, err := i.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, errors.ErrEmbedding.WithCause(err)
	}
	if len(embeddings) != len(chunks) {
		return nil, errors.ErrEmbedding.WithMessagef(
			"embedding count mismatch: %d texts, %d vectors", len(chunks), len(embeddings))
	}

	for n := range chunks {
		chunks[n].Embedding = embeddings[n]
	}

	return chunks, nil
}

func (i *Ingester) flush(ctx context.Context, batch []*store.Chunk, report *model.IngestReport) error {
	if len(batch) == 0 {
		return nil
	}

	ids, err := i.store.Insert(ctx, i.config.Collection, batch)
	if err != nil {
		return err
	}

	report.Chunks += len(ids)
	return nil
}
