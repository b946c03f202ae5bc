package biz

import (
	"fmt"
	"strings"

	"github.com/orphadx-io/orphadx/internal/diagnosis/store"
	"github.com/orphadx-io/orphadx/internal/model"
	"github.com/orphadx-io/orphadx/internal/pkg/textutil"
	"github.com/orphadx-io/orphadx/pkg/utils/errors"
)

// ChunkerConfig controls how record text is split.
// Lengths are counted in Unicode characters on both the ingestion and the
// query path, so overlap math stays consistent.
type ChunkerConfig struct {
	// ChunkSize is the maximum chunk length.
	ChunkSize int
	// Overlap is the number of characters shared between adjacent chunks.
	// Must be smaller than ChunkSize.
	Overlap int
}

// DefaultChunkerConfig returns the default chunking parameters.
func DefaultChunkerConfig() *ChunkerConfig {
	return &ChunkerConfig{
		ChunkSize: 512,
		Overlap:   50,
	}
}

// Validate checks the chunking parameters.
func (c *ChunkerConfig) Validate() error {
	if c.ChunkSize <= 0 {
		return errors.ErrConfig.WithMessagef("chunk size must be positive, got %d", c.ChunkSize)
	}
	if c.Overlap < 0 {
		return errors.ErrConfig.WithMessagef("overlap must not be negative, got %d", c.Overlap)
	}
	if c.Overlap >= c.ChunkSize {
		return errors.ErrConfig.WithMessagef("overlap %d must be smaller than chunk size %d", c.Overlap, c.ChunkSize)
	}
	return nil
}

// Chunker splits disease records into bounded overlapping chunks.
type Chunker struct {
	config *ChunkerConfig
}

// NewChunker creates a chunker. Fails when the configuration is invalid.
func NewChunker(config *ChunkerConfig) (*Chunker, error) {
	if config == nil {
		config = DefaultChunkerConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Chunker{config: config}, nil
}

// ComposeText flattens a disease record into the text that gets chunked
// and embedded. Whitespace is normalized so re-ingestion of the same
// document produces identical chunks.
func ComposeText(record *model.DiseaseRecord) string {
	var b strings.Builder

	b.WriteString("Enfermedad: ")
	b.WriteString(record.Name)
	b.WriteString(".")

	if len(record.Synonyms) > 0 {
		b.WriteString(" Sinónimos: ")
		b.WriteString(strings.Join(record.Synonyms, ", "))
		b.WriteString(".")
	}
	if len(record.ClinicalSigns) > 0 {
		b.WriteString(" Signos clínicos: ")
		b.WriteString(strings.Join(record.ClinicalSigns, ", "))
		b.WriteString(".")
	}
	if record.Definition != "" {
		b.WriteString(" ")
		b.WriteString(record.Definition)
	}

	return textutil.NormalizeWhitespace(b.String())
}

// Chunk splits one record into ordered chunks. Chunk IDs are
// "<orphaCode>-<sequence>" so re-ingestion of the same record regenerates
// the same IDs. Text shorter than the chunk size yields exactly one chunk.
func (c *Chunker) Chunk(record *model.DiseaseRecord) []*store.Chunk {
	text := ComposeText(record)
	if text == "" {
		return nil
	}

	parts := textutil.SplitIntoChunks(text, c.config.ChunkSize, c.config.Overlap)
	chunks := make([]*store.Chunk, 0, len(parts))
	for i, part := range parts {
		chunks = append(chunks, &store.Chunk{
			ID:          fmt.Sprintf("%s-%d", record.OrphaCode, i),
			OrphaCode:   record.OrphaCode,
			DiseaseName: record.Name,
			Content:     part,
		})
	}

	return chunks
}
