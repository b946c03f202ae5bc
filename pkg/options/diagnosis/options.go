// Package diagnosis provides diagnosis pipeline configuration options.
package diagnosis

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/orphadx-io/orphadx/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options contains the diagnosis pipeline configuration.
type Options struct {
	// ChunkSize is the chunk length in Unicode characters.
	ChunkSize int `json:"chunk-size" mapstructure:"chunk-size"`

	// ChunkOverlap is the overlap between adjacent chunks.
	ChunkOverlap int `json:"chunk-overlap" mapstructure:"chunk-overlap"`

	// TopK is the number of results returned from similarity search.
	TopK int `json:"top-k" mapstructure:"top-k"`

	// Collection is the vector index collection name.
	Collection string `json:"collection" mapstructure:"collection"`

	// EmbeddingDim is the embedding vector dimension.
	EmbeddingDim int `json:"embedding-dim" mapstructure:"embedding-dim"`

	// EmbeddingCacheSize bounds the in-process embedding cache, in entries.
	EmbeddingCacheSize int `json:"embedding-cache-size" mapstructure:"embedding-cache-size"`

	// SourcePath is the nomenclature XML document path.
	SourcePath string `json:"source-path" mapstructure:"source-path"`

	// IngestOnStartup runs an ingestion of SourcePath when the server starts.
	IngestOnStartup bool `json:"ingest-on-startup" mapstructure:"ingest-on-startup"`
}

// NewOptions creates new Options with defaults. The default embedding
// dimension matches nomic-embed-text.
func NewOptions() *Options {
	return &Options{
		ChunkSize:          512,
		ChunkOverlap:       50,
		TopK:               5,
		Collection:         "diseases",
		EmbeddingDim:       768,
		EmbeddingCacheSize: 4096,
	}
}

// AddFlags adds flags for diagnosis options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	join := options.Join(prefixes...)
	fs.IntVar(&o.ChunkSize, join+"diagnosis.chunk-size", o.ChunkSize, "Chunk length in characters.")
	fs.IntVar(&o.ChunkOverlap, join+"diagnosis.chunk-overlap", o.ChunkOverlap, "Overlap between adjacent chunks.")
	fs.IntVar(&o.TopK, join+"diagnosis.top-k", o.TopK, "Number of results from similarity search.")
	fs.StringVar(&o.Collection, join+"diagnosis.collection", o.Collection, "Vector index collection name.")
	fs.IntVar(&o.EmbeddingDim, join+"diagnosis.embedding-dim", o.EmbeddingDim, "Embedding vector dimension.")
	fs.IntVar(&o.EmbeddingCacheSize, join+"diagnosis.embedding-cache-size", o.EmbeddingCacheSize, "Embedding cache size in entries.")
	fs.StringVar(&o.SourcePath, join+"diagnosis.source-path", o.SourcePath, "Nomenclature XML document path.")
	fs.BoolVar(&o.IngestOnStartup, join+"diagnosis.ingest-on-startup", o.IngestOnStartup, "Ingest the source document on startup.")
}

// Validate validates the diagnosis options. Invalid chunking parameters
// fail here, before any pipeline component is constructed.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("diagnosis.chunk-size must be positive"))
	}
	if o.ChunkOverlap < 0 {
		errs = append(errs, fmt.Errorf("diagnosis.chunk-overlap must not be negative"))
	}
	if o.ChunkOverlap >= o.ChunkSize {
		errs = append(errs, fmt.Errorf("diagnosis.chunk-overlap (%d) must be smaller than diagnosis.chunk-size (%d)", o.ChunkOverlap, o.ChunkSize))
	}
	if o.TopK <= 0 {
		errs = append(errs, fmt.Errorf("diagnosis.top-k must be positive"))
	}
	if o.EmbeddingDim <= 0 {
		errs = append(errs, fmt.Errorf("diagnosis.embedding-dim must be positive"))
	}
	if o.IngestOnStartup && o.SourcePath == "" {
		errs = append(errs, fmt.Errorf("diagnosis.source-path is required when ingest-on-startup is set"))
	}
	return errs
}

// Complete completes the diagnosis options with defaults.
func (o *Options) Complete() error {
	if o.EmbeddingCacheSize <= 0 {
		o.EmbeddingCacheSize = 4096
	}
	return nil
}
