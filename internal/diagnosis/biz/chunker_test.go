package biz

import (
	"fmt"
	"strings"
	"testing"

	"github.com/orphadx-io/orphadx/internal/model"
	utilerrors "github.com/orphadx-io/orphadx/pkg/utils/errors"
)

func TestChunkerConfig_Validate(t *testing.T) {
	cases := []struct {
		name    string
		config  ChunkerConfig
		wantErr bool
	}{
		{"valid", ChunkerConfig{ChunkSize: 512, Overlap: 50}, false},
		{"zero overlap", ChunkerConfig{ChunkSize: 100, Overlap: 0}, false},
		{"overlap equals size", ChunkerConfig{ChunkSize: 100, Overlap: 100}, true},
		{"overlap exceeds size", ChunkerConfig{ChunkSize: 100, Overlap: 150}, true},
		{"zero chunk size", ChunkerConfig{ChunkSize: 0, Overlap: 0}, true},
		{"negative overlap", ChunkerConfig{ChunkSize: 100, Overlap: -1}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.config.Validate()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !utilerrors.IsCode(err, utilerrors.ErrConfig.Code) {
					t.Errorf("expected config error code, got %v", err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestNewChunker_InvalidConfig(t *testing.T) {
	if _, err := NewChunker(&ChunkerConfig{ChunkSize: 10, Overlap: 10}); err == nil {
		t.Fatal("expected error for invalid config")
	}
}

func TestChunker_ShortTextSingleChunk(t *testing.T) {
	c, err := NewChunker(&ChunkerConfig{ChunkSize: 512, Overlap: 50})
	if err != nil {
		t.Fatalf("NewChunker failed: %v", err)
	}

	record := &model.DiseaseRecord{
		OrphaCode:     "2103",
		Name:          "Síndrome de Guillain-Barré",
		ClinicalSigns: []string{"hormigueo", "debilidad muscular"},
	}

	chunks := c.Chunk(record)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk for short text, got %d", len(chunks))
	}
	if chunks[0].ID != "2103-0" {
		t.Errorf("expected chunk ID 2103-0, got %s", chunks[0].ID)
	}
	if chunks[0].OrphaCode != "2103" || chunks[0].DiseaseName != record.Name {
		t.Errorf("chunk metadata mismatch: %+v", chunks[0])
	}
	if chunks[0].Content != ComposeText(record) {
		t.Error("single chunk must hold the full composed text")
	}
}

func TestChunker_Reconstruction(t *testing.T) {
	const chunkSize, overlap = 40, 10
	c, err := NewChunker(&ChunkerConfig{ChunkSize: chunkSize, Overlap: overlap})
	if err != nil {
		t.Fatalf("NewChunker failed: %v", err)
	}

	record := &model.DiseaseRecord{
		OrphaCode:  "558",
		Name:       "Síndrome de Marfan",
		Definition: strings.Repeat("tejido conectivo alterado ", 10),
	}

	chunks := c.Chunk(record)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	for i, chunk := range chunks {
		if want := fmt.Sprintf("558-%d", i); chunk.ID != want {
			t.Errorf("chunk %d: want ID %s, got %s", i, want, chunk.ID)
		}
	}

	// Dropping each chunk's leading overlap reconstructs the source text.
	var b strings.Builder
	b.WriteString(chunks[0].Content)
	for _, chunk := range chunks[1:] {
		runes := []rune(chunk.Content)
		b.WriteString(string(runes[overlap:]))
	}

	if got, want := b.String(), ComposeText(record); got != want {
		t.Errorf("reconstruction mismatch:\n got: %q\nwant: %q", got, want)
	}
}

func TestComposeText(t *testing.T) {
	record := &model.DiseaseRecord{
		OrphaCode:     "2103",
		Name:          "Síndrome de Guillain-Barré",
		Synonyms:      []string{"AIDP"},
		ClinicalSigns: []string{"hormigueo", "debilidad muscular"},
		Definition:    "Neuropatía  autoinmune\naguda.",
	}

	text := ComposeText(record)
	for _, want := range []string{
		"Enfermedad: Síndrome de Guillain-Barré.",
		"Sinónimos: AIDP.",
		"Signos clínicos: hormigueo, debilidad muscular.",
		"Neuropatía autoinmune aguda.",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("composed text missing %q: %s", want, text)
		}
	}
	if strings.Contains(text, "\n") || strings.Contains(text, "  ") {
		t.Errorf("whitespace not normalized: %q", text)
	}
}

func TestChunker_EmptyRecord(t *testing.T) {
	c, err := NewChunker(nil)
	if err != nil {
		t.Fatalf("NewChunker failed: %v", err)
	}

	chunks := c.Chunk(&model.DiseaseRecord{OrphaCode: "1", Name: "X"})
	if len(chunks) != 1 {
		t.Fatalf("record with only a name still composes text, got %d chunks", len(chunks))
	}
}
