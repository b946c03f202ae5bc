package textutil

import (
	"math"
	"strings"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    []float32
		b    []float32
		want float64
	}{
		{
			name: "identical vectors",
			a:    []float32{1, 2, 3},
			b:    []float32{1, 2, 3},
			want: 1.0,
		},
		{
			name: "orthogonal vectors",
			a:    []float32{1, 0},
			b:    []float32{0, 1},
			want: 0.0,
		},
		{
			name: "opposite vectors",
			a:    []float32{1, 0},
			b:    []float32{-1, 0},
			want: -1.0,
		},
		{
			name: "mismatched length",
			a:    []float32{1, 2},
			b:    []float32{1},
			want: 0.0,
		},
		{
			name: "zero vector",
			a:    []float32{0, 0},
			b:    []float32{1, 1},
			want: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CosineSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDistanceToScore(t *testing.T) {
	if got := DistanceToScore(0); got != 1.0 {
		t.Errorf("DistanceToScore(0) = %v, want 1.0", got)
	}
	if DistanceToScore(1) >= DistanceToScore(0.5) {
		t.Error("DistanceToScore should be monotonically decreasing")
	}
	if DistanceToScore(-1) != 1.0 {
		t.Errorf("negative distance should clamp to score 1.0")
	}
}

func TestSplitIntoChunks(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		chunkSize int
		overlap   int
		wantCount int
	}{
		{
			name:      "text fits in single chunk",
			text:      "short text",
			chunkSize: 100,
			overlap:   10,
			wantCount: 1,
		},
		{
			name:      "exact boundary",
			text:      strings.Repeat("a", 100),
			chunkSize: 100,
			overlap:   10,
			wantCount: 1,
		},
		{
			name:      "two chunks with overlap",
			text:      strings.Repeat("a", 150),
			chunkSize: 100,
			overlap:   50,
			wantCount: 2,
		},
		{
			name:      "zero chunk size",
			text:      "anything",
			chunkSize: 0,
			overlap:   0,
			wantCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitIntoChunks(tt.text, tt.chunkSize, tt.overlap)
			if len(got) != tt.wantCount {
				t.Errorf("SplitIntoChunks() returned %d chunks, want %d", len(got), tt.wantCount)
			}
		})
	}
}

// TestSplitIntoChunks_Reconstruction verifies that dropping the leading
// overlap from every chunk after the first reproduces the original text.
func TestSplitIntoChunks_Reconstruction(t *testing.T) {
	texts := []string{
		strings.Repeat("abcdefghij", 100),
		"Síndrome de Guillain-Barré: hormigueo, debilidad muscular y dificultad para respirar. " + strings.Repeat("ñáéíóú ", 200),
		strings.Repeat("肌肉无力和呼吸困难", 80),
	}

	for _, text := range texts {
		for _, cfg := range []struct{ size, overlap int }{{512, 50}, {64, 16}, {100, 0}} {
			chunks := SplitIntoChunks(text, cfg.size, cfg.overlap)
			if len(chunks) == 0 {
				t.Fatal("no chunks returned")
			}

			var b strings.Builder
			b.WriteString(chunks[0])
			for _, c := range chunks[1:] {
				runes := []rune(c)
				if len(runes) <= cfg.overlap {
					t.Fatalf("chunk shorter than overlap: %d <= %d", len(runes), cfg.overlap)
				}
				b.WriteString(string(runes[cfg.overlap:]))
			}

			if b.String() != text {
				t.Errorf("reconstruction mismatch for size=%d overlap=%d", cfg.size, cfg.overlap)
			}
		}
	}
}

func TestSplitIntoChunks_RuneBoundaries(t *testing.T) {
	// Multi-byte runes must never be split mid-character.
	text := strings.Repeat("é", 25)
	chunks := SplitIntoChunks(text, 10, 2)
	for i, c := range chunks {
		for _, r := range c {
			if r != 'é' {
				t.Fatalf("chunk %d contains corrupted rune %q", i, r)
			}
		}
	}
}

func TestTruncateString(t *testing.T) {
	if got := TruncateString("hello", 10); got != "hello" {
		t.Errorf("TruncateString() = %q, want %q", got, "hello")
	}
	if got := TruncateString("hello", 3); got != "hel" {
		t.Errorf("TruncateString() = %q, want %q", got, "hel")
	}
	// Rune-aware truncation.
	if got := TruncateString("ñññññ", 2); got != "ññ" {
		t.Errorf("TruncateString() = %q, want %q", got, "ññ")
	}
}

func TestHashString(t *testing.T) {
	a := HashString("hormigueo")
	b := HashString("hormigueo")
	c := HashString("debilidad")

	if a != b {
		t.Error("HashString should be deterministic")
	}
	if a == c {
		t.Error("different inputs should hash differently")
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}
}

func TestNormalizeWhitespace(t *testing.T) {
	if got := NormalizeWhitespace("  a \n b\t c  "); got != "a b c" {
		t.Errorf("NormalizeWhitespace() = %q", got)
	}
}
