package biz

import (
	"context"
	"strings"

	"github.com/kart-io/logger"

	"github.com/orphadx-io/orphadx/internal/diagnosis/store"
	"github.com/orphadx-io/orphadx/internal/model"
	"github.com/orphadx-io/orphadx/internal/pkg/textutil"
	"github.com/orphadx-io/orphadx/pkg/llm"
)

const defaultSystemPrompt = `Eres un asistente médico especializado en enfermedades raras. ` +
	`Respondes únicamente con base en la evidencia proporcionada, en español, ` +
	`y siempre recomiendas confirmar el diagnóstico con un profesional médico.`

const defaultPromptTemplate = `Evidencia recuperada del índice de enfermedades raras:

{{context}}

Síntomas descritos por el paciente: {{symptoms}}

Con base únicamente en la evidencia anterior, indica las enfermedades raras más compatibles con los síntomas, ordenadas por probabilidad, y explica brevemente qué signos coinciden en cada caso.`

// noEvidenceMessage is returned when the index has no relevant chunks.
// This is a valid outcome, distinct from an index failure.
const noEvidenceMessage = `No se encontró información de enfermedades relevante para los síntomas descritos.`

// ComposerConfig controls prompt assembly and generation.
type ComposerConfig struct {
	// SystemPrompt is the generation system prompt.
	SystemPrompt string
	// PromptTemplate must contain {{context}} and {{symptoms}} placeholders.
	PromptTemplate string
	// MaxExcerptLen bounds each evidence excerpt in the prompt, in
	// Unicode characters.
	MaxExcerptLen int
}

// DefaultComposerConfig returns the default composition parameters.
func DefaultComposerConfig() *ComposerConfig {
	return &ComposerConfig{
		SystemPrompt:   defaultSystemPrompt,
		PromptTemplate: defaultPromptTemplate,
		MaxExcerptLen:  600,
	}
}

// Composer builds a grounded prompt from retrieved chunks and invokes the
// LLM. A generation failure degrades the response to evidence only instead
// of failing the request.
type Composer struct {
	chat   llm.ChatProvider
	config *ComposerConfig
}

// NewComposer creates a composer.
func NewComposer(chat llm.ChatProvider, config *ComposerConfig) *Composer {
	if config == nil {
		config = DefaultComposerConfig()
	}
	return &Composer{
		chat:   chat,
		config: config,
	}
}

// Compose turns retrieval results into a diagnosis response. Evidence is
// deduplicated by disease before truncation so one disease with many chunks
// cannot crowd out the rest of the prompt. The returned error is non-nil
// only when the request context ended; LLM failures produce a degraded
// response with Degraded set and the evidence intact.
func (c *Composer) Compose(ctx context.Context, symptoms string, results []*store.SearchResult) (*model.DiagnosisResult, *llm.TokenUsage, error) {
	deduped := dedupeByDisease(results)
	matches := make([]model.Match, 0, len(deduped))
	for _, r := range deduped {
		matches = append(matches, model.Match{
			OrphaCode: r.OrphaCode,
			Name:      r.DiseaseName,
			Excerpt:   textutil.TruncateString(r.Content, c.config.MaxExcerptLen),
			Score:     r.Score,
		})
	}

	if len(matches) == 0 {
		return &model.DiagnosisResult{
			Diagnosis: noEvidenceMessage,
			Matches:   []model.Match{},
		}, nil, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	prompt := c.buildPrompt(symptoms, matches)
	resp, err := c.chat.Generate(ctx, prompt, c.config.SystemPrompt)
	if err != nil {
		logger.Warnw("generation failed, returning evidence only",
			"provider", c.chat.Name(),
			"error", err.Error())
		return &model.DiagnosisResult{
			Matches:  matches,
			Degraded: true,
		}, nil, nil
	}

	return &model.DiagnosisResult{
		Diagnosis: resp.Content,
		Matches:   matches,
	}, resp.TokenUsage, nil
}

func (c *Composer) buildPrompt(symptoms string, matches []model.Match) string {
	var b strings.Builder
	for i, m := range matches {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("[")
		b.WriteString(m.Name)
		b.WriteString("] ")
		b.WriteString(m.Excerpt)
	}

	prompt := strings.ReplaceAll(c.config.PromptTemplate, "{{context}}", b.String())
	return strings.ReplaceAll(prompt, "{{symptoms}}", symptoms)
}

// dedupeByDisease keeps only the best scoring chunk per disease. Input is
// already ordered by descending score, so the first chunk seen wins.
func dedupeByDisease(results []*store.SearchResult) []*store.SearchResult {
	seen := make(map[string]bool, len(results))
	deduped := make([]*store.SearchResult, 0, len(results))
	for _, r := range results {
		if seen[r.OrphaCode] {
			continue
		}
		seen[r.OrphaCode] = true
		deduped = append(deduped, r)
	}
	return deduped
}
