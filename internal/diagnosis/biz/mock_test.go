package biz

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/orphadx-io/orphadx/pkg/llm"
)

// fixtureXML holds two complete disorders and one node without an
// identifier, which the normalizer must skip and count.
const fixtureXML = `<?xml version="1.0" encoding="UTF-8"?>
<JDBOR>
  <DisorderList count="3">
    <Disorder id="1">
      <OrphaCode>2103</OrphaCode>
      <Name lang="es">Síndrome de Guillain-Barré</Name>
      <SynonymList count="1">
        <Synonym lang="es">Polirradiculoneuropatía desmielinizante inflamatoria aguda</Synonym>
      </SynonymList>
      <ClinicalSignList>
        <ClinicalSign><Name lang="es">hormigueo</Name></ClinicalSign>
        <ClinicalSign><Name lang="es">debilidad muscular</Name></ClinicalSign>
        <ClinicalSign><Name lang="es">dificultad para respirar</Name></ClinicalSign>
      </ClinicalSignList>
      <SummaryInformation>
        <TextSection><Contents>Neuropatía autoinmune aguda que afecta los nervios periféricos.</Contents></TextSection>
      </SummaryInformation>
    </Disorder>
    <Disorder id="2">
      <OrphaCode>558</OrphaCode>
      <Name lang="es">Síndrome de Marfan</Name>
      <ClinicalSignList>
        <ClinicalSign><Name lang="es">aracnodactilia</Name></ClinicalSign>
        <ClinicalSign><Name lang="es">luxación del cristalino</Name></ClinicalSign>
      </ClinicalSignList>
    </Disorder>
    <Disorder id="3">
      <Name lang="es">Registro sin código</Name>
    </Disorder>
  </DisorderList>
</JDBOR>`

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nomenclature.xml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

// embedKeywords is the vocabulary of the test embedder. Each keyword maps
// to one vector dimension.
var embedKeywords = []string{
	"hormigueo", "debilidad", "respirar", "aracnodactilia", "cristalino", "fiebre",
}

// keywordEmbedder produces deterministic vectors from keyword presence.
// Texts sharing keywords land close together, which is all the pipeline
// tests need from an embedding model.
type keywordEmbedder struct {
	calls  int64
	failOn string
}

func (e *keywordEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	atomic.AddInt64(&e.calls, 1)
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		if e.failOn != "" && strings.Contains(text, e.failOn) {
			return nil, os.ErrDeadlineExceeded
		}
		vectors[i] = keywordVector(text)
	}
	return vectors, nil
}

func (e *keywordEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *keywordEmbedder) Name() string { return "keyword" }

func (e *keywordEmbedder) callCount() int64 { return atomic.LoadInt64(&e.calls) }

func keywordVector(text string) []float32 {
	lower := strings.ToLower(text)
	v := make([]float32, len(embedKeywords))
	for i, kw := range embedKeywords {
		if strings.Contains(lower, kw) {
			v[i] = 1
		}
	}
	return v
}

var _ llm.EmbeddingProvider = (*keywordEmbedder)(nil)

// mockChat records the last generation request and returns a fixed answer.
type mockChat struct {
	err        error
	answer     string
	lastPrompt string
	lastSystem string
	calls      int
}

func (m *mockChat) Chat(_ context.Context, messages []llm.Message) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.answer, nil
}

func (m *mockChat) Generate(_ context.Context, prompt, systemPrompt string) (*llm.GenerateResponse, error) {
	m.calls++
	m.lastPrompt = prompt
	m.lastSystem = systemPrompt
	if m.err != nil {
		return nil, m.err
	}
	return &llm.GenerateResponse{
		Content:    m.answer,
		TokenUsage: &llm.TokenUsage{PromptTokens: 120, CompletionTokens: 40, TotalTokens: 160},
	}, nil
}

func (m *mockChat) Name() string { return "mock-chat" }

var _ llm.ChatProvider = (*mockChat)(nil)
