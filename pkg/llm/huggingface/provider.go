// Package huggingface implements the HuggingFace Inference API provider.
// Supports embedding and text generation with models hosted on the Hub.
package huggingface

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/orphadx-io/orphadx/pkg/llm"
	"github.com/orphadx-io/orphadx/pkg/utils/httpclient"
	"github.com/orphadx-io/orphadx/pkg/utils/json"
)

const ProviderName = "huggingface"

func init() {
	llm.RegisterProvider(ProviderName, NewProvider)
}

// Config configures the HuggingFace provider.
type Config struct {
	// BaseURL is the inference API base address.
	BaseURL string `json:"base_url" mapstructure:"base_url"`

	// APIKey is the HuggingFace API token.
	APIKey string `json:"api_key" mapstructure:"api_key"`

	// EmbedModel is the model ID used for embeddings.
	EmbedModel string `json:"embed_model" mapstructure:"embed_model"`

	// ChatModel is the model ID used for generation.
	ChatModel string `json:"chat_model" mapstructure:"chat_model"`

	// Timeout is the request timeout.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// MaxRetries is the maximum retry count.
	MaxRetries int `json:"max_retries" mapstructure:"max_retries"`

	// WaitForModel waits for cold models instead of failing.
	WaitForModel bool `json:"wait_for_model" mapstructure:"wait_for_model"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:      "https://api-inference.huggingface.co",
		EmbedModel:   "sentence-transformers/all-MiniLM-L6-v2",
		ChatModel:    "mistralai/Mistral-7B-Instruct-v0.2",
		Timeout:      120 * time.Second,
		MaxRetries:   3,
		WaitForModel: true,
	}
}

// Provider is the HuggingFace provider implementation.
type Provider struct {
	config *Config
	client *httpclient.Client
}

// NewProvider creates a HuggingFace provider from a config map.
func NewProvider(configMap map[string]any) (llm.Provider, error) {
	cfg := DefaultConfig()

	if v, ok := configMap["base_url"].(string); ok && v != "" {
		cfg.BaseURL = v
	}
	if v, ok := configMap["api_key"].(string); ok && v != "" {
		cfg.APIKey = v
	}
	if v, ok := configMap["embed_model"].(string); ok && v != "" {
		cfg.EmbedModel = v
	}
	if v, ok := configMap["chat_model"].(string); ok && v != "" {
		cfg.ChatModel = v
	}
	if v, ok := configMap["timeout"].(time.Duration); ok && v > 0 {
		cfg.Timeout = v
	}
	if v, ok := configMap["max_retries"].(int); ok && v > 0 {
		cfg.MaxRetries = v
	}
	if v, ok := configMap["wait_for_model"].(bool); ok {
		cfg.WaitForModel = v
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("huggingface: api_key is required")
	}

	return NewProviderWithConfig(cfg), nil
}

// NewProviderWithConfig creates a HuggingFace provider from a structured config.
func NewProviderWithConfig(cfg *Config) *Provider {
	return &Provider{
		config: cfg,
		client: httpclient.NewClient(cfg.Timeout, cfg.MaxRetries),
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return ProviderName
}

type embeddingRequest struct {
	Inputs  []string          `json:"inputs"`
	Options *embeddingOptions `json:"options,omitempty"`
}

type embeddingOptions struct {
	WaitForModel bool `json:"wait_for_model,omitempty"`
}

// Embed generates embeddings for multiple texts.
func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	reqBody := embeddingRequest{
		Inputs: texts,
	}
	if p.config.WaitForModel {
		reqBody.Options = &embeddingOptions{WaitForModel: true}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/pipeline/feature-extraction/%s", p.config.BaseURL, p.config.EmbedModel)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	p.setHeaders(req)

	resp, err := p.client.DoRequest(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("request failed with status code %d: %s", resp.StatusCode, string(bodyBytes))
	}

	// Sentence-level models return [][]float32, token-level models return
	// [][][]float32 which must be mean-pooled.
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var embeddings [][]float32
	if err := json.Unmarshal(bodyBytes, &embeddings); err != nil {
		var tokenEmbeddings [][][]float32
		if err2 := json.Unmarshal(bodyBytes, &tokenEmbeddings); err2 != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		embeddings = make([][]float32, len(tokenEmbeddings))
		for i, tokens := range tokenEmbeddings {
			if len(tokens) == 0 {
				continue
			}
			dim := len(tokens[0])
			embeddings[i] = make([]float32, dim)
			for _, token := range tokens {
				for j, v := range token {
					embeddings[i][j] += v
				}
			}
			for j := range embeddings[i] {
				embeddings[i][j] /= float32(len(tokens))
			}
		}
	}

	return embeddings, nil
}

// EmbedSingle generates an embedding for a single text.
func (p *Provider) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := p.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	return embeddings[0], nil
}

type generationRequest struct {
	Inputs     string             `json:"inputs"`
	Parameters *generationParams  `json:"parameters,omitempty"`
	Options    *generationOptions `json:"options,omitempty"`
}

type generationParams struct {
	MaxNewTokens   int     `json:"max_new_tokens,omitempty"`
	Temperature    float64 `json:"temperature,omitempty"`
	TopP           float64 `json:"top_p,omitempty"`
	DoSample       bool    `json:"do_sample,omitempty"`
	ReturnFullText bool    `json:"return_full_text,omitempty"`
}

type generationOptions struct {
	WaitForModel bool `json:"wait_for_model,omitempty"`
}

type generationResponse struct {
	GeneratedText string `json:"generated_text"`
}

// Chat performs a multi-turn conversation.
func (p *Provider) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	prompt := formatMessages(messages)
	return p.generate(ctx, prompt)
}

// Generate produces text from a single prompt. The inference API does not
// report token usage, so TokenUsage is always nil.
func (p *Provider) Generate(ctx context.Context, prompt string, systemPrompt string) (*llm.GenerateResponse, error) {
	fullPrompt := prompt
	if systemPrompt != "" {
		fullPrompt = fmt.Sprintf("[INST] %s [/INST]\n\n%s", systemPrompt, prompt)
	}

	content, err := p.generate(ctx, fullPrompt)
	if err != nil {
		return nil, err
	}

	return &llm.GenerateResponse{Content: content}, nil
}

func (p *Provider) generate(ctx context.Context, prompt string) (string, error) {
	reqBody := generationRequest{
		Inputs: prompt,
		Parameters: &generationParams{
			MaxNewTokens:   1024,
			Temperature:    0.7,
			TopP:           0.95,
			DoSample:       true,
			ReturnFullText: false,
		},
	}
	if p.config.WaitForModel {
		reqBody.Options = &generationOptions{WaitForModel: true}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s", p.config.BaseURL, p.config.ChatModel)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	p.setHeaders(req)

	var responses []generationResponse
	if err := p.client.DoJSON(req, &responses); err != nil {
		return "", err
	}

	if len(responses) == 0 {
		return "", fmt.Errorf("no generation returned")
	}

	return responses[0].GeneratedText, nil
}

// formatMessages renders messages into the Mistral instruction template.
func formatMessages(messages []llm.Message) string {
	var result string
	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleSystem, llm.RoleUser:
			result += fmt.Sprintf("[INST] %s [/INST]\n", msg.Content)
		case llm.RoleAssistant:
			result += msg.Content + "\n"
		}
	}
	return result
}

func (p *Provider) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)
}
