// Package llm provides LLM provider configuration options.
package llm

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/orphadx-io/orphadx/pkg/options"
)

var _ options.IOptions = (*ProviderOptions)(nil)

// ProviderOptions configures one LLM provider. The embedding and chat
// providers are configured independently so they can point at different
// backends.
type ProviderOptions struct {
	// Provider is the provider name (ollama, openai, huggingface).
	Provider string `json:"provider" mapstructure:"provider"`

	// BaseURL is the API base address.
	BaseURL string `json:"base-url" mapstructure:"base-url"`

	// APIKey is the API key, required by openai and huggingface.
	APIKey string `json:"-" mapstructure:"api-key"`

	// Model is the model identifier.
	Model string `json:"model" mapstructure:"model"`

	// Timeout is the request timeout.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// MaxRetries is the maximum number of request retries.
	MaxRetries int `json:"max-retries" mapstructure:"max-retries"`
}

// NewProviderOptions creates default provider options.
func NewProviderOptions() *ProviderOptions {
	return &ProviderOptions{
		Provider:   "ollama",
		BaseURL:    "http://localhost:11434",
		Timeout:    120 * time.Second,
		MaxRetries: 3,
	}
}

// NewEmbeddingOptions creates default embedding provider options.
func NewEmbeddingOptions() *ProviderOptions {
	opts := NewProviderOptions()
	opts.Model = "nomic-embed-text"
	return opts
}

// NewChatOptions creates default chat provider options.
func NewChatOptions() *ProviderOptions {
	opts := NewProviderOptions()
	opts.Model = "llama3.1:8b"
	return opts
}

// ToConfigMap converts the options into the map consumed by the provider
// factories.
func (o *ProviderOptions) ToConfigMap() map[string]any {
	return map[string]any{
		"base_url":    o.BaseURL,
		"api_key":     o.APIKey,
		"embed_model": o.Model,
		"chat_model":  o.Model,
		"timeout":     o.Timeout,
		"max_retries": o.MaxRetries,
	}
}

// AddFlags adds flags for provider options to the specified FlagSet.
func (o *ProviderOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	join := options.Join(prefixes...)
	fs.StringVar(&o.Provider, join+"provider", o.Provider, "LLM provider (ollama, openai, huggingface).")
	fs.StringVar(&o.BaseURL, join+"base-url", o.BaseURL, "LLM API base URL.")
	fs.StringVar(&o.APIKey, join+"api-key", o.APIKey, "LLM API key.")
	fs.StringVar(&o.Model, join+"model", o.Model, "LLM model name.")
	fs.DurationVar(&o.Timeout, join+"timeout", o.Timeout, "LLM request timeout.")
	fs.IntVar(&o.MaxRetries, join+"max-retries", o.MaxRetries, "LLM maximum number of retries.")
}

// Validate validates the provider options.
func (o *ProviderOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.Provider == "" {
		errs = append(errs, fmt.Errorf("provider is required"))
	}
	if o.Model == "" {
		errs = append(errs, fmt.Errorf("model is required"))
	}
	if o.Provider == "openai" && o.APIKey == "" {
		errs = append(errs, fmt.Errorf("api-key is required for the openai provider"))
	}
	if o.Provider == "huggingface" && o.APIKey == "" {
		errs = append(errs, fmt.Errorf("api-key is required for the huggingface provider"))
	}
	if o.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive"))
	}
	return errs
}

// Complete completes the provider options with defaults.
func (o *ProviderOptions) Complete() error {
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	return nil
}
