// internal/llm/interface.go
package llm

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrUnknownProvider is returned when no provider is registered under a name
var ErrUnknownProvider = errors.New("unknown LLM provider")

// CompletionRequest is the provider-neutral completion request
type CompletionRequest struct {
	Prompt       string   `json:"prompt"`
	SystemPrompt string   `json:"system_prompt,omitempty"`
	MaxTokens    int      `json:"max_tokens,omitempty"`
	Temperature  float32  `json:"temperature,omitempty"`
	TopP         float32  `json:"top_p,omitempty"`
	Model        string   `json:"model,omitempty"`
	StopWords    []string `json:"stop_words,omitempty"`
	// JSONMode asks the provider to constrain output to a single JSON object
	JSONMode    bool                   `json:"json_mode,omitempty"`
	ExtraParams map[string]interface{} `json:"extra_params,omitempty"`
}

// CompletionResponse is the provider-neutral completion response
type CompletionResponse struct {
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason,omitempty"`
	TokensUsed   int    `json:"tokens_used,omitempty"`
	PromptTokens int    `json:"prompt_tokens,omitempty"`
	OutputTokens int    `json:"output_tokens,omitempty"`
	ModelName    string `json:"model_name,omitempty"`
	ProviderName string `json:"provider_name,omitempty"`
}

// Provider is implemented by every LLM backend
type Provider interface {
	// Initialize configures the provider. Recognized keys: api_key,
	// default_model, base_url.
	Initialize(config map[string]string) error

	GetName() string

	GetSupportedModels() []string

	CompleteText(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// ProviderFactory creates an uninitialized provider
type ProviderFactory func() Provider

var (
	mu        sync.RWMutex
	providers = make(map[string]ProviderFactory)
)

// Register adds a provider factory. Providers call it from init.
func Register(name string, factory ProviderFactory) {
	mu.Lock()
	defer mu.Unlock()
	providers[name] = factory
}

// GetProvider creates and initializes the provider registered as name
func GetProvider(name string, config map[string]string) (Provider, error) {
	mu.RLock()
	factory, exists := providers[name]
	mu.RUnlock()
	if !exists {
		return nil, ErrUnknownProvider
	}

	provider := factory()
	if err := provider.Initialize(config); err != nil {
		return nil, err
	}
	return provider, nil
}

// ListProviders returns the registered provider names, sorted
func ListProviders() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetSupportedModelsForProvider lists the models a provider advertises
func GetSupportedModelsForProvider(name string) []string {
	mu.RLock()
	factory, exists := providers[name]
	mu.RUnlock()
	if !exists {
		return []string{}
	}
	return factory().GetSupportedModels()
}
