// internal/services/llm_service.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Corphon/CreativeStudio/internal/config"
	"github.com/Corphon/CreativeStudio/internal/llm"
	"github.com/Corphon/CreativeStudio/internal/utils"

	// registered providers
	_ "github.com/Corphon/CreativeStudio/internal/llm/providers/openai"
	_ "github.com/Corphon/CreativeStudio/internal/llm/providers/openrouter"
)

// ErrLLMNotReady is returned when no provider has been configured
var ErrLLMNotReady = errors.New("llm service not ready")

// LLMService wraps the configured provider
type LLMService struct {
	providerMutex sync.RWMutex
	provider      llm.Provider
	providerName  string
	defaultModel  string
	isReady       bool
	readyState    string
}

// NewLLMService builds the provider named in cfg. A missing key or unknown
// provider yields a service that is not ready rather than an error, so the
// server still starts.
func NewLLMService(cfg *config.Config) *LLMService {
	service := &LLMService{readyState: "Uninitialized"}
	if cfg == nil || cfg.LLMProvider == "" {
		service.readyState = "LLM provider not configured"
		return service
	}
	if cfg.LLMAPIKey == "" {
		service.readyState = "API key not configured"
		return service
	}
	if err := service.UpdateProvider(cfg.LLMProvider, cfg.LLMSettings()); err != nil {
		utils.GetLogger().Warn("LLM provider initialization failed", map[string]interface{}{
			"provider": cfg.LLMProvider,
			"error":    err,
		})
	}
	return service
}

// NewLLMServiceWithProvider wraps an already initialized provider
func NewLLMServiceWithProvider(name string, provider llm.Provider) *LLMService {
	return &LLMService{
		provider:     provider,
		providerName: name,
		isReady:      provider != nil,
		readyState:   "Ready",
	}
}

// UpdateProvider replaces the active provider. A failed update leaves a
// working provider in place.
func (s *LLMService) UpdateProvider(providerName string, settings map[string]string) error {
	provider, err := llm.GetProvider(providerName, settings)

	s.providerMutex.Lock()
	defer s.providerMutex.Unlock()
	if err != nil {
		if s.provider == nil {
			s.isReady = false
			s.readyState = fmt.Sprintf("Initialization failed: %v", err)
		}
		return err
	}
	s.provider = provider
	s.providerName = providerName
	s.defaultModel = settings["default_model"]
	s.isReady = true
	s.readyState = "Ready"
	return nil
}

// IsReady reports whether a provider is configured
func (s *LLMService) IsReady() bool {
	s.providerMutex.RLock()
	defer s.providerMutex.RUnlock()
	return s.isReady && s.provider != nil
}

// GetProviderStatus returns readiness and a readable description
func (s *LLMService) GetProviderStatus() (bool, string) {
	if s == nil {
		return false, "LLM service not created"
	}
	s.providerMutex.RLock()
	defer s.providerMutex.RUnlock()
	return s.isReady && s.provider != nil, s.readyState
}

// GetProviderName returns the registry name of the active provider
func (s *LLMService) GetProviderName() string {
	s.providerMutex.RLock()
	defer s.providerMutex.RUnlock()
	return s.providerName
}

// CreateStructuredCompletion asks for a JSON answer and decodes it into out
func (s *LLMService) CreateStructuredCompletion(ctx context.Context, prompt, systemPrompt string, out interface{}) error {
	s.providerMutex.RLock()
	if !s.isReady || s.provider == nil {
		state := s.readyState
		s.providerMutex.RUnlock()
		return fmt.Errorf("%w: %s", ErrLLMNotReady, state)
	}
	provider, model := s.provider, s.defaultModel
	s.providerMutex.RUnlock()

	if systemPrompt != "" {
		systemPrompt += "\n\n"
	}
	systemPrompt += "Return your response in valid JSON format, following the provided output schema, without adding explanations or preambles."

	resp, err := provider.CompleteText(ctx, llm.CompletionRequest{
		Prompt:       prompt,
		SystemPrompt: systemPrompt,
		Temperature:  0.7,
		Model:        model,
		JSONMode:     true,
	})
	if err != nil {
		return err
	}

	text := SanitizeLLMJSONResponse(resp.Text)
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("failed to parse AI response into structured data: %w", err)
	}
	return nil
}

// SanitizeLLMJSONResponse removes Markdown code fences and any text around
// the outermost JSON object
func SanitizeLLMJSONResponse(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return cleaned
	}

	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSpace(cleaned)
		if strings.HasPrefix(strings.ToLower(cleaned), "json") {
			cleaned = strings.TrimSpace(cleaned[4:])
		}
		if idx := strings.LastIndex(cleaned, "```"); idx != -1 {
			cleaned = cleaned[:idx]
		}
	}

	cleaned = strings.Trim(strings.TrimSpace(cleaned), "`")
	if start, end := strings.Index(cleaned, "{"), strings.LastIndex(cleaned, "}"); start >= 0 && end > start {
		cleaned = cleaned[start : end+1]
	}
	return strings.TrimSpace(cleaned)
}
