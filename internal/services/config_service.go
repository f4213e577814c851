// internal/services/config_service.go
package services

import (
	"errors"
	"sync"
	"time"

	"github.com/Corphon/CreativeStudio/internal/config"
	"github.com/Corphon/CreativeStudio/internal/utils"
)

// maxChangeHistory bounds the in-memory change log
const maxChangeHistory = 1000

// LLMSettings is the public view of the active generation settings.
// The API key itself is never returned.
type LLMSettings struct {
	Provider  string `json:"llm_provider"`
	Model     string `json:"model,omitempty"`
	BaseURL   string `json:"base_url,omitempty"`
	HasAPIKey bool   `json:"has_api_key"`
	Ready     bool   `json:"ready"`
	State     string `json:"state"`
}

// ConfigChangeRecord is one entry of the change history
type ConfigChangeRecord struct {
	Timestamp time.Time   `json:"timestamp"`
	ChangedBy string      `json:"changed_by"`
	Section   string      `json:"section"`
	OldValue  interface{} `json:"old_value"`
	NewValue  interface{} `json:"new_value"`
}

// ConfigChangeSubscriber is notified after a successful change
type ConfigChangeSubscriber func(old, new LLMSettings)

// ConfigService switches the LLM provider at runtime and keeps a change log
type ConfigService struct {
	llm    *LLMService
	logger *utils.Logger

	mu            sync.RWMutex
	settings      map[string]string
	provider      string
	lastUpdated   time.Time
	subscribers   []ConfigChangeSubscriber
	changeHistory []ConfigChangeRecord
}

// NewConfigService starts from the provider settings loaded at startup
func NewConfigService(cfg *config.Config, llm *LLMService) *ConfigService {
	s := &ConfigService{
		llm:           llm,
		logger:        utils.GetLogger(),
		settings:      make(map[string]string),
		lastUpdated:   time.Now(),
		changeHistory: make([]ConfigChangeRecord, 0, 16),
	}
	if cfg != nil {
		s.provider = cfg.LLMProvider
		s.settings = map[string]string{
			"api_key":       cfg.LLMAPIKey,
			"default_model": cfg.LLMModel,
			"base_url":      cfg.LLMBaseURL,
		}
	}
	return s
}

// GetLLMSettings returns the active settings
func (s *ConfigService) GetLLMSettings() LLMSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewLocked()
}

func (s *ConfigService) viewLocked() LLMSettings {
	ready, state := s.llm.GetProviderStatus()
	return LLMSettings{
		Provider:  s.provider,
		Model:     s.settings["default_model"],
		BaseURL:   s.settings["base_url"],
		HasAPIKey: s.settings["api_key"] != "",
		Ready:     ready,
		State:     state,
	}
}

// UpdateLLMConfig switches to provider with settings. An empty api_key keeps
// the current key when the provider does not change.
func (s *ConfigService) UpdateLLMConfig(provider string, settings map[string]string, changedBy string) error {
	if provider == "" {
		return errors.New("provider cannot be empty")
	}
	if s.llm == nil {
		return errors.New("LLM service not available")
	}

	s.mu.Lock()
	old := s.viewLocked()
	merged := make(map[string]string, len(settings)+1)
	for k, v := range settings {
		merged[k] = v
	}
	if merged["api_key"] == "" && provider == s.provider {
		merged["api_key"] = s.settings["api_key"]
	}
	s.mu.Unlock()

	if merged["api_key"] == "" {
		return errors.New("api_key is required")
	}

	if err := s.llm.UpdateProvider(provider, merged); err != nil {
		s.logger.Warn("LLM provider update failed", map[string]interface{}{
			"provider":   provider,
			"changed_by": changedBy,
			"error":      err,
		})
		return err
	}

	s.mu.Lock()
	s.provider = provider
	s.settings = merged
	s.lastUpdated = time.Now()
	updated := s.viewLocked()
	s.recordChangeLocked("llm", old, updated, changedBy)
	subscribers := make([]ConfigChangeSubscriber, len(s.subscribers))
	copy(subscribers, s.subscribers)
	s.mu.Unlock()

	s.logger.Info("LLM provider updated", map[string]interface{}{
		"provider":   provider,
		"model":      updated.Model,
		"changed_by": changedBy,
	})
	for _, fn := range subscribers {
		fn(old, updated)
	}
	return nil
}

// SubscribeToChanges registers fn for future changes
func (s *ConfigService) SubscribeToChanges(fn ConfigChangeSubscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// GetChangeHistory returns up to limit of the most recent changes, oldest first
func (s *ConfigService) GetChangeHistory(limit int) []ConfigChangeRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.changeHistory) {
		limit = len(s.changeHistory)
	}
	history := make([]ConfigChangeRecord, limit)
	copy(history, s.changeHistory[len(s.changeHistory)-limit:])
	return history
}

// LastUpdated returns when the settings last changed
func (s *ConfigService) LastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdated
}

func (s *ConfigService) recordChangeLocked(section string, oldValue, newValue interface{}, changedBy string) {
	if len(s.changeHistory) >= maxChangeHistory {
		s.changeHistory = s.changeHistory[1:]
	}
	s.changeHistory = append(s.changeHistory, ConfigChangeRecord{
		Timestamp: time.Now(),
		ChangedBy: changedBy,
		Section:   section,
		OldValue:  oldValue,
		NewValue:  newValue,
	})
}
