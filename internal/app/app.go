// internal/app/app.go
package app

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Corphon/CreativeStudio/internal/assets"
	"github.com/Corphon/CreativeStudio/internal/config"
	"github.com/Corphon/CreativeStudio/internal/di"
	"github.com/Corphon/CreativeStudio/internal/services"
	"github.com/Corphon/CreativeStudio/internal/speech"
	"github.com/Corphon/CreativeStudio/internal/storage"
	"github.com/Corphon/CreativeStudio/internal/studio"
	"github.com/Corphon/CreativeStudio/internal/utils"
)

// sessionCleanupInterval is how often idle sessions are checked
const sessionCleanupInterval = time.Minute

// InitServices builds every service in dependency order and registers it
// in the global container
func InitServices(cfg *config.Config) error {
	return initServices(di.GetContainer(), cfg)
}

func initServices(container *di.Container, cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is required")
	}
	logger := utils.GetLogger()
	container.Register("config", cfg)

	// 1. metrics
	metrics := utils.NewPipelineMetrics(utils.GetMetricsCollector(), logger)
	container.Register("metrics", metrics)

	// 2. script generation
	var scripts services.ScriptGenerator
	if cfg.ScriptEndpoint != "" {
		scripts = services.NewRemoteScriptClient(cfg.ScriptEndpoint, &http.Client{Timeout: cfg.HTTPTimeout})
		logger.Info("using remote script generator", map[string]interface{}{"endpoint": cfg.ScriptEndpoint})
	} else {
		llmService := services.NewLLMService(cfg)
		ready, state := llmService.GetProviderStatus()
		logger.Info("LLM service initialized", map[string]interface{}{
			"provider": cfg.LLMProvider,
			"ready":    ready,
			"state":    state,
		})
		container.Register("llm", llmService)
		container.Register("settings", services.NewConfigService(cfg, llmService))
		scripts = services.NewScriptService(llmService, cfg.SpeechLang, metrics)
	}
	container.Register("scripts", scripts)

	// 3. speech
	speechProvider := speech.NewGoogleTranslate(cfg.SpeechHost, cfg.SpeechLang, cfg.SpeechSlow)
	container.Register("speech", speechProvider)

	// 4. synthesis cache, falling back to memory when redis is unreachable
	cache, err := storage.New(storage.Options{
		Backend:    cfg.CacheBackend,
		MaxSize:    cfg.CacheSize,
		Expiration: cfg.CacheTTL,
		RedisAddr:  cfg.RedisURL,
		Prefix:     "creativestudio:",
	})
	if err != nil {
		logger.Warn("cache backend unavailable, using memory cache", map[string]interface{}{
			"backend": cfg.CacheBackend,
			"error":   err,
		})
		cache = storage.NewMemoryCache(cfg.CacheSize, cfg.CacheTTL)
	}
	container.Register("cache", cache)

	// 5. asset binder
	var synthesizer assets.Synthesizer = assets.ProviderSynthesizer{Provider: speechProvider}
	if cfg.SpeechEndpoint != "" {
		synthesizer = assets.NewRemoteSynthesizer(cfg.SpeechEndpoint, nil, cfg.HTTPTimeout)
	}
	binder := assets.NewBinder(
		assets.NewImageTemplate(cfg.ImageBaseURL),
		synthesizer,
		assets.WithCache(cache),
		assets.WithConcurrency(cfg.BindConcurrency),
		assets.WithMetrics(metrics),
		assets.WithLogger(logger),
	)
	container.Register("binder", binder)

	// 6. sessions
	sessions := studio.NewManager(scripts, binder, cfg.SessionTTL, logger)
	sessions.StartCleanup(sessionCleanupInterval)
	container.Register("sessions", sessions)

	return nil
}

// closer is implemented by services holding background work or connections
type closer interface {
	Close() error
}

// Cleanup releases the resources held by registered services
func Cleanup() {
	cleanup(di.GetContainer())
}

func cleanup(container *di.Container) {
	logger := utils.GetLogger()

	if hub, ok := container.Get("websocket").(interface{ Stop() }); ok {
		hub.Stop()
	}
	if sessions, ok := container.Get("sessions").(*studio.Manager); ok {
		sessions.Close()
	}
	if cache, ok := container.Get("cache").(closer); ok {
		if err := cache.Close(); err != nil {
			logger.Warn("failed to close cache", map[string]interface{}{"error": err})
		}
	}
	logger.Sync()
}
