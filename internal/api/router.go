// internal/api/router.go
package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Corphon/CreativeStudio/internal/config"
	"github.com/Corphon/CreativeStudio/internal/di"
	"github.com/Corphon/CreativeStudio/internal/services"
	"github.com/Corphon/CreativeStudio/internal/speech"
	"github.com/Corphon/CreativeStudio/internal/studio"
	"github.com/Corphon/CreativeStudio/internal/utils"
)

// Dependencies are the services the router serves
type Dependencies struct {
	Config   *config.Config
	Scripts  services.ScriptGenerator
	LLM      *services.LLMService
	Settings *services.ConfigService
	Speech   speech.Provider
	Sessions *studio.Manager
	Metrics  *utils.PipelineMetrics
	Logger   *utils.Logger
}

// SetupRouter builds the router from the services registered in the container
func SetupRouter(cfg *config.Config) (*gin.Engine, error) {
	container := di.GetContainer()

	scripts, ok := container.Get("scripts").(services.ScriptGenerator)
	if !ok {
		return nil, fmt.Errorf("script service not initialized")
	}
	speechProvider, ok := container.Get("speech").(speech.Provider)
	if !ok {
		return nil, fmt.Errorf("speech provider not initialized")
	}
	sessions, ok := container.Get("sessions").(*studio.Manager)
	if !ok {
		return nil, fmt.Errorf("session manager not initialized")
	}
	llmService, _ := container.Get("llm").(*services.LLMService)
	settings, _ := container.Get("settings").(*services.ConfigService)
	metrics, _ := container.Get("metrics").(*utils.PipelineMetrics)

	router, hub := NewRouter(Dependencies{
		Config:   cfg,
		Scripts:  scripts,
		LLM:      llmService,
		Settings: settings,
		Speech:   speechProvider,
		Sessions: sessions,
		Metrics:  metrics,
		Logger:   utils.GetLogger(),
	})
	container.Register("websocket", hub)
	return router, nil
}

// NewRouter wires handlers and middleware. The returned manager is already
// started and forwards every session transition to websocket subscribers.
func NewRouter(deps Dependencies) (*gin.Engine, *WebSocketManager) {
	cfg := deps.Config
	if cfg == nil {
		cfg = &config.Config{}
	}
	if deps.Logger == nil {
		deps.Logger = utils.GetLogger()
	}
	if !cfg.DebugMode && gin.Mode() == gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	hub := NewWebSocketManager(deps.Logger)
	hub.Start()
	deps.Sessions.OnTransition(hub.PublishTransition)

	handler := NewHandler(deps, hub)
	limiter := NewRateLimiter()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggingMiddleware(deps.Logger, deps.Metrics))
	r.Use(CORSMiddleware(cfg.FrontendURL))

	r.GET("/ws/sessions/:id", handler.SessionWebSocket)

	api := r.Group("/api")
	api.Use(limiter.Middleware("api", 120, time.Minute))
	{
		generation := limiter.Middleware("generation", 20, time.Minute)

		// contract endpoints with plain bodies
		api.POST("/generate-script", generation, handler.GenerateScript)
		api.POST("/generate-audio", handler.GenerateAudio)

		sessionsGroup := api.Group("/sessions")
		{
			sessionsGroup.POST("", handler.CreateSession)
			sessionsGroup.GET("/:id", handler.GetSession)
			sessionsGroup.DELETE("/:id", handler.DeleteSession)
			sessionsGroup.POST("/:id/script", generation, handler.SubmitScript)
			sessionsGroup.POST("/:id/assets", handler.BindAssets)
			sessionsGroup.GET("/:id/composition", handler.GetComposition)
			sessionsGroup.GET("/:id/playback", handler.GetPlayback)
		}

		api.POST("/timeline", handler.BuildTimeline)
		api.GET("/health", handler.GetHealth)
		api.GET("/metrics", handler.GetMetrics)
		api.GET("/llm/models", handler.GetLLMModels)

		// runtime provider switching, only for LLM-backed generation
		if deps.Settings != nil {
			settingsGroup := api.Group("/settings")
			{
				settingsGroup.GET("", handler.GetSettings)
				settingsGroup.POST("", handler.SaveSettings)
				settingsGroup.GET("/history", handler.GetSettingsHistory)
			}
		}
	}

	return r, hub
}
