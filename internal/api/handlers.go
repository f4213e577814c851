// internal/api/handlers.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Corphon/CreativeStudio/internal/assets"
	apperrors "github.com/Corphon/CreativeStudio/internal/errors"
	"github.com/Corphon/CreativeStudio/internal/models"
	"github.com/Corphon/CreativeStudio/internal/render"
	"github.com/Corphon/CreativeStudio/internal/services"
	"github.com/Corphon/CreativeStudio/internal/speech"
	"github.com/Corphon/CreativeStudio/internal/studio"
	"github.com/Corphon/CreativeStudio/internal/timeline"
	"github.com/Corphon/CreativeStudio/internal/utils"
)

// Handler serves the HTTP API
type Handler struct {
	scripts  services.ScriptGenerator
	llm      *services.LLMService
	settings *services.ConfigService
	speech   speech.Provider
	sessions *studio.Manager
	hub      *WebSocketManager
	metrics  *utils.PipelineMetrics
	logger   *utils.Logger
	started  time.Time
	Response *ResponseHelper
}

// NewHandler creates a handler. llm may be nil when scripts is not LLM backed.
func NewHandler(deps Dependencies, hub *WebSocketManager) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = utils.GetLogger()
	}
	return &Handler{
		scripts:  deps.Scripts,
		llm:      deps.LLM,
		settings: deps.Settings,
		speech:   deps.Speech,
		sessions: deps.Sessions,
		hub:      hub,
		metrics:  deps.Metrics,
		logger:   logger,
		started:  time.Now(),
		Response: NewResponseHelper(),
	}
}

// errorBody is the plain error body of the contract endpoints
type errorBody struct {
	Error string `json:"error"`
}

// GenerateScript handles POST /api/generate-script
func (h *Handler) GenerateScript(c *gin.Context) {
	var req models.ScriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: "Invalid request body"})
		return
	}

	script, err := h.scripts.Generate(c.Request.Context(), req)
	if err != nil {
		status := http.StatusBadGateway
		message := "Failed to generate script"
		if apperrors.IsInputValidationError(err) {
			status = http.StatusBadRequest
			message = err.Error()
		}
		c.JSON(status, errorBody{Error: message})
		return
	}
	c.JSON(http.StatusOK, script)
}

// audioRequest is the body of POST /api/generate-audio
type audioRequest struct {
	Text string `json:"text"`
}

// GenerateAudio handles POST /api/generate-audio
func (h *Handler) GenerateAudio(c *gin.Context) {
	var req audioRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, errorBody{Error: "Text is required"})
		return
	}

	url, err := h.speech.AudioURL(c.Request.Context(), req.Text)
	if err != nil {
		h.logger.Error("error generating audio", map[string]interface{}{"error": err})
		c.JSON(http.StatusInternalServerError, errorBody{Error: "Failed to generate audio"})
		return
	}
	c.JSON(http.StatusOK, assets.SynthesisResponse{URL: url})
}

// CreateSession handles POST /api/sessions
func (h *Handler) CreateSession(c *gin.Context) {
	session := h.sessions.Create()
	h.Response.Created(c, session.Snapshot(), "session created")
}

// GetSession handles GET /api/sessions/:id
func (h *Handler) GetSession(c *gin.Context) {
	session, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		h.Response.AppError(c, err)
		return
	}
	h.Response.Success(c, session.Snapshot())
}

// DeleteSession handles DELETE /api/sessions/:id
func (h *Handler) DeleteSession(c *gin.Context) {
	id := c.Param("id")
	if err := h.sessions.Delete(id); err != nil {
		h.Response.AppError(c, err)
		return
	}
	h.hub.CloseSession(id)
	h.Response.Success(c, gin.H{"id": id}, "session deleted")
}

// SubmitScript handles POST /api/sessions/:id/script
func (h *Handler) SubmitScript(c *gin.Context) {
	session, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		h.Response.AppError(c, err)
		return
	}

	var req models.ScriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	if _, err := session.Submit(c.Request.Context(), req); err != nil {
		h.Response.AppError(c, err)
		return
	}
	h.Response.Success(c, session.Snapshot(), "script generated")
}

// bindResult is the body returned after asset binding
type bindResult struct {
	Session studio.Snapshot `json:"session"`
	Report  *assets.Report  `json:"report"`
}

// BindAssets handles POST /api/sessions/:id/assets
func (h *Handler) BindAssets(c *gin.Context) {
	session, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		h.Response.AppError(c, err)
		return
	}

	_, report, err := session.BindAssets(c.Request.Context())
	if err != nil {
		h.Response.AppError(c, err)
		return
	}
	h.Response.Success(c, bindResult{Session: session.Snapshot(), Report: report}, "assets bound")
}

// GetComposition handles GET /api/sessions/:id/composition[?format=yaml]
func (h *Handler) GetComposition(c *gin.Context) {
	session, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		h.Response.AppError(c, err)
		return
	}
	script := session.Script()
	if script == nil {
		h.Response.Conflict(c, ErrorScriptMissing, "session has no script yet")
		return
	}

	composition := render.Build(script)
	switch strings.ToLower(c.DefaultQuery("format", "json")) {
	case "yaml", "yml":
		h.Response.YAML(c, composition)
	case "json":
		h.Response.Success(c, composition)
	default:
		h.Response.BadRequest(c, "unsupported format", "use json or yaml")
	}
}

// GetPlayback handles GET /api/sessions/:id/playback
func (h *Handler) GetPlayback(c *gin.Context) {
	session, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		h.Response.AppError(c, err)
		return
	}
	h.Response.Success(c, render.NewPlaybackInput(session.Script()))
}

// timelineRequest is the body of POST /api/timeline
type timelineRequest struct {
	Scenes []models.Scene `json:"scenes"`
}

// BuildTimeline handles POST /api/timeline
func (h *Handler) BuildTimeline(c *gin.Context) {
	var req timelineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid request body", err.Error())
		return
	}
	for _, scene := range req.Scenes {
		if err := scene.Validate(); err != nil {
			h.Response.AppError(c, apperrors.NewInputValidationError(err.Error(), nil))
			return
		}
	}
	h.Response.Success(c, timeline.Build(req.Scenes, timeline.FrameRate))
}

// GetHealth handles GET /api/health
func (h *Handler) GetHealth(c *gin.Context) {
	health := gin.H{
		"status":                "ok",
		"uptime_seconds":        int64(time.Since(h.started).Seconds()),
		"sessions":              h.sessions.Len(),
		"websocket_connections": h.hub.ConnectionCount(),
	}
	if h.llm != nil {
		ready, state := h.llm.GetProviderStatus()
		health["llm"] = gin.H{
			"ready":    ready,
			"state":    state,
			"provider": h.llm.GetProviderName(),
		}
		if !ready {
			health["status"] = "degraded"
		}
	}
	if h.speech != nil {
		health["speech"] = h.speech.Name()
	}
	h.Response.Success(c, health)
}

// GetMetrics handles GET /api/metrics
func (h *Handler) GetMetrics(c *gin.Context) {
	if h.metrics == nil {
		h.Response.Success(c, utils.GetMetricsCollector().GetMetrics())
		return
	}
	h.Response.Success(c, h.metrics.Collector().GetMetrics())
}
