// internal/api/settings_handlers.go
package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Corphon/CreativeStudio/internal/llm"
)

// saveSettingsRequest is the body of POST /api/settings
type saveSettingsRequest struct {
	LLMProvider string            `json:"llm_provider"`
	LLMConfig   map[string]string `json:"llm_config"`
}

// GetSettings handles GET /api/settings
func (h *Handler) GetSettings(c *gin.Context) {
	h.Response.Success(c, h.settings.GetLLMSettings())
}

// SaveSettings handles POST /api/settings
func (h *Handler) SaveSettings(c *gin.Context) {
	var req saveSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid request body", err.Error())
		return
	}
	if req.LLMProvider == "" {
		h.Response.BadRequest(c, "llm_provider is required")
		return
	}
	if req.LLMConfig == nil {
		req.LLMConfig = map[string]string{}
	}

	if err := h.settings.UpdateLLMConfig(req.LLMProvider, req.LLMConfig, "api"); err != nil {
		h.Response.BadRequest(c, "failed to save LLM settings", err.Error())
		return
	}
	h.Response.Success(c, h.settings.GetLLMSettings(), "settings saved")
}

// GetSettingsHistory handles GET /api/settings/history
func (h *Handler) GetSettingsHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	h.Response.Success(c, h.settings.GetChangeHistory(limit))
}

// GetLLMModels handles GET /api/llm/models?provider=
func (h *Handler) GetLLMModels(c *gin.Context) {
	provider := c.Query("provider")
	if provider == "" {
		h.Response.Success(c, gin.H{"providers": llm.ListProviders()})
		return
	}

	for _, name := range llm.ListProviders() {
		if name == provider {
			h.Response.Success(c, gin.H{
				"provider": provider,
				"models":   llm.GetSupportedModelsForProvider(provider),
			})
			return
		}
	}
	h.Response.Error(c, http.StatusBadRequest, ErrorBadRequest, "unsupported LLM provider: "+provider)
}
