// internal/services/script_service.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/invopop/jsonschema"

	apperrors "github.com/Corphon/CreativeStudio/internal/errors"
	"github.com/Corphon/CreativeStudio/internal/models"
	"github.com/Corphon/CreativeStudio/internal/utils"
)

// ScriptGenerator turns marketing copy into a video script
type ScriptGenerator interface {
	Generate(ctx context.Context, req models.ScriptRequest) (*models.Script, error)
}

// GenerateSchema reflects the JSON schema the model must follow
func GenerateSchema[T any]() *jsonschema.Schema {
	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

var scriptSchemaJSON = func() string {
	b, err := json.MarshalIndent(GenerateSchema[models.Script](), "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}()

// generationResult is a script or a generator-reported error
type generationResult struct {
	models.Script
	Error string `json:"error,omitempty"`
}

// ScriptService generates scripts with the configured LLM
type ScriptService struct {
	llm      *LLMService
	language string
	metrics  *utils.PipelineMetrics
	logger   *utils.Logger
}

// NewScriptService creates the service. language names the narration
// language, for example "pt".
func NewScriptService(llmService *LLMService, language string, metrics *utils.PipelineMetrics) *ScriptService {
	if language == "" {
		language = "pt"
	}
	return &ScriptService{
		llm:      llmService,
		language: language,
		metrics:  metrics,
		logger:   utils.GetLogger(),
	}
}

// Generate validates req and asks the model for a script. Invalid input is
// rejected before any request is made.
func (s *ScriptService) Generate(ctx context.Context, req models.ScriptRequest) (*models.Script, error) {
	if missing := req.MissingFields(); len(missing) > 0 {
		return nil, apperrors.NewInputValidationError(
			"missing required fields: "+strings.Join(missing, ", "), nil)
	}
	req = req.Normalize()

	started := time.Now()
	var result generationResult
	err := s.llm.CreateStructuredCompletion(ctx, buildScriptPrompt(req, s.language), scriptSystemPrompt, &result)
	if err == nil && result.Error != "" {
		err = fmt.Errorf("generator reported: %s", result.Error)
	}
	if err == nil {
		err = result.Script.Validate()
	}

	if s.metrics != nil {
		s.metrics.RecordGeneration(s.llm.GetProviderName(), err == nil, time.Since(started))
	}
	if err != nil {
		s.logger.Error("script generation failed", map[string]interface{}{
			"product": req.Product,
			"error":   err,
		})
		return nil, apperrors.NewRemoteGenerationError("script generation failed", err)
	}

	script := result.Script
	normalizeSceneIDs(&script)
	script.StripMedia()
	s.logger.Info("script generated", map[string]interface{}{
		"title":  script.Title,
		"scenes": len(script.Scenes),
	})
	return &script, nil
}

// normalizeSceneIDs assigns 1-based ids when the model omitted them
func normalizeSceneIDs(script *models.Script) {
	seen := make(map[int]bool, len(script.Scenes))
	ok := true
	for _, scene := range script.Scenes {
		if scene.ID == 0 || seen[scene.ID] {
			ok = false
			break
		}
		seen[scene.ID] = true
	}
	if ok {
		return
	}
	for i := range script.Scenes {
		script.Scenes[i].ID = i + 1
	}
}

const scriptSystemPrompt = `You are a copywriter who writes short vertical video ads (9:16, under 30 seconds).
You plan each ad as a title and a list of scenes. Every scene has an image prompt for a text-to-image model,
a voiceover line read by a text-to-speech voice, and a short overlay caption.`

func buildScriptPrompt(req models.ScriptRequest, language string) string {
	return fmt.Sprintf(`Write a video ad script.

Product: %s
Description: %s
Target audience: %s

Rules:
- 3 to 6 scenes, numbered from 1, in playback order
- each scene lasts 2 to 6 seconds
- voiceover and overlay text in language %q; image prompts in English
- each voiceover is at most 200 characters
- overlay text is at most 6 words

Answer with a JSON object matching this schema:
%s`, req.Product, req.Description, req.TargetAudience, language, scriptSchemaJSON)
}

// RemoteScriptClient calls an external script endpoint with the same contract
// as POST /api/generate-script
type RemoteScriptClient struct {
	endpoint string
	client   *http.Client
}

// NewRemoteScriptClient creates a client for endpoint
func NewRemoteScriptClient(endpoint string, client *http.Client) *RemoteScriptClient {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &RemoteScriptClient{endpoint: endpoint, client: client}
}

// Generate posts req and decodes the script or error body
func (c *RemoteScriptClient) Generate(ctx context.Context, req models.ScriptRequest) (*models.Script, error) {
	if missing := req.MissingFields(); len(missing) > 0 {
		return nil, apperrors.NewInputValidationError(
			"missing required fields: "+strings.Join(missing, ", "), nil)
	}

	body, err := json.Marshal(req.Normalize())
	if err != nil {
		return nil, apperrors.NewRemoteGenerationError("encode request", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.NewRemoteGenerationError("build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, apperrors.NewRemoteGenerationError("script request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, apperrors.NewRemoteGenerationError("read script response", err)
	}

	var result generationResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, apperrors.NewRemoteGenerationError(
			fmt.Sprintf("undecodable script response (status %d)", resp.StatusCode), err)
	}
	if result.Error != "" {
		return nil, apperrors.NewRemoteGenerationError(result.Error, nil)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.NewRemoteGenerationError(
			fmt.Sprintf("script endpoint returned %d", resp.StatusCode), nil)
	}
	if err := result.Script.Validate(); err != nil {
		return nil, apperrors.NewRemoteGenerationError("invalid script", err)
	}

	script := result.Script
	script.StripMedia()
	return &script, nil
}
