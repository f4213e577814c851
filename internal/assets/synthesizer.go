// internal/assets/synthesizer.go
package assets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "github.com/Corphon/CreativeStudio/internal/errors"
	"github.com/Corphon/CreativeStudio/internal/speech"
)

// Synthesizer resolves narration text to an audio reference
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (string, error)
}

// SynthesisRequest is the body sent to the speech endpoint
type SynthesisRequest struct {
	Text string `json:"text"`
}

// SynthesisResponse is the body returned by the speech endpoint
type SynthesisResponse struct {
	URL   string `json:"url,omitempty"`
	Error string `json:"error,omitempty"`
}

// RemoteSynthesizer calls a speech endpoint over HTTP
type RemoteSynthesizer struct {
	endpoint string
	client   *http.Client
}

// NewRemoteSynthesizer creates a client for endpoint. A nil client gets a
// default one with timeout.
func NewRemoteSynthesizer(endpoint string, client *http.Client, timeout time.Duration) *RemoteSynthesizer {
	if client == nil {
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &RemoteSynthesizer{endpoint: endpoint, client: client}
}

// Synthesize posts text and returns the url field of the response
func (s *RemoteSynthesizer) Synthesize(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(SynthesisRequest{Text: text})
	if err != nil {
		return "", apperrors.NewRemoteSynthesisError("encode synthesis request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", apperrors.NewRemoteSynthesisError("build synthesis request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", apperrors.NewRemoteSynthesisError("synthesis request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", apperrors.NewRemoteSynthesisError(
			fmt.Sprintf("synthesis endpoint returned %d", resp.StatusCode),
			fmt.Errorf("%s", bytes.TrimSpace(snippet)))
	}

	var out SynthesisResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", apperrors.NewRemoteSynthesisError("decode synthesis response", err)
	}
	if out.URL == "" {
		return "", apperrors.NewRemoteSynthesisError("synthesis response has no url", nil)
	}
	return out.URL, nil
}

// ProviderSynthesizer adapts an in-process speech provider
type ProviderSynthesizer struct {
	Provider speech.Provider
}

// Synthesize delegates to the provider, classifying failures as synthesis errors
func (p ProviderSynthesizer) Synthesize(ctx context.Context, text string) (string, error) {
	u, err := p.Provider.AudioURL(ctx, text)
	if err != nil {
		return "", apperrors.NewRemoteSynthesisError(p.Provider.Name()+" failed", err)
	}
	return u, nil
}
