// internal/models/scene.go
package models

import (
	"fmt"
	"strings"
)

// Scene is one timed segment of the output video
type Scene struct {
	ID          int     `json:"id" yaml:"id"`
	Duration    float64 `json:"duration" yaml:"duration" jsonschema:"exclusiveMinimum=0" jsonschema_description:"Scene length in seconds"`
	ImagePrompt string  `json:"imagePrompt" yaml:"imagePrompt" jsonschema_description:"Visual description used to generate the scene image"`
	Voiceover   string  `json:"voiceover" yaml:"voiceover" jsonschema_description:"Narration read aloud during the scene"`
	OverlayText string  `json:"overlayText" yaml:"overlayText" jsonschema_description:"Short caption shown on screen"`

	// Filled in by asset binding, never by the generator.
	ImageURL string `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty" jsonschema:"-"`
	AudioURL string `json:"audioUrl,omitempty" yaml:"audioUrl,omitempty" jsonschema:"-"`
}

// Validate checks the scene invariants
func (s Scene) Validate() error {
	if s.Duration <= 0 {
		return fmt.Errorf("scene %d: duration must be positive, got %v", s.ID, s.Duration)
	}
	return nil
}

// HasImage reports whether an image reference has been bound
func (s Scene) HasImage() bool {
	return s.ImageURL != ""
}

// HasAudio reports whether an audio reference has been bound
func (s Scene) HasAudio() bool {
	return s.AudioURL != ""
}

// ScriptRequest is the marketing copy collected from the form
type ScriptRequest struct {
	Product        string `json:"product"`
	Description    string `json:"description"`
	TargetAudience string `json:"targetAudience"`
}

// Normalize trims surrounding whitespace from every field
func (r ScriptRequest) Normalize() ScriptRequest {
	return ScriptRequest{
		Product:        strings.TrimSpace(r.Product),
		Description:    strings.TrimSpace(r.Description),
		TargetAudience: strings.TrimSpace(r.TargetAudience),
	}
}

// MissingFields returns the JSON names of required fields that are empty
func (r ScriptRequest) MissingFields() []string {
	n := r.Normalize()
	var missing []string
	if n.Product == "" {
		missing = append(missing, "product")
	}
	if n.Description == "" {
		missing = append(missing, "description")
	}
	if n.TargetAudience == "" {
		missing = append(missing, "targetAudience")
	}
	return missing
}
