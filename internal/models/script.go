// internal/models/script.go
package models

import (
	"errors"
	"strings"
)

// Script is the complete plan for a video: a title and ordered scenes.
// Scene order is playback order.
type Script struct {
	Title  string  `json:"title" yaml:"title" jsonschema_description:"Catchy title for the video"`
	Scenes []Scene `json:"scenes" yaml:"scenes" jsonschema:"minItems=1" jsonschema_description:"Ordered scenes, in playback order"`
}

// Clone returns a deep copy. Scenes hold only values, so copying the slice is enough.
func (s *Script) Clone() *Script {
	if s == nil {
		return nil
	}
	scenes := make([]Scene, len(s.Scenes))
	copy(scenes, s.Scenes)
	return &Script{Title: s.Title, Scenes: scenes}
}

// Validate checks that the script is complete enough to be rendered
func (s *Script) Validate() error {
	if s == nil {
		return errors.New("script is nil")
	}
	if strings.TrimSpace(s.Title) == "" {
		return errors.New("script has no title")
	}
	if len(s.Scenes) == 0 {
		return errors.New("script has no scenes")
	}
	for _, scene := range s.Scenes {
		if err := scene.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// StripMedia clears every image and audio reference. Generated scripts go
// through it so that only the asset binder sets media.
func (s *Script) StripMedia() {
	if s == nil {
		return
	}
	for i := range s.Scenes {
		s.Scenes[i].ImageURL = ""
		s.Scenes[i].AudioURL = ""
	}
}

// AssetsBound reports whether asset binding has already run,
// i.e. any scene carries an image reference.
func (s *Script) AssetsBound() bool {
	if s == nil {
		return false
	}
	for _, scene := range s.Scenes {
		if scene.HasImage() {
			return true
		}
	}
	return false
}

// Durations returns the per-scene durations in playback order
func (s *Script) Durations() []float64 {
	if s == nil {
		return nil
	}
	out := make([]float64, len(s.Scenes))
	for i, scene := range s.Scenes {
		out[i] = scene.Duration
	}
	return out
}
