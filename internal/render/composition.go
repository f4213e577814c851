// internal/render/composition.go
package render

import (
	"github.com/Corphon/CreativeStudio/internal/assets"
	"github.com/Corphon/CreativeStudio/internal/models"
	"github.com/Corphon/CreativeStudio/internal/timeline"
)

// Visual kinds
const (
	VisualImage       = "image"
	VisualPlaceholder = "placeholder"
)

// PlaceholderLabel is shown when a scene has no image
const PlaceholderLabel = "No Image"

// Caption layout
const (
	CaptionPosition = "bottom"
	CaptionOffsetPx = 80
)

// Composition is the declarative description handed to the video player
type Composition struct {
	Title            string    `json:"title" yaml:"title"`
	Width            int       `json:"width" yaml:"width"`
	Height           int       `json:"height" yaml:"height"`
	FPS              int       `json:"fps" yaml:"fps"`
	DurationInFrames int       `json:"durationInFrames" yaml:"durationInFrames"`
	Segments         []Segment `json:"segments" yaml:"segments"`
}

// Segment is one scene placed on the timeline
type Segment struct {
	SceneID          int     `json:"sceneId" yaml:"sceneId"`
	From             int     `json:"from" yaml:"from"`
	DurationInFrames int     `json:"durationInFrames" yaml:"durationInFrames"`
	Visual           Visual  `json:"visual" yaml:"visual"`
	Audio            *Audio  `json:"audio,omitempty" yaml:"audio,omitempty"`
	Caption          Caption `json:"caption" yaml:"caption"`
}

// Visual is the full-frame image or the placeholder panel
type Visual struct {
	Kind  string `json:"kind" yaml:"kind"`
	Src   string `json:"src,omitempty" yaml:"src,omitempty"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// Audio is the narration track of a segment
type Audio struct {
	Src string `json:"src" yaml:"src"`
}

// Caption is the overlay text
type Caption struct {
	Text     string `json:"text" yaml:"text"`
	Position string `json:"position" yaml:"position"`
	OffsetPx int    `json:"offsetPx" yaml:"offsetPx"`
}

// Build lays out script at 30 fps. A scene without an image gets the
// placeholder, a scene without audio plays silent, and every scene shows
// its caption. A nil or empty script yields a one-frame composition.
func Build(script *models.Script) Composition {
	var scenes []models.Scene
	title := ""
	if script != nil {
		scenes = script.Scenes
		title = script.Title
	}

	tl := timeline.Build(scenes, timeline.FrameRate)
	segments := make([]Segment, len(scenes))
	for i, scene := range scenes {
		p := tl.Placements[i]
		segments[i] = Segment{
			SceneID:          scene.ID,
			From:             p.StartFrame,
			DurationInFrames: p.LengthFrames,
			Visual:           visualFor(scene),
			Caption: Caption{
				Text:     scene.OverlayText,
				Position: CaptionPosition,
				OffsetPx: CaptionOffsetPx,
			},
		}
		if scene.HasAudio() {
			segments[i].Audio = &Audio{Src: scene.AudioURL}
		}
	}

	return Composition{
		Title:            title,
		Width:            assets.DefaultWidth,
		Height:           assets.DefaultHeight,
		FPS:              tl.FPS,
		DurationInFrames: playerDuration(tl.TotalFrames),
		Segments:         segments,
	}
}

func visualFor(scene models.Scene) Visual {
	if scene.HasImage() {
		return Visual{Kind: VisualImage, Src: scene.ImageURL}
	}
	return Visual{Kind: VisualPlaceholder, Label: PlaceholderLabel}
}

// playerDuration clamps to one frame; players reject a zero-length composition
func playerDuration(total int) int {
	if total < 1 {
		return 1
	}
	return total
}

// PlaybackInput is the input contract of the video player
type PlaybackInput struct {
	Scenes           []models.Scene `json:"scenes"`
	DurationInFrames int            `json:"durationInFrames"`
	Width            int            `json:"width"`
	Height           int            `json:"height"`
	FPS              int            `json:"fps"`
}

// NewPlaybackInput builds the player input for script
func NewPlaybackInput(script *models.Script) PlaybackInput {
	scenes := []models.Scene{}
	if script != nil && len(script.Scenes) > 0 {
		scenes = script.Clone().Scenes
	}
	tl := timeline.Build(scenes, timeline.FrameRate)
	return PlaybackInput{
		Scenes:           scenes,
		DurationInFrames: playerDuration(tl.TotalFrames),
		Width:            assets.DefaultWidth,
		Height:           assets.DefaultHeight,
		FPS:              tl.FPS,
	}
}
