// internal/timeline/timeline.go
package timeline

import (
	"math"

	"github.com/Corphon/CreativeStudio/internal/models"
)

// FrameRate is the fixed playback rate used for all timeline arithmetic
const FrameRate = 30

// Placement is a scene's position on the playback timeline, in frames
type Placement struct {
	Index        int `json:"index" yaml:"index"`
	SceneID      int `json:"sceneId" yaml:"sceneId"`
	StartFrame   int `json:"startFrame" yaml:"startFrame"`
	LengthFrames int `json:"lengthFrames" yaml:"lengthFrames"`
}

// EndFrame is the first frame after the placement
func (p Placement) EndFrame() int {
	return p.StartFrame + p.LengthFrames
}

// Timeline is the ordered set of placements for a script
type Timeline struct {
	FPS         int         `json:"fps" yaml:"fps"`
	Placements  []Placement `json:"placements" yaml:"placements"`
	TotalFrames int         `json:"totalFrames" yaml:"totalFrames"`
}

// Frames converts a duration in seconds to a whole number of frames
func Frames(duration float64, fps int) int {
	return int(math.Round(duration * float64(fps)))
}

// Build lays scenes end to end. Start frames are a prefix sum over the
// rounded scene lengths, so the same input always yields the same output.
func Build(scenes []models.Scene, fps int) Timeline {
	if fps <= 0 {
		fps = FrameRate
	}

	placements := make([]Placement, len(scenes))
	start := 0
	for i, scene := range scenes {
		length := Frames(scene.Duration, fps)
		placements[i] = Placement{
			Index:        i,
			SceneID:      scene.ID,
			StartFrame:   start,
			LengthFrames: length,
		}
		start += length
	}

	return Timeline{
		FPS:         fps,
		Placements:  placements,
		TotalFrames: start,
	}
}

// At returns the placement that is on screen at frame, if any
func (t Timeline) At(frame int) (Placement, bool) {
	if frame < 0 || frame >= t.TotalFrames {
		return Placement{}, false
	}
	// placements are sorted by start frame
	lo, hi := 0, len(t.Placements)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		p := t.Placements[mid]
		switch {
		case frame < p.StartFrame:
			hi = mid - 1
		case frame >= p.EndFrame():
			lo = mid + 1
		default:
			return p, true
		}
	}
	return Placement{}, false
}

// Seconds is the total playback length in seconds
func (t Timeline) Seconds() float64 {
	if t.FPS <= 0 {
		return 0
	}
	return float64(t.TotalFrames) / float64(t.FPS)
}
