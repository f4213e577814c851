package timeline

import (
	"reflect"
	"testing"

	"github.com/Corphon/CreativeStudio/internal/models"
)

func scenesWithDurations(durations ...float64) []models.Scene {
	scenes := make([]models.Scene, len(durations))
	for i, d := range durations {
		scenes[i] = models.Scene{ID: i + 1, Duration: d}
	}
	return scenes
}

func TestBuildTwoScenes(t *testing.T) {
	tl := Build(scenesWithDurations(3, 5), FrameRate)

	want := []Placement{
		{Index: 0, SceneID: 1, StartFrame: 0, LengthFrames: 90},
		{Index: 1, SceneID: 2, StartFrame: 90, LengthFrames: 150},
	}
	if !reflect.DeepEqual(tl.Placements, want) {
		t.Fatalf("placements = %+v, want %+v", tl.Placements, want)
	}
	if tl.TotalFrames != 240 {
		t.Errorf("TotalFrames = %d, want 240", tl.TotalFrames)
	}
	if tl.Seconds() != 8 {
		t.Errorf("Seconds() = %v, want 8", tl.Seconds())
	}
}

func TestBuildEmpty(t *testing.T) {
	tl := Build(nil, FrameRate)
	if tl.TotalFrames != 0 {
		t.Errorf("TotalFrames = %d, want 0", tl.TotalFrames)
	}
	if len(tl.Placements) != 0 {
		t.Errorf("expected no placements, got %d", len(tl.Placements))
	}
}

func TestBuildPrefixSumProperty(t *testing.T) {
	durations := []float64{2.5, 1.01, 4.333, 0.5, 3, 7.25}
	tl := Build(scenesWithDurations(durations...), FrameRate)

	if tl.Placements[0].StartFrame != 0 {
		t.Fatalf("first start frame = %d, want 0", tl.Placements[0].StartFrame)
	}

	total := 0
	for i, d := range durations {
		length := Frames(d, FrameRate)
		if tl.Placements[i].LengthFrames != length {
			t.Errorf("scene %d length = %d, want %d", i, tl.Placements[i].LengthFrames, length)
		}
		if i > 0 {
			prev := tl.Placements[i-1]
			wantStart := prev.StartFrame + Frames(durations[i-1], FrameRate)
			if tl.Placements[i].StartFrame != wantStart {
				t.Errorf("scene %d start = %d, want %d", i, tl.Placements[i].StartFrame, wantStart)
			}
		}
		total += length
	}
	if tl.TotalFrames != total {
		t.Errorf("TotalFrames = %d, want %d", tl.TotalFrames, total)
	}
}

func TestBuildIsIdempotent(t *testing.T) {
	scenes := scenesWithDurations(1.2, 3.4, 5.6)
	first := Build(scenes, FrameRate)
	second := Build(scenes, FrameRate)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Build is not deterministic: %+v vs %+v", first, second)
	}
	if scenes[0].Duration != 1.2 {
		t.Error("Build mutated its input")
	}
}

func TestFramesRounding(t *testing.T) {
	cases := map[float64]int{
		1.0:   30,
		1.01:  30,
		1.02:  31,
		0.5:   15,
		2.999: 90,
	}
	for d, want := range cases {
		if got := Frames(d, FrameRate); got != want {
			t.Errorf("Frames(%v) = %d, want %d", d, got, want)
		}
	}
}

func TestTimelineAt(t *testing.T) {
	tl := Build(scenesWithDurations(3, 5, 1), FrameRate)

	checks := []struct {
		frame   int
		sceneID int
		ok      bool
	}{
		{0, 1, true},
		{89, 1, true},
		{90, 2, true},
		{239, 2, true},
		{240, 3, true},
		{269, 3, true},
		{270, 0, false},
		{-1, 0, false},
	}
	for _, c := range checks {
		p, ok := tl.At(c.frame)
		if ok != c.ok {
			t.Errorf("At(%d) ok = %v, want %v", c.frame, ok, c.ok)
			continue
		}
		if ok && p.SceneID != c.sceneID {
			t.Errorf("At(%d) scene = %d, want %d", c.frame, p.SceneID, c.sceneID)
		}
	}
}
