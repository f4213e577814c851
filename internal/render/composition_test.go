package render

import (
	"bytes"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/Corphon/CreativeStudio/internal/models"
)

func boundScript() *models.Script {
	return &models.Script{
		Title: "Run Further",
		Scenes: []models.Scene{
			{ID: 1, Duration: 3, OverlayText: "Go", ImageURL: "https://img/1", AudioURL: "https://aud/1"},
			{ID: 2, Duration: 5, OverlayText: "Win", ImageURL: "https://img/2"},
			{ID: 3, Duration: 1.5, OverlayText: "Now"},
		},
	}
}

func TestBuildComposition(t *testing.T) {
	c := Build(boundScript())

	if c.Width != 1080 || c.Height != 1920 || c.FPS != 30 {
		t.Errorf("dimensions = %dx%d@%d", c.Width, c.Height, c.FPS)
	}
	if c.DurationInFrames != 285 {
		t.Errorf("DurationInFrames = %d, want 285", c.DurationInFrames)
	}

	wantFrom := []int{0, 90, 240}
	wantLen := []int{90, 150, 45}
	for i, seg := range c.Segments {
		if seg.From != wantFrom[i] || seg.DurationInFrames != wantLen[i] {
			t.Errorf("segment %d = (%d,%d), want (%d,%d)", i, seg.From, seg.DurationInFrames, wantFrom[i], wantLen[i])
		}
		if seg.Caption.Position != "bottom" || seg.Caption.OffsetPx != 80 {
			t.Errorf("segment %d caption layout = %+v", i, seg.Caption)
		}
	}

	if v := c.Segments[0].Visual; v.Kind != VisualImage || v.Src != "https://img/1" {
		t.Errorf("segment 0 visual = %+v", v)
	}
	if c.Segments[0].Audio == nil || c.Segments[0].Audio.Src != "https://aud/1" {
		t.Errorf("segment 0 audio = %+v", c.Segments[0].Audio)
	}
	if c.Segments[1].Audio != nil {
		t.Error("scene without audio should be silent")
	}
	if v := c.Segments[2].Visual; v.Kind != VisualPlaceholder || v.Label != "No Image" || v.Src != "" {
		t.Errorf("segment 2 visual = %+v", v)
	}
	if c.Segments[2].Caption.Text != "Now" {
		t.Errorf("caption = %q", c.Segments[2].Caption.Text)
	}
}

func TestBuildEmptyScriptClampsDuration(t *testing.T) {
	for _, script := range []*models.Script{nil, {Title: "empty"}} {
		c := Build(script)
		if c.DurationInFrames != 1 || len(c.Segments) != 0 {
			t.Errorf("Build(%v) = %+v", script, c)
		}
	}
}

func TestPlaybackInput(t *testing.T) {
	script := boundScript()
	in := NewPlaybackInput(script)
	if in.DurationInFrames != 285 || in.FPS != 30 || in.Width != 1080 || in.Height != 1920 {
		t.Errorf("unexpected input %+v", in)
	}
	if len(in.Scenes) != 3 {
		t.Fatalf("scenes = %d", len(in.Scenes))
	}
	in.Scenes[0].OverlayText = "changed"
	if script.Scenes[0].OverlayText != "Go" {
		t.Error("playback input shares scenes with the script")
	}

	empty := NewPlaybackInput(nil)
	if empty.DurationInFrames != 1 || empty.Scenes == nil {
		t.Errorf("empty input = %+v", empty)
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	c := Build(boundScript())

	var buf bytes.Buffer
	if err := WriteYAML(&buf, c); err != nil {
		t.Fatalf("WriteYAML failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"durationInFrames: 285", "kind: placeholder", "label: No Image", "position: bottom"} {
		if !strings.Contains(out, want) {
			t.Errorf("YAML missing %q:\n%s", want, out)
		}
	}

	back, err := ReadYAML(&buf)
	if err != nil {
		t.Fatalf("ReadYAML failed: %v", err)
	}
	if !reflect.DeepEqual(*back, c) {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", *back, c)
	}
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "composition.yaml")
	c := Build(boundScript())
	if err := WriteFile(c, path); err != nil {
		t.Fatal(err)
	}
	back, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if back.Title != c.Title || len(back.Segments) != len(c.Segments) {
		t.Errorf("unexpected composition %+v", back)
	}
}
