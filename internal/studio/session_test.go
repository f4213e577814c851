package studio

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Corphon/CreativeStudio/internal/assets"
	apperrors "github.com/Corphon/CreativeStudio/internal/errors"
	"github.com/Corphon/CreativeStudio/internal/models"
	"github.com/Corphon/CreativeStudio/internal/speech"
	"github.com/Corphon/CreativeStudio/internal/utils"
)

type generatorFunc func(ctx context.Context, req models.ScriptRequest) (*models.Script, error)

type fakeGenerator struct {
	calls int64
	fn    generatorFunc
}

func (g *fakeGenerator) Generate(ctx context.Context, req models.ScriptRequest) (*models.Script, error) {
	atomic.AddInt64(&g.calls, 1)
	return g.fn(ctx, req)
}

type binderFunc func(ctx context.Context, script *models.Script) (*models.Script, *assets.Report, error)

func (f binderFunc) Bind(ctx context.Context, script *models.Script) (*models.Script, *assets.Report, error) {
	return f(ctx, script)
}

func scriptTitled(title string) *models.Script {
	return &models.Script{
		Title: title,
		Scenes: []models.Scene{
			{ID: 1, Duration: 3, ImagePrompt: "a", Voiceover: "one", OverlayText: "A"},
			{ID: 2, Duration: 5, ImagePrompt: "b", Voiceover: "two", OverlayText: "B"},
		},
	}
}

func staticGenerator(title string) *fakeGenerator {
	return &fakeGenerator{fn: func(context.Context, models.ScriptRequest) (*models.Script, error) {
		return scriptTitled(title), nil
	}}
}

// fillBinder sets fake media references on every scene
var fillBinder = binderFunc(func(_ context.Context, s *models.Script) (*models.Script, *assets.Report, error) {
	out := s.Clone()
	for i := range out.Scenes {
		out.Scenes[i].ImageURL = "img:" + out.Scenes[i].ImagePrompt
		out.Scenes[i].AudioURL = "aud:" + out.Scenes[i].Voiceover
	}
	return out, &assets.Report{Scenes: len(out.Scenes), AudioBound: len(out.Scenes)}, nil
})

var form = models.ScriptRequest{Product: "AeroRun", Description: "running shoes", TargetAudience: "runners"}

func newTestSession(g *fakeGenerator, b AssetBinder) *Session {
	return NewSession("s1", g, b, utils.NewNopLogger())
}

func TestSessionHappyPath(t *testing.T) {
	s := newTestSession(staticGenerator("Run"), fillBinder)

	var mu sync.Mutex
	var seen []State
	s.OnTransition(func(tr Transition) {
		mu.Lock()
		seen = append(seen, tr.To)
		mu.Unlock()
	})

	if s.State() != Idle {
		t.Fatalf("initial state = %s", s.State())
	}

	script, err := s.Submit(context.Background(), form)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if script.Title != "Run" || s.State() != ScriptReady {
		t.Fatalf("after submit: title=%q state=%s", script.Title, s.State())
	}

	bound, report, err := s.BindAssets(context.Background())
	if err != nil {
		t.Fatalf("BindAssets failed: %v", err)
	}
	if report.AudioBound != 2 || !bound.AssetsBound() {
		t.Errorf("unexpected binding result %+v", report)
	}

	snap := s.Snapshot()
	if snap.State != AssetsReady || snap.Script.Scenes[0].ImageURL != "img:a" {
		t.Errorf("unexpected snapshot %+v", snap)
	}

	want := []State{GeneratingScript, ScriptReady, BindingAssets, AssetsReady}
	mu.Lock()
	defer mu.Unlock()
	if len(seen) != len(want) {
		t.Fatalf("transitions = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("transition %d = %s, want %s", i, seen[i], want[i])
		}
	}
}

func TestSubmitInvalidInputMakesNoRequest(t *testing.T) {
	g := staticGenerator("Run")
	s := newTestSession(g, fillBinder)

	if _, err := s.Submit(context.Background(), form); err != nil {
		t.Fatal(err)
	}

	bad := form
	bad.Product = ""
	_, err := s.Submit(context.Background(), bad)
	if !apperrors.IsInputValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if g.calls != 1 {
		t.Errorf("generator called %d times, want 1", g.calls)
	}
	snap := s.Snapshot()
	if snap.State != Idle || snap.Script != nil {
		t.Errorf("invalid resubmission should discard the script: %+v", snap)
	}
	if !strings.Contains(snap.Notice, "product") {
		t.Errorf("notice = %q", snap.Notice)
	}
}

func TestSubmitGeneratorErrorReturnsToIdle(t *testing.T) {
	g := &fakeGenerator{fn: func(context.Context, models.ScriptRequest) (*models.Script, error) {
		return nil, apperrors.NewRemoteGenerationError("quota exceeded", nil)
	}}
	s := newTestSession(g, fillBinder)

	script, err := s.Submit(context.Background(), form)
	if !apperrors.IsRemoteGenerationError(err) || script != nil {
		t.Fatalf("expected generation error, got %v %v", script, err)
	}
	snap := s.Snapshot()
	if snap.State != Idle || snap.Script != nil || !strings.Contains(snap.Notice, "quota exceeded") {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

func TestBindAssetsNotAllowed(t *testing.T) {
	s := newTestSession(staticGenerator("Run"), fillBinder)

	if _, _, err := s.BindAssets(context.Background()); !errors.Is(err, ErrTransitionNotAllowed) {
		t.Errorf("bind from idle: expected ErrTransitionNotAllowed, got %v", err)
	}

	if _, err := s.Submit(context.Background(), form); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.BindAssets(context.Background()); err != nil {
		t.Fatal(err)
	}
	_, _, err := s.BindAssets(context.Background())
	if !errors.Is(err, ErrTransitionNotAllowed) || !apperrors.IsConflictError(err) {
		t.Errorf("second bind: expected conflict, got %v", err)
	}
}

func TestBindAssetsUnexpectedFailureKeepsScript(t *testing.T) {
	failing := binderFunc(func(context.Context, *models.Script) (*models.Script, *assets.Report, error) {
		return nil, nil, errors.New("worker crashed")
	})
	s := newTestSession(staticGenerator("Run"), failing)

	if _, err := s.Submit(context.Background(), form); err != nil {
		t.Fatal(err)
	}
	_, _, err := s.BindAssets(context.Background())
	if !apperrors.IsUnexpectedBindingError(err) {
		t.Fatalf("expected unexpected binding error, got %v", err)
	}

	snap := s.Snapshot()
	if snap.State != ScriptReady || snap.Script == nil || snap.Script.Title != "Run" {
		t.Errorf("script should be preserved in ScriptReady: %+v", snap)
	}
	if snap.Script.AssetsBound() {
		t.Error("failed binding must not leave partial media")
	}
	if snap.Notice == "" {
		t.Error("expected a notice")
	}
}

func TestBindAssetsPartialFailuresReachAssetsReady(t *testing.T) {
	partial := binderFunc(func(_ context.Context, s *models.Script) (*models.Script, *assets.Report, error) {
		out := s.Clone()
		for i := range out.Scenes {
			out.Scenes[i].ImageURL = "img"
		}
		out.Scenes[0].AudioURL = "aud"
		return out, &assets.Report{
			Scenes:        2,
			AudioBound:    1,
			AudioFailures: []assets.SceneFailure{{Index: 1, SceneID: 2, Message: "quota"}},
		}, nil
	})
	s := newTestSession(staticGenerator("Run"), partial)

	if _, err := s.Submit(context.Background(), form); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.BindAssets(context.Background()); err != nil {
		t.Fatal(err)
	}
	snap := s.Snapshot()
	if snap.State != AssetsReady || len(snap.AudioFailures) != 1 || snap.AudioFailures[0].SceneID != 2 {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

func TestStaleGenerationIsDropped(t *testing.T) {
	release := make(chan struct{})
	g := &fakeGenerator{fn: func(_ context.Context, req models.ScriptRequest) (*models.Script, error) {
		if req.Product == "first" {
			<-release
			return scriptTitled("First"), nil
		}
		return scriptTitled("Second"), nil
	}}
	s := newTestSession(g, fillBinder)

	firstDone := make(chan error, 1)
	go func() {
		req := form
		req.Product = "first"
		_, err := s.Submit(context.Background(), req)
		firstDone <- err
	}()
	waitForState(t, s, GeneratingScript)

	if _, err := s.Submit(context.Background(), form); err != nil {
		t.Fatal(err)
	}
	close(release)

	if err := <-firstDone; !errors.Is(err, ErrSuperseded) {
		t.Errorf("stale submit: expected ErrSuperseded, got %v", err)
	}
	snap := s.Snapshot()
	if snap.State != ScriptReady || snap.Script.Title != "Second" {
		t.Errorf("stale completion corrupted the session: %+v", snap)
	}
}

func TestStaleBindingIsDropped(t *testing.T) {
	release := make(chan struct{})
	slow := binderFunc(func(ctx context.Context, s *models.Script) (*models.Script, *assets.Report, error) {
		<-release
		return fillBinder(ctx, s)
	})
	s := newTestSession(staticGenerator("Run"), slow)

	if _, err := s.Submit(context.Background(), form); err != nil {
		t.Fatal(err)
	}
	bindDone := make(chan error, 1)
	go func() {
		_, _, err := s.BindAssets(context.Background())
		bindDone <- err
	}()
	waitForState(t, s, BindingAssets)

	if _, err := s.Submit(context.Background(), form); err != nil {
		t.Fatal(err)
	}
	close(release)

	if err := <-bindDone; !errors.Is(err, ErrSuperseded) {
		t.Errorf("stale bind: expected ErrSuperseded, got %v", err)
	}
	snap := s.Snapshot()
	if snap.State != ScriptReady || snap.Script.AssetsBound() {
		t.Errorf("stale binding wrote into the new script: %+v", snap)
	}
}

func TestSnapshotIsIsolated(t *testing.T) {
	s := newTestSession(staticGenerator("Run"), fillBinder)
	if _, err := s.Submit(context.Background(), form); err != nil {
		t.Fatal(err)
	}
	snap := s.Snapshot()
	snap.Script.Scenes[0].Voiceover = "changed"
	if s.Script().Scenes[0].Voiceover == "changed" {
		t.Error("snapshot shares memory with the session")
	}
}

func TestSessionWithRealBinder(t *testing.T) {
	binder := assets.NewBinder(
		assets.NewImageTemplate(""),
		assets.ProviderSynthesizer{Provider: speech.NewGoogleTranslate("", "pt", false)},
		assets.WithLogger(utils.NewNopLogger()),
	)
	s := newTestSession(staticGenerator("Run"), binder)

	if _, err := s.Submit(context.Background(), form); err != nil {
		t.Fatal(err)
	}
	bound, report, err := s.BindAssets(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(report.AudioFailures) != 0 {
		t.Errorf("unexpected failures %+v", report.AudioFailures)
	}
	for _, scene := range bound.Scenes {
		if !strings.HasPrefix(scene.ImageURL, "https://image.pollinations.ai/prompt/") {
			t.Errorf("image = %q", scene.ImageURL)
		}
		if !strings.HasPrefix(scene.AudioURL, "https://translate.google.com/translate_tts?") {
			t.Errorf("audio = %q", scene.AudioURL)
		}
	}
}

func waitForState(t *testing.T, s *Session, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.State() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for state %s, have %s", want, s.State())
}

func TestSubmitClearsGeneratorMediaReferences(t *testing.T) {
	gen := &fakeGenerator{fn: func(context.Context, models.ScriptRequest) (*models.Script, error) {
		script := scriptTitled("T")
		script.Scenes[0].ImageURL = "https://stale/x.png"
		script.Scenes[0].AudioURL = "https://stale/a.mp3"
		return script, nil
	}}
	s := newTestSession(gen, fillBinder)

	script, err := s.Submit(context.Background(), form)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if script.AssetsBound() || s.Script().AssetsBound() {
		t.Fatal("submitted script should have no media references")
	}
	if s.State() != ScriptReady {
		t.Fatalf("state = %s", s.State())
	}

	bound, _, err := s.BindAssets(context.Background())
	if err != nil {
		t.Fatalf("BindAssets should be allowed after submit: %v", err)
	}
	if got := bound.Scenes[0].ImageURL; got != "img:a" {
		t.Errorf("imageUrl = %q, want the binder's reference", got)
	}
}

func TestTransitionSequenceIncreases(t *testing.T) {
	s := newTestSession(staticGenerator("Run"), fillBinder)
	var seqs []uint64
	s.OnTransition(func(tr Transition) { seqs = append(seqs, tr.Snapshot.Seq) })

	if _, err := s.Submit(context.Background(), form); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.BindAssets(context.Background()); err != nil {
		t.Fatal(err)
	}

	want := []uint64{1, 2, 3, 4}
	if len(seqs) != len(want) {
		t.Fatalf("seqs = %v, want %v", seqs, want)
	}
	for i := range want {
		if seqs[i] != want[i] {
			t.Fatalf("seqs = %v, want %v", seqs, want)
		}
	}
	if got := s.Snapshot().Seq; got != 4 {
		t.Errorf("snapshot seq = %d, want 4", got)
	}
}
