// internal/assets/binder.go
package assets

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/Corphon/CreativeStudio/internal/errors"
	"github.com/Corphon/CreativeStudio/internal/models"
	"github.com/Corphon/CreativeStudio/internal/storage"
	"github.com/Corphon/CreativeStudio/internal/utils"
)

// SceneFailure describes a scene whose audio could not be bound
type SceneFailure struct {
	Index   int    `json:"index"`
	SceneID int    `json:"sceneId"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Report summarizes one binding pass
type Report struct {
	Scenes        int            `json:"scenes"`
	AudioBound    int            `json:"audioBound"`
	CacheHits     int            `json:"cacheHits"`
	AudioFailures []SceneFailure `json:"audioFailures,omitempty"`
	Duration      time.Duration  `json:"duration"`
}

// Binder resolves image and audio references for every scene of a script
type Binder struct {
	images  ImageTemplate
	voice   Synthesizer
	cache   storage.Cache
	limit   int
	logger  *utils.Logger
	metrics *utils.PipelineMetrics
}

// Option configures a Binder
type Option func(*Binder)

// WithCache memoizes synthesized references by narration text
func WithCache(c storage.Cache) Option {
	return func(b *Binder) { b.cache = c }
}

// WithConcurrency bounds the number of in-flight scene bindings; 0 means unbounded
func WithConcurrency(n int) Option {
	return func(b *Binder) { b.limit = n }
}

// WithLogger sets the logger
func WithLogger(l *utils.Logger) Option {
	return func(b *Binder) { b.logger = l }
}

// WithMetrics records synthesis and binding metrics
func WithMetrics(m *utils.PipelineMetrics) Option {
	return func(b *Binder) { b.metrics = m }
}

// NewBinder creates a binder
func NewBinder(images ImageTemplate, voice Synthesizer, opts ...Option) *Binder {
	b := &Binder{
		images: images,
		voice:  voice,
		logger: utils.GetLogger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type sceneResult struct {
	scene   models.Scene
	cached  bool
	failure error
}

// Bind returns a copy of script with every scene's media references set.
// All scenes are bound concurrently and Bind returns only after each one has
// settled. A synthesis failure affects only its own scene; the returned error
// is reserved for failures of the binding pass itself.
func (b *Binder) Bind(ctx context.Context, script *models.Script) (*models.Script, *Report, error) {
	if script == nil {
		return nil, nil, apperrors.NewUnexpectedBindingError("no script to bind", nil)
	}
	if b.voice == nil {
		return nil, nil, apperrors.NewUnexpectedBindingError("no speech synthesizer configured", nil)
	}

	started := time.Now()
	out := script.Clone()
	results := make([]sceneResult, len(out.Scenes))

	g, gctx := errgroup.WithContext(ctx)
	if b.limit > 0 {
		g.SetLimit(b.limit)
	}
	for i := range out.Scenes {
		i, scene := i, out.Scenes[i]
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = apperrors.NewUnexpectedBindingError(
						fmt.Sprintf("binding scene %d panicked", scene.ID), fmt.Errorf("%v", r))
				}
			}()
			results[i] = b.bindScene(gctx, scene)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		b.logger.Error("asset binding aborted", map[string]interface{}{"error": err})
		return nil, nil, err
	}

	report := &Report{Scenes: len(out.Scenes)}
	for i, res := range results {
		out.Scenes[i] = res.scene
		if res.cached {
			report.CacheHits++
		}
		if res.failure != nil {
			report.AudioFailures = append(report.AudioFailures, SceneFailure{
				Index:   i,
				SceneID: res.scene.ID,
				Message: res.failure.Error(),
				Err:     res.failure,
			})
			continue
		}
		report.AudioBound++
	}
	report.Duration = time.Since(started)

	if b.metrics != nil {
		b.metrics.RecordBinding(report.Scenes, len(report.AudioFailures), report.Duration)
	}
	b.logger.Info("assets bound", map[string]interface{}{
		"scenes":         report.Scenes,
		"audio_bound":    report.AudioBound,
		"audio_failures": len(report.AudioFailures),
		"cache_hits":     report.CacheHits,
		"duration_ms":    report.Duration.Milliseconds(),
	})

	return out, report, nil
}

// bindScene resolves one scene. An existing audio reference is kept when a
// fresh synthesis fails.
func (b *Binder) bindScene(ctx context.Context, scene models.Scene) sceneResult {
	scene.ImageURL = b.images.URL(scene.ImagePrompt)

	audioURL, cached, err := b.synthesize(ctx, scene.Voiceover)
	if err != nil {
		b.logger.Warn("audio generation failed for scene", map[string]interface{}{
			"scene_id": scene.ID,
			"error":    err,
		})
		return sceneResult{scene: scene, failure: err}
	}
	scene.AudioURL = audioURL
	return sceneResult{scene: scene, cached: cached}
}

func (b *Binder) synthesize(ctx context.Context, text string) (string, bool, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false, apperrors.NewRemoteSynthesisError("scene has no voiceover", nil)
	}

	key := cacheKey(text)
	if b.cache != nil {
		if u, err := b.cache.Get(ctx, key); err == nil && u != "" {
			b.record(true, true)
			return u, true, nil
		} else if err != nil && !errors.Is(err, storage.ErrCacheMiss) {
			b.logger.Debug("speech cache read failed", map[string]interface{}{"error": err})
		}
	}

	u, err := b.voice.Synthesize(ctx, text)
	if err != nil {
		b.record(false, false)
		if !apperrors.IsRemoteSynthesisError(err) {
			err = apperrors.NewRemoteSynthesisError("speech synthesis failed", err)
		}
		return "", false, err
	}
	if u == "" {
		b.record(false, false)
		return "", false, apperrors.NewRemoteSynthesisError("speech synthesis returned no url", nil)
	}
	b.record(true, false)

	if b.cache != nil {
		if err := b.cache.Set(ctx, key, u); err != nil {
			b.logger.Debug("speech cache write failed", map[string]interface{}{"error": err})
		}
	}
	return u, false, nil
}

func (b *Binder) record(ok, cached bool) {
	if b.metrics != nil {
		b.metrics.RecordSynthesis(ok, cached)
	}
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "speech:" + hex.EncodeToString(sum[:])
}
