// internal/studio/session.go
package studio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Corphon/CreativeStudio/internal/assets"
	apperrors "github.com/Corphon/CreativeStudio/internal/errors"
	"github.com/Corphon/CreativeStudio/internal/models"
	"github.com/Corphon/CreativeStudio/internal/services"
	"github.com/Corphon/CreativeStudio/internal/utils"
)

// State is the position of a session in the script pipeline
type State string

const (
	Idle             State = "idle"
	GeneratingScript State = "generating_script"
	ScriptReady      State = "script_ready"
	BindingAssets    State = "binding_assets"
	AssetsReady      State = "assets_ready"
)

var (
	// ErrTransitionNotAllowed is wrapped by conflict errors for operations
	// the current state does not permit
	ErrTransitionNotAllowed = errors.New("transition not allowed")

	// ErrSuperseded is wrapped when a newer submission replaced the work in flight
	ErrSuperseded = errors.New("superseded by a newer submission")
)

// AssetBinder binds media references to a script
type AssetBinder interface {
	Bind(ctx context.Context, script *models.Script) (*models.Script, *assets.Report, error)
}

// Snapshot is an immutable view of a session
type Snapshot struct {
	ID            string                `json:"id"`
	State         State                 `json:"state"`
	Script        *models.Script        `json:"script,omitempty"`
	Notice        string                `json:"notice,omitempty"`
	AudioFailures []assets.SceneFailure `json:"audioFailures,omitempty"`
	Generation    uint64                `json:"generation"`
	Seq           uint64                `json:"seq"`
	UpdatedAt     time.Time             `json:"updatedAt"`
}

// Transition is delivered to listeners on every state change
type Transition struct {
	From     State    `json:"from"`
	To       State    `json:"to"`
	Snapshot Snapshot `json:"snapshot"`
}

// Listener receives transitions. It is called outside the session lock, so
// deliveries may interleave; Snapshot.Seq orders them.
type Listener func(Transition)

// Session drives one workspace from marketing copy to a bound script
type Session struct {
	id        string
	generator services.ScriptGenerator
	binder    AssetBinder
	logger    *utils.Logger
	now       func() time.Time

	mu            sync.Mutex
	state         State
	script        *models.Script
	generation    uint64
	seq           uint64
	notice        string
	audioFailures []assets.SceneFailure
	updatedAt     time.Time
	lastActive    time.Time
	listeners     []Listener
}

// NewSession creates an idle session
func NewSession(id string, generator services.ScriptGenerator, binder AssetBinder, logger *utils.Logger) *Session {
	if logger == nil {
		logger = utils.GetLogger()
	}
	now := time.Now()
	return &Session{
		id:         id,
		generator:  generator,
		binder:     binder,
		logger:     logger,
		now:        time.Now,
		state:      Idle,
		updatedAt:  now,
		lastActive: now,
	}
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// OnTransition registers a listener
func (s *Session) OnTransition(l Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

// Submit discards the current script and generates a new one from req.
// Invalid input returns the session to Idle without contacting the generator.
func (s *Session) Submit(ctx context.Context, req models.ScriptRequest) (*models.Script, error) {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.script = nil
	s.audioFailures = nil
	s.notice = ""

	if missing := req.MissingFields(); len(missing) > 0 {
		err := apperrors.NewInputValidationError(
			"missing required fields: "+strings.Join(missing, ", "), nil)
		t := s.transitionLocked(Idle, err.Error())
		s.mu.Unlock()
		s.emit(t)
		return nil, err
	}

	t := s.transitionLocked(GeneratingScript, "")
	s.mu.Unlock()
	s.emit(t)

	script, err := s.generate(ctx, req)

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		s.logger.Info("dropping stale script generation", map[string]interface{}{
			"session_id": s.id,
			"generation": gen,
		})
		return nil, apperrors.NewConflictError("script generation discarded", ErrSuperseded)
	}
	if err != nil {
		t = s.transitionLocked(Idle, err.Error())
		s.mu.Unlock()
		s.emit(t)
		return nil, err
	}
	s.script = script.Clone()
	s.script.StripMedia()
	out := s.script.Clone()
	t = s.transitionLocked(ScriptReady, "")
	s.mu.Unlock()
	s.emit(t)

	return out, nil
}

// BindAssets binds media to the current script. It is allowed only from
// ScriptReady while no scene has an image reference yet.
func (s *Session) BindAssets(ctx context.Context) (*models.Script, *assets.Report, error) {
	s.mu.Lock()
	if s.state != ScriptReady || s.script == nil || s.script.AssetsBound() {
		state := s.state
		s.mu.Unlock()
		return nil, nil, apperrors.NewConflictError(
			fmt.Sprintf("cannot bind assets in state %s", state), ErrTransitionNotAllowed)
	}
	gen := s.generation
	input := s.script.Clone()
	t := s.transitionLocked(BindingAssets, "")
	s.mu.Unlock()
	s.emit(t)

	bound, report, err := s.bind(ctx, input)

	s.mu.Lock()
	if gen != s.generation || s.state != BindingAssets {
		s.mu.Unlock()
		s.logger.Info("dropping stale asset binding", map[string]interface{}{
			"session_id": s.id,
			"generation": gen,
		})
		return nil, nil, apperrors.NewConflictError("asset binding discarded", ErrSuperseded)
	}
	if err != nil {
		t = s.transitionLocked(ScriptReady, "asset binding failed: "+err.Error())
		s.mu.Unlock()
		s.emit(t)
		return nil, nil, err
	}

	s.script = bound.Clone()
	s.audioFailures = append([]assets.SceneFailure(nil), report.AudioFailures...)
	notice := ""
	if n := len(report.AudioFailures); n > 0 {
		notice = fmt.Sprintf("%d of %d scenes have no narration", n, report.Scenes)
	}
	t = s.transitionLocked(AssetsReady, notice)
	s.mu.Unlock()
	s.emit(t)

	return bound, report, nil
}

func (s *Session) generate(ctx context.Context, req models.ScriptRequest) (*models.Script, error) {
	if s.generator == nil {
		return nil, apperrors.NewRemoteGenerationError("no script generator configured", nil)
	}
	script, err := s.generator.Generate(ctx, req)
	if err == nil && script == nil {
		err = apperrors.NewRemoteGenerationError("generator returned no script", nil)
	}
	return script, err
}

// bind runs the binder, turning a nil binder or a missing result into an
// unexpected binding error
func (s *Session) bind(ctx context.Context, script *models.Script) (*models.Script, *assets.Report, error) {
	if s.binder == nil {
		return nil, nil, apperrors.NewUnexpectedBindingError("no asset binder configured", nil)
	}
	bound, report, err := s.binder.Bind(ctx, script)
	if err != nil {
		if !apperrors.IsUnexpectedBindingError(err) {
			err = apperrors.NewUnexpectedBindingError("asset binding failed", err)
		}
		return nil, nil, err
	}
	if bound == nil || report == nil {
		return nil, nil, apperrors.NewUnexpectedBindingError("binder returned no result", nil)
	}
	return bound, report, nil
}

// Snapshot returns the current view of the session
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// State returns the current state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Script returns a copy of the current script, or nil
func (s *Session) Script() *models.Script {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.script.Clone()
}

// busy reports whether remote work is in flight
func (s *Session) busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == GeneratingScript || s.state == BindingAssets
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastActive = s.now()
	s.mu.Unlock()
}

func (s *Session) transitionLocked(to State, notice string) Transition {
	from := s.state
	s.seq++
	s.state = to
	s.notice = notice
	s.updatedAt = s.now()
	s.lastActive = s.updatedAt
	return Transition{From: from, To: to, Snapshot: s.snapshotLocked()}
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		ID:            s.id,
		State:         s.state,
		Script:        s.script.Clone(),
		Notice:        s.notice,
		AudioFailures: append([]assets.SceneFailure(nil), s.audioFailures...),
		Generation:    s.generation,
		Seq:           s.seq,
		UpdatedAt:     s.updatedAt,
	}
}

func (s *Session) emit(t Transition) {
	s.mu.Lock()
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	s.logger.Debug("session transition", map[string]interface{}{
		"session_id": s.id,
		"from":       t.From,
		"to":         t.To,
	})
	for _, l := range listeners {
		l(t)
	}
}
