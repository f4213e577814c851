package studio

import (
	"context"
	"sync"
	"testing"
	"time"

	apperrors "github.com/Corphon/CreativeStudio/internal/errors"
	"github.com/Corphon/CreativeStudio/internal/utils"
)

func TestManagerLifecycle(t *testing.T) {
	m := NewManager(staticGenerator("Run"), fillBinder, time.Hour, utils.NewNopLogger())
	defer m.Close()

	s := m.Create()
	if s.ID() == "" || m.Len() != 1 {
		t.Fatalf("id=%q len=%d", s.ID(), m.Len())
	}

	got, err := m.Get(s.ID())
	if err != nil || got != s {
		t.Fatalf("Get = %v, %v", got, err)
	}

	if err := m.Delete(s.ID()); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Get(s.ID()); !apperrors.IsNotFoundError(err) {
		t.Errorf("expected not found, got %v", err)
	}
	if err := m.Delete(s.ID()); !apperrors.IsNotFoundError(err) {
		t.Errorf("expected not found on second delete, got %v", err)
	}
}

func TestManagerBroadcastsTransitions(t *testing.T) {
	m := NewManager(staticGenerator("Run"), fillBinder, 0, utils.NewNopLogger())

	var mu sync.Mutex
	got := map[string][]State{}
	m.OnTransition(func(id string, tr Transition) {
		mu.Lock()
		got[id] = append(got[id], tr.To)
		mu.Unlock()
	})

	s := m.Create()
	if _, err := s.Submit(context.Background(), form); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	defer mu.Unlock()
	if states := got[s.ID()]; len(states) != 2 || states[1] != ScriptReady {
		t.Errorf("transitions = %v", states)
	}
}

func TestManagerEvictsIdleSessions(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager(staticGenerator("Run"), fillBinder, time.Minute, utils.NewNopLogger())
	m.now = func() time.Time { return now }

	stale := m.Create()
	now = now.Add(30 * time.Second)
	fresh := m.Create()

	now = now.Add(45 * time.Second)
	if removed := m.cleanupExpired(); removed != 1 {
		t.Fatalf("removed %d sessions, want 1", removed)
	}
	if _, err := m.Get(stale.ID()); err == nil {
		t.Error("stale session should be evicted")
	}
	if _, err := m.Get(fresh.ID()); err != nil {
		t.Errorf("fresh session evicted: %v", err)
	}
}

func TestManagerKeepsBusySessions(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager(staticGenerator("Run"), fillBinder, time.Minute, utils.NewNopLogger())
	m.now = func() time.Time { return now }

	s := m.Create()
	s.mu.Lock()
	s.state = GeneratingScript
	s.mu.Unlock()

	now = now.Add(time.Hour)
	if removed := m.cleanupExpired(); removed != 0 {
		t.Errorf("busy session evicted")
	}
}

func TestManagerCleanupLoopStops(t *testing.T) {
	m := NewManager(staticGenerator("Run"), fillBinder, time.Millisecond, utils.NewNopLogger())
	m.StartCleanup(time.Millisecond)
	m.Create()

	deadline := time.Now().Add(2 * time.Second)
	for m.Len() > 0 && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	m.Close()
	m.Close()
	if m.Len() != 0 {
		t.Error("cleanup loop did not evict the session")
	}
}
