// internal/studio/manager.go
package studio

import (
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/Corphon/CreativeStudio/internal/errors"
	"github.com/Corphon/CreativeStudio/internal/services"
	"github.com/Corphon/CreativeStudio/internal/utils"
)

// Manager owns the live sessions, keyed by uuid
type Manager struct {
	generator services.ScriptGenerator
	binder    AssetBinder
	logger    *utils.Logger
	ttl       time.Duration
	now       func() time.Time

	mu        sync.RWMutex
	sessions  map[string]*Session
	listeners []func(id string, t Transition)

	cleanupTicker *time.Ticker
	stop          chan struct{}
	stopOnce      sync.Once
}

// NewManager creates a manager. Sessions idle for longer than ttl are
// evicted by StartCleanup; ttl <= 0 disables eviction.
func NewManager(generator services.ScriptGenerator, binder AssetBinder, ttl time.Duration, logger *utils.Logger) *Manager {
	if logger == nil {
		logger = utils.GetLogger()
	}
	return &Manager{
		generator: generator,
		binder:    binder,
		logger:    logger,
		ttl:       ttl,
		now:       time.Now,
		sessions:  make(map[string]*Session),
		stop:      make(chan struct{}),
	}
}

// OnTransition registers a listener attached to every session created afterwards
func (m *Manager) OnTransition(fn func(id string, t Transition)) {
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
}

// Create starts a new idle session
func (m *Manager) Create() *Session {
	id := uuid.New().String()
	session := NewSession(id, m.generator, m.binder, m.logger)
	session.now = m.now
	session.lastActive = m.now()
	session.updatedAt = session.lastActive

	m.mu.Lock()
	for _, fn := range m.listeners {
		fn := fn
		session.OnTransition(func(t Transition) { fn(id, t) })
	}
	m.sessions[id] = session
	m.mu.Unlock()

	m.logger.Info("session created", map[string]interface{}{"session_id": id})
	return session
}

// Get returns the session with id and marks it active
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	session, exists := m.sessions[id]
	m.mu.RUnlock()
	if !exists {
		return nil, apperrors.NewNotFoundError("session not found: "+id, nil)
	}
	session.touch()
	return session, nil
}

// Delete removes a session. Work in flight for it completes but is discarded.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[id]; !exists {
		return apperrors.NewNotFoundError("session not found: "+id, nil)
	}
	delete(m.sessions, id)
	m.logger.Info("session deleted", map[string]interface{}{"session_id": id})
	return nil
}

// Len returns the number of live sessions
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// StartCleanup evicts expired sessions every interval until Close
func (m *Manager) StartCleanup(interval time.Duration) {
	if m.ttl <= 0 || interval <= 0 {
		return
	}
	m.cleanupTicker = time.NewTicker(interval)
	go func() {
		for {
			select {
			case <-m.cleanupTicker.C:
				m.cleanupExpired()
			case <-m.stop:
				return
			}
		}
	}()
}

// Close stops the cleanup loop
func (m *Manager) Close() {
	m.stopOnce.Do(func() {
		if m.cleanupTicker != nil {
			m.cleanupTicker.Stop()
		}
		close(m.stop)
	})
}

// cleanupExpired removes sessions idle past the ttl. Sessions with remote
// work in flight are kept.
func (m *Manager) cleanupExpired() int {
	if m.ttl <= 0 {
		return 0
	}
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, session := range m.sessions {
		if session.busy() || now.Sub(session.idleSince()) <= m.ttl {
			continue
		}
		delete(m.sessions, id)
		removed++
	}
	if removed > 0 {
		m.logger.Info("expired sessions evicted", map[string]interface{}{
			"removed":   removed,
			"remaining": len(m.sessions),
		})
	}
	return removed
}
