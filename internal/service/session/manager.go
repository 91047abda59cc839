package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mamadbah2/packweigh/internal/domain/models"
)

// ErrSessionNotFound indicates the id is unknown or the session was swept.
var ErrSessionNotFound = errors.New("session not found")

type record struct {
	session models.Session
	notice  *models.Notice
	touched time.Time
}

// Manager holds one pending entry and result table per user session.
type Manager struct {
	sessions map[string]*record
	mu       sync.RWMutex
	now      func() time.Time
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*record),
		now:      time.Now,
	}
}

// Create starts a new session with default state and returns its id.
func (m *Manager) Create() string {
	id := uuid.NewString()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = &record{touched: m.now()}
	return id
}

// Get returns the current state for a session.
func (m *Manager) Get(id string) (models.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.sessions[id]
	if !ok {
		return models.Session{}, false
	}
	return rec.session, true
}

// Update applies fn to the stored session under the write lock. The stored
// state is replaced only when fn succeeds; the returned session is the stored
// one either way.
func (m *Manager) Update(id string, fn func(models.Session) (models.Session, error)) (models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.sessions[id]
	if !ok {
		return models.Session{}, ErrSessionNotFound
	}
	rec.touched = m.now()

	next, err := fn(rec.session)
	if err != nil {
		return rec.session, err
	}
	rec.session = next
	return next, nil
}

// SetNotice stores a message to show on the next page render.
func (m *Manager) SetNotice(id string, n models.Notice) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.sessions[id]; ok {
		rec.notice = &n
	}
}

// TakeNotice returns and clears the pending notice, if any.
func (m *Manager) TakeNotice(id string) *models.Notice {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.sessions[id]
	if !ok {
		return nil
	}
	n := rec.notice
	rec.notice = nil
	return n
}

// Sweep removes sessions untouched for longer than idle and reports how many were dropped.
func (m *Manager) Sweep(idle time.Duration) int {
	cutoff := m.now().Add(-idle)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, rec := range m.sessions {
		if rec.touched.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
