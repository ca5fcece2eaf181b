package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/wricardo/tiles/game/engine"
	"github.com/wricardo/tiles/game/service"
	"github.com/wricardo/tiles/observability"
)

var (
	ErrSessionNotFound      = service.ErrSessionNotFound
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidSessionID     = errors.New("invalid session ID")
)

// maxIDAttempts bounds retries when a generated ID is already taken
const maxIDAttempts = 16

// Option configures a Manager
type Option func(*Manager)

// WithSource gives every new engine a source from newSource instead of the
// default random one.
func WithSource(newSource func() engine.Source) Option {
	return func(m *Manager) { m.newSource = newSource }
}

// WithIDGenerator replaces the random 4-hex-character IDs.
func WithIDGenerator(newID func() string) Option {
	return func(m *Manager) { m.newID = newID }
}

// WithClock sets the time source for creation, access and expiry.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// Manager keeps sessions in memory, keyed by lower-cased ID
type Manager struct {
	mu        sync.RWMutex
	sessions  map[string]*service.Session
	newSource func() engine.Source
	newID     func() string
	now       func() time.Time
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sessions: make(map[string]*service.Session),
		newID:    randomID,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func randomID() string {
	b := make([]byte, 2)
	rand.Read(b)
	return hex.EncodeToString(b)
}

func key(id string) string {
	return strings.ToLower(id)
}

// updateGauge publishes the session count; callers hold m.mu.
func (m *Manager) updateGauge() {
	observability.SessionsActive.Set(float64(len(m.sessions)))
}

// Create starts a session on config. An empty id asks for a generated one;
// ids with surrounding spaces are rejected.
func (m *Manager) Create(id string, config *engine.GameConfig) (*service.Session, error) {
	if id != strings.TrimSpace(id) {
		return nil, ErrInvalidSessionID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id, err := m.claimID(id)
	if err != nil {
		return nil, err
	}

	var src engine.Source
	if m.newSource != nil {
		src = m.newSource()
	}
	eng, err := engine.NewEngineWithSource(config, src)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	now := m.now()
	s := &service.Session{ID: id, Engine: eng, Config: config, CreatedAt: now, LastAccessedAt: now}
	m.sessions[key(id)] = s
	m.updateGauge()
	return s, nil
}

// claimID returns id if it is free, or a fresh generated ID when id is
// empty; callers hold m.mu.
func (m *Manager) claimID(id string) (string, error) {
	if id != "" {
		if _, taken := m.sessions[key(id)]; taken {
			return "", ErrSessionAlreadyExists
		}
		return id, nil
	}
	for i := 0; i < maxIDAttempts; i++ {
		candidate := m.newID()
		if _, taken := m.sessions[key(candidate)]; !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free session ID after %d attempts: %w", maxIDAttempts, ErrSessionAlreadyExists)
}

func (m *Manager) Get(id string) (*service.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if s, ok := m.sessions[key(id)]; ok {
		return s, nil
	}
	return nil, ErrSessionNotFound
}

// List returns every session in no particular order
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*service.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[key(id)]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, key(id))
	m.updateGauge()
	return nil
}

func (m *Manager) UpdateLastAccessed(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[key(id)]
	if !ok {
		return ErrSessionNotFound
	}
	s.LastAccessedAt = m.now()
	return nil
}

// CleanupExpiredSessions drops sessions idle for longer than maxAge and
// returns how many went.
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-maxAge)
	removed := 0
	for k, s := range m.sessions {
		if s.LastAccessedAt.Before(cutoff) {
			delete(m.sessions, k)
			removed++
		}
	}
	if removed > 0 {
		m.updateGauge()
	}
	return removed
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
