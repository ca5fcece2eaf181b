package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/wricardo/tiles/game/engine"
)

// StateListener receives a copy of a session's state after every change,
// in the order the changes happen. It runs under the service lock, so it
// must not block or call back into the service.
type StateListener func(sessionID string, state *engine.GameState)

// Option configures the game service
type Option func(*gameService)

// WithStateListener reports every move and reset to l.
func WithStateListener(l StateListener) Option {
	return func(s *gameService) {
		if l != nil {
			s.listeners = append(s.listeners, l)
		}
	}
}

// gameService serialises every engine access behind one lock; sessions and
// configs handle their own locking. States leave the service as copies.
type gameService struct {
	mu        sync.RWMutex
	sessions  SessionManager
	configs   ConfigManager
	listeners []StateListener
}

func NewGameService(sessions SessionManager, configs ConfigManager, opts ...Option) GameService {
	s := &gameService{sessions: sessions, configs: configs}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// snapshot copies the session's state. Callers hold s.mu.
func snapshot(sess *Session) *engine.GameState {
	return sess.Engine.GetState().Clone()
}

// notify hands state to the listeners. Callers hold s.mu for writing.
func (s *gameService) notify(sess *Session, state *engine.GameState) {
	for _, l := range s.listeners {
		l(sess.ID, state)
	}
}

// lookup finds a session and marks it as used. Callers hold s.mu.
func (s *gameService) lookup(id string) (*Session, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}
	s.sessions.UpdateLastAccessed(id)
	return sess, nil
}

// configID maps a config's display name back to the file ID clients use
// to create sessions.
func (s *gameService) configID(name string) string {
	if list, err := s.configs.ListConfigs(); err == nil {
		for _, c := range list {
			if c.Name == name {
				return c.ConfigID
			}
		}
	}
	if name == "" {
		return "default"
	}
	return name
}

func (s *gameService) describe(sess *Session, configID string) *SessionInfo {
	if configID == "" {
		configID = s.configID(sess.Config.Name)
	}
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     configID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      snapshot(sess),
		GameConfig:     sess.Config,
	}
}

// pickConfig loads the named config, or the default when name is empty.
// Unknown names list what is available in the error.
func (s *gameService) pickConfig(name string) (*engine.GameConfig, error) {
	if name == "" {
		return s.configs.GetDefault(), nil
	}

	cfg, err := s.configs.LoadConfig(name)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, ErrConfigNotFound) {
		return nil, fmt.Errorf("load config %s: %w", name, err)
	}

	list, listErr := s.configs.ListConfigs()
	if listErr != nil || len(list) == 0 {
		return nil, fmt.Errorf("%w: '%s'. Use /api/configs to list available configurations", ErrConfigNotFound, name)
	}
	ids := make([]string, len(list))
	for i, c := range list {
		ids[i] = c.ConfigID
	}
	return nil, fmt.Errorf("%w: '%s'. Available configs: %v", ErrConfigNotFound, name, ids)
}

// CreateSession starts a board on the named config under a generated ID.
func (s *gameService) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.pickConfig(configName)
	if err != nil {
		return nil, err
	}
	sess, err := s.sessions.Create("", cfg)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return s.describe(sess, configName), nil
}

func (s *gameService) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return s.describe(sess, ""), nil
}

func (s *gameService) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.sessions.List()
	out := make([]*SessionInfo, len(all))
	for i, sess := range all {
		out[i] = s.describe(sess, "")
	}
	return out, nil
}

// Watch calls join with a copy of the session's current state while no
// change can happen, so join can start following the session without
// missing or reordering an update.
func (s *gameService) Watch(ctx context.Context, sessionID string, join func(*engine.GameState)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return err
	}
	join(snapshot(sess))
	return nil
}

func (s *gameService) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("session %s: %w", sessionID, err)
	}
	return nil
}

func (s *gameService) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

func (s *gameService) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

func (s *gameService) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// ReloadConfigs drops cached configs so edited files are read again.
// Running sessions keep the config they started with.
func (s *gameService) ReloadConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	s.configs.RefreshCache()
	return s.configs.ListConfigs()
}
