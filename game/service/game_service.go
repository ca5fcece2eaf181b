package service

import (
	"context"
	"errors"
	"time"

	"github.com/wricardo/tiles/game/engine"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrConfigNotFound  = errors.New("configuration not found")
	ErrInvalidConfig   = errors.New("invalid configuration")
)

// SessionService creates, looks up and removes game sessions.
type SessionService interface {
	CreateSession(ctx context.Context, configName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error
	// Watch hands join the current state at a point where no move is in
	// flight; updates published afterwards all follow it.
	Watch(ctx context.Context, sessionID string, join func(*engine.GameState)) error
}

// PlayService slides the board of a session. Direction strings go through
// engine.ParseDirection; unknown ones fail with engine.ErrInvalidDirection.
type PlayService interface {
	Move(ctx context.Context, sessionID, direction string, reset bool) (*MoveResult, error)
	BulkMove(ctx context.Context, sessionID string, moves []string, reset bool) (*BulkMoveResult, error)
	Preview(ctx context.Context, sessionID string) (*PreviewResult, error)
	Reset(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)
}

// ConfigService exposes the configuration directory.
type ConfigService interface {
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error
	ReloadConfigs(ctx context.Context) ([]*ConfigInfo, error)
}

// GameService is everything the transports need.
type GameService interface {
	SessionService
	PlayService
	ConfigService
}

// SessionManager stores sessions by case-insensitive ID
type SessionManager interface {
	Create(id string, config *engine.GameConfig) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Count() int
}

// ConfigManager loads game configurations by ID (the file name without .json)
type ConfigManager interface {
	LoadConfig(name string) (*engine.GameConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.GameConfig
	SaveConfig(name string, config *engine.GameConfig) error
	RefreshCache()
}

// Session is one board in play. The game service lock guards Engine.
type Session struct {
	ID             string
	Engine         *engine.GameEngine
	Config         *engine.GameConfig
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
