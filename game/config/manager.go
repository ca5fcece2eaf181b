package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/wricardo/tiles/game/engine"
	"github.com/wricardo/tiles/game/service"
)

var (
	ErrConfigNotFound = service.ErrConfigNotFound
	ErrInvalidConfig  = service.ErrInvalidConfig
)

// DefaultConfigName is the configuration preferred as the default
const DefaultConfigName = "classic"

const ext = ".json"

// Manager reads board configurations from a directory of JSON files and
// caches each one after its first successful load.
type Manager struct {
	dir string

	mu      sync.RWMutex
	cache   map[string]*engine.GameConfig
	def     *engine.GameConfig
	defName string // set by SetDefault, kept across refreshes
}

func NewManager(dir string) (*Manager, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("config directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("config directory %s: not a directory", dir)
	}

	m := &Manager{dir: dir, cache: make(map[string]*engine.GameConfig)}
	m.def = m.resolveDefault()
	return m, nil
}

// configID strips ".json" and rejects names that would leave the directory.
func configID(name string) (string, bool) {
	id := strings.TrimSuffix(name, ext)
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", false
	}
	return id, true
}

func (m *Manager) path(id string) string {
	return filepath.Join(m.dir, id+ext)
}

func (m *Manager) cached(id string) (*engine.GameConfig, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg, ok := m.cache[id]
	return cfg, ok
}

// LoadConfig returns the named configuration, with or without ".json".
// Missing files give ErrConfigNotFound; unparsable or invalid ones give
// ErrInvalidConfig.
func (m *Manager) LoadConfig(name string) (*engine.GameConfig, error) {
	id, ok := configID(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrConfigNotFound, name)
	}
	if cfg, ok := m.cached(id); ok {
		return cfg, nil
	}

	cfg, err := m.read(id)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// a concurrent load may have won; hand out one pointer per config
	if existing, ok := m.cache[id]; ok {
		return existing, nil
	}
	m.cache[id] = cfg
	return cfg, nil
}

func (m *Manager) read(id string) (*engine.GameConfig, error) {
	data, err := os.ReadFile(m.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %q", ErrConfigNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", id, err)
	}

	cfg := new(engine.GameConfig)
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, id, err)
	}
	if err := engine.ValidateGameConfig(cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, id, err)
	}
	return cfg, nil
}

// ListConfigs describes every loadable file in the directory, ordered by
// filename. Invalid files are left out.
func (m *Manager) ListConfigs() ([]*service.ConfigInfo, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("read config directory: %w", err)
	}

	var out []*service.ConfigInfo
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ext {
			continue
		}
		cfg, err := m.LoadConfig(e.Name())
		if err != nil {
			continue
		}
		out = append(out, describe(e.Name(), cfg))
	}

	slices.SortFunc(out, func(a, b *service.ConfigInfo) int {
		return strings.Compare(a.Filename, b.Filename)
	})
	return out, nil
}

func describe(filename string, cfg *engine.GameConfig) *service.ConfigInfo {
	return &service.ConfigInfo{
		Filename:      filename,
		ConfigID:      strings.TrimSuffix(filename, ext),
		Name:          cfg.Name,
		Description:   cfg.Description,
		GridSize:      cfg.GridSize,
		InitialTiles:  cfg.InitialTiles,
		SpawnsPerMove: cfg.SpawnsPerMove,
	}
}

func (m *Manager) GetDefault() *engine.GameConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.def
}

// SetDefault makes the named configuration the default, including after
// later refreshes.
func (m *Manager) SetDefault(name string) error {
	cfg, err := m.LoadConfig(name)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.def, m.defName = cfg, name
	m.mu.Unlock()
	return nil
}

// RefreshCache forgets every loaded configuration so edits on disk are
// picked up, then resolves the default again.
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	clear(m.cache)
	m.mu.Unlock()

	def := m.resolveDefault()
	m.mu.Lock()
	m.def = def
	m.mu.Unlock()
}

// resolveDefault picks the name given to SetDefault, then classic, then the
// first valid file by name, then the engine's built-in board.
func (m *Manager) resolveDefault() *engine.GameConfig {
	m.mu.RLock()
	name := m.defName
	m.mu.RUnlock()
	for _, n := range []string{name, DefaultConfigName} {
		if n == "" {
			continue
		}
		if cfg, err := m.LoadConfig(n); err == nil {
			return cfg
		}
	}
	if list, err := m.ListConfigs(); err == nil && len(list) > 0 {
		if cfg, err := m.LoadConfig(list[0].ConfigID); err == nil {
			return cfg
		}
	}
	return engine.DefaultConfig()
}

// SaveConfig validates cfg, writes it as name.json and caches it.
func (m *Manager) SaveConfig(name string, cfg *engine.GameConfig) error {
	if err := engine.ValidateGameConfig(cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	id, ok := configID(name)
	if !ok {
		return fmt.Errorf("%w: bad config name %q", ErrInvalidConfig, name)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config %s: %w", id, err)
	}
	if err := os.WriteFile(m.path(id), data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", id, err)
	}

	m.mu.Lock()
	m.cache[id] = cfg
	m.mu.Unlock()
	return nil
}
