package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/wricardo/tiles/game/config"
	"github.com/wricardo/tiles/game/engine"
	"github.com/wricardo/tiles/game/service"
	"github.com/wricardo/tiles/game/session"
	"github.com/wricardo/tiles/transport/websocket"
)

// MockGameService implements service.GameService for testing
type MockGameService struct {
	// Session Management
	CreateSessionFunc func(ctx context.Context, configName string) (*service.SessionInfo, error)
	GetSessionFunc    func(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	ListSessionsFunc  func(ctx context.Context) ([]*service.SessionInfo, error)
	DeleteSessionFunc func(ctx context.Context, sessionID string) error
	WatchFunc         func(ctx context.Context, sessionID string, join func(*engine.GameState)) error

	// Game Operations
	MoveFunc     func(ctx context.Context, sessionID, direction string, reset bool) (*service.MoveResult, error)
	BulkMoveFunc func(ctx context.Context, sessionID string, moves []string, reset bool) (*service.BulkMoveResult, error)
	ResetFunc    func(ctx context.Context, sessionID string) (*engine.GameState, error)
	PreviewFunc  func(ctx context.Context, sessionID string) (*service.PreviewResult, error)

	// Game State
	GetGameStateFunc   func(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetMoveHistoryFunc func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error)

	// Configuration
	ListConfigsFunc func(ctx context.Context) ([]*service.ConfigInfo, error)
	LoadConfigFunc  func(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfigFunc  func(ctx context.Context, configName string, config *engine.GameConfig) error
	ReloadFunc      func(ctx context.Context) ([]*service.ConfigInfo, error)
}

// Session Management
func (m *MockGameService) CreateSession(ctx context.Context, configName string) (*service.SessionInfo, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, configName)
	}
	return &service.SessionInfo{
		ID:         "ab12",
		ConfigName: configName,
		CreatedAt:  time.Now(),
		GameState:  &engine.GameState{},
	}, nil
}

func (m *MockGameService) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return &service.SessionInfo{
		ID:         sessionID,
		ConfigName: "test-config",
		CreatedAt:  time.Now(),
		GameState:  &engine.GameState{},
	}, nil
}

func (m *MockGameService) ListSessions(ctx context.Context) ([]*service.SessionInfo, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx)
	}
	return []*service.SessionInfo{}, nil
}

func (m *MockGameService) DeleteSession(ctx context.Context, sessionID string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, sessionID)
	}
	return nil
}

func (m *MockGameService) Watch(ctx context.Context, sessionID string, join func(*engine.GameState)) error {
	if m.WatchFunc != nil {
		return m.WatchFunc(ctx, sessionID, join)
	}
	join(&engine.GameState{})
	return nil
}

// Game Operations
func (m *MockGameService) Move(ctx context.Context, sessionID, direction string, reset bool) (*service.MoveResult, error) {
	if m.MoveFunc != nil {
		return m.MoveFunc(ctx, sessionID, direction, reset)
	}
	return &service.MoveResult{
		Changed:   true,
		GameState: &engine.GameState{},
	}, nil
}

func (m *MockGameService) BulkMove(ctx context.Context, sessionID string, moves []string, reset bool) (*service.BulkMoveResult, error) {
	if m.BulkMoveFunc != nil {
		return m.BulkMoveFunc(ctx, sessionID, moves, reset)
	}
	return &service.BulkMoveResult{
		MovesExecuted:  len(moves),
		RequestedMoves: len(moves),
		GameState:      &engine.GameState{},
	}, nil
}

func (m *MockGameService) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx, sessionID)
	}
	return &engine.GameState{}, nil
}

func (m *MockGameService) Preview(ctx context.Context, sessionID string) (*service.PreviewResult, error) {
	if m.PreviewFunc != nil {
		return m.PreviewFunc(ctx, sessionID)
	}
	return &service.PreviewResult{}, nil
}

// Game State
func (m *MockGameService) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if m.GetGameStateFunc != nil {
		return m.GetGameStateFunc(ctx, sessionID)
	}
	return &engine.GameState{}, nil
}

func (m *MockGameService) GetMoveHistory(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
	if m.GetMoveHistoryFunc != nil {
		return m.GetMoveHistoryFunc(ctx, sessionID, opts)
	}
	return &service.HistoryResponse{
		Moves:      []engine.MoveHistoryEntry{},
		TotalMoves: 0,
		Page:       opts.Page,
		PageSize:   opts.Limit,
		TotalPages: 1,
	}, nil
}

// Configuration
func (m *MockGameService) ListConfigs(ctx context.Context) ([]*service.ConfigInfo, error) {
	if m.ListConfigsFunc != nil {
		return m.ListConfigsFunc(ctx)
	}
	return []*service.ConfigInfo{}, nil
}

func (m *MockGameService) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	if m.LoadConfigFunc != nil {
		return m.LoadConfigFunc(ctx, configName)
	}
	return &engine.GameConfig{
		Name:        configName,
		Description: "Test config",
		GridSize:    4,
	}, nil
}

func (m *MockGameService) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	if m.SaveConfigFunc != nil {
		return m.SaveConfigFunc(ctx, configName, config)
	}
	return nil
}

func (m *MockGameService) ReloadConfigs(ctx context.Context) ([]*service.ConfigInfo, error) {
	if m.ReloadFunc != nil {
		return m.ReloadFunc(ctx)
	}
	return []*service.ConfigInfo{}, nil
}

// Test helpers
func setupTestServer(mockService *MockGameService) *Server {
	hub := websocket.NewHub()
	go hub.Run()
	return NewServer(mockService, hub)
}

func makeRequest(method, path string, body interface{}) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), target); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
}

func notFound(sessionID string) error {
	return fmt.Errorf("session %s: %w", sessionID, service.ErrSessionNotFound)
}

// Session Management Tests

func TestCreateSession(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		setupMock      func(*MockGameService)
		expectedStatus int
		expectedConfig string
	}{
		{
			name:           "Default config",
			body:           nil,
			expectedStatus: http.StatusCreated,
			expectedConfig: "",
		},
		{
			name:           "With config_id",
			body:           map[string]string{"config_id": "big"},
			expectedStatus: http.StatusCreated,
			expectedConfig: "big",
		},
		{
			name:           "Deprecated config_name",
			body:           map[string]string{"config_name": "tiny"},
			expectedStatus: http.StatusCreated,
			expectedConfig: "tiny",
		},
		{
			name:           "Malformed body",
			body:           "not an object",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "Unknown config",
			body: map[string]string{"config_id": "missing"},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("config %s: %w", configName, service.ErrConfigNotFound)
				}
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "Service failure",
			body: nil,
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("boom")
				}
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}
			server := setupTestServer(mockService)

			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("POST", "/api/sessions", tt.body))

			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.expectedStatus != http.StatusCreated {
				var errResp map[string]interface{}
				parseResponse(t, w, &errResp)
				if errResp["error"] == nil {
					t.Error("Expected error field in response")
				}
				return
			}

			var info service.SessionInfo
			parseResponse(t, w, &info)
			if info.ConfigName != tt.expectedConfig {
				t.Errorf("Expected config %q, got %q", tt.expectedConfig, info.ConfigName)
			}
		})
	}
}

func TestListSessions(t *testing.T) {
	now := time.Now()
	sessions := func() []*service.SessionInfo {
		return []*service.SessionInfo{
			{ID: "aaaa", CreatedAt: now.Add(-3 * time.Hour), LastAccessedAt: now.Add(-1 * time.Minute)},
			{ID: "bbbb", CreatedAt: now.Add(-1 * time.Hour), LastAccessedAt: now.Add(-3 * time.Minute)},
			{ID: "cccc", CreatedAt: now.Add(-2 * time.Hour), LastAccessedAt: now.Add(-2 * time.Minute)},
		}
	}

	tests := []struct {
		name        string
		query       string
		expectedIDs []string
		expectedTot int
	}{
		{"Default sorts by access desc", "", []string{"aaaa", "cccc", "bbbb"}, 3},
		{"Created ascending", "?sort=created&order=asc", []string{"aaaa", "cccc", "bbbb"}, 3},
		{"Created descending", "?sort=created", []string{"bbbb", "cccc", "aaaa"}, 3},
		{"Limit", "?limit=2", []string{"aaaa", "cccc"}, 3},
		{"Invalid limit ignored", "?limit=x", []string{"aaaa", "cccc", "bbbb"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{
				ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
					return sessions(), nil
				},
			}
			server := setupTestServer(mockService)

			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("GET", "/api/sessions"+tt.query, nil))

			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}

			var resp struct {
				Count    int                    `json:"count"`
				Total    int                    `json:"total"`
				Sessions []*service.SessionInfo `json:"sessions"`
			}
			parseResponse(t, w, &resp)

			if resp.Total != tt.expectedTot {
				t.Errorf("Expected total %d, got %d", tt.expectedTot, resp.Total)
			}
			if resp.Count != len(tt.expectedIDs) {
				t.Fatalf("Expected count %d, got %d", len(tt.expectedIDs), resp.Count)
			}
			for i, id := range tt.expectedIDs {
				if resp.Sessions[i].ID != id {
					t.Errorf("Position %d: expected %s, got %s", i, id, resp.Sessions[i].ID)
				}
			}
		})
	}
}

func TestGetSession(t *testing.T) {
	mockService := &MockGameService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			if sessionID != "ab12" {
				return nil, notFound(sessionID)
			}
			return &service.SessionInfo{ID: sessionID, ConfigName: "classic"}, nil
		},
	}
	server := setupTestServer(mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/ab12", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var info service.SessionInfo
	parseResponse(t, w, &info)
	if info.ConfigName != "classic" {
		t.Errorf("Expected classic config, got %s", info.ConfigName)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/zzzz", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestDeleteSession(t *testing.T) {
	deleted := ""
	mockService := &MockGameService{
		DeleteSessionFunc: func(ctx context.Context, sessionID string) error {
			if sessionID == "gone" {
				return notFound(sessionID)
			}
			deleted = sessionID
			return nil
		},
	}
	server := setupTestServer(mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("DELETE", "/api/sessions/ab12", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if deleted != "ab12" {
		t.Errorf("Expected ab12 to be deleted, got %q", deleted)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("DELETE", "/api/sessions/gone", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

// Game Operation Tests

func TestMove(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		rawBody        string
		setupMock      func(*MockGameService)
		expectedStatus int
	}{
		{
			name:           "Valid move",
			body:           map[string]interface{}{"direction": "left"},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Malformed body",
			rawBody:        "{not json",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "Invalid direction",
			body: map[string]interface{}{"direction": "sideways"},
			setupMock: func(m *MockGameService) {
				m.MoveFunc = func(ctx context.Context, sessionID, direction string, reset bool) (*service.MoveResult, error) {
					_, err := engine.ParseDirection(direction)
					return nil, err
				}
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "Unknown session",
			body: map[string]interface{}{"direction": "up"},
			setupMock: func(m *MockGameService) {
				m.MoveFunc = func(ctx context.Context, sessionID, direction string, reset bool) (*service.MoveResult, error) {
					return nil, notFound(sessionID)
				}
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}
			server := setupTestServer(mockService)

			var req *http.Request
			if tt.rawBody != "" {
				req = httptest.NewRequest("POST", "/api/sessions/ab12/move", strings.NewReader(tt.rawBody))
			} else {
				req = makeRequest("POST", "/api/sessions/ab12/move", tt.body)
			}

			w := httptest.NewRecorder()
			server.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestMovePassesResetFlag(t *testing.T) {
	var gotReset bool
	var gotDir string
	mockService := &MockGameService{
		MoveFunc: func(ctx context.Context, sessionID, direction string, reset bool) (*service.MoveResult, error) {
			gotReset, gotDir = reset, direction
			return &service.MoveResult{
				Changed: true,
				GameState: &engine.GameState{
					Board:    engine.Board{{4, 0}, {2, 0}},
					GridSize: 2,
					MaxTile:  4,
				},
				Spawned: []engine.Position{{Row: 1, Col: 0}},
			}, nil
		},
	}
	server := setupTestServer(mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions/ab12/move", map[string]interface{}{
		"direction": "d",
		"reset":     true,
	}))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !gotReset || gotDir != "d" {
		t.Errorf("Expected reset=true dir=d, got reset=%v dir=%s", gotReset, gotDir)
	}

	var result service.MoveResult
	parseResponse(t, w, &result)
	if !result.Changed || result.GameState.MaxTile != 4 || len(result.Spawned) != 1 {
		t.Errorf("Unexpected move result: %+v", result)
	}
}

func TestBulkMove(t *testing.T) {
	var gotMoves []string
	mockService := &MockGameService{
		BulkMoveFunc: func(ctx context.Context, sessionID string, moves []string, reset bool) (*service.BulkMoveResult, error) {
			gotMoves = moves
			return &service.BulkMoveResult{
				MovesExecuted:  2,
				RequestedMoves: len(moves),
				Changes:        1,
				StopReasonCode: service.StopInvalidDirection,
				StoppedOnMove:  3,
				GameState:      &engine.GameState{},
			}, nil
		},
	}
	server := setupTestServer(mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions/ab12/bulk-move", map[string]interface{}{
		"moves": []string{"left", "up", "nope"},
	}))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if len(gotMoves) != 3 {
		t.Errorf("Expected 3 moves forwarded, got %v", gotMoves)
	}

	var result service.BulkMoveResult
	parseResponse(t, w, &result)
	if result.StopReasonCode != service.StopInvalidDirection || result.StoppedOnMove != 3 {
		t.Errorf("Unexpected stop info: %+v", result)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest("POST", "/api/sessions/ab12/bulk-move", strings.NewReader("[")))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for malformed body, got %d", w.Code)
	}
}

func TestReset(t *testing.T) {
	mockService := &MockGameService{
		ResetFunc: func(ctx context.Context, sessionID string) (*engine.GameState, error) {
			if sessionID == "gone" {
				return nil, notFound(sessionID)
			}
			return &engine.GameState{GridSize: 4, Message: "Welcome"}, nil
		},
	}
	server := setupTestServer(mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions/ab12/reset", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	parseResponse(t, w, &resp)
	if resp.State == nil || resp.State.Message != "Welcome" {
		t.Errorf("Expected reset state in response, got %+v", resp.State)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions/gone/reset", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestPreview(t *testing.T) {
	mockService := &MockGameService{
		PreviewFunc: func(ctx context.Context, sessionID string) (*service.PreviewResult, error) {
			if sessionID == "gone" {
				return nil, notFound(sessionID)
			}
			return &service.PreviewResult{
				Board: engine.Board{{2, 2}, {0, 0}},
				Moves: []service.MovePreview{
					{Direction: engine.Up},
					{Direction: engine.Left, Changed: true, Merges: 1, MaxTile: 4, EmptyCells: 3},
				},
			}, nil
		},
	}
	server := setupTestServer(mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/ab12/preview", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var preview service.PreviewResult
	parseResponse(t, w, &preview)
	if len(preview.Moves) != 2 || preview.Moves[1].Merges != 1 {
		t.Errorf("Unexpected preview: %+v", preview)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions/ab12/preview", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405 for POST, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/gone/preview", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestGetHistory(t *testing.T) {
	tests := []struct {
		name          string
		query         string
		expectedPage  int
		expectedLimit int
		expectedOrder string
	}{
		{"Defaults", "", 1, 20, "desc"},
		{"Explicit", "?page=3&limit=5&order=asc", 3, 5, "asc"},
		{"Invalid values fall back", "?page=-1&limit=abc&order=sideways", 1, 20, "desc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got service.HistoryOptions
			mockService := &MockGameService{
				GetMoveHistoryFunc: func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
					got = opts
					return &service.HistoryResponse{Page: opts.Page, PageSize: opts.Limit}, nil
				},
			}
			server := setupTestServer(mockService)

			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("GET", "/api/sessions/ab12/history"+tt.query, nil))

			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}
			if got.Page != tt.expectedPage || got.Limit != tt.expectedLimit || got.Order != tt.expectedOrder {
				t.Errorf("Expected %d/%d/%s, got %+v", tt.expectedPage, tt.expectedLimit, tt.expectedOrder, got)
			}
		})
	}
}

func TestGetGameState(t *testing.T) {
	mockService := &MockGameService{
		GetGameStateFunc: func(ctx context.Context, sessionID string) (*engine.GameState, error) {
			return &engine.GameState{
				Board:         engine.Board{{2, 2}, {0, 0}},
				GridSize:      2,
				PossibleMoves: []engine.Direction{engine.Left, engine.Right, engine.Down},
				MaxTile:       2,
			}, nil
		},
	}
	server := setupTestServer(mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/ab12/state", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var state engine.GameState
	parseResponse(t, w, &state)
	if state.GridSize != 2 || len(state.PossibleMoves) != 3 {
		t.Errorf("Unexpected state: %+v", state)
	}
}

// Configuration Tests

func TestListConfigs(t *testing.T) {
	mockService := &MockGameService{}
	server := setupTestServer(mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/configs", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("Expected empty JSON array, got %s", w.Body.String())
	}

	mockService.ListConfigsFunc = func(ctx context.Context) ([]*service.ConfigInfo, error) {
		return []*service.ConfigInfo{{Filename: "classic.json", ConfigID: "classic", GridSize: 4}}, nil
	}
	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/configs", nil))

	var configs []*service.ConfigInfo
	parseResponse(t, w, &configs)
	if len(configs) != 1 || configs[0].ConfigID != "classic" {
		t.Errorf("Unexpected configs: %+v", configs)
	}
}

func TestGetConfig(t *testing.T) {
	var requested string
	mockService := &MockGameService{
		LoadConfigFunc: func(ctx context.Context, configName string) (*engine.GameConfig, error) {
			requested = configName
			if configName == "missing" {
				return nil, fmt.Errorf("config %s: %w", configName, service.ErrConfigNotFound)
			}
			return &engine.GameConfig{Name: configName, GridSize: 6}, nil
		},
	}
	server := setupTestServer(mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/configs/big.json", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if requested != "big" {
		t.Errorf("Expected .json suffix trimmed, got %q", requested)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/configs/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestCreateConfig(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		saveErr        error
		expectedStatus int
	}{
		{
			name:           "Valid config",
			body:           engine.GameConfig{Name: "wide", GridSize: 5, InitialTiles: 2, SpawnsPerMove: 1},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Missing name",
			body:           engine.GameConfig{GridSize: 4},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Rejected by validation",
			body:           engine.GameConfig{Name: "huge", GridSize: 99},
			saveErr:        fmt.Errorf("huge: %w", service.ErrInvalidConfig),
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{
				SaveConfigFunc: func(ctx context.Context, configName string, config *engine.GameConfig) error {
					return tt.saveErr
				},
			}
			server := setupTestServer(mockService)

			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("POST", "/api/configs", tt.body))
			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestUnifiedSessions(t *testing.T) {
	all := []*service.SessionInfo{
		{ID: "aaaa", ConfigName: "classic", GameState: &engine.GameState{MaxTile: 16}},
		{ID: "bbbb", ConfigName: "big", GameState: &engine.GameState{MaxTile: 64}},
		{ID: "cccc", ConfigName: "classic", GameState: &engine.GameState{MaxTile: 128}},
	}
	mockService := &MockGameService{
		ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
			return all, nil
		},
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			for _, s := range all {
				if s.ID == sessionID {
					return s, nil
				}
			}
			return nil, notFound(sessionID)
		},
	}
	server := setupTestServer(mockService)

	tests := []struct {
		name        string
		query       string
		expectedIDs []string
		bestTile    int
	}{
		{"All ranked by max tile", "", []string{"cccc", "bbbb", "aaaa"}, 128},
		{"Filter by config", "?configName=classic", []string{"cccc", "aaaa"}, 128},
		{"Explicit IDs skip unknown", "?sessionIds=aaaa,%20zzzz,bbbb", []string{"bbbb", "aaaa"}, 64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("GET", "/api/sessions/unified"+tt.query, nil))
			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}

			var resp struct {
				BestTile int `json:"best_tile"`
				Sessions []struct {
					SessionID string `json:"session_id"`
				} `json:"sessions"`
			}
			parseResponse(t, w, &resp)

			if resp.BestTile != tt.bestTile {
				t.Errorf("Expected best tile %d, got %d", tt.bestTile, resp.BestTile)
			}
			if len(resp.Sessions) != len(tt.expectedIDs) {
				t.Fatalf("Expected %d sessions, got %d", len(tt.expectedIDs), len(resp.Sessions))
			}
			for i, id := range tt.expectedIDs {
				if resp.Sessions[i].SessionID != id {
					t.Errorf("Position %d: expected %s, got %s", i, id, resp.Sessions[i].SessionID)
				}
			}
		})
	}
}

func TestHealthAndMetrics(t *testing.T) {
	server := setupTestServer(&MockGameService{})

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 from /health, got %d", w.Code)
	}

	// Generate one request so the HTTP metrics have a sample
	server.ServeHTTP(httptest.NewRecorder(), makeRequest("GET", "/api/sessions", nil))

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 from /metrics, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "tiles_http_requests_total") {
		t.Error("Expected tiles_http_requests_total in metrics output")
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{notFound("x"), http.StatusNotFound},
		{fmt.Errorf("c: %w", service.ErrConfigNotFound), http.StatusNotFound},
		{fmt.Errorf("c: %w", service.ErrInvalidConfig), http.StatusBadRequest},
		{fmt.Errorf("d: %w", engine.ErrInvalidDirection), http.StatusBadRequest},
		{fmt.Errorf("other"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestPositiveInt(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", 7},
		{"?n=3", 3},
		{"?n=0", 7},
		{"?n=-2", 7},
		{"?n=abc", 7},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/x"+tt.query, nil)
		if got := positiveInt(r, "n", 7); got != tt.want {
			t.Errorf("positiveInt(%q) = %d, want %d", tt.query, got, tt.want)
		}
	}
}

func TestWebSocket(t *testing.T) {
	tests := []struct {
		name           string
		queryParams    string
		setupMock      func(*MockGameService)
		expectedStatus int
	}{
		{
			name:           "Missing session parameter",
			queryParams:    "",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "Invalid session",
			queryParams: "?session=invalid",
			setupMock: func(m *MockGameService) {
				m.GetSessionFunc = func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
					return nil, notFound(sessionID)
				}
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server := setupTestServer(mockService)
			w := httptest.NewRecorder()
			server.ServeHTTP(w, httptest.NewRequest("GET", "/ws"+tt.queryParams, nil))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

// newLiveService wires real managers to a hub the way main does
func newLiveService(t *testing.T, dir string) (service.GameService, *websocket.Hub) {
	t.Helper()
	configs, err := config.NewManager(dir)
	if err != nil {
		t.Fatalf("config manager: %v", err)
	}
	hub := websocket.NewHub()
	go hub.Run()
	return service.NewGameService(session.NewManager(), configs, service.WithStateListener(hub.Publish)), hub
}

// End-to-end: real managers, real HTTP server, websocket client receives
// the state pushed by a move.
func TestMoveBroadcastsOverWebSocket(t *testing.T) {
	gameService, hub := newLiveService(t, "../configs")

	ts := httptest.NewServer(NewServer(gameService, hub))
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/sessions", "application/json", strings.NewReader(`{"config_id":"classic"}`))
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", resp.StatusCode, body)
	}

	var info service.SessionInfo
	if err := json.Unmarshal(body, &info); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if engine.CountTiles(info.GameState.Board) != 2 {
		t.Fatalf("Expected 2 initial tiles, got board %v", info.GameState.Board)
	}

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?session=" + info.ID
	conn, _, err := gws.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(time.Second)
	for hub.ClientCount(info.ID) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	// Use the first direction the board allows so the move is not a no-op
	dir := info.GameState.PossibleMoves[0]
	resp, err = http.Post(ts.URL+"/api/sessions/"+info.ID+"/move", "application/json",
		strings.NewReader(fmt.Sprintf(`{"direction":%q}`, dir)))
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 from move, got %d", resp.StatusCode)
	}

	readFrame := func() websocket.Message {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read websocket: %v", err)
		}
		var msg websocket.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("decode websocket message: %v", err)
		}
		return msg
	}

	snapshot := readFrame()
	if snapshot.Event != websocket.EventSnapshot || snapshot.GameState == nil || snapshot.GameState.CurrentMovesCount != 0 {
		t.Errorf("Expected a snapshot of the fresh board first, got %+v", snapshot)
	}

	msg := readFrame()
	if msg.Event != websocket.EventStateUpdate {
		t.Errorf("Expected %s event, got %s", websocket.EventStateUpdate, msg.Event)
	}
	if msg.GameState == nil || msg.GameState.CurrentMovesCount != 1 {
		t.Errorf("Expected state after one move, got %+v", msg.GameState)
	}
}

func TestConcurrentMovesAndReads(t *testing.T) {
	gameService, hub := newLiveService(t, "../configs")
	server := NewServer(gameService, hub)
	ts := httptest.NewServer(server)
	defer ts.Close()

	info, err := gameService.CreateSession(context.Background(), "classic")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	conn, _, err := gws.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws?session="+info.ID, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	defer conn.Close()

	const workers, moves = 4, 50
	// a slow viewer is dropped once its buffer fills; the frames before
	// that are still delivered
	const watched = 28

	updates := make(chan int, workers*moves)
	go func() {
		defer close(updates)
		for {
			conn.SetReadDeadline(time.Now().Add(5 * time.Second))
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg websocket.Message
			if json.Unmarshal(data, &msg) == nil && msg.GameState != nil {
				updates <- msg.GameState.TotalMoves
			}
		}
	}()

	deadline := time.Now().Add(time.Second)
	for hub.ClientCount(info.ID) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < moves; i++ {
				dir := engine.Directions[(w+i)%len(engine.Directions)]
				rec := httptest.NewRecorder()
				server.ServeHTTP(rec, makeRequest("POST", "/api/sessions/"+info.ID+"/move", map[string]string{"direction": string(dir)}))
				if rec.Code != http.StatusOK {
					t.Errorf("move: status %d: %s", rec.Code, rec.Body)
					return
				}

				rec = httptest.NewRecorder()
				server.ServeHTTP(rec, makeRequest("GET", "/api/sessions/"+info.ID, nil))
				if rec.Code != http.StatusOK {
					t.Errorf("get session: status %d", rec.Code)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	state, err := gameService.GetGameState(context.Background(), info.ID)
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if state.TotalMoves != workers*moves {
		t.Errorf("Expected %d moves recorded, got %d", workers*moves, state.TotalMoves)
	}

	// snapshot first, then updates in the order the moves were played
	last := -1
	for i := 0; i <= watched; i++ {
		total, ok := <-updates
		if !ok {
			t.Fatalf("viewer closed after %d frames", i)
		}
		if total <= last {
			t.Fatalf("frame %d has TotalMoves %d after %d", i, total, last)
		}
		last = total
	}
}

func TestReloadConfigs(t *testing.T) {
	tests := []struct {
		name           string
		reload         func(ctx context.Context) ([]*service.ConfigInfo, error)
		expectedStatus int
		expectedCount  int
	}{
		{
			name: "Lists configs after reload",
			reload: func(ctx context.Context) ([]*service.ConfigInfo, error) {
				return []*service.ConfigInfo{{ConfigID: "classic"}, {ConfigID: "big"}}, nil
			},
			expectedStatus: http.StatusOK,
			expectedCount:  2,
		},
		{
			name:           "Empty directory",
			reload:         func(ctx context.Context) ([]*service.ConfigInfo, error) { return nil, nil },
			expectedStatus: http.StatusOK,
		},
		{
			name: "Unreadable directory",
			reload: func(ctx context.Context) ([]*service.ConfigInfo, error) {
				return nil, fmt.Errorf("read config directory: boom")
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := setupTestServer(&MockGameService{ReloadFunc: tt.reload})
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("POST", "/api/configs/reload", nil))

			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.expectedStatus != http.StatusOK {
				return
			}
			var list []service.ConfigInfo
			parseResponse(t, w, &list)
			if len(list) != tt.expectedCount {
				t.Errorf("Expected %d configs, got %d", tt.expectedCount, len(list))
			}
		})
	}
}

func TestReloadConfigsPicksUpEdits(t *testing.T) {
	dir := t.TempDir()
	cfg := engine.DefaultConfig()
	data, _ := json.Marshal(cfg)
	if err := os.WriteFile(filepath.Join(dir, "classic.json"), data, 0o644); err != nil {
		t.Fatal(err)
	}
	gameService, hub := newLiveService(t, dir)
	server := NewServer(gameService, hub)

	// cache classic, then change it behind the manager's back
	if _, err := gameService.LoadConfig(context.Background(), "classic"); err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg.Description = "Edited on disk"
	data, _ = json.Marshal(cfg)
	os.WriteFile(filepath.Join(dir, "classic.json"), data, 0o644)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/configs/reload", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var list []service.ConfigInfo
	parseResponse(t, w, &list)
	if len(list) != 1 || list[0].Description != "Edited on disk" {
		t.Errorf("Expected the edited config, got %+v", list)
	}
}

func TestCreateConfigRejectsBadMovedMessage(t *testing.T) {
	gameService, hub := newLiveService(t, t.TempDir())
	server := NewServer(gameService, hub)

	cfg := engine.DefaultConfig()
	cfg.Name = "twice"
	cfg.Messages.Moved = "%s %s"

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/configs", cfg))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d: %s", w.Code, w.Body)
	}
	if !strings.Contains(w.Body.String(), "exactly one %s") {
		t.Errorf("Expected the moved message error, got %s", w.Body)
	}
	if _, err := gameService.LoadConfig(context.Background(), "twice"); err == nil {
		t.Error("rejected config should not be saved")
	}
}
