package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/wricardo/tiles/game/service"
)

type sessionList struct {
	Count    int                    `json:"count"`
	Total    int                    `json:"total"`
	Sessions []*service.SessionInfo `json:"sessions"`
	Sort     string                 `json:"sort"`
	Order    string                 `json:"order"`
}

// rankedSession is one row of the unified view
type rankedSession struct {
	*service.SessionInfo
	SessionID    string    `json:"session_id"`
	MaxTile      int       `json:"max_tile"`
	NoMovesLeft  bool      `json:"no_moves_left"`
	LastAccessed time.Time `json:"last_accessed"`
}

type unifiedView struct {
	ConfigName string          `json:"config_name"`
	BestTile   int             `json:"best_tile"`
	Sessions   []rankedSession `json:"sessions"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConfigID   string `json:"config_id,omitempty"`
		ConfigName string `json:"config_name,omitempty"` // older clients
	}
	// An empty body selects the default configuration
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ConfigID == "" {
		req.ConfigID = req.ConfigName
	}

	info, err := s.service.CreateSession(r.Context(), req.ConfigID)
	if err == nil {
		log.Printf("[SESSION] created id=%s config=%s", info.ID, info.ConfigName)
	}
	reply(w, http.StatusCreated, info, err)
}

// handleListSessions supports ?sort=created|accessed, ?order=asc|desc and ?limit=N.
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		reply(w, 0, nil, err)
		return
	}

	q := r.URL.Query()
	list := sessionList{Total: len(sessions), Sort: "accessed", Order: "desc"}
	if q.Get("sort") == "created" {
		list.Sort = "created"
	}
	if q.Get("order") == "asc" {
		list.Order = "asc"
	}

	sortSessions(sessions, list.Sort, list.Order == "asc")
	if limit := positiveInt(r, "limit", 0); limit > 0 && limit < len(sessions) {
		sessions = sessions[:limit]
	}
	list.Sessions = sessions
	list.Count = len(sessions)

	writeJSON(w, http.StatusOK, list)
}

func sortSessions(sessions []*service.SessionInfo, by string, ascending bool) {
	key := func(i int) time.Time { return sessions[i].LastAccessedAt }
	if by == "created" {
		key = func(i int) time.Time { return sessions[i].CreatedAt }
	}
	sort.Slice(sessions, func(i, j int) bool {
		if ascending {
			return key(i).Before(key(j))
		}
		return key(i).After(key(j))
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.GetSession(r.Context(), sessionID(r))
	reply(w, http.StatusOK, info, err)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	err := s.service.DeleteSession(r.Context(), id)
	reply(w, http.StatusOK, messageResponse{Message: fmt.Sprintf("Session %s deleted", id)}, err)
}

// handleUnifiedSessions ranks sessions by max tile. ?sessionIds=a,b picks
// sessions (unknown IDs are skipped), ?configName=classic filters by config.
func (s *Server) handleUnifiedSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.selectSessions(r)
	if err != nil {
		reply(w, 0, nil, err)
		return
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].GameState.MaxTile > sessions[j].GameState.MaxTile
	})

	view := unifiedView{Sessions: make([]rankedSession, 0, len(sessions))}
	for _, info := range sessions {
		view.Sessions = append(view.Sessions, rankedSession{
			SessionInfo:  info,
			SessionID:    info.ID,
			MaxTile:      info.GameState.MaxTile,
			NoMovesLeft:  info.GameState.NoMovesLeft,
			LastAccessed: info.LastAccessedAt,
		})
	}
	if len(sessions) > 0 {
		view.ConfigName = sessions[0].ConfigName
		view.BestTile = sessions[0].GameState.MaxTile
	}

	writeJSON(w, http.StatusOK, view)
}

func (s *Server) selectSessions(r *http.Request) ([]*service.SessionInfo, error) {
	q := r.URL.Query()

	if ids := q.Get("sessionIds"); ids != "" {
		var picked []*service.SessionInfo
		for _, id := range strings.Split(ids, ",") {
			if id = strings.TrimSpace(id); id == "" {
				continue
			}
			if info, err := s.service.GetSession(r.Context(), id); err == nil {
				picked = append(picked, info)
			}
		}
		return picked, nil
	}

	all, err := s.service.ListSessions(r.Context())
	if err != nil {
		return nil, err
	}
	configName := q.Get("configName")
	if configName == "" {
		return all, nil
	}
	var matched []*service.SessionInfo
	for _, info := range all {
		if info.ConfigName == configName {
			matched = append(matched, info)
		}
	}
	return matched, nil
}
