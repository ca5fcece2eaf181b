package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wricardo/tiles/game/engine"
	"github.com/wricardo/tiles/game/service"
	"github.com/wricardo/tiles/observability"
	"github.com/wricardo/tiles/transport/websocket"
)

// Server is the HTTP front of a GameService. A nil hub disables /ws. The
// hub only receives updates if it is also the service's state listener.
type Server struct {
	service service.GameService
	hub     *websocket.Hub
	router  *mux.Router
}

func NewServer(gameService service.GameService, hub *websocket.Hub) *Server {
	s := &Server{service: gameService, hub: hub, router: mux.NewRouter()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(observability.MetricsMiddleware)

	api := s.router.PathPrefix("/api").Subrouter()
	for _, rt := range []struct {
		method, path string
		handler      http.HandlerFunc
	}{
		{http.MethodPost, "/sessions", s.handleCreateSession},
		{http.MethodGet, "/sessions", s.handleListSessions},
		// before {id}, or "unified" would be taken for a session ID
		{http.MethodGet, "/sessions/unified", s.handleUnifiedSessions},
		{http.MethodGet, "/sessions/{id}", s.handleGetSession},
		{http.MethodDelete, "/sessions/{id}", s.handleDeleteSession},
		{http.MethodGet, "/sessions/{id}/state", s.handleGetGameState},
		{http.MethodPost, "/sessions/{id}/move", s.handleMove},
		{http.MethodPost, "/sessions/{id}/bulk-move", s.handleBulkMove},
		{http.MethodGet, "/sessions/{id}/preview", s.handlePreview},
		{http.MethodPost, "/sessions/{id}/reset", s.handleReset},
		{http.MethodGet, "/sessions/{id}/history", s.handleGetHistory},
		{http.MethodGet, "/configs", s.handleListConfigs},
		{http.MethodPost, "/configs", s.handleCreateConfig},
		{http.MethodPost, "/configs/reload", s.handleReloadConfigs},
		{http.MethodGet, "/configs/{name}", s.handleGetConfig},
	} {
		api.HandleFunc(rt.path, rt.handler).Methods(rt.method)
	}

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("[HTTP] encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message, Code: status})
}

// reply writes body with status, or the error mapped through statusFor.
func reply(w http.ResponseWriter, status int, body interface{}, err error) {
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, status, body)
}

// statusFor maps service and engine errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, service.ErrConfigNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrInvalidDirection), errors.Is(err, service.ErrInvalidConfig):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody reads a JSON body into v, answering 400 itself on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// positiveInt returns the query value as a positive int, or def.
func positiveInt(r *http.Request, key string, def int) int {
	if n, err := strconv.Atoi(r.URL.Query().Get(key)); err == nil && n > 0 {
		return n
	}
	return def
}

func sessionID(r *http.Request) string {
	return mux.Vars(r)["id"]
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleWebSocket attaches a viewer to ?session=, starting it with the
// current state.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.Error(w, "websocket hub not configured", http.StatusServiceUnavailable)
		return
	}

	id := r.URL.Query().Get("session")
	if id == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	if _, err := s.service.GetSession(r.Context(), id); err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, id, func(join func(*engine.GameState)) error {
		return s.service.Watch(r.Context(), id, join)
	})
}
