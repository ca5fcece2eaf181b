package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/wricardo/tiles/game/engine"
	"github.com/wricardo/tiles/game/service"
)

type configSaved struct {
	Message  string `json:"message"`
	ConfigID string `json:"config_id"`
}

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.service.ListConfigs(r.Context())
	if configs == nil {
		configs = []*service.ConfigInfo{}
	}
	reply(w, http.StatusOK, configs, err)
}

// handleReloadConfigs rereads the config directory and lists what it holds
// now. Running sessions keep their config.
func (s *Server) handleReloadConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.service.ReloadConfigs(r.Context())
	if configs == nil {
		configs = []*service.ConfigInfo{}
	}
	reply(w, http.StatusOK, configs, err)
}

// handleGetConfig accepts the config ID with or without ".json"
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(mux.Vars(r)["name"], ".json")
	cfg, err := s.service.LoadConfig(r.Context(), id)
	reply(w, http.StatusOK, cfg, err)
}

// handleCreateConfig stores the posted config under its name; invalid
// configs are rejected with 400.
func (s *Server) handleCreateConfig(w http.ResponseWriter, r *http.Request) {
	var cfg engine.GameConfig
	if !decodeBody(w, r, &cfg) {
		return
	}
	if cfg.Name == "" {
		writeError(w, http.StatusBadRequest, "Config name is required")
		return
	}

	if err := s.service.SaveConfig(r.Context(), cfg.Name, &cfg); err != nil {
		writeError(w, statusFor(err), fmt.Sprintf("Failed to save config: %v", err))
		return
	}
	writeJSON(w, http.StatusCreated, configSaved{Message: "Configuration saved successfully", ConfigID: cfg.Name})
}
