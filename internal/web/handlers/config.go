package handlers

import (
	"net/http"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/config"
)

// ConfigHandler handles configuration endpoints
type ConfigHandler struct {
	config *config.Config
	engine Engine
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(cfg *config.Config, engine Engine) *ConfigHandler {
	return &ConfigHandler{
		config: cfg,
		engine: engine,
	}
}

// ConfigResponse represents the configuration response
type ConfigResponse struct {
	Backend  string              `json:"backend"`
	Model    string              `json:"model"`
	Matching attendance.Settings `json:"matching"`
}

// Get returns the effective matching configuration
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, ConfigResponse{
		Backend:  h.config.Storage.Backend,
		Model:    h.config.Embedding.Model,
		Matching: h.engine.Settings(),
	})
}
