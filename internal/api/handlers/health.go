package handlers

import (
	"net/http"
	"time"
)

// defaultModels are the model sizes understood by the local engines.
var defaultModels = []string{"tiny", "base", "small", "medium", "large-v3"}

type HealthHandler struct {
	engines EngineCatalog
	started time.Time
}

func NewHealthHandler(engines EngineCatalog) *HealthHandler {
	return &HealthHandler{engines: engines, started: time.Now()}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, map[string]any{
		"status": "ok",
		"uptime": time.Since(h.started).Round(time.Second).String(),
	}, http.StatusOK)
}

// Engines lists the configured speech engines and the selectable models.
func (h *HealthHandler) Engines(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, map[string]any{
		"default": h.engines.DefaultEngine(),
		"engines": h.engines.EngineNames(),
		"models":  defaultModels,
	}, http.StatusOK)
}
