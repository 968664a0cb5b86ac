package agent

import (
	"net/http"

	"github.com/saulo-duarte/course-progress-agent/internal/config"
)

type Handler struct {
	engine *Engine
}

func NewHandler(e *Engine) *Handler {
	return &Handler{engine: e}
}

func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	config.JSON(w, http.StatusOK, h.engine.Snapshot())
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.Snapshot()
	status := http.StatusOK
	if snap.Phase == PhaseStopped {
		status = http.StatusServiceUnavailable
	}
	config.JSON(w, status, map[string]string{"status": string(snap.Phase)})
}
