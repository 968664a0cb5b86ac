package pageview

import (
	"errors"
	"net/http"

	"github.com/saulo-duarte/course-progress-agent/internal/config"
	"github.com/saulo-duarte/course-progress-agent/internal/validation"
)

type Handler struct {
	tracker Tracker
}

func NewHandler(t Tracker) *Handler {
	return &Handler{tracker: t}
}

func (h *Handler) Enter(w http.ResponseWriter, r *http.Request) {
	var req EntryRequest
	if !validation.Decode(w, r, &req) {
		return
	}
	config.JSON(w, http.StatusCreated, h.tracker.RecordEntry(r.Context(), req.URL, req.Title))
}

func (h *Handler) Exit(w http.ResponseWriter, r *http.Request) {
	var req ExitRequest
	if !validation.Decode(w, r, &req) {
		return
	}

	elapsed, err := h.tracker.RecordExit(r.Context(), req.VisitID)
	if errors.Is(err, ErrUnknownVisit) {
		config.Error(w, http.StatusNotFound, "visit not found")
		return
	}
	config.JSON(w, http.StatusAccepted, map[string]int{
		"time_spent": elapsed,
	})
}
