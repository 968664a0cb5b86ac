package syncer

import (
	"errors"
	"net/http"

	"github.com/saulo-duarte/course-progress-agent/internal/auth"
	"github.com/saulo-duarte/course-progress-agent/internal/config"
	"github.com/saulo-duarte/course-progress-agent/internal/validation"
)

type Handler struct {
	service SyncService
}

func NewHandler(s SyncService) *Handler {
	return &Handler{service: s}
}

// GetProgress serves the cached view. With ?refresh=true the progress record is
// fetched from the course service first.
func (h *Handler) GetProgress(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("refresh") == "true" {
		if err := h.service.Refresh(r.Context()); err != nil {
			if errors.Is(err, auth.ErrIdentityMissing) {
				config.Error(w, http.StatusUnauthorized, "identity not set")
				return
			}
			config.JSON(w, http.StatusBadGateway, map[string]any{
				"error":    "progress refresh failed",
				"progress": ToProgressView(h.service.State().Snapshot()),
			})
			return
		}
	}
	config.JSON(w, http.StatusOK, ToProgressView(h.service.State().Snapshot()))
}

func (h *Handler) ServerViewedPages(w http.ResponseWriter, r *http.Request) {
	pages, err := h.service.ServerViewedPages(r.Context())
	switch {
	case err == nil:
		config.JSON(w, http.StatusOK, map[string]any{"viewed_pages": pages})
	case errors.Is(err, auth.ErrIdentityMissing):
		config.Error(w, http.StatusUnauthorized, "identity not set")
	default:
		config.Error(w, http.StatusBadGateway, "could not load viewed pages")
	}
}

func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	err := h.service.Reconcile(r.Context())
	switch {
	case err == nil:
		config.JSON(w, http.StatusOK, ToProgressView(h.service.State().Snapshot()))
	case errors.Is(err, auth.ErrIdentityMissing):
		config.Error(w, http.StatusUnauthorized, "identity not set")
	default:
		log.WithError(err).Warn("Manual reconcile failed")
		config.JSON(w, http.StatusBadGateway, map[string]any{
			"error":    "reconcile failed",
			"progress": ToProgressView(h.service.State().Snapshot()),
		})
	}
}

func (h *Handler) RecordBotInteraction(w http.ResponseWriter, r *http.Request) {
	var in BotInteractionInput
	if !validation.Decode(w, r, &in) {
		return
	}

	if err := h.service.RecordBotInteraction(r.Context(), in); err != nil {
		if errors.Is(err, auth.ErrUnauthenticated) {
			config.Error(w, http.StatusUnauthorized, "identity not set")
			return
		}
		config.WithContext(r.Context()).WithError(err).Error("Failed to record bot interaction")
		config.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	config.JSON(w, http.StatusAccepted, map[string]string{
		"message": "bot interaction recorded",
	})
}
